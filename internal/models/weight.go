package models

import (
	"fmt"
	"time"
)

// WeightRecord is one body-weight measurement in kilograms. Records live in a
// per-user append-only sequence kept in recording order, not date order.
type WeightRecord struct {
	Weight float64
	Date   time.Time
}

// String renders the record the way the weight log displays it.
func (r WeightRecord) String() string {
	return fmt.Sprintf("Date: %s | Weight: %.1f kg", r.Date.Format("02/01/06"), r.Weight)
}
