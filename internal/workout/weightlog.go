package workout

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/replog/internal/models"
)

// WeightStore is the slice of the persistence layer the weight log drives:
// full-replace save of the entire history.
type WeightStore interface {
	Save(records []models.WeightRecord) error
}

// WeightLog is one user's body-weight history for the session. Records keep
// recording order, not date order.
type WeightLog struct {
	store   WeightStore
	records []models.WeightRecord
}

// NewWeightLog wraps a loaded history. A user with no saved history starts
// with nil records.
func NewWeightLog(store WeightStore, records []models.WeightRecord) *WeightLog {
	return &WeightLog{store: store, records: records}
}

// Records returns the history in recording order.
func (l *WeightLog) Records() []models.WeightRecord { return l.records }

// Add appends a measurement and persists the full history. The weight must
// be positive; a missing date defaults to today. As everywhere else, a save
// failure is reported after the in-memory append stands.
func (l *WeightLog) Add(weight float64, dateStr string) (models.WeightRecord, error) {
	if weight <= 0 {
		return models.WeightRecord{}, errors.New("weight must be a positive number")
	}

	day := time.Now()
	if dateStr != "" {
		parsed, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
		if err != nil {
			return models.WeightRecord{}, fmt.Errorf("invalid date %q (want DD/MM/YY)", dateStr)
		}
		day = parsed
	}

	rec := models.WeightRecord{Weight: weight, Date: day}
	l.records = append(l.records, rec)

	if err := l.store.Save(l.records); err != nil {
		return rec, &SaveError{What: "weight history", Err: err}
	}
	return rec, nil
}
