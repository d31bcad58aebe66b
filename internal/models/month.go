package models

import (
	"fmt"
	"time"
)

// Month is the persistence partition key: a (user, Month) pair addresses one
// workout collection on disk. A workout is filed under the month of its start
// timestamp at creation time and is never re-filed.
type Month struct {
	Year int
	Mon  time.Month
}

// MonthOf returns the partition a timestamp files under.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Mon: t.Month()}
}

// CurrentMonth returns the partition for the present wall-clock time.
func CurrentMonth() Month {
	return MonthOf(time.Now())
}

// String renders the month in its on-disk form, e.g. "2026-09".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

// ParseMonth parses the "2006-01" form produced by String.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parsing month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Contains reports whether a timestamp falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Mon
}
