package domain

import (
	"fmt"
	"time"
)

// Month is a calendar-month bucket with explicit year/month fields.
// Month arithmetic works on the total-month index, so offsets between
// buckets are exact integers regardless of day-of-month or timezone.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf truncates a timestamp to its UTC calendar month.
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// ParseMonth parses a "YYYY-MM" label.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Index returns the total-month index (year*12 + zero-based month).
func (m Month) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

// Sub returns the number of whole months from other to m.
// Positive when m is later than other.
func (m Month) Sub(other Month) int {
	return m.Index() - other.Index()
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	idx := m.Index() + n
	year := idx / 12
	mon := idx%12 + 1
	if mon <= 0 {
		mon += 12
		year--
	}
	return Month{Year: year, Month: time.Month(mon)}
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	return m.Index() < other.Index()
}

// IsZero reports whether m is the zero value.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Time returns midnight UTC on the first day of the month.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
