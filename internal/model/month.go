package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMonthFormat is returned when a month key cannot be parsed.
var ErrInvalidMonthFormat = errors.New("invalid month format")

var monthLayouts = []string{
	"January 2006",
	"Jan 2006",
	"2006-01",
	"01/2006",
	"1/2006",
	"January, 2006",
}

// Month is a calendar month. The zero value means unset.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth returns the month for year y and month m.
func NewMonth(y int, m time.Month) Month {
	return Month{Year: y, Month: m}.normalize()
}

// MonthOf returns the calendar month containing t, in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// CurrentMonth returns the month containing now.
func CurrentMonth(now time.Time) Month {
	return MonthOf(now)
}

// ParseMonth parses a month key such as "June 2025", "Jun 2025" or "2025-06".
func ParseMonth(s string) (Month, error) {
	v := strings.Join(strings.Fields(s), " ")
	if v == "" {
		return Month{}, fmt.Errorf("%w: empty", ErrInvalidMonthFormat)
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonthFormat, s)
}

// String returns the human-readable month key, e.g. "June 2025".
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Key returns the sortable form "2025-06" used for storage.
func (m Month) Key() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Short returns "Jun 25" for compact tables and charts.
func (m Month) Short() string {
	return m.Start().Format("Jan 06")
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the month in UTC.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Contains reports whether t falls inside the month. Unset times never match.
func (m Month) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return MonthOf(t) == m
}

// AddMonths returns the month n months after m.
func (m Month) AddMonths(n int) Month {
	return Month{Year: m.Year, Month: m.Month + time.Month(n)}.normalize()
}

// Index returns the zero-based month index, January = 0.
func (m Month) Index() int { return int(m.Month) - 1 }

// Ordinal returns a monotonically increasing month number.
func (m Month) Ordinal() int { return m.Year*12 + m.Index() }

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool { return m.Ordinal() < o.Ordinal() }

// After reports whether m is strictly later than o.
func (m Month) After(o Month) bool { return m.Ordinal() > o.Ordinal() }

// MarshalText encodes the month as its human-readable key.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts any format ParseMonth accepts.
func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	v, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Month) normalize() Month {
	idx := m.Year*12 + int(m.Month) - 1
	y := idx / 12
	mo := idx % 12
	if mo < 0 {
		mo += 12
		y--
	}
	return Month{Year: y, Month: time.Month(mo + 1)}
}
