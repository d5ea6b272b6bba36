package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want Month
	}{
		{"June 2025", NewMonth(2025, time.June)},
		{"june 2025", NewMonth(2025, time.June)},
		{"Jun 2025", NewMonth(2025, time.June)},
		{"2025-06", NewMonth(2025, time.June)},
		{"06/2025", NewMonth(2025, time.June)},
		{"  December   2024 ", NewMonth(2024, time.December)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if err != nil {
				t.Fatalf("ParseMonth(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMonthInvalid(t *testing.T) {
	for _, in := range []string{"", "Smarch 2025", "2025", "13/2025", "2025-13"} {
		if _, err := ParseMonth(in); !errors.Is(err, ErrInvalidMonthFormat) {
			t.Errorf("ParseMonth(%q) err = %v, want ErrInvalidMonthFormat", in, err)
		}
	}
}

func TestMonthString(t *testing.T) {
	m := NewMonth(2025, time.June)
	if m.String() != "June 2025" {
		t.Errorf("String() = %q, want %q", m.String(), "June 2025")
	}
	if m.Key() != "2025-06" {
		t.Errorf("Key() = %q, want %q", m.Key(), "2025-06")
	}
}

func TestMonthAddMonths(t *testing.T) {
	m := NewMonth(2025, time.November)
	if got := m.AddMonths(2); got != NewMonth(2026, time.January) {
		t.Errorf("AddMonths(2) = %v, want January 2026", got)
	}
	if got := m.AddMonths(-11); got != NewMonth(2024, time.December) {
		t.Errorf("AddMonths(-11) = %v, want December 2024", got)
	}
	if got := m.AddMonths(24); got != NewMonth(2027, time.November) {
		t.Errorf("AddMonths(24) = %v, want November 2027", got)
	}
}

func TestMonthBoundaries(t *testing.T) {
	m := NewMonth(2024, time.February)
	first := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC)
	if !m.Contains(first) || !m.Contains(last) {
		t.Error("month should contain its first and last day")
	}
	if m.Contains(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("month should not contain the next month's first day")
	}
	if m.Contains(time.Time{}) {
		t.Error("zero time must never be contained")
	}
	if !m.End().Before(NewMonth(2024, time.March).Start()) {
		t.Error("End() should precede next month's Start()")
	}
}

func TestMonthIndex(t *testing.T) {
	if NewMonth(2025, time.January).Index() != 0 {
		t.Error("January index should be 0")
	}
	if NewMonth(2025, time.October).Index() != 9 {
		t.Error("October index should be 9")
	}
}

func TestMonthTextRoundTrip(t *testing.T) {
	m := NewMonth(2025, time.March)
	b, err := m.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var got Month
	if err := got.UnmarshalText(b); err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Errorf("round trip = %v, want %v", got, m)
	}
}

func TestParseFrequency(t *testing.T) {
	tests := map[string]Frequency{
		"":          FrequencyMonthly,
		"Monthly":   FrequencyMonthly,
		"quarterly": FrequencyQuarterly,
		"yearly":    FrequencyYearly,
		"annual":    FrequencyYearly,
		"one-time":  FrequencyOneTime,
		"one_time":  FrequencyOneTime,
	}
	for in, want := range tests {
		got, err := ParseFrequency(in)
		if err != nil || got != want {
			t.Errorf("ParseFrequency(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFrequency("fortnightly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("ParseFrequency(fortnightly) err = %v, want ErrInvalidFrequency", err)
	}
}

func TestParseProjectStatus(t *testing.T) {
	tests := map[string]ProjectStatus{
		"":            StatusPending,
		"in progress": StatusInProgress,
		"InProgress":  StatusInProgress,
		"on-hold":     StatusOnHold,
		"CANCELLED":   StatusCancelled,
		"canceled":    StatusCancelled,
	}
	for in, want := range tests {
		got, err := ParseProjectStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseProjectStatus(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseProjectStatus("archived"); err == nil {
		t.Error("expected error for unknown status")
	}
}
