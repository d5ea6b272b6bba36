package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidFrequency is returned for an unknown accrual frequency.
var ErrInvalidFrequency = errors.New("invalid frequency")

// Frequency is the accrual cadence of a general expense.
type Frequency string

// Accrual frequencies.
const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyOneTime   Frequency = "one-time"
)

// ParseFrequency parses a frequency name. Empty means monthly.
func ParseFrequency(s string) (Frequency, error) {
	switch foldKey(s) {
	case "", "monthly":
		return FrequencyMonthly, nil
	case "quarterly":
		return FrequencyQuarterly, nil
	case "yearly", "annual", "annually":
		return FrequencyYearly, nil
	case "onetime", "once":
		return FrequencyOneTime, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// Team tags an overhead position.
type Team string

// Teams.
const (
	TeamService    Team = "service"
	TeamProduct    Team = "product"
	TeamManagement Team = "management"
)

// ParseTeam parses a team tag. Empty is allowed and stays empty.
func ParseTeam(s string) (Team, error) {
	switch foldKey(s) {
	case "":
		return "", nil
	case "service":
		return TeamService, nil
	case "product":
		return TeamProduct, nil
	case "management":
		return TeamManagement, nil
	}
	return "", fmt.Errorf("unknown team %q", s)
}

// ExpenseRecord is an overhead position or a general expense. Overhead
// records carry a Team and always accrue monthly; general expenses carry a
// Frequency. A zero EndDate means open-ended.
type ExpenseRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    Money     `json:"amount"`
	IsActive  bool      `json:"is_active"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Frequency Frequency `json:"frequency,omitempty"`
	Team      Team      `json:"team,omitempty"`
}

// RevenueStream is a planned revenue line, independent of projects.
type RevenueStream struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}
