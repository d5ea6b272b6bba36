// Package model defines the ledger records and forecast results for clickoflow.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ProjectStatus is the lifecycle state of a client project.
type ProjectStatus string

// Project statuses.
const (
	StatusPending    ProjectStatus = "Pending"
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
	StatusOnHold     ProjectStatus = "On Hold"
	StatusCancelled  ProjectStatus = "Cancelled"
)

// ProjectStatuses lists every status in display order.
var ProjectStatuses = []ProjectStatus{
	StatusPending, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled,
}

// ParseProjectStatus accepts the display name in any case, with or without
// separators ("in-progress", "InProgress"). Empty means Pending.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	key := foldKey(s)
	if key == "" {
		return StatusPending, nil
	}
	for _, st := range ProjectStatuses {
		if foldKey(string(st)) == key {
			return st, nil
		}
	}
	if key == "canceled" {
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

// PaymentType tags a payment event.
type PaymentType string

// Payment types.
const (
	PaymentDeposit   PaymentType = "deposit"
	PaymentMilestone PaymentType = "milestone"
	PaymentFinal     PaymentType = "final"
)

// ParsePaymentType parses a payment type. Empty means deposit.
func ParsePaymentType(s string) (PaymentType, error) {
	switch foldKey(s) {
	case "", "deposit":
		return PaymentDeposit, nil
	case "milestone":
		return PaymentMilestone, nil
	case "final":
		return PaymentFinal, nil
	}
	return "", fmt.Errorf("unknown payment type %q", s)
}

// Payment is one entry of a project's payment history.
type Payment struct {
	ID          string      `json:"id"`
	Amount      Money       `json:"amount"`
	Date        time.Time   `json:"date"`
	Type        PaymentType `json:"type"`
	Description string      `json:"description,omitempty"`
}

// Milestone is a contract deliverable with its own amount and due date.
type Milestone struct {
	Name      string    `json:"name"`
	Amount    Money     `json:"amount"`
	DueDate   time.Time `json:"due_date"`
	Completed bool      `json:"completed"`
}

// Project is a client engagement. Zero times mean the date is unset.
//
// DepositPaid and DepositDate are a denormalized cache of the payment
// history; they are only read when Payments is empty.
type Project struct {
	ID                 string        `json:"id"`
	Owner              string        `json:"owner"`
	ClientName         string        `json:"client_name"`
	Name               string        `json:"name,omitempty"`
	TotalAmount        Money         `json:"total_amount"`
	DepositPaid        Money         `json:"deposit_paid"`
	DepositDate        time.Time     `json:"deposit_date"`
	ExpectedStart      time.Time     `json:"expected_start"`
	ExpectedCompletion time.Time     `json:"expected_completion"`
	Status             ProjectStatus `json:"status"`
	Payments           []Payment     `json:"payments,omitempty"`
	Milestones         []Milestone   `json:"milestones,omitempty"`
}

// HasPaymentHistory reports whether structured payment events exist.
func (p Project) HasPaymentHistory() bool { return len(p.Payments) > 0 }

// IsCancelled reports whether the project was cancelled.
func (p Project) IsCancelled() bool { return p.Status == StatusCancelled }

// Label returns the project name, or the client name when unnamed.
func (p Project) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ClientName
}

func foldKey(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
