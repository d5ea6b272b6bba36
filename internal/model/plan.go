package model

import "time"

// MonthlyPlan is the per-month planning record. One exists per (owner,
// month); it is upserted and soft-deleted through IsActive.
type MonthlyPlan struct {
	ID              string          `json:"id"`
	Owner           string          `json:"owner"`
	Month           Month           `json:"month"`
	RevenueStreams  []RevenueStream `json:"revenue_streams,omitempty"`
	Overhead        []ExpenseRecord `json:"overhead,omitempty"`
	GeneralExpenses []ExpenseRecord `json:"general_expenses,omitempty"`
	Target          Money           `json:"target"`
	BreakEvenTarget Money           `json:"break_even_target"`
	IsActive        bool            `json:"is_active"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Settings is the owner-wide configuration used for months without a plan.
// MonthlyTargets is keyed by Month.String().
type Settings struct {
	Owner           string           `json:"owner"`
	BaseCurrency    string           `json:"base_currency"`
	Overhead        []ExpenseRecord  `json:"overhead,omitempty"`
	GeneralExpenses []ExpenseRecord  `json:"general_expenses,omitempty"`
	BreakEvenTarget Money            `json:"break_even_target"`
	MonthlyTargets  map[string]Money `json:"monthly_targets,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TargetFor returns the configured target for m, if any.
func (s Settings) TargetFor(m Month) (Money, bool) {
	t, ok := s.MonthlyTargets[m.String()]
	return t, ok
}
