package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

// VisibleInMonth reports whether p starts or completes in m.
func VisibleInMonth(p model.Project, m model.Month) bool {
	return m.Contains(p.ExpectedStart) || m.Contains(p.ExpectedCompletion)
}

// ProjectsInMonth returns the projects visible in m, in input order.
func ProjectsInMonth(projects []model.Project, m model.Month) []model.Project {
	var out []model.Project
	for _, p := range projects {
		if VisibleInMonth(p, m) {
			out = append(out, p)
		}
	}
	return out
}

// DepositsPaid returns the deposits received on p so far, in base currency.
// The payment history is authoritative; the cached DepositPaid is only used
// for projects without one.
func (e *Engine) DepositsPaid(p model.Project) (decimal.Decimal, error) {
	if !p.HasPaymentHistory() {
		v, err := e.base(p.DepositPaid)
		if err != nil {
			return decimal.Zero, projectErr(p, err)
		}
		return v, nil
	}
	total := decimal.Zero
	for _, pay := range p.Payments {
		if pay.Type != model.PaymentDeposit {
			continue
		}
		v, err := e.base(pay.Amount)
		if err != nil {
			return decimal.Zero, projectErr(p, err)
		}
		total = total.Add(v)
	}
	return total, nil
}

// RemainingBalance returns max(0, total - deposits paid) for p.
func (e *Engine) RemainingBalance(p model.Project) (decimal.Decimal, error) {
	total, err := e.base(p.TotalAmount)
	if err != nil {
		return decimal.Zero, projectErr(p, err)
	}
	paid, err := e.DepositsPaid(p)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Max(decimal.Zero, total.Sub(paid)), nil
}

// DepositsReceivedInMonth sums deposit payments dated inside m across all
// projects. A project without payment history contributes its cached
// deposit when DepositDate falls in m.
func (e *Engine) DepositsReceivedInMonth(projects []model.Project, m model.Month) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range projects {
		if !p.HasPaymentHistory() {
			if p.DepositPaid.IsZero() || !m.Contains(p.DepositDate) {
				continue
			}
			v, err := e.base(p.DepositPaid)
			if err != nil {
				return decimal.Zero, projectErr(p, err)
			}
			total = total.Add(v)
			continue
		}
		for _, pay := range p.Payments {
			if pay.Type != model.PaymentDeposit || !m.Contains(pay.Date) {
				continue
			}
			v, err := e.base(pay.Amount)
			if err != nil {
				return decimal.Zero, projectErr(p, err)
			}
			total = total.Add(v)
		}
	}
	return total, nil
}

// PaymentsDueInMonth sums the remaining balance of every non-cancelled
// project whose expected completion falls in m.
func (e *Engine) PaymentsDueInMonth(projects []model.Project, m model.Month) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range projects {
		if p.IsCancelled() || !m.Contains(p.ExpectedCompletion) {
			continue
		}
		v, err := e.RemainingBalance(p)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}

// RealizedCashRevenue is the cash-basis revenue of m: deposits received in
// m plus balances due in m.
func (e *Engine) RealizedCashRevenue(projects []model.Project, m model.Month) (decimal.Decimal, error) {
	deposits, err := e.DepositsReceivedInMonth(projects, m)
	if err != nil {
		return decimal.Zero, err
	}
	due, err := e.PaymentsDueInMonth(projects, m)
	if err != nil {
		return decimal.Zero, err
	}
	return deposits.Add(due), nil
}

func projectErr(p model.Project, err error) error {
	return fmt.Errorf("project %s (%s): %w", p.ID, p.Label(), err)
}
