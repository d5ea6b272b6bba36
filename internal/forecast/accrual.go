package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

// ActiveInMonth reports whether r is enabled and its date range overlaps m.
// A zero StartDate has no lower bound; a zero EndDate has no upper bound.
func ActiveInMonth(r model.ExpenseRecord, m model.Month) bool {
	if !r.IsActive {
		return false
	}
	if !r.StartDate.IsZero() && model.MonthOf(r.StartDate).After(m) {
		return false
	}
	if !r.EndDate.IsZero() && model.MonthOf(r.EndDate).Before(m) {
		return false
	}
	return true
}

// Accrues reports whether r accrues in m at the given frequency.
//
// Quarterly records accrue in calendar quarter months (January, April,
// July, October) whatever month they started in. A record inactive in m
// never accrues, so its frequency is not checked.
func Accrues(r model.ExpenseRecord, freq model.Frequency, m model.Month) (bool, error) {
	if !ActiveInMonth(r, m) {
		return false, nil
	}
	f, err := model.ParseFrequency(string(freq))
	if err != nil {
		return false, fmt.Errorf("expense %q: %w", r.Name, err)
	}
	switch f {
	case model.FrequencyMonthly:
		return true, nil
	case model.FrequencyQuarterly:
		return m.Index()%3 == 0, nil
	case model.FrequencyYearly:
		return m.Month == time.January, nil
	case model.FrequencyOneTime:
		return m.Contains(r.StartDate), nil
	}
	return false, fmt.Errorf("expense %q: %w: %q", r.Name, model.ErrInvalidFrequency, freq)
}

// AccruedAmountInMonth sums the records accruing in m at their own
// frequency, in base currency.
func (e *Engine) AccruedAmountInMonth(records []model.ExpenseRecord, m model.Month) (decimal.Decimal, error) {
	return e.accrue(records, m, func(r model.ExpenseRecord) model.Frequency { return r.Frequency })
}

// GeneralExpensesInMonth is AccruedAmountInMonth applied to general expenses.
func (e *Engine) GeneralExpensesInMonth(records []model.ExpenseRecord, m model.Month) (decimal.Decimal, error) {
	return e.AccruedAmountInMonth(records, m)
}

// OverheadInMonth sums overhead positions active in m; overhead always
// accrues monthly.
func (e *Engine) OverheadInMonth(records []model.ExpenseRecord, m model.Month) (decimal.Decimal, error) {
	return e.accrue(records, m, func(model.ExpenseRecord) model.Frequency { return model.FrequencyMonthly })
}

func (e *Engine) accrue(records []model.ExpenseRecord, m model.Month, freq func(model.ExpenseRecord) model.Frequency) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range records {
		ok, err := Accrues(r, freq(r), m)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			continue
		}
		v, err := e.base(r.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("expense %q: %w", r.Name, err)
		}
		total = total.Add(v)
	}
	return total, nil
}
