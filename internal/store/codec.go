package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

func moneyArgs(m model.Money) (string, string, string) {
	inBase := ""
	if m.InBase.Valid {
		inBase = m.InBase.Decimal.String()
	}
	return m.Amount.String(), m.Currency, inBase
}

func parseMoney(amount, currency, inBase string) (model.Money, error) {
	m := model.Money{Currency: currency}
	if amount == "" {
		amount = "0"
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return m, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	m.Amount = v
	if inBase != "" {
		b, err := decimal.NewFromString(inBase)
		if err != nil {
			return m, fmt.Errorf("bad base amount %q: %w", inBase, err)
		}
		m.InBase = decimal.NewNullDecimal(b)
	}
	return m, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads a formatTime cell. Empty is the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
