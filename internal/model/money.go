package model

import (
	"github.com/shopspring/decimal"
)

// Money is an amount in a tracked currency. InBase caches the same amount
// normalized to the base currency at write time; when valid it is used as-is.
type Money struct {
	Amount   decimal.Decimal     `json:"amount"`
	Currency string              `json:"currency,omitempty"`
	InBase   decimal.NullDecimal `json:"in_base"`
}

// NewMoney returns an amount without a cached base value.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// BaseMoney returns an amount already expressed in the base currency.
func BaseMoney(amount decimal.Decimal) Money {
	return Money{Amount: amount, InBase: decimal.NewNullDecimal(amount)}
}

// WithBase returns a copy of m with the cached base amount set.
func (m Money) WithBase(inBase decimal.Decimal) Money {
	m.InBase = decimal.NewNullDecimal(inBase)
	return m
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// HasBase reports whether a cached base amount is present.
func (m Money) HasBase() bool { return m.InBase.Valid }
