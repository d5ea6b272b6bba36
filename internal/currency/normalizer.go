// Package currency converts tracked amounts to and from the base currency
// using an injected, refreshable rate table.
package currency

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

// ErrInvalidCurrency is returned for a code missing from the rate table or
// unknown to ISO 4217.
var ErrInvalidCurrency = errors.New("invalid currency")

// Rates is a complete exchange-rate table. Table[c] is the number of units
// of c per one unit of Base, so Table[Base] is 1.
type Rates struct {
	Base  string
	Table map[string]decimal.Decimal
}

// DefaultRates returns the table used when nothing is configured.
func DefaultRates() Rates {
	return Rates{
		Base: "AED",
		Table: map[string]decimal.Decimal{
			"AED": decimal.NewFromInt(1),
			"USD": decimal.RequireFromString("0.27"),
			"EUR": decimal.RequireFromString("0.25"),
		},
	}
}

// Validate checks that every code is a known ISO 4217 currency, every rate
// is positive and the base rate is exactly 1.
func (r Rates) Validate() error {
	base := normalizeCode(r.Base)
	if base == "" {
		return fmt.Errorf("%w: no base currency", ErrInvalidCurrency)
	}
	for code, rate := range r.Table {
		if money.GetCurrency(code) == nil {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("rate for %s must be positive, got %s", code, rate)
		}
	}
	rate, ok := r.Table[base]
	if !ok {
		return fmt.Errorf("%w: base %s missing from rate table", ErrInvalidCurrency, base)
	}
	if !rate.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("base %s rate must be 1, got %s", base, rate)
	}
	return nil
}

// Codes returns the table's currency codes, base first then alphabetical.
func (r Rates) Codes() []string {
	codes := make([]string, 0, len(r.Table))
	for code := range r.Table {
		if code != r.Base {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return append([]string{r.Base}, codes...)
}

func (r Rates) normalized() Rates {
	out := Rates{Base: normalizeCode(r.Base), Table: make(map[string]decimal.Decimal, len(r.Table))}
	for code, rate := range r.Table {
		out.Table[normalizeCode(code)] = rate
	}
	return out
}

// Source supplies a fresh rate table.
type Source interface {
	Fetch(ctx context.Context) (Rates, error)
}

// Normalizer converts amounts against the current rate table. The table is
// replaced as a whole on refresh; readers never lock and may see the
// previous table for the duration of one computation.
type Normalizer struct {
	rates atomic.Pointer[Rates]
}

// NewNormalizer returns a normalizer over a validated copy of r.
func NewNormalizer(r Rates) (*Normalizer, error) {
	n := &Normalizer{}
	if err := n.Replace(r); err != nil {
		return nil, err
	}
	return n, nil
}

// Replace swaps in a new table. An invalid table leaves the current one.
func (n *Normalizer) Replace(r Rates) error {
	nr := r.normalized()
	if err := nr.Validate(); err != nil {
		return err
	}
	n.rates.Store(&nr)
	return nil
}

// Refresh fetches a table from src and swaps it in.
func (n *Normalizer) Refresh(ctx context.Context, src Source) error {
	r, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}
	return n.Replace(r)
}

// Snapshot returns a copy of the current table.
func (n *Normalizer) Snapshot() Rates {
	cur := n.rates.Load()
	out := Rates{Base: cur.Base, Table: make(map[string]decimal.Decimal, len(cur.Table))}
	for k, v := range cur.Table {
		out.Table[k] = v
	}
	return out
}

// Base returns the base currency code.
func (n *Normalizer) Base() string { return n.rates.Load().Base }

// Supports reports whether code can be converted. Empty means base.
func (n *Normalizer) Supports(code string) bool {
	_, err := n.rate(n.rates.Load(), code)
	return err == nil
}

// ToBase converts amount in code to the base currency.
func (n *Normalizer) ToBase(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, err := n.rate(n.rates.Load(), code)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	return amount.Div(rate), nil
}

// FromBase converts an amount in the base currency to code.
func (n *Normalizer) FromBase(amountInBase decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, err := n.rate(n.rates.Load(), code)
	if err != nil {
		return decimal.Zero, err
	}
	return amountInBase.Mul(rate), nil
}

// Rate returns the factor f such that an amount in a times f is the
// equivalent amount in b.
func (n *Normalizer) Rate(a, b string) (decimal.Decimal, error) {
	table := n.rates.Load()
	ra, err := n.rate(table, a)
	if err != nil {
		return decimal.Zero, err
	}
	rb, err := n.rate(table, b)
	if err != nil {
		return decimal.Zero, err
	}
	return rb.Div(ra), nil
}

// Convert converts amount from one currency to another through the base.
func (n *Normalizer) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	table := n.rates.Load()
	rf, err := n.rate(table, from)
	if err != nil {
		return decimal.Zero, err
	}
	rt, err := n.rate(table, to)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	return amount.Div(rf).Mul(rt), nil
}

// BaseAmount returns m in the base currency. A cached InBase value is
// authoritative; otherwise the amount is converted at the current rate.
func (n *Normalizer) BaseAmount(m model.Money) (decimal.Decimal, error) {
	if m.InBase.Valid {
		return m.InBase.Decimal, nil
	}
	return n.ToBase(m.Amount, m.Currency)
}

// Normalize returns m with InBase filled at the current rate.
func (n *Normalizer) Normalize(m model.Money) (model.Money, error) {
	v, err := n.ToBase(m.Amount, m.Currency)
	if err != nil {
		return m, err
	}
	return m.WithBase(v), nil
}

func (n *Normalizer) rate(table *Rates, code string) (decimal.Decimal, error) {
	c := normalizeCode(code)
	if c == "" {
		c = table.Base
	}
	rate, ok := table.Table[c]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return rate, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
