package currency

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(DefaultRates())
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestToBaseUSD(t *testing.T) {
	n := newTestNormalizer(t)
	got, err := n.ToBase(d("100"), "USD")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Round(2).Equal(d("370.37")) {
		t.Errorf("ToBase(100, USD) = %s, want ~370.37", got)
	}

	back, err := n.FromBase(d("370.37"), "USD")
	if err != nil {
		t.Fatal(err)
	}
	if !back.Round(2).Equal(d("100")) {
		t.Errorf("FromBase(370.37, USD) = %s, want ~100.00", back)
	}
}

func TestToBaseZero(t *testing.T) {
	n := newTestNormalizer(t)
	for _, code := range []string{"AED", "USD", "EUR", ""} {
		got, err := n.ToBase(decimal.Zero, code)
		if err != nil {
			t.Fatalf("ToBase(0, %q): %v", code, err)
		}
		if !got.IsZero() {
			t.Errorf("ToBase(0, %q) = %s, want 0", code, got)
		}
	}
}

func TestEmptyCodeIsBase(t *testing.T) {
	n := newTestNormalizer(t)
	got, err := n.ToBase(d("42.5"), "")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(d("42.5")) {
		t.Errorf("ToBase(42.5, \"\") = %s, want 42.5", got)
	}
}

func TestRoundTripAllPairs(t *testing.T) {
	n := newTestNormalizer(t)
	codes := n.Snapshot().Codes()
	amounts := []decimal.Decimal{d("0.01"), d("1"), d("999.99"), d("123456.78")}
	tol := d("0.000001")

	for _, a := range codes {
		for _, b := range codes {
			for _, x := range amounts {
				inBase, err := n.ToBase(x, a)
				if err != nil {
					t.Fatal(err)
				}
				inB, err := n.FromBase(inBase, b)
				if err != nil {
					t.Fatal(err)
				}
				backBase, err := n.ToBase(inB, b)
				if err != nil {
					t.Fatal(err)
				}
				got, err := n.FromBase(backBase, a)
				if err != nil {
					t.Fatal(err)
				}
				rel := got.Sub(x).Abs().Div(x)
				if rel.GreaterThan(tol) {
					t.Errorf("%s -> %s -> %s: %s became %s", a, b, a, x, got)
				}
			}
		}
	}
}

func TestRate(t *testing.T) {
	n := newTestNormalizer(t)
	r, err := n.Rate("USD", "EUR")
	if err != nil {
		t.Fatal(err)
	}
	// 100 USD in EUR equals converting through the base.
	direct := d("100").Mul(r)
	via, err := n.Convert(d("100"), "USD", "EUR")
	if err != nil {
		t.Fatal(err)
	}
	if direct.Sub(via).Abs().GreaterThan(d("0.000001")) {
		t.Errorf("Rate path %s != Convert path %s", direct, via)
	}
	if r2, _ := n.Rate("AED", "USD"); !r2.Equal(d("0.27")) {
		t.Errorf("Rate(AED, USD) = %s, want 0.27", r2)
	}
}

func TestUnknownCurrency(t *testing.T) {
	n := newTestNormalizer(t)
	if _, err := n.ToBase(d("1"), "GBP"); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("ToBase(GBP) err = %v, want ErrInvalidCurrency", err)
	}
	if _, err := n.FromBase(d("1"), "XXZ"); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("FromBase(XXZ) err = %v, want ErrInvalidCurrency", err)
	}
	if _, err := n.Rate("USD", "JPY"); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("Rate(USD, JPY) err = %v, want ErrInvalidCurrency", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		rates Rates
	}{
		{"no base", Rates{Table: map[string]decimal.Decimal{"AED": d("1")}}},
		{"base missing", Rates{Base: "AED", Table: map[string]decimal.Decimal{"USD": d("0.27")}}},
		{"base not one", Rates{Base: "AED", Table: map[string]decimal.Decimal{"AED": d("2")}}},
		{"not iso", Rates{Base: "AED", Table: map[string]decimal.Decimal{"AED": d("1"), "ZZZ": d("3")}}},
		{"non positive", Rates{Base: "AED", Table: map[string]decimal.Decimal{"AED": d("1"), "USD": d("0")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewNormalizer(tt.rates); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLowercaseCodes(t *testing.T) {
	n, err := NewNormalizer(Rates{Base: "aed", Table: map[string]decimal.Decimal{"aed": d("1"), "usd": d("0.27")}})
	if err != nil {
		t.Fatal(err)
	}
	if n.Base() != "AED" {
		t.Errorf("Base() = %q, want AED", n.Base())
	}
	if !n.Supports("Usd") {
		t.Error("expected USD to be supported regardless of case")
	}
}

func TestBaseAmountPrefersCache(t *testing.T) {
	n := newTestNormalizer(t)
	m := model.NewMoney(d("100"), "USD").WithBase(d("367.25"))
	got, err := n.BaseAmount(m)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(d("367.25")) {
		t.Errorf("BaseAmount = %s, want cached 367.25", got)
	}

	m.InBase = decimal.NullDecimal{}
	got, err = n.BaseAmount(m)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Round(2).Equal(d("370.37")) {
		t.Errorf("BaseAmount without cache = %s, want ~370.37", got)
	}
}

type staticSource struct {
	rates Rates
	err   error
}

func (s staticSource) Fetch(context.Context) (Rates, error) { return s.rates, s.err }

func TestRefreshSwapsWholeTable(t *testing.T) {
	n := newTestNormalizer(t)
	next := Rates{Base: "AED", Table: map[string]decimal.Decimal{"AED": d("1"), "USD": d("0.2723"), "GBP": d("0.21")}}
	if err := n.Refresh(context.Background(), staticSource{rates: next}); err != nil {
		t.Fatal(err)
	}
	if n.Supports("EUR") {
		t.Error("EUR should be gone after whole-table refresh")
	}
	if !n.Supports("GBP") {
		t.Error("GBP should be present after refresh")
	}
}

func TestRefreshKeepsTableOnFailure(t *testing.T) {
	n := newTestNormalizer(t)
	bad := Rates{Base: "AED", Table: map[string]decimal.Decimal{"USD": d("0.3")}}
	if err := n.Refresh(context.Background(), staticSource{rates: bad}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := n.Refresh(context.Background(), staticSource{err: errors.New("down")}); err == nil {
		t.Fatal("expected fetch error")
	}
	if r, _ := n.Rate("AED", "USD"); !r.Equal(d("0.27")) {
		t.Errorf("USD rate = %s, want original 0.27", r)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	n := newTestNormalizer(t)
	snap := n.Snapshot()
	snap.Table["USD"] = d("99")
	if r, _ := n.Rate("AED", "USD"); !r.Equal(d("0.27")) {
		t.Error("mutating a snapshot must not affect the normalizer")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"1234.5", "AED", "1,234.50 AED"},
		{"-10", "USD", "-10.00 USD"},
		{"1000000", "JPY", "1,000,000 JPY"},
	}
	for _, tt := range tests {
		if got := Format(d(tt.amount), tt.code); got != tt.want {
			t.Errorf("Format(%s, %s) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
	if got := Symbol(d("5"), "USD"); got != "$5.00" {
		t.Errorf("Symbol(5, USD) = %q, want $5.00", got)
	}
}
