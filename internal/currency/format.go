package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format renders amount with the currency's ISO separators and fraction,
// using the code rather than the local symbol ("1,234.50 AED").
func Format(amount decimal.Decimal, code string) string {
	code = normalizeCode(code)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	f := money.NewFormatter(cur.Fraction, cur.Decimal, cur.Thousand, cur.Code, "1 $")
	return f.Format(minor.IntPart())
}

// Symbol renders amount with the currency's own grapheme and template, as
// go-money displays it.
func Symbol(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(normalizeCode(code))
	if cur == nil {
		return Format(amount, code)
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
