package currency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/PuerkitoBio/goquery"
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// JSONSource reads a rate table from a JSON feed such as
//
//	{"base_code": "AED", "rates": {"AED": 1, "USD": 0.2723, ...}}
//
// RatesPath selects the code->rate object; BasePath, when set, selects the
// base code and overrides Base.
type JSONSource struct {
	URL       string
	RatesPath string
	BasePath  string
	Base      string
	Only      []string
	Client    *http.Client
}

// Fetch implements Source.
func (s JSONSource) Fetch(ctx context.Context) (Rates, error) {
	body, err := fetch(ctx, s.Client, s.URL, "application/json")
	if err != nil {
		return Rates{}, err
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Rates{}, fmt.Errorf("currency: decoding %s: %w", s.URL, err)
	}

	base := s.Base
	if s.BasePath != "" {
		v, err := first(jsonpath.Get(s.BasePath, doc))
		if err != nil {
			return Rates{}, fmt.Errorf("currency: base path %q: %w", s.BasePath, err)
		}
		if code, ok := v.(string); ok && code != "" {
			base = code
		}
	}

	path := s.RatesPath
	if path == "" {
		path = "$.rates"
	}
	v, err := first(jsonpath.Get(path, doc))
	if err != nil {
		return Rates{}, fmt.Errorf("currency: rates path %q: %w", path, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Rates{}, fmt.Errorf("currency: rates path %q is not an object", path)
	}

	raw := make(map[string]string, len(obj))
	for code, val := range obj {
		switch x := val.(type) {
		case float64:
			raw[code] = decimal.NewFromFloat(x).String()
		case string:
			raw[code] = x
		}
	}
	return buildRates(base, raw, s.Only, false)
}

// jsonpath may answer a single value or a one-element list.
func first(v any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("no match")
		}
		return list[0], nil
	}
	return v, nil
}

// HTMLTableSource scrapes a published rate table. Each row matched by
// Selector must have the currency code in CodeColumn and the rate in
// RateColumn. When Inverse is set the page lists base units per one unit of
// the currency (e.g. 1 USD = 3.6725 AED) and the rate is inverted.
type HTMLTableSource struct {
	URL        string
	Selector   string
	CodeColumn int
	RateColumn int
	Base       string
	Inverse    bool
	Only       []string
	Client     *http.Client
}

// Fetch implements Source.
func (s HTMLTableSource) Fetch(ctx context.Context) (Rates, error) {
	body, err := fetch(ctx, s.Client, s.URL, "text/html")
	if err != nil {
		return Rates{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Rates{}, fmt.Errorf("currency: parsing %s: %w", s.URL, err)
	}

	sel := s.Selector
	if sel == "" {
		sel = "table tr"
	}
	rateCol := s.RateColumn
	if rateCol == 0 && s.CodeColumn == 0 {
		rateCol = 1
	}

	raw := make(map[string]string)
	doc.Find(sel).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() <= max(s.CodeColumn, rateCol) {
			return
		}
		code := strings.TrimSpace(cells.Eq(s.CodeColumn).Text())
		rate := strings.TrimSpace(cells.Eq(rateCol).Text())
		if len(code) != 3 || rate == "" {
			return
		}
		raw[code] = strings.ReplaceAll(rate, ",", "")
	})
	if len(raw) == 0 {
		return Rates{}, fmt.Errorf("currency: no rate rows matched %q at %s", sel, s.URL)
	}
	return buildRates(s.Base, raw, s.Only, s.Inverse)
}

func buildRates(base string, raw map[string]string, only []string, inverse bool) (Rates, error) {
	base = normalizeCode(base)
	if base == "" {
		return Rates{}, fmt.Errorf("%w: source did not name a base currency", ErrInvalidCurrency)
	}
	keep := make(map[string]bool, len(only))
	for _, c := range only {
		keep[normalizeCode(c)] = true
	}

	one := decimal.NewFromInt(1)
	r := Rates{Base: base, Table: map[string]decimal.Decimal{base: one}}
	for code, v := range raw {
		c := normalizeCode(code)
		if c == base || money.GetCurrency(c) == nil {
			continue
		}
		if len(keep) > 0 && !keep[c] {
			continue
		}
		rate, err := decimal.NewFromString(v)
		if err != nil || !rate.IsPositive() {
			continue
		}
		if inverse {
			rate = one.Div(rate)
		}
		r.Table[c] = rate
	}
	return r, nil
}
