package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/currency"
)

// Rates converts the configured rate table. A missing base entry is
// added as 1.
func Rates(cfg Config) currency.Rates {
	base := strings.ToUpper(GetBaseCurrency(cfg))
	r := currency.Rates{Base: base, Table: make(map[string]decimal.Decimal, len(cfg.Currency.Rates)+1)}
	for code, v := range cfg.Currency.Rates {
		r.Table[strings.ToUpper(code)] = decimal.NewFromFloat(v)
	}
	if _, ok := r.Table[base]; !ok {
		r.Table[base] = decimal.NewFromInt(1)
	}
	return r
}

// SetRates writes r back into cfg.
func SetRates(cfg *Config, r currency.Rates) {
	cfg.Currency.Base = r.Base
	cfg.Currency.Rates = make(map[string]float64, len(r.Table))
	for code, v := range r.Table {
		cfg.Currency.Rates[code] = v.InexactFloat64()
	}
}

// Normalizer builds a currency normalizer from the configured table.
func Normalizer(cfg Config) (*currency.Normalizer, error) {
	n, err := currency.NewNormalizer(Rates(cfg))
	if err != nil {
		return nil, fmt.Errorf("currency config: %w", err)
	}
	return n, nil
}

// RateSource returns the configured refresh source, or nil when none is set.
func RateSource(cfg Config) (currency.Source, error) {
	s := cfg.Currency.Source
	client := &http.Client{Timeout: 20 * time.Second}
	base := GetBaseCurrency(cfg)

	switch strings.ToLower(s.Kind) {
	case "":
		return nil, nil
	case "json":
		if s.URL == "" {
			return nil, fmt.Errorf("currency.source.url is required for kind %q", s.Kind)
		}
		return currency.JSONSource{
			URL:       s.URL,
			RatesPath: s.RatesPath,
			BasePath:  s.BasePath,
			Base:      base,
			Only:      s.Only,
			Client:    client,
		}, nil
	case "html":
		if s.URL == "" {
			return nil, fmt.Errorf("currency.source.url is required for kind %q", s.Kind)
		}
		return currency.HTMLTableSource{
			URL:        s.URL,
			Selector:   s.Selector,
			CodeColumn: s.CodeColumn,
			RateColumn: s.RateColumn,
			Base:       base,
			Inverse:    s.Inverse,
			Only:       s.Only,
			Client:     client,
		}, nil
	}
	return nil, fmt.Errorf("unknown currency.source.kind %q", s.Kind)
}
