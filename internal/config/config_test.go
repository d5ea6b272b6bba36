package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clickoflow/clickoflow/internal/currency"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.HorizonMonths != 24 {
		t.Errorf("HorizonMonths = %d, want 24", cfg.General.HorizonMonths)
	}
	if cfg.Currency.Base != "AED" {
		t.Errorf("Base = %q, want AED", cfg.Currency.Base)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.Owner = "studio"
	cfg.Currency.Rates["GBP"] = 0.21
	cfg.Currency.Source = RateSourceConfig{Kind: "json", URL: "https://example.test/aed.json", BasePath: "$.base_code"}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.Owner != "studio" {
		t.Errorf("Owner = %q, want studio", got.General.Owner)
	}
	if got.Currency.Rates["GBP"] != 0.21 {
		t.Errorf("GBP = %v, want 0.21", got.Currency.Rates["GBP"])
	}
	if got.Currency.Source.BasePath != "$.base_code" {
		t.Errorf("BasePath = %q", got.Currency.Source.BasePath)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[general]\nowner = \"acme\"\n\n[currency.rates]\nAED = 1.0\nUSD = 0.2723\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.Owner != "acme" || cfg.General.CashFlowMonths != 12 {
		t.Errorf("general = %+v", cfg.General)
	}

	n, err := Normalizer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r, err := n.Rate("AED", "USD")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Equal(decimal.RequireFromString("0.2723")) {
		t.Errorf("USD rate = %s, want 0.2723", r)
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Owner = "from-config"
	cfg.Store.DatabaseURL = "postgres://config"

	t.Setenv("CLICKOFLOW_OWNER", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("CLICKOFLOW_DATABASE_URL", "")

	if got := GetOwner(cfg); got != "from-env" {
		t.Errorf("GetOwner = %q, want from-env", got)
	}
	if got := GetDatabaseURL(cfg); got != "postgres://env" {
		t.Errorf("GetDatabaseURL = %q, want postgres://env", got)
	}

	cfg.Store.Driver = ""
	if got := StoreDriver(cfg); got != "postgres" {
		t.Errorf("StoreDriver = %q, want postgres", got)
	}
}

func TestRatesAddsBase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Currency.Base = "usd"
	cfg.Currency.Rates = map[string]float64{"aed": 3.6725}
	r := Rates(cfg)
	if r.Base != "USD" {
		t.Errorf("Base = %q, want USD", r.Base)
	}
	if !r.Table["USD"].Equal(decimal.NewFromInt(1)) {
		t.Errorf("USD = %s, want 1", r.Table["USD"])
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRateSource(t *testing.T) {
	cfg := DefaultConfig()
	src, err := RateSource(cfg)
	if err != nil || src != nil {
		t.Fatalf("RateSource(no kind) = %v, %v; want nil, nil", src, err)
	}

	cfg.Currency.Source = RateSourceConfig{Kind: "html", URL: "https://example.test/fx", Inverse: true}
	src, err = RateSource(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h, ok := src.(currency.HTMLTableSource)
	if !ok || !h.Inverse || h.Base != "AED" {
		t.Errorf("RateSource(html) = %#v", src)
	}

	cfg.Currency.Source = RateSourceConfig{Kind: "json"}
	if _, err := RateSource(cfg); err == nil {
		t.Error("expected error for json source without url")
	}
	cfg.Currency.Source = RateSourceConfig{Kind: "ftp", URL: "x"}
	if _, err := RateSource(cfg); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSetPathOverridesLocation(t *testing.T) {
	p := filepath.Join(t.TempDir(), "alt.toml")
	SetPath(p)
	t.Cleanup(func() { SetPath("") })

	if got := ConfigPath(); got != p {
		t.Fatalf("ConfigPath = %q, want %q", got, p)
	}
	if Exists() {
		t.Fatal("Exists before Save = true")
	}
	cfg := DefaultConfig()
	cfg.General.Owner = "alt"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.Owner != "alt" {
		t.Errorf("owner = %q, want alt", got.General.Owner)
	}
}
