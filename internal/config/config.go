// Package config loads and saves the clickoflow TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all clickoflow configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Currency   CurrencyConfig   `toml:"currency"`
	Store      StoreConfig      `toml:"store"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds forecast preferences.
type GeneralConfig struct {
	Owner            string `toml:"owner"`
	HorizonMonths    int    `toml:"horizon_months"`
	ComparisonMonths int    `toml:"comparison_months"`
	CashFlowMonths   int    `toml:"cashflow_months"`
}

// CurrencyConfig holds the base currency and the static rate table.
type CurrencyConfig struct {
	Base    string             `toml:"base"`
	Display string             `toml:"display,omitempty"`
	Rates   map[string]float64 `toml:"rates"`
	Source  RateSourceConfig   `toml:"source"`
}

// RateSourceConfig describes where "rates refresh" fetches from. Kind is
// "json" or "html"; empty disables refreshing.
type RateSourceConfig struct {
	Kind       string   `toml:"kind,omitempty"`
	URL        string   `toml:"url,omitempty"`
	RatesPath  string   `toml:"rates_path,omitempty"`
	BasePath   string   `toml:"base_path,omitempty"`
	Selector   string   `toml:"selector,omitempty"`
	CodeColumn int      `toml:"code_column,omitempty"`
	RateColumn int      `toml:"rate_column,omitempty"`
	Inverse    bool     `toml:"inverse,omitempty"`
	Only       []string `toml:"only,omitempty"`
}

// StoreConfig selects the ledger database.
type StoreConfig struct {
	Driver      string `toml:"driver"`
	Path        string `toml:"path,omitempty"`
	DatabaseURL string `toml:"database_url,omitempty"`
}

// DaemonConfig holds daemon defaults.
type DaemonConfig struct {
	Addr            string `toml:"addr"`
	IntervalSec     int    `toml:"interval_sec"`
	RateRefreshMins int    `toml:"rate_refresh_mins,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			HorizonMonths:    24,
			ComparisonMonths: 6,
			CashFlowMonths:   12,
		},
		Currency: CurrencyConfig{
			Base: "AED",
			Rates: map[string]float64{
				"AED": 1,
				"USD": 0.27,
				"EUR": 0.25,
			},
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8797",
			IntervalSec: 30,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "clickoflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "clickoflow")
}

var pathOverride string

// SetPath points ConfigPath at an explicit file. Empty restores the XDG
// location.
func SetPath(path string) { pathOverride = path }

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	if pathOverride != "" {
		return pathOverride
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the ledger.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "clickoflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "clickoflow")
}

// CacheDir returns the XDG-compliant cache directory (pid and log files).
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "clickoflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "clickoflow")
}

// Load reads the config file from ConfigPath.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't
// exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to ConfigPath.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetOwner returns the owner from env var or config, in that order.
func GetOwner(cfg Config) string {
	if v := os.Getenv("CLICKOFLOW_OWNER"); v != "" {
		return v
	}
	return cfg.General.Owner
}

// GetDatabaseURL returns the postgres URL from CLICKOFLOW_DATABASE_URL,
// DATABASE_URL or config, in that order.
func GetDatabaseURL(cfg Config) string {
	if v := os.Getenv("CLICKOFLOW_DATABASE_URL"); v != "" {
		return v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	return cfg.Store.DatabaseURL
}

// GetBaseCurrency returns the base currency from env var or config.
func GetBaseCurrency(cfg Config) string {
	if v := os.Getenv("CLICKOFLOW_BASE_CURRENCY"); v != "" {
		return v
	}
	return cfg.Currency.Base
}

// StorePath returns the sqlite ledger path.
func StorePath(cfg Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return filepath.Join(DataDir(), "ledger.db")
}

// StoreDriver returns "postgres" when a database URL is available and no
// driver is pinned, otherwise the configured driver.
func StoreDriver(cfg Config) string {
	if cfg.Store.Driver != "" {
		return cfg.Store.Driver
	}
	if GetDatabaseURL(cfg) != "" {
		return "postgres"
	}
	return "sqlite"
}
