package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"futurewallet.org/internal/engine"
)

// Config holds the service configuration.
type Config struct {
	Addr         string  `yaml:"addr"`
	RateBurst    int     `yaml:"rate_burst"`
	RatePerSec   int     `yaml:"rate_per_sec"`
	MaxBodyBytes int64   `yaml:"max_body_bytes"`
	MaxHorizon   int     `yaml:"max_horizon_days"`
	TokenTTLMin  int     `yaml:"token_ttl_minutes"`

	// Engine tables; empty means built-in defaults.
	TaxBrackets []engine.Bracket   `yaml:"tax_brackets"`
	Currencies  []CurrencyOverride `yaml:"currencies"`
}

// CurrencyOverride replaces one entry of the base rate table.
type CurrencyOverride struct {
	Code       string  `yaml:"code"`
	Rate       float64 `yaml:"rate"`
	Volatility float64 `yaml:"volatility"`
}

// Load builds the configuration from env defaults and, when
// FUTUREWALLET_CONFIG points at a YAML file, overlays that file.
func Load() (Config, error) {
	cfg := Config{
		Addr:         getenvDefault("FUTUREWALLET_ADDR", ":8080"),
		RateBurst:    getenvIntDefault("FUTUREWALLET_RATE_BURST", 20),
		RatePerSec:   getenvIntDefault("FUTUREWALLET_RATE_PER_SEC", 10),
		MaxBodyBytes: int64(getenvIntDefault("FUTUREWALLET_MAX_BODY_BYTES", 1<<20)),
		MaxHorizon:   getenvIntDefault("FUTUREWALLET_MAX_HORIZON_DAYS", 36500),
		TokenTTLMin:  getenvIntDefault("FUTUREWALLET_TOKEN_TTL_MINUTES", 60),
	}

	if path := os.Getenv("FUTUREWALLET_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.RateBurst <= 0 || cfg.RatePerSec <= 0 {
		return cfg, fmt.Errorf("rate limit values must be positive")
	}
	if cfg.MaxHorizon <= 0 {
		return cfg, fmt.Errorf("max_horizon_days must be positive")
	}
	return cfg, nil
}

// ApplyEngineTables pushes the configured tax and currency tables into the
// engine. Returns the simulator to use.
func (c Config) ApplyEngineTables() *engine.Simulator {
	if len(c.Currencies) > 0 {
		rates := make(map[string]float64, len(c.Currencies))
		vols := make(map[string]float64, len(c.Currencies))
		for _, cur := range c.Currencies {
			rates[cur.Code] = cur.Rate
			vols[cur.Code] = cur.Volatility
		}
		engine.CurrencyTable(rates, vols)
	}
	if len(c.TaxBrackets) > 0 {
		return engine.NewSimulatorWithBrackets(c.TaxBrackets)
	}
	return engine.NewSimulator()
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
