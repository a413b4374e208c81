// Package config loads the settings of the calculator.
//
// Settings are read from a YAML file, then overridden by the environment
// (a .env file is loaded first when present), then completed with defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/etnz/fa"
	"github.com/etnz/fa/sbi"
	"github.com/etnz/fa/yahoo"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "facalc.yaml"

// Config holds all the calculator settings.
type Config struct {
	DataDir           string `yaml:"data_dir"`
	LogLevel          string `yaml:"log_level"`
	InitialValueBasis string `yaml:"initial_value_basis"`
	AuditDB           string `yaml:"audit_db"` // empty disables the run history

	Yahoo struct {
		Endpoints []string      `yaml:"endpoints"`
		Timeout   time.Duration `yaml:"timeout"`
		Pace      time.Duration `yaml:"pace"`
	} `yaml:"yahoo"`

	SBI struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"sbi"`

	// FallbackRates maps a year to the USD to INR rate used when no rate can be fetched.
	FallbackRates map[int]float64 `yaml:"fallback_rates"`
}

// LoadDotEnv loads the variables of the .env files that exist. Variables
// already set in the environment are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		log.Debug().Str("path", p).Msg("environment loaded")
	}
	return nil
}

// Load reads the configuration file at path, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FA_AUDIT_DB"); v != "" {
		cfg.AuditDB = v
	}
	if v := os.Getenv("FA_SBI_URL"); v != "" {
		cfg.SBI.URL = v
	}
	if v := os.Getenv("FA_INITIAL_BASIS"); v != "" {
		cfg.InitialValueBasis = v
	}

	// Defaults
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.InitialValueBasis == "" {
		cfg.InitialValueBasis = string(fa.BasisRemaining)
	}
	if len(cfg.Yahoo.Endpoints) == 0 {
		cfg.Yahoo.Endpoints = yahoo.DefaultEndpoints
	}
	if cfg.Yahoo.Timeout == 0 {
		cfg.Yahoo.Timeout = yahoo.DefaultTimeout
	}
	if cfg.Yahoo.Pace == 0 {
		cfg.Yahoo.Pace = yahoo.DefaultPace
	}
	if cfg.SBI.URL == "" {
		cfg.SBI.URL = sbi.DefaultURL
	}
	if cfg.SBI.Timeout == 0 {
		cfg.SBI.Timeout = sbi.DefaultTimeout
	}

	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error
	if _, err := fa.ParseInitialBasis(c.InitialValueBasis); err != nil {
		errs = append(errs, fmt.Errorf("initial_value_basis: %w", err))
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	if c.Yahoo.Timeout < 0 || c.SBI.Timeout < 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.Yahoo.Pace < 0 {
		errs = append(errs, errors.New("yahoo.pace must be positive"))
	}
	for year, rate := range c.FallbackRates {
		if rate <= 0 {
			errs = append(errs, fmt.Errorf("fallback_rates: rate of %d must be positive", year))
		}
	}
	return errors.Join(errs...)
}

// Basis returns the parsed initial value basis.
func (c *Config) Basis() fa.InitialBasis {
	b, _ := fa.ParseInitialBasis(c.InitialValueBasis)
	return b
}

var levels = map[string]log.Level{
	"trace":   log.TraceLevel,
	"debug":   log.DebugLevel,
	"info":    log.InfoLevel,
	"warn":    log.WarnLevel,
	"warning": log.WarnLevel,
	"error":   log.ErrorLevel,
}

// Level returns the log level, info when unknown.
func (c *Config) Level() log.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.InfoLevel
}

// Rates returns the configured fallback rates merged over fa.DefaultFallbackRates.
func (c *Config) Rates() map[int]decimal.Decimal {
	rates := make(map[int]decimal.Decimal, len(fa.DefaultFallbackRates)+len(c.FallbackRates))
	for year, r := range fa.DefaultFallbackRates {
		rates[year] = r
	}
	for year, r := range c.FallbackRates {
		rates[year] = decimal.NewFromFloat(r)
	}
	return rates
}
