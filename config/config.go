// Package config loads the run configuration file: backtest parameters,
// strategy script location, data source and journal settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quantfolio/backtest"
)

// Config is the complete run configuration.
type Config struct {
	Backtest backtest.Config `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig  `json:"strategy" yaml:"strategy"`
	Data     DataConfig      `json:"data" yaml:"data"`
	Journal  JournalConfig   `json:"journal" yaml:"journal"`
	Logging  LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// StrategyConfig points at the sandboxed strategy script.
type StrategyConfig struct {
	// Path to the tengo script evaluated on each rebalance date.
	Path string `json:"path" yaml:"path"`
}

// DataConfig selects the price provider.
type DataConfig struct {
	// Source is "csv" (local directory of per-ticker files) or "stooq".
	Source string `json:"source" yaml:"source"`
	// Dir holds <TICKER>.csv or <TICKER>.csv.xz files when Source is csv.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// JournalConfig points at the run store and optional exports.
type JournalConfig struct {
	DBPath    string `json:"db_path" yaml:"db_path"`
	OrgPath   string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
	LedgerCSV string `json:"ledger_csv,omitempty" yaml:"ledger_csv,omitempty"`
	TradesCSV string `json:"trades_csv,omitempty" yaml:"trades_csv,omitempty"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is "text" or "json". Defaults to text.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns a config with sensible journal and data defaults filled
// in; backtest parameters still need to be set.
func Default() *Config {
	return &Config{
		Data:    DataConfig{Source: "csv", Dir: "data"},
		Journal: JournalConfig{DBPath: "quantfolio.db"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// LoadFromFile reads a YAML or JSON config and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config as YAML or JSON based on the file extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if c.Strategy.Path == "" {
		return fmt.Errorf("strategy.path is required")
	}
	switch c.Data.Source {
	case "csv":
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir is required for the csv source")
		}
	case "stooq":
	default:
		return fmt.Errorf("unknown data source: %q", c.Data.Source)
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging format: %q", c.Logging.Format)
	}
	return nil
}
