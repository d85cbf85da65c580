// Package config loads and validates the settings that parameterize a
// backtest run: account sizing, the calendar window to replay, the data
// frequencies to use, and where the journal writes its output.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shine15/iridium-engine/candle"
	"github.com/shine15/iridium-engine/instrument"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Calendar CalendarConfig `json:"calendar" yaml:"calendar"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig seeds sim.New.
type AccountConfig struct {
	Currency    string  `json:"account_currency" yaml:"account_currency"`
	Leverage    int     `json:"leverage" yaml:"leverage"`
	CapitalBase float64 `json:"capital_base" yaml:"capital_base"`
	SpreadPips  float64 `json:"spread_pips" yaml:"spread_pips"`
}

// CalendarConfig bounds and paces the replay.
type CalendarConfig struct {
	BeginY int `json:"begin_y" yaml:"begin_y"`
	BeginM int `json:"begin_m" yaml:"begin_m"`
	BeginD int `json:"begin_d" yaml:"begin_d"`
	EndY   int `json:"end_y" yaml:"end_y"`
	EndM   int `json:"end_m" yaml:"end_m"`
	EndD   int `json:"end_d" yaml:"end_d"`

	Region string `json:"region" yaml:"region"`

	OuterFreq     string `json:"outer_freq" yaml:"outer_freq"`
	InnerFreq     string `json:"inner_freq" yaml:"inner_freq"`
	HistDataCount int    `json:"hist_data_count" yaml:"hist_data_count"`
}

// Begin returns the configured start instant in the account currency's
// naive calendar terms (midnight UTC on the given date; Runner resolves
// the region offset via calendar.NewClock).
func (c CalendarConfig) Begin() time.Time {
	return time.Date(c.BeginY, time.Month(c.BeginM), c.BeginD, 0, 0, 0, 0, time.UTC)
}

// End returns the configured end instant, see Begin.
func (c CalendarConfig) End() time.Time {
	return time.Date(c.EndY, time.Month(c.EndM), c.EndD, 0, 0, 0, 0, time.UTC)
}

// Outer parses OuterFreq into a candle.Freq.
func (c CalendarConfig) Outer() (candle.Freq, error) {
	return candle.ParseFreq(c.OuterFreq)
}

// Inner parses InnerFreq into a candle.Freq. Empty means "no sub-tick
// frequency": the driver ticks only at OuterFreq.
func (c CalendarConfig) Inner() (candle.Freq, error) {
	if c.InnerFreq == "" {
		return 0, nil
	}
	return candle.ParseFreq(c.InnerFreq)
}

// StrategyConfig selects and parameterizes a strategies.Strategy.
type StrategyConfig struct {
	Name       string `json:"name" yaml:"name"`
	Instrument string `json:"instrument" yaml:"instrument"`
	Units      int64  `json:"units" yaml:"units"`
}

// SpreadFor converts the configured pip spread into the raw price
// offset sim.New expects, using in's pip size.
func (a AccountConfig) SpreadFor(in instrument.Instrument) float64 {
	return a.SpreadPips * in.PipSize()
}

// JournalConfig selects the journal.Journal backend.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// extension) and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on
// extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
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

// Validate checks that the configuration is internally consistent and
// that every referenced instrument/frequency actually parses.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.account_currency is required")
	}
	if c.Account.Leverage <= 0 {
		return fmt.Errorf("account.leverage must be a positive integer")
	}
	if c.Account.CapitalBase <= 0 {
		return fmt.Errorf("account.capital_base must be positive")
	}
	if c.Account.SpreadPips < 0 {
		return fmt.Errorf("account.spread_pips must not be negative")
	}

	if c.Calendar.Region == "" {
		return fmt.Errorf("calendar.region is required")
	}
	if _, err := time.LoadLocation(c.Calendar.Region); err != nil {
		return fmt.Errorf("calendar.region: %w", err)
	}
	if !c.Calendar.Begin().Before(c.Calendar.End()) {
		return fmt.Errorf("calendar begin date must precede end date")
	}
	outer, err := c.Calendar.Outer()
	if err != nil {
		return fmt.Errorf("calendar.outer_freq: %w", err)
	}
	inner, err := c.Calendar.Inner()
	if err != nil {
		return fmt.Errorf("calendar.inner_freq: %w", err)
	}
	if inner != 0 && outer%inner != 0 {
		return fmt.Errorf("calendar.inner_freq must evenly divide calendar.outer_freq")
	}
	if c.Calendar.HistDataCount <= 0 {
		return fmt.Errorf("calendar.hist_data_count must be positive")
	}

	if c.Strategy.Instrument == "" {
		return fmt.Errorf("strategy.instrument is required")
	}
	if _, err := instrument.New(c.Strategy.Instrument); err != nil {
		return fmt.Errorf("strategy.instrument: %w", err)
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}

	return nil
}

// Default returns a configuration with sensible defaults: a one-week
// EUR_USD backtest with the open-once strategy, journaling to CSV.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency:    "USD",
			Leverage:    50,
			CapitalBase: 100000,
			SpreadPips:  2,
		},
		Calendar: CalendarConfig{
			BeginY: 2024, BeginM: 1, BeginD: 1,
			EndY: 2024, EndM: 1, EndD: 8,
			Region:        "America/New_York",
			OuterFreq:     "H1",
			HistDataCount: 50,
		},
		Strategy: StrategyConfig{
			Name:       "open-once",
			Instrument: "EUR_USD",
			Units:      1000,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
	}
}
