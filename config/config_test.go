package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shine15/iridium-engine/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, 100000.0, cfg.Account.CapitalBase)
	assert.Equal(t, "open-once", cfg.Strategy.Name)
	assert.NoError(t, cfg.Validate())
}

func TestAccountSpreadFor(t *testing.T) {
	cfg := Default()
	eurusd := instrument.MustNew("EUR_USD")
	// 2 pips at EUR_USD's 0.0001 pip size.
	assert.InDelta(t, 0.0002, cfg.Account.SpreadFor(eurusd), 1e-9)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		errMsg  string
	}{
		{
			name:   "missing currency",
			mutate: func(c *Config) { c.Account.Currency = "" },
			errMsg: "account.account_currency is required",
		},
		{
			name:   "non-positive leverage",
			mutate: func(c *Config) { c.Account.Leverage = 0 },
			errMsg: "account.leverage must be a positive integer",
		},
		{
			name:   "non-positive capital",
			mutate: func(c *Config) { c.Account.CapitalBase = -1 },
			errMsg: "account.capital_base must be positive",
		},
		{
			name:   "negative spread",
			mutate: func(c *Config) { c.Account.SpreadPips = -1 },
			errMsg: "account.spread_pips must not be negative",
		},
		{
			name:   "missing region",
			mutate: func(c *Config) { c.Calendar.Region = "" },
			errMsg: "calendar.region is required",
		},
		{
			name:   "unknown region",
			mutate: func(c *Config) { c.Calendar.Region = "Not/A/Zone" },
			errMsg: "calendar.region",
		},
		{
			name: "begin after end",
			mutate: func(c *Config) {
				c.Calendar.BeginD, c.Calendar.EndD = c.Calendar.EndD, c.Calendar.BeginD
			},
			errMsg: "calendar begin date must precede end date",
		},
		{
			name:   "unknown outer frequency",
			mutate: func(c *Config) { c.Calendar.OuterFreq = "bogus" },
			errMsg: "calendar.outer_freq",
		},
		{
			name:   "unknown inner frequency",
			mutate: func(c *Config) { c.Calendar.InnerFreq = "bogus" },
			errMsg: "calendar.inner_freq",
		},
		{
			name:   "non-positive hist count",
			mutate: func(c *Config) { c.Calendar.HistDataCount = 0 },
			errMsg: "calendar.hist_data_count must be positive",
		},
		{
			name:   "missing strategy instrument",
			mutate: func(c *Config) { c.Strategy.Instrument = "" },
			errMsg: "strategy.instrument is required",
		},
		{
			name:   "unknown strategy instrument",
			mutate: func(c *Config) { c.Strategy.Instrument = "NOT_AN_INSTRUMENT" },
			errMsg: "strategy.instrument",
		},
		{
			name:   "missing strategy name",
			mutate: func(c *Config) { c.Strategy.Name = "" },
			errMsg: "strategy.name is required",
		},
		{
			name:   "unknown journal type",
			mutate: func(c *Config) { c.Journal.Type = "xml" },
			errMsg: "journal.type must be 'csv' or 'sqlite'",
		},
		{
			name: "csv journal missing files",
			mutate: func(c *Config) {
				c.Journal = JournalConfig{Type: "csv"}
			},
			errMsg: "journal trades_file and equity_file required",
		},
		{
			name: "sqlite journal missing db path",
			mutate: func(c *Config) {
				c.Journal = JournalConfig{Type: "sqlite"}
			},
			errMsg: "journal db_path required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Account.Currency, loaded.Account.Currency)
			assert.Equal(t, cfg.Account.CapitalBase, loaded.Account.CapitalBase)
			assert.Equal(t, cfg.Calendar.OuterFreq, loaded.Calendar.OuterFreq)
			assert.Equal(t, cfg.Strategy.Instrument, loaded.Strategy.Instrument)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestCalendarBeginEnd(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Calendar.Begin().Before(cfg.Calendar.End()))

	outer, err := cfg.Calendar.Outer()
	require.NoError(t, err)
	assert.Equal(t, "H1", outer.String())

	inner, err := cfg.Calendar.Inner()
	require.NoError(t, err)
	assert.Zero(t, inner)
}
