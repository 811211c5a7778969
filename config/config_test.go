package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantfolio/backtest"
)

const sampleYAML = `
backtest:
  universe: [SPY, TLT, GLD]
  start: 2020-01-01T00:00:00Z
  end: 2020-12-31T00:00:00Z
  rebalance: monthly
  initial_cash: 100000
  commission_rate: 0.001
  benchmark: SPY
strategy:
  path: strategies/momentum.tengo
data:
  source: csv
  dir: testdata/prices
journal:
  db_path: runs.db
logging:
  level: debug
  format: json
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "run.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "TLT", "GLD"}, cfg.Backtest.Universe)
	assert.Equal(t, backtest.Monthly, cfg.Backtest.Rebalance)
	assert.True(t, cfg.Backtest.Start.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 100000, cfg.Backtest.InitialCash, 1e-9)
	assert.Equal(t, "strategies/momentum.tengo", cfg.Strategy.Path)
	assert.Equal(t, "csv", cfg.Data.Source)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	body := `{
	  "backtest": {
	    "universe": ["SPY"],
	    "start": "2020-01-01T00:00:00Z",
	    "end": "2020-06-30T00:00:00Z",
	    "rebalance": "weekly",
	    "initial_cash": 5000
	  },
	  "strategy": {"path": "s.tengo"},
	  "data": {"source": "stooq"},
	  "journal": {"db_path": "runs.db"}
	}`
	cfg, err := LoadFromFile(writeConfig(t, "run.json", body))
	require.NoError(t, err)
	assert.Equal(t, backtest.Weekly, cfg.Backtest.Rebalance)
	assert.Equal(t, "stooq", cfg.Data.Source)
}

func TestLoadFromFileRejectsBadConfig(t *testing.T) {
	t.Parallel()

	base := `
backtest:
  universe: [SPY]
  start: 2020-01-01T00:00:00Z
  end: 2020-06-30T00:00:00Z
  rebalance: weekly
  initial_cash: 5000
journal:
  db_path: runs.db
`
	tests := []struct {
		name string
		rest string
	}{
		{"missing strategy", "data:\n  source: stooq"},
		{"bad data source", "strategy:\n  path: s.tengo\ndata:\n  source: carrier-pigeon"},
		{"bad log level", "strategy:\n  path: s.tengo\ndata:\n  source: stooq\nlogging:\n  level: loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFromFile(writeConfig(t, "bad.yaml", base+tt.rest))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFileValidatesBacktest(t *testing.T) {
	t.Parallel()

	body := `
backtest:
  universe: []
  start: 2020-01-01T00:00:00Z
  end: 2020-06-30T00:00:00Z
  rebalance: weekly
  initial_cash: 5000
strategy:
  path: s.tengo
data:
  source: stooq
journal:
  db_path: runs.db
`
	_, err := LoadFromFile(writeConfig(t, "bad.yaml", body))
	require.Error(t, err)
	assert.ErrorIs(t, err, backtest.ErrConfig)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "run.yaml", sampleYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	again, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Backtest.Universe, again.Backtest.Universe)
	assert.Equal(t, cfg.Journal, again.Journal)
}
