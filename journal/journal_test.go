package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantfolio/backtest"
	"github.com/rustyeddy/quantfolio/internal/id"
	"github.com/rustyeddy/quantfolio/metrics"
	"github.com/rustyeddy/quantfolio/portfolio"
	"github.com/rustyeddy/quantfolio/sandbox"
)

func day(dd int) time.Time {
	return time.Date(2020, time.January, dd, 0, 0, 0, 0, time.UTC)
}

func sampleReport(runID string) backtest.Report {
	buy := portfolio.OrderOutcome{
		Order:    portfolio.Order{Ticker: "SPY", Side: portfolio.Buy, Quantity: 10},
		Status:   portfolio.Filled,
		Quantity: 10,
		Price:    300,
	}
	return backtest.Report{
		ID:    runID,
		State: backtest.Degraded,
		Config: backtest.Config{
			Universe:    []string{"SPY", "TLT"},
			Start:       day(2),
			End:         day(3),
			Rebalance:   backtest.Daily,
			InitialCash: 10000,
		},
		Ledger: []portfolio.Snapshot{
			{
				Date: day(2), Cash: 7000, TotalValue: 10000,
				Positions: map[string]portfolio.Position{
					"SPY": {Ticker: "SPY", Quantity: 10, AvgCost: 300},
				},
				Orders: []portfolio.OrderOutcome{buy},
			},
			{
				Date: day(3), Cash: 7000, TotalValue: 10100,
				Positions: map[string]portfolio.Position{
					"SPY": {Ticker: "SPY", Quantity: 10, AvgCost: 300},
				},
				Fault: "RuntimeException: boom",
			},
		},
		Trades: []backtest.Trade{{Date: day(2), OrderOutcome: buy}},
		Faults: []backtest.FaultRecord{
			{Date: day(3), Kind: sandbox.FaultRuntime, Message: "boom"},
		},
		Metrics: metrics.Summary{
			TotalReturn: 0.01,
			CAGR:        metrics.Ratio{Value: 0.2, Defined: true},
		},
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()
	rep := sampleReport(id.New())

	require.NoError(t, s.SaveReport(ctx, rep))

	got, err := s.GetReport(ctx, rep.ID)
	require.NoError(t, err)

	assert.Equal(t, rep.State, got.State)
	assert.Equal(t, rep.Config.Universe, got.Config.Universe)
	assert.True(t, rep.Config.Start.Equal(got.Config.Start))
	assert.Equal(t, rep.Ledger, got.Ledger)
	assert.Equal(t, rep.Trades, got.Trades)
	assert.Equal(t, rep.Faults, got.Faults)
	assert.Equal(t, rep.Metrics, got.Metrics)
	// Undefined ratios survive the round trip as undefined.
	assert.False(t, got.Metrics.Sharpe.Defined)
}

func TestGetReportNotFound(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	_, err := s.GetReport(context.Background(), "01XXXXXXXXXXXXXXXXXXXXXXXX")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReportReplacesExisting(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()
	rep := sampleReport(id.New())
	require.NoError(t, s.SaveReport(ctx, rep))

	rep.State = backtest.Completed
	rep.Faults = nil
	rep.Ledger = rep.Ledger[:1]
	require.NoError(t, s.SaveReport(ctx, rep))

	got, err := s.GetReport(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, backtest.Completed, got.State)
	assert.Len(t, got.Ledger, 1)
	assert.Empty(t, got.Faults)
}

func TestListRunsOrderedByID(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	first, second := sampleReport(id.New()), sampleReport(id.New())
	require.NoError(t, s.SaveReport(ctx, second))
	require.NoError(t, s.SaveReport(ctx, first))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.True(t, runs[0].ID < runs[1].ID)
	assert.Equal(t, 2, runs[0].Days)
	assert.InDelta(t, 10100, runs[0].FinalValue, 1e-9)
}

func TestDeleteRun(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()
	rep := sampleReport(id.New())
	require.NoError(t, s.SaveReport(ctx, rep))

	require.NoError(t, s.DeleteRun(ctx, rep.ID))
	_, err := s.GetReport(ctx, rep.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, rep.ID), ErrNotFound)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.csv")
	tradesPath := filepath.Join(dir, "trades.csv")

	require.NoError(t, ExportCSV(sampleReport(id.New()), ledgerPath, tradesPath))

	ledger, err := os.ReadFile(ledgerPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(ledger)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,cash,total_value,fault", lines[0])
	assert.Contains(t, lines[1], "2020-01-02")
	assert.Contains(t, lines[2], "RuntimeException: boom")

	trades, err := os.ReadFile(tradesPath)
	require.NoError(t, err)
	assert.Contains(t, string(trades), "SPY,buy,filled")
}

func TestOrgReport(t *testing.T) {
	t.Parallel()

	rep := sampleReport(id.New())
	out, err := OrgReport(rep)
	require.NoError(t, err)

	assert.Contains(t, out, "* BACKTEST: SPY TLT")
	assert.Contains(t, out, ":RUN_ID:      "+rep.ID)
	assert.Contains(t, out, ":STATE:       degraded")
	assert.Contains(t, out, "| Sharpe            | n/a |")
	assert.Contains(t, out, "| CAGR              | 0.2000 |")
	assert.Contains(t, out, "** Strategy Faults")
	assert.Contains(t, out, "| 2020-01-03 | RuntimeException | boom |")

	path := filepath.Join(t.TempDir(), "report.org")
	require.NoError(t, WriteOrg(rep, path))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))
}
