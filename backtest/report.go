package backtest

import (
	"time"

	"github.com/rustyeddy/quantfolio/metrics"
	"github.com/rustyeddy/quantfolio/portfolio"
	"github.com/rustyeddy/quantfolio/sandbox"
)

// RunState is the terminal condition of a run.
type RunState string

const (
	// Completed: every trading date produced a snapshot with no faults.
	Completed RunState = "completed"
	// Degraded: the run finished, but some strategy invocations faulted
	// or some universe tickers had no data.
	Degraded RunState = "degraded"
	// Aborted: the run could not proceed at all.
	Aborted RunState = "aborted"
)

// FaultRecord is one strategy fault, pinned to the date it happened.
type FaultRecord struct {
	Date    time.Time
	Kind    sandbox.FaultKind
	Message string
}

// Trade is one executed (or attempted) order with its date.
type Trade struct {
	Date time.Time
	portfolio.OrderOutcome
}

// Report is the complete result of one run.
type Report struct {
	ID     string
	Config Config
	State  RunState

	// Ledger holds one snapshot per trading date, in order.
	Ledger []portfolio.Snapshot
	Trades []Trade
	Faults []FaultRecord
	// Unavailable lists universe tickers with no data for the range.
	Unavailable []string

	Metrics metrics.Summary
}

// EquityCurve extracts the ledger's dates and total values.
func (r Report) EquityCurve() ([]time.Time, []float64) {
	dates := make([]time.Time, len(r.Ledger))
	values := make([]float64, len(r.Ledger))
	for i, s := range r.Ledger {
		dates[i] = s.Date
		values[i] = s.TotalValue
	}
	return dates, values
}

func (r Report) finalState() RunState {
	if len(r.Faults) > 0 || len(r.Unavailable) > 0 {
		return Degraded
	}
	return Completed
}
