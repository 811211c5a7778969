package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quantfolio/backtest"
	"github.com/rustyeddy/quantfolio/metrics"
	"github.com/rustyeddy/quantfolio/portfolio"
	"github.com/rustyeddy/quantfolio/sandbox"
)

// RunInfo is one row of a run listing.
type RunInfo struct {
	ID         string
	Created    time.Time
	State      backtest.RunState
	Days       int
	FinalValue float64
}

// ListRuns returns all stored runs, oldest first. ULID run IDs sort by
// creation time, so ordering by ID is ordering by age.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created, state,
		       (SELECT COUNT(*) FROM snapshots WHERE run_id = runs.run_id),
		       COALESCE((SELECT total_value FROM snapshots
		                 WHERE run_id = runs.run_id
		                 ORDER BY date DESC LIMIT 1), 0)
		FROM runs
		ORDER BY run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var state string
		if err := rows.Scan(&info.ID, &info.Created, &state, &info.Days, &info.FinalValue); err != nil {
			return nil, err
		}
		info.State = backtest.RunState(state)
		out = append(out, info)
	}
	return out, rows.Err()
}

// GetReport reloads a full report by run ID.
func (s *Store) GetReport(ctx context.Context, runID string) (backtest.Report, error) {
	rep := backtest.Report{ID: runID}

	var state, cfgBlob, metBlob string
	err := s.db.QueryRowContext(ctx,
		"SELECT state, config, metrics FROM runs WHERE run_id = ?", runID).
		Scan(&state, &cfgBlob, &metBlob)
	if err == sql.ErrNoRows {
		return backtest.Report{}, ErrNotFound
	}
	if err != nil {
		return backtest.Report{}, err
	}
	rep.State = backtest.RunState(state)
	if err := yaml.Unmarshal([]byte(cfgBlob), &rep.Config); err != nil {
		return backtest.Report{}, err
	}
	if err := json.Unmarshal([]byte(metBlob), &rep.Metrics); err != nil {
		return backtest.Report{}, err
	}

	if rep.Ledger, err = s.loadLedger(ctx, runID); err != nil {
		return backtest.Report{}, err
	}
	for _, snap := range rep.Ledger {
		for _, out := range snap.Orders {
			rep.Trades = append(rep.Trades, backtest.Trade{Date: snap.Date, OrderOutcome: out})
		}
	}
	if rep.Faults, err = s.loadFaults(ctx, runID); err != nil {
		return backtest.Report{}, err
	}
	return rep, nil
}

// Metrics reloads just the statistics block for a run.
func (s *Store) Metrics(ctx context.Context, runID string) (metrics.Summary, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT metrics FROM runs WHERE run_id = ?", runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return metrics.Summary{}, ErrNotFound
	}
	if err != nil {
		return metrics.Summary{}, err
	}
	var sum metrics.Summary
	if err := json.Unmarshal([]byte(blob), &sum); err != nil {
		return metrics.Summary{}, err
	}
	return sum, nil
}

func (s *Store) loadLedger(ctx context.Context, runID string) ([]portfolio.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, cash, total_value, positions, orders, fault
		FROM snapshots WHERE run_id = ? ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.Snapshot
	for rows.Next() {
		var snap portfolio.Snapshot
		var date, positions, orders string
		if err := rows.Scan(&date, &snap.Cash, &snap.TotalValue, &positions, &orders, &snap.Fault); err != nil {
			return nil, err
		}
		if snap.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(positions), &snap.Positions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(orders), &snap.Orders); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *Store) loadFaults(ctx context.Context, runID string) ([]backtest.FaultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, kind, message FROM faults
		WHERE run_id = ? ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.FaultRecord
	for rows.Next() {
		var rec backtest.FaultRecord
		var date, kind string
		if err := rows.Scan(&date, &kind, &rec.Message); err != nil {
			return nil, err
		}
		if rec.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		rec.Kind = sandbox.FaultKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}
