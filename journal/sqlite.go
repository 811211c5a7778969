// Package journal persists backtest reports. The store is SQLite: one row
// per run plus per-day snapshots, trades and faults, all keyed by the run's
// ULID so listings sort by creation time.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quantfolio/backtest"
)

// ErrNotFound is returned for an unknown run ID.
var ErrNotFound = errors.New("journal: run not found")

const dateFormat = "2006-01-02"

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport writes the full report atomically. Saving an existing run ID
// replaces it.
func (s *Store) SaveReport(ctx context.Context, rep backtest.Report) error {
	cfg, err := yaml.Marshal(rep.Config)
	if err != nil {
		return fmt.Errorf("journal: marshal config: %w", err)
	}
	met, err := json.Marshal(rep.Metrics)
	if err != nil {
		return fmt.Errorf("journal: marshal metrics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"runs", "snapshots", "trades", "faults"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", rep.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created, state, config, metrics)
		VALUES (?, ?, ?, ?, ?)`,
		rep.ID, time.Now().UTC(), string(rep.State), string(cfg), string(met),
	); err != nil {
		return err
	}

	for _, snap := range rep.Ledger {
		positions, err := json.Marshal(snap.Positions)
		if err != nil {
			return err
		}
		orders, err := json.Marshal(snap.Orders)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (run_id, date, cash, total_value, positions, orders, fault)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rep.ID, snap.Date.Format(dateFormat), snap.Cash, snap.TotalValue,
			string(positions), string(orders), snap.Fault,
		); err != nil {
			return err
		}
	}

	for _, tr := range rep.Trades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trades (run_id, date, ticker, side, status, reason, quantity, price, commission, realized_pl)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.ID, tr.Date.Format(dateFormat), tr.Order.Ticker, tr.Order.Side.String(),
			string(tr.Status), string(tr.Reason), tr.Quantity, tr.Price, tr.Commission, tr.RealizedPL,
		); err != nil {
			return err
		}
	}

	for _, f := range rep.Faults {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO faults (run_id, date, kind, message)
			VALUES (?, ?, ?, ?)`,
			rep.ID, f.Date.Format(dateFormat), string(f.Kind), f.Message,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteRun removes a run and all its rows.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	for _, table := range []string{"snapshots", "trades", "faults"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("journal: bad date %q: %w", s, err)
	}
	return d, nil
}
