// Package notify carries rebalance events out of the backtest engine.
// Delivery is the caller's problem: the engine only emits.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/rustyeddy/quantfolio/portfolio"
)

// RebalanceEvent describes one applied rebalance.
type RebalanceEvent struct {
	RunID    string
	Date     time.Time
	Orders   []portfolio.OrderOutcome
	Snapshot portfolio.Snapshot
}

// Notifier receives rebalance events. Implementations must not block the
// engine; Publish errors are logged by callers, never fatal to a run.
type Notifier interface {
	Publish(ctx context.Context, ev RebalanceEvent) error
}

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Publish(_ context.Context, ev RebalanceEvent) error {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}

	filled := 0
	for _, o := range ev.Orders {
		if o.Status == portfolio.Filled || o.Status == portfolio.Partial {
			filled++
		}
	}
	log.Info("rebalance",
		"run", ev.RunID,
		"date", ev.Date.Format("2006-01-02"),
		"orders", len(ev.Orders),
		"filled", filled,
		"cash", ev.Snapshot.Cash,
		"value", ev.Snapshot.TotalValue,
	)
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, RebalanceEvent) error { return nil }
