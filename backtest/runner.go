package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/quantfolio/internal/id"
	"github.com/rustyeddy/quantfolio/market"
	"github.com/rustyeddy/quantfolio/metrics"
	"github.com/rustyeddy/quantfolio/notify"
	"github.com/rustyeddy/quantfolio/portfolio"
	"github.com/rustyeddy/quantfolio/sandbox"
)

// ErrNoData aborts a run when no universe ticker has any price data in the
// requested range.
var ErrNoData = errors.New("no price data for any universe ticker")

// Runner executes one backtest. Zero-value collaborators get sane defaults:
// a nil Notifier drops events and a nil Logger uses slog's default.
type Runner struct {
	Config   Config
	Strategy []byte
	Provider market.Provider
	Notifier notify.Notifier
	Logger   *slog.Logger

	// ID is minted when empty.
	ID string
}

// Run walks the trading calendar from Config.Start to Config.End, producing
// exactly one portfolio snapshot per trading date. The strategy is consulted
// on rebalance dates only; a strategy fault is recorded on that date's
// snapshot and the portfolio holds. Run returns an error only when the run
// cannot proceed at all; per-ticker data gaps and strategy faults degrade
// the report instead.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if err := r.Config.Validate(); err != nil {
		return Report{}, err
	}

	report := Report{
		ID:     r.ID,
		Config: r.Config,
	}
	if report.ID == "" {
		report.ID = id.New()
	}
	log := r.logger().With("run", report.ID)

	set, unavailable, err := r.loadUniverse(ctx)
	if err != nil {
		return Report{}, err
	}
	report.Unavailable = unavailable
	for _, t := range unavailable {
		log.Warn("ticker has no data, excluded from run", "ticker", t)
	}

	dates := set.TradingDates(r.Config.Start, r.Config.End)
	if len(dates) == 0 {
		report.State = Aborted
		return report, ErrNoData
	}

	benchmark := r.loadBenchmark(ctx, log)
	rebal := rebalanceDates(dates, r.Config.Rebalance, r.Config.CustomDates)

	pf := portfolio.New(r.Config.portfolioConfig())
	defer pf.Close()
	lastPrices := make(map[string]float64)

	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			report.State = Aborted
			return report, fmt.Errorf("run interrupted at %s: %w", d.Format("2006-01-02"), err)
		}

		quotes := set.QuotesOn(d)
		for t, q := range quotes {
			lastPrices[t] = q.AdjClose
		}

		var orders []portfolio.Order
		var fault *sandbox.Fault
		if rebal[d] {
			orders, fault = r.evaluate(ctx, d, pf, lastPrices, set)
			if fault != nil {
				report.Faults = append(report.Faults, FaultRecord{
					Date: d, Kind: fault.Kind, Message: fault.Message,
				})
				log.Warn("strategy fault, holding positions",
					"date", d.Format("2006-01-02"), "kind", string(fault.Kind), "err", fault.Message)
			}
		}

		snap, err := pf.Apply(d, orders, quotes)
		if err != nil {
			report.State = Aborted
			return report, err
		}
		if fault != nil {
			snap.Fault = fault.String()
		}
		report.Ledger = append(report.Ledger, snap)

		for _, out := range snap.Orders {
			report.Trades = append(report.Trades, Trade{Date: d, OrderOutcome: out})
		}

		if rebal[d] && fault == nil {
			r.publish(ctx, log, notify.RebalanceEvent{
				RunID: report.ID, Date: d, Orders: snap.Orders, Snapshot: snap,
			})
		}
	}

	ledgerDates, values := report.EquityCurve()
	report.Metrics = metrics.Analyze(ledgerDates, values, alignBenchmark(benchmark, ledgerDates), metrics.Options{
		RiskFreeRate: r.Config.RiskFreeRate,
	})
	report.State = report.finalState()

	log.Info("run finished",
		"state", string(report.State),
		"days", len(report.Ledger),
		"faults", len(report.Faults),
		"final_value", values[len(values)-1],
	)
	return report, nil
}

// loadUniverse fetches every universe ticker concurrently. A ticker with no
// data is reported, not fatal; any other provider error aborts.
func (r *Runner) loadUniverse(ctx context.Context) (*market.SeriesSet, []string, error) {
	fetchStart := r.Config.Start.AddDate(0, 0, -r.Config.lookback())

	var mu sync.Mutex
	set := market.NewSeriesSet()
	var unavailable []string

	g, gctx := errgroup.WithContext(ctx)
	for _, ticker := range r.Config.Universe {
		g.Go(func() error {
			s, err := r.Provider.GetSeries(gctx, ticker, fetchStart, r.Config.End)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, market.ErrDataUnavailable):
				unavailable = append(unavailable, ticker)
			case err != nil:
				return fmt.Errorf("load %s: %w", ticker, err)
			default:
				set.Add(s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Strings(unavailable)
	return set, unavailable, nil
}

// loadBenchmark fetches the benchmark series, if configured. Benchmark data
// never reaches the strategy; a missing benchmark only drops the relative
// statistics.
func (r *Runner) loadBenchmark(ctx context.Context, log *slog.Logger) market.Series {
	if r.Config.Benchmark == "" {
		return market.Series{}
	}
	s, err := r.Provider.GetSeries(ctx, r.Config.Benchmark, r.Config.Start, r.Config.End)
	if err != nil {
		log.Warn("benchmark unavailable, skipping relative metrics",
			"ticker", r.Config.Benchmark, "err", err)
		return market.Series{}
	}
	return s
}

// evaluate runs one sandboxed strategy invocation and translates its answer
// into portfolio orders.
func (r *Runner) evaluate(ctx context.Context, d time.Time, pf *portfolio.Portfolio, lastPrices map[string]float64, set *market.SeriesSet) ([]portfolio.Order, *sandbox.Fault) {
	view := buildView(d, pf, lastPrices)
	win := sandbox.NewDataWindow(set, d)

	res := sandbox.Evaluate(ctx, r.Strategy, view, win, r.Config.StrategyBudget)
	if res.Fault != nil {
		return nil, res.Fault
	}
	if res.Weights != nil {
		return weightOrders(res.Weights, pf.Positions()), nil
	}
	return res.Orders, nil
}

// buildView projects portfolio state marked at the latest known prices.
func buildView(d time.Time, pf *portfolio.Portfolio, lastPrices map[string]float64) sandbox.StateView {
	positions := pf.Positions()
	total := pf.Cash()
	for t, pos := range positions {
		total += pos.Quantity * lastPrices[t]
	}

	views := make(map[string]sandbox.PositionView, len(positions))
	for t, pos := range positions {
		value := pos.Quantity * lastPrices[t]
		weight := 0.0
		if total > 0 {
			weight = value / total
		}
		views[t] = sandbox.PositionView{
			Quantity: pos.Quantity,
			AvgCost:  pos.AvgCost,
			Value:    value,
			Weight:   weight,
		}
	}
	return sandbox.StateView{
		Date:       d,
		Cash:       pf.Cash(),
		TotalValue: total,
		Positions:  views,
	}
}

// weightOrders turns a target-weight map into orders. Held tickers that the
// strategy left out, or set to zero, are liquidated.
func weightOrders(weights map[string]float64, held map[string]portfolio.Position) []portfolio.Order {
	var orders []portfolio.Order
	for t, w := range weights {
		if w > 0 {
			orders = append(orders, portfolio.Order{Ticker: t, TargetWeight: w})
		}
	}
	for t, pos := range held {
		if weights[t] > 0 {
			continue
		}
		orders = append(orders, portfolio.Order{Ticker: t, Side: portfolio.Sell, Quantity: pos.Quantity})
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Ticker < orders[j].Ticker })
	return orders
}

func alignBenchmark(s market.Series, dates []time.Time) []float64 {
	if s.Len() == 0 || len(dates) == 0 {
		return nil
	}
	out := make([]float64, len(dates))
	last := 0.0
	for i, d := range dates {
		if p, ok := s.At(d); ok {
			last = p.AdjClose
		}
		// Carry the prior close across dates the benchmark did not trade.
		out[i] = last
	}
	if out[0] <= 0 {
		return nil
	}
	return out
}

func (r *Runner) publish(ctx context.Context, log *slog.Logger, ev notify.RebalanceEvent) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Publish(ctx, ev); err != nil {
		log.Warn("notify failed", "date", ev.Date.Format("2006-01-02"), "err", err)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
