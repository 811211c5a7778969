// Package portfolio implements the cash-and-positions state machine at the
// heart of a backtest run: it applies strategy orders under commission and
// slippage models and emits one immutable snapshot per simulated day.
package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/quantfolio/market"
)

// OverdrawPolicy controls what happens to a buy the cash balance cannot
// cover.
type OverdrawPolicy int8

const (
	// RejectOverdraw rejects the whole order. The default.
	RejectOverdraw OverdrawPolicy = iota
	// PartialFillOverdraw fills as many whole shares as cash allows.
	PartialFillOverdraw
)

// State of the portfolio lifecycle.
type State int8

const (
	Active State = iota
	Closed
)

// cashEpsilon absorbs float rounding when comparing order cost to cash.
const cashEpsilon = 1e-6

// Config parameterizes a Portfolio.
type Config struct {
	InitialCash   float64
	Commission    CommissionModel
	Slippage      SlippageModel
	Overdraw      OverdrawPolicy
	MinTradeValue float64 // weight-order diffs below this notional are skipped
}

// Portfolio owns cash and positions for exactly one backtest run. It is not
// safe for concurrent use; each run owns its own instance.
type Portfolio struct {
	cfg       Config
	state     State
	cash      float64
	positions map[string]*Position
	lastPrice map[string]float64
	realized  float64
}

// New creates an Active portfolio holding cfg.InitialCash. Nil cost models
// default to free, frictionless execution.
func New(cfg Config) *Portfolio {
	if cfg.Commission == nil {
		cfg.Commission = NoCommission{}
	}
	if cfg.Slippage == nil {
		cfg.Slippage = NoSlippage{}
	}
	return &Portfolio{
		cfg:       cfg,
		cash:      cfg.InitialCash,
		positions: make(map[string]*Position),
		lastPrice: make(map[string]float64),
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// RealizedPL returns cumulative realized profit and loss, net of costs on
// closing trades.
func (p *Portfolio) RealizedPL() float64 { return p.realized }

// State returns Active or Closed.
func (p *Portfolio) State() State { return p.state }

// Positions returns a value copy of current holdings.
func (p *Portfolio) Positions() map[string]Position {
	out := make(map[string]Position, len(p.positions))
	for t, pos := range p.positions {
		out[t] = *pos
	}
	return out
}

// Close moves the portfolio to its terminal state. Further Apply calls fail.
func (p *Portfolio) Close() {
	p.state = Closed
}

// markValue values every position at its most recent known price.
func (p *Portfolio) markValue() float64 {
	total := p.cash
	for t, pos := range p.positions {
		total += pos.Quantity * p.lastPrice[t]
	}
	return total
}

// Apply executes the given orders against the day's quotes and returns the
// end-of-day snapshot. The call is total for an Active portfolio: every order
// yields an outcome (filled, partial, skipped or rejected) and a snapshot is
// always produced. Sells are processed before buys so sale proceeds can fund
// purchases on the same day; within a side, orders run ticker-lexicographic
// so ambiguous input cannot change the result.
func (p *Portfolio) Apply(date time.Time, orders []Order, quotes map[string]market.PricePoint) (Snapshot, error) {
	if p.state == Closed {
		return Snapshot{}, fmt.Errorf("portfolio: apply on closed portfolio")
	}

	for t, q := range quotes {
		p.lastPrice[t] = q.AdjClose
	}
	openValue := p.markValue()

	resolved, outcomes := p.resolve(orders, quotes, openValue)

	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if a.order.Side != b.order.Side {
			return a.order.Side == Sell
		}
		return a.order.Ticker < b.order.Ticker
	})

	for _, r := range resolved {
		outcomes = append(outcomes, p.execute(r, quotes))
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.Order.Side != b.Order.Side {
			return a.Order.Side == Sell
		}
		return a.Order.Ticker < b.Order.Ticker
	})

	return Snapshot{
		Date:       market.Day(date),
		Cash:       p.cash,
		Positions:  p.Positions(),
		TotalValue: p.markValue(),
		Orders:     outcomes,
	}, nil
}

// resolvedOrder is an order with target weights already translated into a
// concrete share quantity and direction.
type resolvedOrder struct {
	original Order
	order    Order // always quantity-denominated
}

// resolve translates weight orders into quantity orders against openValue.
// Orders that cannot be resolved are returned as immediate outcomes.
func (p *Portfolio) resolve(orders []Order, quotes map[string]market.PricePoint, openValue float64) ([]resolvedOrder, []OrderOutcome) {
	var resolved []resolvedOrder
	var outcomes []OrderOutcome

	for _, o := range orders {
		if !o.weighted() {
			resolved = append(resolved, resolvedOrder{original: o, order: o})
			continue
		}

		q, ok := quotes[o.Ticker]
		if !ok || q.AdjClose <= 0 {
			outcomes = append(outcomes, OrderOutcome{Order: o, Status: Rejected, Reason: ReasonNoMarketOnDate})
			continue
		}

		current := 0.0
		if pos, held := p.positions[o.Ticker]; held {
			current = pos.Quantity * q.AdjClose
		}
		diff := o.TargetWeight*openValue - current
		if math.Abs(diff) < p.cfg.MinTradeValue {
			outcomes = append(outcomes, OrderOutcome{Order: o, Status: Skipped, Reason: ReasonBelowMinimum})
			continue
		}

		qty := math.Floor(math.Abs(diff) / q.AdjClose)
		if qty <= 0 {
			outcomes = append(outcomes, OrderOutcome{Order: o, Status: Skipped, Reason: ReasonBelowMinimum})
			continue
		}

		side := Buy
		if diff < 0 {
			side = Sell
		}
		resolved = append(resolved, resolvedOrder{
			original: o,
			order:    Order{Ticker: o.Ticker, Side: side, Quantity: qty},
		})
	}
	return resolved, outcomes
}

// execute fills one quantity-denominated order.
func (p *Portfolio) execute(r resolvedOrder, quotes map[string]market.PricePoint) OrderOutcome {
	o := r.order
	out := OrderOutcome{Order: r.original}

	q, ok := quotes[o.Ticker]
	if !ok || q.AdjClose <= 0 {
		out.Status = Rejected
		out.Reason = ReasonNoMarketOnDate
		return out
	}
	if o.Quantity <= 0 {
		out.Status = Skipped
		out.Reason = ReasonBelowMinimum
		return out
	}

	switch o.Side {
	case Sell:
		return p.sell(out, o, q)
	default:
		return p.buy(out, o, q)
	}
}

func (p *Portfolio) sell(out OrderOutcome, o Order, q market.PricePoint) OrderOutcome {
	pos, held := p.positions[o.Ticker]
	if !held || pos.Quantity <= 0 {
		out.Status = Rejected
		out.Reason = ReasonNoPosition
		return out
	}

	qty := o.Quantity
	status := Filled
	if qty > pos.Quantity {
		qty = pos.Quantity
		status = Partial
	}

	exec := p.cfg.Slippage.Execution(q.AdjClose, Sell, qty, q.Volume)
	proceeds := qty * exec
	commission := p.cfg.Commission.Commission(proceeds)

	p.cash += proceeds - commission
	realized := (exec-pos.AvgCost)*qty - commission
	p.realized += realized

	pos.Quantity -= qty
	if pos.Quantity < 1e-9 {
		delete(p.positions, o.Ticker)
	}

	out.Status = status
	out.Quantity = qty
	out.Price = exec
	out.Commission = commission
	out.RealizedPL = realized
	return out
}

func (p *Portfolio) buy(out OrderOutcome, o Order, q market.PricePoint) OrderOutcome {
	qty := o.Quantity
	exec := p.cfg.Slippage.Execution(q.AdjClose, Buy, qty, q.Volume)

	cost := func(n float64) float64 {
		notional := n * exec
		return notional + p.cfg.Commission.Commission(notional)
	}

	status := Filled
	if cost(qty) > p.cash+cashEpsilon {
		if p.cfg.Overdraw == RejectOverdraw {
			out.Status = Rejected
			out.Reason = ReasonInsufficientCash
			return out
		}

		// Partial fill: largest whole-share quantity cash covers.
		qty = math.Floor(p.cash / exec)
		for qty > 0 && cost(qty) > p.cash+cashEpsilon {
			qty--
		}
		if qty <= 0 {
			out.Status = Rejected
			out.Reason = ReasonInsufficientCash
			return out
		}
		status = Partial
	}

	notional := qty * exec
	commission := p.cfg.Commission.Commission(notional)
	p.cash -= notional + commission

	pos, held := p.positions[o.Ticker]
	if !held {
		p.positions[o.Ticker] = &Position{Ticker: o.Ticker, Quantity: qty, AvgCost: exec}
	} else {
		total := pos.Quantity + qty
		pos.AvgCost = (pos.Quantity*pos.AvgCost + qty*exec) / total
		pos.Quantity = total
	}

	out.Status = status
	out.Quantity = qty
	out.Price = exec
	out.Commission = commission
	return out
}
