// Package sandbox executes user-authored strategy scripts under restricted
// capabilities. Strategies are tengo scripts: they receive a read-only view
// of portfolio state and a look-ahead-free price window as script globals,
// and respond by assigning target weights or explicit orders. Scripts can
// import only the allow-listed modules (tengo's math plus the host ta
// module) with no filesystem, network, process or host state access, and run
// under a hard wall-clock budget enforced by the host.
//
// Script contract. Inputs (globals): date, cash, total_value, positions,
// tickers, dates, closes, highs, lows, volumes. Outputs: assign exactly one of
//
//	weights_out = {"SPY": 0.6, "TLT": 0.4}   // target weights, fraction of value
//	orders_out  = [{ticker: "SPY", side: "buy", quantity: 10}]
//
// Assigning neither means "no trades". Assigning both, or values of the
// wrong shape, is a MalformedResult fault.
//
// Numeric inputs (cash, quantities, prices) are bound as floats, and tengo
// equality is type-strict: compare them with float literals
// (positions[t].quantity == 50.0, not == 50).
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/rustyeddy/quantfolio/portfolio"
	"github.com/rustyeddy/quantfolio/sandbox/modules"
)

const (
	// DefaultBudget bounds one invocation when the caller passes none.
	DefaultBudget = 10 * time.Second

	// maxAllocs caps tengo object allocations per invocation so a script
	// cannot exhaust host memory inside its time budget.
	maxAllocs = 5 << 20

	maxConstObjects = 4096
)

// Result is the outcome of one strategy invocation: either trade
// instructions or a fault, never both.
type Result struct {
	Orders  []portfolio.Order
	Weights map[string]float64
	Fault   *Fault
}

// faulted builds a fault result.
func faulted(kind FaultKind, format string, args ...any) Result {
	return Result{Fault: &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// Modules returns the capability allow-list for strategy scripts: tengo's
// math stdlib module and the host ta module. File imports are never enabled.
func Modules() *tengo.ModuleMap {
	m := stdlib.GetModuleMap("math")
	m.AddBuiltinModule("ta", modules.TA)
	return m
}

// Evaluate compiles and runs one strategy invocation. Any script failure
// (bad syntax, forbidden import, runtime error, overrun budget, malformed
// output) is returned as a fault descriptor; Evaluate itself only fails by
// returning that descriptor, never by panicking into the engine. Identical
// inputs produce identical results: scripts have no clock, no randomness and
// no host state to reach.
func Evaluate(ctx context.Context, code []byte, view StateView, win DataWindow, budget time.Duration) (res Result) {
	if budget <= 0 {
		budget = DefaultBudget
	}

	defer func() {
		if r := recover(); r != nil {
			res = faulted(FaultRuntime, "panic: %v", r)
		}
	}()

	s := tengo.NewScript(code)
	s.SetImports(Modules())
	s.SetMaxAllocs(maxAllocs)
	s.SetMaxConstObjects(maxConstObjects)

	for name, value := range scriptGlobals(view, win) {
		if err := s.Add(name, value); err != nil {
			return faulted(FaultRuntime, "bind %s: %v", name, err)
		}
	}

	compiled, err := s.Compile()
	if err != nil {
		if isImportErr(err) {
			return faulted(FaultCapabilityViolation, "%v", err)
		}
		return faulted(FaultRuntime, "compile: %v", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if err := compiled.RunContext(runCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || runCtx.Err() == context.DeadlineExceeded {
			return faulted(FaultTimeout, "exceeded budget of %s", budget)
		}
		return faulted(FaultRuntime, "%v", err)
	}

	return extract(compiled, win)
}

// scriptGlobals builds the input bindings plus nil output slots so scripts
// can assign outputs with plain "=".
func scriptGlobals(view StateView, win DataWindow) map[string]any {
	sv := view.scriptValue()
	return map[string]any{
		"date":        sv["date"],
		"cash":        sv["cash"],
		"total_value": sv["total_value"],
		"positions":   sv["positions"],
		"tickers":     stringArray(win.Tickers),
		"dates":       seriesMap(win.Tickers, win.Dates, stringArray),
		"closes":      seriesMap(win.Tickers, win.Closes, floatArray),
		"highs":       seriesMap(win.Tickers, win.Highs, floatArray),
		"lows":        seriesMap(win.Tickers, win.Lows, floatArray),
		"volumes":     seriesMap(win.Tickers, win.Volumes, intArray),
		"weights_out": nil,
		"orders_out":  nil,
	}
}

func isImportErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "module") && strings.Contains(msg, "not found")
}

// extract validates the script's output at the sandbox boundary.
func extract(compiled *tengo.Compiled, win DataWindow) Result {
	universe := make(map[string]bool, len(win.Tickers))
	for _, t := range win.Tickers {
		universe[t] = true
	}

	weightsRaw := compiled.Get("weights_out").Value()
	ordersRaw := compiled.Get("orders_out").Value()

	if weightsRaw != nil && ordersRaw != nil {
		return faulted(FaultMalformedResult, "script set both weights_out and orders_out")
	}

	switch {
	case weightsRaw != nil:
		weights, fault := parseWeights(weightsRaw, universe)
		if fault != nil {
			return Result{Fault: fault}
		}
		return Result{Weights: weights}

	case ordersRaw != nil:
		orders, fault := parseOrders(ordersRaw, universe)
		if fault != nil {
			return Result{Fault: fault}
		}
		return Result{Orders: orders}
	}

	// No output at all: a valid "hold everything" response.
	return Result{}
}

func parseWeights(raw any, universe map[string]bool) (map[string]float64, *Fault) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("weights_out must be a map, got %T", raw)}
	}

	// Accumulate in sorted ticker order so the rescale divisor, and with it
	// the resulting ledger, is identical across runs.
	weights := make(map[string]float64, len(m))
	sum := 0.0
	for _, ticker := range sortedKeys(m) {
		v := m[ticker]
		if !universe[ticker] {
			return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("weights_out names unknown ticker %q", ticker)}
		}
		w, ok := toFloat(v)
		if !ok {
			return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("weight for %s is not a number", ticker)}
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("weight for %s out of range: %v", ticker, w)}
		}
		weights[ticker] = w
		sum += w
	}

	// Weights above 1 in aggregate would borrow; scale down to fully
	// invested. A sum below 1 is allowed; the remainder stays in cash.
	if sum > 1+1e-9 {
		for t := range weights {
			weights[t] /= sum
		}
	}
	return weights, nil
}

func parseOrders(raw any, universe map[string]bool) ([]portfolio.Order, *Fault) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("orders_out must be an array, got %T", raw)}
	}

	orders := make([]portfolio.Order, 0, len(arr))
	for i, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("orders_out[%d] must be a map", i)}
		}

		ticker, _ := m["ticker"].(string)
		if !universe[ticker] {
			return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("orders_out[%d] names unknown ticker %q", i, ticker)}
		}

		var side portfolio.Side
		switch s, _ := m["side"].(string); s {
		case "buy":
			side = portfolio.Buy
		case "sell":
			side = portfolio.Sell
		default:
			return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("orders_out[%d] has bad side %q", i, m["side"])}
		}

		qty, ok := toFloat(m["quantity"])
		if !ok || qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
			return nil, &Fault{Kind: FaultMalformedResult, Message: fmt.Sprintf("orders_out[%d] has bad quantity %v", i, m["quantity"])}
		}

		orders = append(orders, portfolio.Order{Ticker: ticker, Side: side, Quantity: qty})
	}
	return orders, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
