package sandbox

import (
	"sort"
	"time"

	"github.com/rustyeddy/quantfolio/market"
)

// PositionView is the read-only projection of one holding a strategy sees.
type PositionView struct {
	Quantity float64
	AvgCost  float64
	Value    float64
	Weight   float64
}

// StateView is the read-only projection of portfolio state handed to a
// strategy invocation. It is a value copy: scripts can inspect it but
// nothing they do reaches the live portfolio.
type StateView struct {
	Date       time.Time
	Cash       float64
	TotalValue float64
	Positions  map[string]PositionView
}

// DataWindow is the price history visible to one invocation: for each ticker
// in the universe, every bar dated at or before the simulation date, oldest
// first. The engine builds windows from its series set, so a script can never
// observe a price dated after StateView.Date.
type DataWindow struct {
	Tickers []string
	Dates   map[string][]string
	Closes  map[string][]float64
	Highs   map[string][]float64
	Lows    map[string][]float64
	Volumes map[string][]int64
}

// NewDataWindow builds the window for date from the given series set.
func NewDataWindow(set *market.SeriesSet, date time.Time) DataWindow {
	win := DataWindow{
		Tickers: set.Tickers(),
		Dates:   make(map[string][]string),
		Closes:  make(map[string][]float64),
		Highs:   make(map[string][]float64),
		Lows:    make(map[string][]float64),
		Volumes: make(map[string][]int64),
	}
	for _, t := range win.Tickers {
		s, ok := set.Get(t)
		if !ok {
			continue
		}
		pts := s.UpTo(date)
		dates := make([]string, len(pts))
		closes := make([]float64, len(pts))
		highs := make([]float64, len(pts))
		lows := make([]float64, len(pts))
		volumes := make([]int64, len(pts))
		for i, p := range pts {
			dates[i] = p.Date.Format("2006-01-02")
			closes[i] = p.AdjClose
			highs[i] = p.High
			lows[i] = p.Low
			volumes[i] = p.Volume
		}
		win.Dates[t] = dates
		win.Closes[t] = closes
		win.Highs[t] = highs
		win.Lows[t] = lows
		win.Volumes[t] = volumes
	}
	return win
}

// sortedKeys keeps script-visible map conversions deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tengo value trees. Script globals are built from plain interface{} values;
// everything is copied, nothing refers back to host state.

func (v StateView) scriptValue() map[string]any {
	positions := make(map[string]any, len(v.Positions))
	for _, t := range sortedKeys(v.Positions) {
		p := v.Positions[t]
		positions[t] = map[string]any{
			"quantity": p.Quantity,
			"avg_cost": p.AvgCost,
			"value":    p.Value,
			"weight":   p.Weight,
		}
	}
	return map[string]any{
		"date":        v.Date.Format("2006-01-02"),
		"cash":        v.Cash,
		"total_value": v.TotalValue,
		"positions":   positions,
	}
}

func floatArray(vs []float64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func intArray(vs []int64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func stringArray(vs []string) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func seriesMap[V any](tickers []string, m map[string][]V, conv func([]V) []any) map[string]any {
	out := make(map[string]any, len(tickers))
	for _, t := range tickers {
		out[t] = conv(m[t])
	}
	return out
}
