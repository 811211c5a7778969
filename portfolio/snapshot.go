package portfolio

import "time"

// Position is a holding in one ticker. AvgCost is the weighted-average
// execution price of the open quantity.
type Position struct {
	Ticker   string
	Quantity float64
	AvgCost  float64
}

// Snapshot is the portfolio's state at the end of one simulated day, plus the
// outcome of every order applied that day. Snapshots are value copies:
// immutable once recorded, forming the backtest's append-only ledger.
type Snapshot struct {
	Date       time.Time
	Cash       float64
	Positions  map[string]Position
	TotalValue float64
	Orders     []OrderOutcome
	Fault      string // strategy fault recorded against this date, if any
}

// Weights returns ticker -> fraction of TotalValue held, at the prices the
// snapshot was marked with.
func (s Snapshot) Weights(prices map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(s.Positions))
	if s.TotalValue <= 0 {
		return out
	}
	for t, p := range s.Positions {
		if px, ok := prices[t]; ok {
			out[t] = p.Quantity * px / s.TotalValue
		}
	}
	return out
}
