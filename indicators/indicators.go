// Package indicators provides the numeric primitives available to strategy
// scripts and to host-side analytics: moving averages, RSI, ATR, volatility
// and momentum over daily price history.
//
// All functions operate on float64 slices ordered oldest to newest and return
// the indicator value as of the final sample. They are deterministic and safe
// to call from concurrent backtest runs.
package indicators

import "fmt"

func checkPeriod(n, period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	if n < period {
		return fmt.Errorf("not enough samples: need %d, got %d", period, n)
	}
	return nil
}
