// Package backtest drives a full simulation: it loads price history, walks
// the trading calendar, invokes the sandboxed strategy on rebalance dates and
// applies the resulting orders to the portfolio, producing a day-by-day
// ledger and a final report.
package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/quantfolio/portfolio"
)

// ErrConfig wraps every validation failure so callers can fail fast before a
// run produces any state.
var ErrConfig = errors.New("invalid backtest config")

// Rebalance is how often the strategy is consulted.
type Rebalance string

const (
	Daily     Rebalance = "daily"
	Weekly    Rebalance = "weekly"
	Monthly   Rebalance = "monthly"
	Quarterly Rebalance = "quarterly"
	// Custom rebalances on the dates listed in Config.CustomDates, each
	// snapped forward to the next trading day.
	Custom Rebalance = "custom"
)

// Config parameterizes one backtest run.
type Config struct {
	Universe    []string    `json:"universe" yaml:"universe"`
	Start       time.Time   `json:"start" yaml:"start"`
	End         time.Time   `json:"end" yaml:"end"`
	Rebalance   Rebalance   `json:"rebalance" yaml:"rebalance"`
	CustomDates []time.Time `json:"custom_dates,omitempty" yaml:"custom_dates,omitempty"`

	InitialCash    float64 `json:"initial_cash" yaml:"initial_cash"`
	CommissionRate float64 `json:"commission_rate,omitempty" yaml:"commission_rate,omitempty"`
	CommissionFix  float64 `json:"commission_fixed,omitempty" yaml:"commission_fixed,omitempty"`
	SlippageBps    float64 `json:"slippage_bps,omitempty" yaml:"slippage_bps,omitempty"`
	MinTradeValue  float64 `json:"min_trade_value,omitempty" yaml:"min_trade_value,omitempty"`
	// Overdraw is "reject" (default) or "partial".
	Overdraw string `json:"overdraw,omitempty" yaml:"overdraw,omitempty"`

	Benchmark    string  `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
	RiskFreeRate float64 `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`

	// StrategyBudget bounds each sandbox invocation. Zero means the
	// sandbox default.
	StrategyBudget time.Duration `json:"strategy_budget,omitempty" yaml:"strategy_budget,omitempty"`

	// LookbackDays of history loaded before Start so indicators have a
	// warmup window. Defaults to 365.
	LookbackDays int `json:"lookback_days,omitempty" yaml:"lookback_days,omitempty"`
}

// Validate checks the config before any state is created.
func (c Config) Validate() error {
	if len(c.Universe) == 0 {
		return fmt.Errorf("%w: universe is empty", ErrConfig)
	}
	for _, t := range c.Universe {
		if t == "" {
			return fmt.Errorf("%w: universe contains an empty ticker", ErrConfig)
		}
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrConfig)
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrConfig,
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	if c.InitialCash <= 0 {
		return fmt.Errorf("%w: initial_cash must be positive", ErrConfig)
	}
	switch c.Rebalance {
	case Daily, Weekly, Monthly, Quarterly:
	case Custom:
		if len(c.CustomDates) == 0 {
			return fmt.Errorf("%w: custom rebalance needs custom_dates", ErrConfig)
		}
	case "":
		return fmt.Errorf("%w: rebalance is required", ErrConfig)
	default:
		return fmt.Errorf("%w: unknown rebalance %q", ErrConfig, c.Rebalance)
	}
	switch c.Overdraw {
	case "", "reject", "partial":
	default:
		return fmt.Errorf("%w: unknown overdraw policy %q", ErrConfig, c.Overdraw)
	}
	if c.CommissionRate < 0 || c.CommissionFix < 0 || c.SlippageBps < 0 || c.MinTradeValue < 0 {
		return fmt.Errorf("%w: cost parameters must not be negative", ErrConfig)
	}
	return nil
}

func (c Config) lookback() int {
	if c.LookbackDays > 0 {
		return c.LookbackDays
	}
	return 365
}

func (c Config) portfolioConfig() portfolio.Config {
	overdraw := portfolio.RejectOverdraw
	if c.Overdraw == "partial" {
		overdraw = portfolio.PartialFillOverdraw
	}

	var commission portfolio.CommissionModel
	if c.CommissionRate > 0 || c.CommissionFix > 0 {
		commission = portfolio.StandardCommission{Fixed: c.CommissionFix, Rate: c.CommissionRate}
	}
	var slippage portfolio.SlippageModel
	if c.SlippageBps > 0 {
		slippage = portfolio.FixedBpsSlippage{Bps: c.SlippageBps}
	}

	return portfolio.Config{
		InitialCash:   c.InitialCash,
		Commission:    commission,
		Slippage:      slippage,
		Overdraw:      overdraw,
		MinTradeValue: c.MinTradeValue,
	}
}
