// Package metrics computes performance statistics over a backtest equity
// ledger. Analyze is pure: same ledger in, same numbers out, no I/O.
//
// Ratios can be genuinely undefined (zero volatility, no downside days, no
// benchmark overlap). Those come back as an unset Ratio rather than 0 or
// NaN, so a flat ledger reads as "Sharpe: undefined", not "Sharpe: 0".
package metrics

import (
	"encoding/json"
	"math"
	"time"
)

// DefaultTradingDays is the annualization base for daily bars.
const DefaultTradingDays = 252

// Options parameterizes Analyze.
type Options struct {
	// RiskFreeRate is the annual risk-free rate, e.g. 0.02 for 2%.
	RiskFreeRate float64
	// TradingDaysPerYear defaults to DefaultTradingDays when zero.
	TradingDaysPerYear int
}

// Ratio is a statistic that may be undefined for a given ledger.
type Ratio struct {
	Value   float64
	Defined bool
}

func defined(v float64) Ratio { return Ratio{Value: v, Defined: true} }

// MarshalJSON encodes an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts null as undefined.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = defined(v)
	return nil
}

// Summary is the full statistics block for one run.
type Summary struct {
	TotalReturn     float64 `json:"total_return"`
	CAGR            Ratio   `json:"cagr"`
	Volatility      Ratio   `json:"volatility"`
	Sharpe          Ratio   `json:"sharpe"`
	Sortino         Ratio   `json:"sortino"`
	Calmar          Ratio   `json:"calmar"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	MaxDrawdownDays int     `json:"max_drawdown_days"`

	// Versus benchmark; undefined when no benchmark was supplied.
	Alpha            Ratio `json:"alpha"`
	Beta             Ratio `json:"beta"`
	InformationRatio Ratio `json:"information_ratio"`
	BenchmarkReturn  Ratio `json:"benchmark_return"`
}

// Analyze computes the summary for an equity curve. dates and values run in
// parallel, oldest first. benchmark, when non-nil, must be aligned to the
// same dates; pass nil to skip the relative statistics.
func Analyze(dates []time.Time, values []float64, benchmark []float64, opts Options) Summary {
	var s Summary
	if len(values) < 2 || len(dates) != len(values) || values[0] <= 0 {
		return s
	}
	tradingDays := opts.TradingDaysPerYear
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}
	annual := math.Sqrt(float64(tradingDays))
	rfDaily := opts.RiskFreeRate / float64(tradingDays)

	rets := dailyReturns(values)

	s.TotalReturn = values[len(values)-1]/values[0] - 1

	years := dates[len(dates)-1].Sub(dates[0]).Hours() / 24 / 365.25
	if years > 0 && values[len(values)-1] > 0 {
		s.CAGR = defined(math.Pow(values[len(values)-1]/values[0], 1/years) - 1)
	}

	if sd := stdev(rets); sd > 0 {
		s.Volatility = defined(sd * annual)
		s.Sharpe = defined((mean(rets) - rfDaily) / sd * annual)
	}

	if dd := downsideDev(rets); dd > 0 {
		s.Sortino = defined((mean(rets) - rfDaily) / dd * annual)
	}

	s.MaxDrawdown, s.MaxDrawdownDays = maxDrawdown(dates, values)
	if s.CAGR.Defined && s.MaxDrawdown < 0 {
		s.Calmar = defined(s.CAGR.Value / -s.MaxDrawdown)
	}

	if len(benchmark) == len(values) && benchmark[0] > 0 {
		s.analyzeVsBenchmark(rets, benchmark, rfDaily, annual, tradingDays)
	}
	return s
}

func (s *Summary) analyzeVsBenchmark(rets, benchmark []float64, rfDaily, annual float64, tradingDays int) {
	bRets := dailyReturns(benchmark)
	s.BenchmarkReturn = defined(benchmark[len(benchmark)-1]/benchmark[0] - 1)

	if v := variance(bRets); v > 0 {
		beta := covariance(rets, bRets) / v
		s.Beta = defined(beta)

		// CAPM alpha on annualized means.
		rf := rfDaily * float64(tradingDays)
		portAnnual := mean(rets) * float64(tradingDays)
		benchAnnual := mean(bRets) * float64(tradingDays)
		s.Alpha = defined(portAnnual - rf - beta*(benchAnnual-rf))
	}

	active := make([]float64, len(rets))
	for i := range rets {
		active[i] = rets[i] - bRets[i]
	}
	if sd := stdev(active); sd > 0 {
		s.InformationRatio = defined(mean(active) / sd * annual)
	}
}

// Drawdowns returns the drawdown series: for each point, the fractional
// decline from the running peak (0 at or above the peak, negative below).
func Drawdowns(values []float64) []float64 {
	out := make([]float64, len(values))
	peak := math.Inf(-1)
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = v/peak - 1
		}
	}
	return out
}

// maxDrawdown returns the deepest decline from a running peak and the length
// in calendar days of the longest stretch spent below a prior peak.
func maxDrawdown(dates []time.Time, values []float64) (float64, int) {
	worst := 0.0
	longest := 0

	peak := values[0]
	peakDate := dates[0]
	for i, v := range values {
		if v >= peak {
			peak = v
			peakDate = dates[i]
			continue
		}
		if dd := v/peak - 1; dd < worst {
			worst = dd
		}
		if days := int(dates[i].Sub(peakDate).Hours() / 24); days > longest {
			longest = days
		}
	}
	return worst, longest
}

func dailyReturns(values []float64) []float64 {
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the sample variance.
func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs)-1)
}

func stdev(xs []float64) float64 { return math.Sqrt(variance(xs)) }

func covariance(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(len(xs)-1)
}

// downsideDev is the sample standard deviation of the negative returns only.
func downsideDev(xs []float64) float64 {
	var neg []float64
	for _, x := range xs {
		if x < 0 {
			neg = append(neg, x)
		}
	}
	return stdev(neg)
}
