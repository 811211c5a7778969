package indicators

import (
	"fmt"
	"math"
)

// Volatility returns the sample standard deviation of the last period daily
// returns computed from the close series.
func Volatility(closes []float64, period int) (float64, error) {
	if err := checkPeriod(len(closes), period+1); err != nil {
		return 0, err
	}
	if period < 2 {
		return 0, fmt.Errorf("volatility needs period >= 2, got %d", period)
	}

	returns := make([]float64, 0, period)
	for i := len(closes) - period; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			return 0, fmt.Errorf("zero close at index %d", i-1)
		}
		returns = append(returns, closes[i]/prev-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	varSum := 0.0
	for _, r := range returns {
		d := r - mean
		varSum += d * d
	}
	return math.Sqrt(varSum / float64(len(returns)-1)), nil
}

// ATR calculates the Average True Range over the last period bars using
// Wilder's smoothing. The three slices must be the same length.
func ATR(highs, lows, closes []float64, period int) (float64, error) {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return 0, fmt.Errorf("mismatched slice lengths: %d/%d/%d", len(highs), len(lows), len(closes))
	}
	if err := checkPeriod(len(closes), period+1); err != nil {
		return 0, err
	}

	trueRange := func(i int) float64 {
		tr := highs[i] - lows[i]
		if d := math.Abs(highs[i] - closes[i-1]); d > tr {
			tr = d
		}
		if d := math.Abs(lows[i] - closes[i-1]); d > tr {
			tr = d
		}
		return tr
	}

	atr := 0.0
	for i := 1; i <= period; i++ {
		atr += trueRange(i)
	}
	atr /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		atr = (atr*float64(period-1) + trueRange(i)) / float64(period)
	}
	return atr, nil
}
