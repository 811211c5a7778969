package indicators

import "fmt"

// SMA calculates the Simple Moving Average of the last period samples.
func SMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(len(values), period); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average over the full slice, seeded
// with the SMA of the first period samples.
func EMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(len(values), period); err != nil {
		return 0, err
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for i := 0; i < period; i++ {
		sma += values[i]
	}
	ema := sma / float64(period)

	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}
	return ema, nil
}

// Momentum returns the rate of change over the last period samples:
// values[last]/values[last-period] - 1.
func Momentum(values []float64, period int) (float64, error) {
	if err := checkPeriod(len(values), period+1); err != nil {
		return 0, err
	}

	base := values[len(values)-1-period]
	if base == 0 {
		return 0, fmt.Errorf("momentum base value is zero")
	}
	return values[len(values)-1]/base - 1, nil
}
