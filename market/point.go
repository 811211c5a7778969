package market

import "time"

// PricePoint is one daily bar for a ticker. Points are immutable once
// fetched; AdjClose is the split/dividend adjusted close used for all
// valuation and execution in the simulator.
type PricePoint struct {
	Ticker   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// Day normalizes t to midnight UTC so dates compare and map-key cleanly
// regardless of the location the source data was parsed in.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
