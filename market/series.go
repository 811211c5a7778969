package market

import (
	"fmt"
	"sort"
	"time"
)

// Series holds the daily bars for a single ticker, ascending by date with
// no duplicate dates. Missing dates are non-trading days and simply absent.
type Series struct {
	Ticker string
	Points []PricePoint
}

// NewSeries sorts points by date, rejects duplicates, and returns a Series.
func NewSeries(ticker string, points []PricePoint) (Series, error) {
	ps := make([]PricePoint, len(points))
	copy(ps, points)
	for i := range ps {
		ps[i].Ticker = ticker
		ps[i].Date = Day(ps[i].Date)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Date.Before(ps[j].Date) })
	for i := 1; i < len(ps); i++ {
		if ps[i].Date.Equal(ps[i-1].Date) {
			return Series{}, fmt.Errorf("series %s: duplicate date %s", ticker, ps[i].Date.Format("2006-01-02"))
		}
	}
	return Series{Ticker: ticker, Points: ps}, nil
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// At returns the point on date d, if the ticker traded that day.
func (s Series) At(d time.Time) (PricePoint, bool) {
	d = Day(d)
	i := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(d) })
	if i < len(s.Points) && s.Points[i].Date.Equal(d) {
		return s.Points[i], true
	}
	return PricePoint{}, false
}

// UpTo returns the points dated at or before d. The returned slice shares
// backing storage with the series; callers must not mutate it.
func (s Series) UpTo(d time.Time) []PricePoint {
	d = Day(d)
	i := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Date.After(d) })
	return s.Points[:i]
}

// Between returns the points with start <= date <= end.
func (s Series) Between(start, end time.Time) []PricePoint {
	start, end = Day(start), Day(end)
	lo := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(start) })
	hi := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Date.After(end) })
	return s.Points[lo:hi]
}

// SeriesSet is the price data for a universe of tickers.
type SeriesSet struct {
	byTicker map[string]Series
}

// NewSeriesSet builds a set from the given series.
func NewSeriesSet(series ...Series) *SeriesSet {
	set := &SeriesSet{byTicker: make(map[string]Series, len(series))}
	for _, s := range series {
		set.byTicker[s.Ticker] = s
	}
	return set
}

// Add inserts or replaces the series for its ticker.
func (ss *SeriesSet) Add(s Series) {
	ss.byTicker[s.Ticker] = s
}

// Tickers returns the tickers in the set, sorted.
func (ss *SeriesSet) Tickers() []string {
	out := make([]string, 0, len(ss.byTicker))
	for t := range ss.byTicker {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Get returns the series for a ticker.
func (ss *SeriesSet) Get(ticker string) (Series, bool) {
	s, ok := ss.byTicker[ticker]
	return s, ok
}

// TradingDates returns the sorted union of trading dates across all tickers
// within [start, end]. A date appears once even if several tickers traded.
func (ss *SeriesSet) TradingDates(start, end time.Time) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, s := range ss.byTicker {
		for _, p := range s.Between(start, end) {
			seen[p.Date] = struct{}{}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// PricesOn returns ticker -> adjusted close for every ticker that traded on d.
func (ss *SeriesSet) PricesOn(d time.Time) map[string]float64 {
	out := make(map[string]float64)
	for t, s := range ss.byTicker {
		if p, ok := s.At(d); ok {
			out[t] = p.AdjClose
		}
	}
	return out
}

// QuotesOn returns ticker -> full bar for every ticker that traded on d.
func (ss *SeriesSet) QuotesOn(d time.Time) map[string]PricePoint {
	out := make(map[string]PricePoint)
	for t, s := range ss.byTicker {
		if p, ok := s.At(d); ok {
			out[t] = p
		}
	}
	return out
}
