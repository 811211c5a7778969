package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func point(ticker string, d time.Time, close float64) PricePoint {
	return PricePoint{
		Ticker: ticker, Date: d,
		Open: close, High: close, Low: close, Close: close,
		AdjClose: close, Volume: 1000,
	}
}

func TestNewSeriesSortsAndNormalizes(t *testing.T) {
	t.Parallel()

	s, err := NewSeries("SPY", []PricePoint{
		point("SPY", day(2024, 1, 3), 102),
		point("SPY", time.Date(2024, 1, 2, 15, 30, 0, 0, time.FixedZone("EST", -5*3600)), 101),
	})
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.True(t, s.Points[0].Date.Equal(day(2024, 1, 2)), "intraday timestamp should normalize to UTC midnight")
	assert.True(t, s.Points[1].Date.Equal(day(2024, 1, 3)))
}

func TestNewSeriesRejectsDuplicateDates(t *testing.T) {
	t.Parallel()

	_, err := NewSeries("SPY", []PricePoint{
		point("SPY", day(2024, 1, 2), 101),
		point("SPY", day(2024, 1, 2), 102),
	})
	assert.Error(t, err)
}

func TestSeriesUpToExcludesFutureDates(t *testing.T) {
	t.Parallel()

	s, err := NewSeries("SPY", []PricePoint{
		point("SPY", day(2024, 1, 2), 101),
		point("SPY", day(2024, 1, 3), 102),
		point("SPY", day(2024, 1, 4), 103),
	})
	require.NoError(t, err)

	win := s.UpTo(day(2024, 1, 3))
	require.Len(t, win, 2)
	assert.Equal(t, 102.0, win[len(win)-1].AdjClose)

	// A gap date still includes everything before it.
	win = s.UpTo(day(2024, 1, 5))
	assert.Len(t, win, 3)
}

func TestSeriesAtSkipsNonTradingDay(t *testing.T) {
	t.Parallel()

	s, err := NewSeries("SPY", []PricePoint{
		point("SPY", day(2024, 1, 2), 101),
		point("SPY", day(2024, 1, 4), 103),
	})
	require.NoError(t, err)

	_, ok := s.At(day(2024, 1, 3))
	assert.False(t, ok)

	p, ok := s.At(day(2024, 1, 4))
	require.True(t, ok)
	assert.Equal(t, 103.0, p.AdjClose)
}

func TestTradingDatesUnion(t *testing.T) {
	t.Parallel()

	spy, err := NewSeries("SPY", []PricePoint{
		point("SPY", day(2024, 1, 2), 100),
		point("SPY", day(2024, 1, 3), 101),
	})
	require.NoError(t, err)
	tlt, err := NewSeries("TLT", []PricePoint{
		point("TLT", day(2024, 1, 3), 90),
		point("TLT", day(2024, 1, 4), 91),
	})
	require.NoError(t, err)

	set := NewSeriesSet(spy, tlt)

	dates := set.TradingDates(day(2024, 1, 1), day(2024, 1, 31))
	require.Len(t, dates, 3)
	assert.True(t, dates[0].Equal(day(2024, 1, 2)))
	assert.True(t, dates[1].Equal(day(2024, 1, 3)))
	assert.True(t, dates[2].Equal(day(2024, 1, 4)))

	prices := set.PricesOn(day(2024, 1, 2))
	assert.Equal(t, map[string]float64{"SPY": 100}, prices)
}

type stubProvider struct {
	calls  int
	series Series
	err    error
}

func (p *stubProvider) GetSeries(_ context.Context, _ string, _, _ time.Time) (Series, error) {
	p.calls++
	return p.series, p.err
}

func TestCacheFetchesOncePerCoveredRange(t *testing.T) {
	t.Parallel()

	s, err := NewSeries("SPY", []PricePoint{
		point("SPY", day(2024, 1, 2), 100),
		point("SPY", day(2024, 1, 3), 101),
	})
	require.NoError(t, err)

	src := &stubProvider{series: s}
	cache := NewCache(src)

	ctx := context.Background()
	_, err = cache.GetSeries(ctx, "SPY", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	_, err = cache.GetSeries(ctx, "SPY", day(2024, 1, 2), day(2024, 1, 3))
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
}

func TestCacheEmptyRangeIsDataUnavailable(t *testing.T) {
	t.Parallel()

	s, err := NewSeries("SPY", []PricePoint{point("SPY", day(2024, 1, 2), 100)})
	require.NoError(t, err)

	cache := NewCache(&stubProvider{series: s})
	_, err = cache.GetSeries(context.Background(), "SPY", day(2025, 6, 1), day(2025, 6, 30))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
