package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weekdaysFrom generates n consecutive weekdays starting at start.
func weekdaysFrom(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := start
	for len(out) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func TestRebalanceDaily(t *testing.T) {
	t.Parallel()

	dates := weekdaysFrom(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), 10)
	rebal := rebalanceDates(dates, Daily, nil)
	assert.Len(t, rebal, 10)
}

func TestRebalanceWeeklyPicksFirstTradingDayOfWeek(t *testing.T) {
	t.Parallel()

	// Three full weeks starting Monday 2020-01-06.
	dates := weekdaysFrom(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), 15)
	rebal := rebalanceDates(dates, Weekly, nil)

	require.Len(t, rebal, 3)
	assert.True(t, rebal[time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)])
	assert.True(t, rebal[time.Date(2020, 1, 13, 0, 0, 0, 0, time.UTC)])
	assert.True(t, rebal[time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC)])
}

func TestRebalanceWeeklySkipsHolidayMonday(t *testing.T) {
	t.Parallel()

	// Monday 2020-01-13 removed: Tuesday becomes that week's rebalance day.
	dates := weekdaysFrom(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), 10)
	var trimmed []time.Time
	for _, d := range dates {
		if !d.Equal(time.Date(2020, 1, 13, 0, 0, 0, 0, time.UTC)) {
			trimmed = append(trimmed, d)
		}
	}

	rebal := rebalanceDates(trimmed, Weekly, nil)
	assert.True(t, rebal[time.Date(2020, 1, 14, 0, 0, 0, 0, time.UTC)])
	assert.False(t, rebal[time.Date(2020, 1, 13, 0, 0, 0, 0, time.UTC)])
}

func TestRebalanceMonthly(t *testing.T) {
	t.Parallel()

	// Jan and Feb 2020; Feb 1-2 fall on a weekend.
	dates := weekdaysFrom(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), 40)
	rebal := rebalanceDates(dates, Monthly, nil)

	assert.True(t, rebal[time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)])
	assert.True(t, rebal[time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)])
	assert.Len(t, rebal, 2)
}

func TestRebalanceQuarterlyAlwaysIncludesFirstDate(t *testing.T) {
	t.Parallel()

	// Run starts mid-quarter: the first trading date still rebalances so
	// the portfolio gets invested.
	dates := weekdaysFrom(time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC), 45)
	rebal := rebalanceDates(dates, Quarterly, nil)

	assert.True(t, rebal[time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)])
	assert.True(t, rebal[time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)])
	assert.Len(t, rebal, 2)
}

func TestRebalanceCustomSnapsForward(t *testing.T) {
	t.Parallel()

	dates := weekdaysFrom(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), 10)
	rebal := rebalanceDates(dates, Custom, []time.Time{
		time.Date(2020, 1, 11, 0, 0, 0, 0, time.UTC), // Saturday
		time.Date(2020, 1, 14, 0, 0, 0, 0, time.UTC), // Tuesday
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),  // past the end, dropped
	})

	require.Len(t, rebal, 2)
	assert.True(t, rebal[time.Date(2020, 1, 13, 0, 0, 0, 0, time.UTC)])
	assert.True(t, rebal[time.Date(2020, 1, 14, 0, 0, 0, 0, time.UTC)])
}
