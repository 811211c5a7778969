package backtest

import (
	"sort"
	"time"

	"github.com/rustyeddy/quantfolio/market"
)

// rebalanceDates selects which of the run's trading dates trigger a strategy
// invocation. dates must be sorted ascending.
func rebalanceDates(dates []time.Time, freq Rebalance, custom []time.Time) map[time.Time]bool {
	out := make(map[time.Time]bool)
	if len(dates) == 0 {
		return out
	}

	// Every scheduled run rebalances on its first trading date so the
	// portfolio gets invested even when the schedule's next natural date
	// is months away. Custom schedules are taken literally.
	if freq != Custom {
		out[dates[0]] = true
	}

	switch freq {
	case Daily:
		for _, d := range dates {
			out[d] = true
		}

	case Weekly:
		lastYear, lastWeek := -1, -1
		for _, d := range dates {
			y, w := d.ISOWeek()
			if y != lastYear || w != lastWeek {
				out[d] = true
				lastYear, lastWeek = y, w
			}
		}

	case Monthly:
		markMonthStarts(dates, out, func(time.Month) bool { return true })

	case Quarterly:
		markMonthStarts(dates, out, func(m time.Month) bool {
			return (int(m)-1)%3 == 0
		})

	case Custom:
		for _, c := range custom {
			if d, ok := snapForward(dates, market.Day(c)); ok {
				out[d] = true
			}
		}
	}
	return out
}

// markMonthStarts marks the first trading day of each month accepted by keep.
func markMonthStarts(dates []time.Time, out map[time.Time]bool, keep func(time.Month) bool) {
	lastYear, lastMonth := -1, time.Month(-1)
	for _, d := range dates {
		if d.Year() != lastYear || d.Month() != lastMonth {
			lastYear, lastMonth = d.Year(), d.Month()
			if keep(d.Month()) {
				out[d] = true
			}
		}
	}
}

// snapForward returns the first trading date at or after want.
func snapForward(dates []time.Time, want time.Time) (time.Time, bool) {
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(want) })
	if i == len(dates) {
		return time.Time{}, false
	}
	return dates[i], true
}
