package sandbox

import (
	"context"
	"time"
)

// Violation is one problem found while vetting a strategy script.
type Violation struct {
	Kind    FaultKind
	Message string
}

// Validate vets a strategy script without touching real state: it compiles
// the script and dry-runs it against a small synthetic window. A script that
// passes is well-formed and respects the capability allow-list; it can still
// fault later on data shapes the probe does not cover.
func Validate(code []byte) []Violation {
	view := StateView{
		Date:       time.Date(2020, time.January, 6, 0, 0, 0, 0, time.UTC),
		Cash:       10000,
		TotalValue: 10000,
		Positions:  map[string]PositionView{},
	}
	win := probeWindow(view.Date)

	res := Evaluate(context.Background(), code, view, win, 5*time.Second)
	if res.Fault != nil {
		return []Violation{{Kind: res.Fault.Kind, Message: res.Fault.Message}}
	}
	return nil
}

// probeWindow fabricates a two-ticker, five-bar history ending at date.
func probeWindow(date time.Time) DataWindow {
	const bars = 5
	win := DataWindow{
		Tickers: []string{"AAA", "BBB"},
		Dates:   make(map[string][]string),
		Closes:  make(map[string][]float64),
		Highs:   make(map[string][]float64),
		Lows:    make(map[string][]float64),
		Volumes: make(map[string][]int64),
	}
	for ti, t := range win.Tickers {
		base := 100.0 * float64(ti+1)
		for i := 0; i < bars; i++ {
			d := date.AddDate(0, 0, i-bars+1)
			close := base + float64(i)
			win.Dates[t] = append(win.Dates[t], d.Format("2006-01-02"))
			win.Closes[t] = append(win.Closes[t], close)
			win.Highs[t] = append(win.Highs[t], close+1)
			win.Lows[t] = append(win.Lows[t], close-1)
			win.Volumes[t] = append(win.Volumes[t], 1_000_000)
		}
	}
	return win
}
