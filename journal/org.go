package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/quantfolio/backtest"
	"github.com/rustyeddy/quantfolio/metrics"
)

var orgFuncs = template.FuncMap{
	"pct": func(x float64) float64 { return x * 100 },
	"ratio": func(r metrics.Ratio) string {
		if !r.Defined {
			return "n/a"
		}
		return fmt.Sprintf("%.4f", r.Value)
	},
}

// OrgReport renders the run as an org-mode block.
func OrgReport(rep backtest.Report) (string, error) {
	t, err := template.New("report").Funcs(orgFuncs).Parse(orgTemplate)
	if err != nil {
		return "", err
	}

	var start, end time.Time
	finalValue := 0.0
	if len(rep.Ledger) > 0 {
		start = rep.Ledger[0].Date
		end = rep.Ledger[len(rep.Ledger)-1].Date
		finalValue = rep.Ledger[len(rep.Ledger)-1].TotalValue
	}

	buf := new(bytes.Buffer)
	err = t.Execute(buf, struct {
		backtest.Report
		Start      time.Time
		End        time.Time
		FinalValue float64
	}{rep, start, end, finalValue})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteOrg renders the report and writes it to path.
func WriteOrg(rep backtest.Report, path string) error {
	s, err := OrgReport(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const orgTemplate = `* BACKTEST: {{range $i, $t := .Config.Universe}}{{if $i}} {{end}}{{$t}}{{end}}
:PROPERTIES:
:RUN_ID:      {{.ID}}
:STATE:       {{.State}}
:REBALANCE:   {{.Config.Rebalance}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_CASH:  {{printf "%.2f" .Config.InitialCash}}
:END_VALUE:   {{printf "%.2f" .FinalValue}}
:RETURN_PCT:  {{printf "%.2f" (pct .Metrics.TotalReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (pct .Metrics.MaxDrawdown)}}
:TRADES:      {{len .Trades}}
:FAULTS:      {{len .Faults}}
:END:

** Performance Summary
| Statistic         | Value |
|-------------------+-------|
| Total Return %    | {{printf "%.2f" (pct .Metrics.TotalReturn)}} |
| CAGR              | {{ratio .Metrics.CAGR}} |
| Volatility        | {{ratio .Metrics.Volatility}} |
| Sharpe            | {{ratio .Metrics.Sharpe}} |
| Sortino           | {{ratio .Metrics.Sortino}} |
| Calmar            | {{ratio .Metrics.Calmar}} |
| Max Drawdown %    | {{printf "%.2f" (pct .Metrics.MaxDrawdown)}} |
| Drawdown Days     | {{.Metrics.MaxDrawdownDays}} |
| Alpha             | {{ratio .Metrics.Alpha}} |
| Beta              | {{ratio .Metrics.Beta}} |
| Information Ratio | {{ratio .Metrics.InformationRatio}} |

{{- if .Unavailable }}

** Data Gaps
{{- range .Unavailable }}
- {{.}} had no data for the requested range
{{- end }}
{{- end }}

{{- if .Faults }}

** Strategy Faults
| Date | Kind | Message |
|------+------+---------|
{{- range .Faults }}
| {{.Date.Format "2006-01-02"}} | {{.Kind}} | {{.Message}} |
{{- end }}
{{- end }}
`
