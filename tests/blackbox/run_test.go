//go:build blackbox

package blackbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const momentumStrategy = `
ta := import("ta")

winners := []
for t in tickers {
	if ta.momentum(closes[t], 20) > 0 {
		winners = append(winners, t)
	}
}

w := {}
for t in winners {
	w[t] = 1.0 / len(winners)
}
weights_out = w
`

// writeDailyCSV writes count weekdays of bars starting 2020-01-06.
func writeDailyCSV(t *testing.T, path string, base, drift float64, count int) {
	t.Helper()

	var b strings.Builder
	b.WriteString("Date,Open,High,Low,Close,Volume\n")
	d := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	written := 0
	for written < count {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			price := base + drift*float64(written)
			fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,1000000\n",
				d.Format("2006-01-02"), price, price+1, price-1, price)
			written++
		}
		d = d.AddDate(0, 0, 1)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	if err := os.Mkdir(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeDailyCSV(t, filepath.Join(dataDir, "AAA.csv"), 100, 0.5, 120)
	writeDailyCSV(t, filepath.Join(dataDir, "BBB.csv"), 50, -0.1, 120)

	strategyPath := filepath.Join(dir, "momentum.tengo")
	if err := os.WriteFile(strategyPath, []byte(momentumStrategy), 0644); err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(dir, "runs.db")
	cfg := fmt.Sprintf(`
backtest:
  universe: [AAA, BBB]
  start: 2020-03-02T00:00:00Z
  end: 2020-06-12T00:00:00Z
  rebalance: monthly
  initial_cash: 100000
strategy:
  path: %s
data:
  source: csv
  dir: %s
journal:
  db_path: %s
`, strategyPath, dataDir, dbPath)
	cfgPath := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	out := run(t, "validate", strategyPath)
	if !strings.Contains(out, "ok") {
		t.Fatalf("validate output: %s", out)
	}

	out = run(t, "run", "-f", cfgPath)
	if !strings.Contains(out, "completed") {
		t.Fatalf("run output: %s", out)
	}
	if !strings.Contains(out, "Total return") {
		t.Fatalf("run output missing summary: %s", out)
	}

	// The run ID is the first token after "Run ".
	var runID string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Run ") {
			runID = strings.TrimSuffix(strings.Fields(line)[1], ":")
			break
		}
	}
	if runID == "" {
		t.Fatalf("no run id in output: %s", out)
	}

	out = run(t, "report", "-d", dbPath)
	if !strings.Contains(out, runID) {
		t.Fatalf("report listing missing run %s: %s", runID, out)
	}

	orgPath := filepath.Join(dir, "run.org")
	out = run(t, "report", "-d", dbPath, "--org", orgPath, runID)
	if !strings.Contains(out, "Total return") {
		t.Fatalf("report output: %s", out)
	}
	org, err := os.ReadFile(orgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(org), runID) {
		t.Fatalf("org export missing run id:\n%s", org)
	}
}

func TestValidateRejectsForbiddenImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.tengo")
	if err := os.WriteFile(path, []byte(`os := import("os")`), 0644); err != nil {
		t.Fatal(err)
	}

	out := runErr(t, "validate", path)
	if !strings.Contains(out, "CapabilityViolation") {
		t.Fatalf("validate output: %s", out)
	}
}
