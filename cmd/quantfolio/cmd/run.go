package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantfolio/backtest"
	"github.com/rustyeddy/quantfolio/config"
	"github.com/rustyeddy/quantfolio/internal/logging"
	"github.com/rustyeddy/quantfolio/journal"
	"github.com/rustyeddy/quantfolio/market"
	"github.com/rustyeddy/quantfolio/market/csvdata"
	"github.com/rustyeddy/quantfolio/market/stooq"
	"github.com/rustyeddy/quantfolio/metrics"
	"github.com/rustyeddy/quantfolio/notify"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a config file",
	Long: `Run a backtest using settings from a configuration file.

The config file names the universe, date range, rebalance schedule, cost
models, the strategy script and the journal database. The finished run
is saved to the journal and a summary is printed.

Example:
  quantfolio run -f examples/configs/momentum.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	strategy, err := os.ReadFile(cfg.Strategy.Path)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}

	provider, err := buildProvider(cfg.Data)
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	runner := &backtest.Runner{
		Config:   cfg.Backtest,
		Strategy: strategy,
		Provider: provider,
		Notifier: notify.LogNotifier{Logger: log},
		Logger:   log,
	}

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	store, err := journal.Open(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	if err := store.SaveReport(cmd.Context(), report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if cfg.Journal.OrgPath != "" {
		if err := journal.WriteOrg(report, cfg.Journal.OrgPath); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}
	if cfg.Journal.LedgerCSV != "" && cfg.Journal.TradesCSV != "" {
		if err := journal.ExportCSV(report, cfg.Journal.LedgerCSV, cfg.Journal.TradesCSV); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}

	printSummary(report)
	return nil
}

func buildProvider(data config.DataConfig) (market.Provider, error) {
	switch data.Source {
	case "csv":
		return csvdata.New(data.Dir), nil
	case "stooq":
		return market.NewCache(stooq.New()), nil
	}
	return nil, fmt.Errorf("unknown data source: %q", data.Source)
}

func printSummary(rep backtest.Report) {
	fmt.Printf("Run %s: %s\n", rep.ID, rep.State)
	if len(rep.Ledger) == 0 {
		return
	}

	first, last := rep.Ledger[0], rep.Ledger[len(rep.Ledger)-1]
	fmt.Printf("  Period:       %s .. %s (%d trading days)\n",
		first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(rep.Ledger))
	fmt.Printf("  Final value:  %.2f (started %.2f)\n", last.TotalValue, rep.Config.InitialCash)
	fmt.Printf("  Total return: %.2f%%\n", rep.Metrics.TotalReturn*100)
	fmt.Printf("  Max drawdown: %.2f%% over %d days\n",
		rep.Metrics.MaxDrawdown*100, rep.Metrics.MaxDrawdownDays)
	fmt.Printf("  CAGR:         %s\n", ratio(rep.Metrics.CAGR))
	fmt.Printf("  Sharpe:       %s   Sortino: %s   Calmar: %s\n",
		ratio(rep.Metrics.Sharpe), ratio(rep.Metrics.Sortino), ratio(rep.Metrics.Calmar))
	if rep.Metrics.Beta.Defined {
		fmt.Printf("  vs %s:       alpha %s, beta %s, IR %s\n", rep.Config.Benchmark,
			ratio(rep.Metrics.Alpha), ratio(rep.Metrics.Beta), ratio(rep.Metrics.InformationRatio))
	}
	fmt.Printf("  Trades: %d   Faults: %d\n", len(rep.Trades), len(rep.Faults))
	for _, t := range rep.Unavailable {
		fmt.Printf("  WARNING: no data for %s\n", t)
	}
}

func ratio(r metrics.Ratio) string {
	if !r.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", r.Value)
}
