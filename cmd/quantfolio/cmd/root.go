package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quantfolio",
	Short: "A portfolio rebalancing backtest platform",
	Long: `Quantfolio backtests portfolio rebalancing strategies over daily
price history.

Strategies are small sandboxed scripts: they see portfolio state and a
price window, and answer with target weights or explicit orders. The
engine walks the trading calendar, applies the trades under commission
and slippage models, computes performance statistics and journals every
run to SQLite.

It provides tools for:
  - Running backtests from a config file and strategy script
  - Validating strategy scripts before a run
  - Re-printing and exporting stored run reports
  - Importing local price data and fetching daily bars from stooq`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}
