package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantfolio/journal"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show a stored run, or list all runs",
	Long: `With a run ID, re-print the stored report summary; without one,
list every run in the journal. The report can also be exported as an
org-mode file or as ledger/trades CSVs.

Examples:
  quantfolio report -d runs.db
  quantfolio report -d runs.db 01J8ZQ4X2M3YAABBCCDDEE0011
  quantfolio report -d runs.db 01J8ZQ4X2M3YAABBCCDDEE0011 --org run.org`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportDB     string
	reportOrg    string
	reportLedger string
	reportTrades string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportDB, "db", "d", "quantfolio.db", "journal database path")
	reportCmd.Flags().StringVar(&reportOrg, "org", "", "write the report as org-mode to this path")
	reportCmd.Flags().StringVar(&reportLedger, "ledger-csv", "", "write the equity ledger CSV to this path")
	reportCmd.Flags().StringVar(&reportTrades, "trades-csv", "", "write the trade log CSV to this path")
}

func runReport(cmd *cobra.Command, args []string) error {
	store, err := journal.Open(reportDB)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	if len(args) == 0 {
		return listRuns(cmd, store)
	}

	rep, err := store.GetReport(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if reportOrg != "" {
		if err := journal.WriteOrg(rep, reportOrg); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}
	if reportLedger != "" && reportTrades != "" {
		if err := journal.ExportCSV(rep, reportLedger, reportTrades); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}

	printSummary(rep)
	return nil
}

func listRuns(cmd *cobra.Command, store *journal.Store) error {
	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Printf("%-26s  %-20s  %-9s  %5s  %12s\n", "RUN", "CREATED", "STATE", "DAYS", "FINAL VALUE")
	for _, r := range runs {
		fmt.Printf("%-26s  %-20s  %-9s  %5d  %12.2f\n",
			r.ID, r.Created.Format("2006-01-02 15:04:05"), r.State, r.Days, r.FinalValue)
	}
	return nil
}
