package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xyproto/unzip"

	"github.com/rustyeddy/quantfolio/market"
	"github.com/rustyeddy/quantfolio/market/stooq"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage local price data",
}

var dataImportCmd = &cobra.Command{
	Use:   "import <archive.zip>",
	Short: "Unpack a zip of per-ticker CSV files into the data directory",
	Long: `Unpack an archive of daily price CSVs into the data directory.
Files must be named <TICKER>.csv or <TICKER>.csv.xz; anything else is
left in place but ignored by the csv provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runDataImport,
}

var dataFetchCmd = &cobra.Command{
	Use:   "fetch <TICKER>...",
	Short: "Download daily bars from stooq into the data directory",
	RunE:  runDataFetch,
}

var (
	dataDir   string
	fetchFrom string
	fetchTo   string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataFetchCmd)

	dataCmd.PersistentFlags().StringVarP(&dataDir, "dir", "o", "data", "data directory")
	dataFetchCmd.Flags().StringVar(&fetchFrom, "from", "", "start date (YYYY-MM-DD) (required)")
	dataFetchCmd.Flags().StringVar(&fetchTo, "to", "", "end date (YYYY-MM-DD), defaults to today")
	dataFetchCmd.MarkFlagRequired("from")
}

func runDataImport(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	if err := unzip.Extract(args[0], dataDir); err != nil {
		return fmt.Errorf("extract %s: %w", args[0], err)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return err
	}
	imported := 0
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.xz") {
			imported++
		}
	}
	fmt.Printf("imported %s into %s (%d price files)\n", args[0], dataDir, imported)
	return nil
}

func runDataFetch(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", fetchFrom)
	if err != nil {
		return fmt.Errorf("bad --from date: %w", err)
	}
	end := time.Now().UTC()
	if fetchTo != "" {
		if end, err = time.Parse("2006-01-02", fetchTo); err != nil {
			return fmt.Errorf("bad --to date: %w", err)
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	provider := stooq.New()
	for _, ticker := range args {
		ticker = strings.ToUpper(ticker)
		s, err := provider.GetSeries(cmd.Context(), ticker, start, end)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ticker, err)
		}
		path := filepath.Join(dataDir, ticker+".csv")
		if err := writeSeriesCSV(path, s); err != nil {
			return err
		}
		fmt.Printf("%s: %d bars -> %s\n", ticker, s.Len(), path)
	}
	return nil
}

func writeSeriesCSV(path string, s market.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "Date,Open,High,Low,Close,Volume"); err != nil {
		return err
	}
	for _, p := range s.Points {
		if _, err := fmt.Fprintf(f, "%s,%g,%g,%g,%g,%d\n",
			p.Date.Format("2006-01-02"), p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return err
		}
	}
	return nil
}
