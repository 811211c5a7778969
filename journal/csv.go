package journal

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rustyeddy/quantfolio/backtest"
)

// ExportCSV writes the run's equity ledger and trade log as two CSV files.
func ExportCSV(rep backtest.Report, ledgerPath, tradesPath string) error {
	if err := writeLedgerCSV(rep, ledgerPath); err != nil {
		return err
	}
	return writeTradesCSV(rep, tradesPath)
}

func writeLedgerCSV(rep backtest.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "cash", "total_value", "fault"}); err != nil {
		return err
	}
	for _, snap := range rep.Ledger {
		if err := w.Write([]string{
			snap.Date.Format(dateFormat),
			ff(snap.Cash),
			ff(snap.TotalValue),
			snap.Fault,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeTradesCSV(rep backtest.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"date", "ticker", "side", "status", "reason",
		"quantity", "price", "commission", "realized_pl",
	}); err != nil {
		return err
	}
	for _, tr := range rep.Trades {
		if err := w.Write([]string{
			tr.Date.Format(dateFormat),
			tr.Order.Ticker,
			tr.Order.Side.String(),
			string(tr.Status),
			string(tr.Reason),
			ff(tr.Quantity),
			ff(tr.Price),
			ff(tr.Commission),
			ff(tr.RealizedPL),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
