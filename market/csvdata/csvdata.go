// Package csvdata implements a market.Provider backed by per-ticker CSV
// files on disk, the layout produced by the data fetch/import commands:
//
//	<dir>/SPY.csv
//	<dir>/TLT.csv.xz
//
// Files hold daily bars with a header row:
//
//	date,open,high,low,close,adj_close,volume
//
// An .xz compressed variant is read transparently.
package csvdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/quantfolio/market"
)

// Provider loads series from a directory of ticker CSV files.
type Provider struct {
	Dir string
}

// New returns a Provider rooted at dir.
func New(dir string) *Provider {
	return &Provider{Dir: dir}
}

// GetSeries reads the ticker's file and returns the bars within [start, end].
func (p *Provider) GetSeries(ctx context.Context, ticker string, start, end time.Time) (market.Series, error) {
	if err := ctx.Err(); err != nil {
		return market.Series{}, err
	}

	r, closeFn, err := p.open(ticker)
	if err != nil {
		return market.Series{}, fmt.Errorf("%w: %s: %v", market.ErrDataUnavailable, ticker, err)
	}
	defer closeFn()

	points, err := ReadPoints(r, ticker)
	if err != nil {
		return market.Series{}, fmt.Errorf("csvdata: %s: %w", ticker, err)
	}

	full, err := market.NewSeries(ticker, points)
	if err != nil {
		return market.Series{}, fmt.Errorf("csvdata: %w", err)
	}

	pts := full.Between(start, end)
	if len(pts) == 0 {
		return market.Series{}, fmt.Errorf("%w: %s has no data in %s..%s", market.ErrDataUnavailable,
			ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return market.Series{Ticker: ticker, Points: pts}, nil
}

// open returns a reader for the ticker's plain or xz compressed file.
func (p *Provider) open(ticker string) (io.Reader, func() error, error) {
	plain := filepath.Join(p.Dir, ticker+".csv")
	if f, err := os.Open(plain); err == nil {
		return f, f.Close, nil
	}

	compressed := filepath.Join(p.Dir, ticker+".csv.xz")
	f, err := os.Open(compressed)
	if err != nil {
		return nil, nil, fmt.Errorf("no data file for %s in %s", ticker, p.Dir)
	}
	xr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open %s: %w", compressed, err)
	}
	return xr, f.Close, nil
}

// ReadPoints parses daily bars from CSV. The header row names the columns;
// date, close and volume are required, adj_close falls back to close when the
// source has no adjusted column.
func ReadPoints(r io.Reader, ticker string) ([]market.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		col[key] = i
	}
	dateIdx, ok := col["date"]
	if !ok {
		return nil, fmt.Errorf("header missing date column: %v", header)
	}
	closeIdx, ok := col["close"]
	if !ok {
		return nil, fmt.Errorf("header missing close column: %v", header)
	}

	var points []market.PricePoint
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		d, err := time.Parse("2006-01-02", strings.TrimSpace(row[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q: %w", line, row[dateIdx], err)
		}

		closeV, err := field(row, closeIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad close: %w", line, err)
		}

		p := market.PricePoint{
			Ticker:   ticker,
			Date:     d,
			Close:    closeV,
			AdjClose: closeV,
		}
		if i, ok := col["open"]; ok {
			if p.Open, err = field(row, i); err != nil {
				return nil, fmt.Errorf("line %d: bad open: %w", line, err)
			}
		}
		if i, ok := col["high"]; ok {
			if p.High, err = field(row, i); err != nil {
				return nil, fmt.Errorf("line %d: bad high: %w", line, err)
			}
		}
		if i, ok := col["low"]; ok {
			if p.Low, err = field(row, i); err != nil {
				return nil, fmt.Errorf("line %d: bad low: %w", line, err)
			}
		}
		if i, ok := col["adj_close"]; ok {
			if p.AdjClose, err = field(row, i); err != nil {
				return nil, fmt.Errorf("line %d: bad adj_close: %w", line, err)
			}
		}
		if i, ok := col["volume"]; ok && i < len(row) {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad volume %q: %w", line, row[i], err)
			}
			p.Volume = int64(v)
		}

		points = append(points, p)
	}
	return points, nil
}

func field(row []string, i int) (float64, error) {
	if i >= len(row) {
		return 0, fmt.Errorf("missing column %d", i)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", row[i], err)
	}
	return v, nil
}
