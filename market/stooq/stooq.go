// Package stooq implements a market.Provider that downloads daily bars from
// the Stooq CSV endpoint. Stooq serves unauthenticated end-of-day data, which
// makes it a convenient source for seeding a local data directory.
package stooq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rustyeddy/quantfolio/market"
	"github.com/rustyeddy/quantfolio/market/csvdata"
)

const defaultBaseURL = "https://stooq.com/q/d/l/"

// Provider downloads daily CSV bars over HTTP. Failures trip a circuit
// breaker so a flaky or rate-limiting upstream fails fast instead of hanging
// a batch of fetches.
type Provider struct {
	BaseURL string
	Client  *http.Client

	breaker *gobreaker.CircuitBreaker
}

// New returns a Provider with the default endpoint and breaker settings.
func New() *Provider {
	return &Provider{
		BaseURL: defaultBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "stooq",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 &&
					float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
		}),
	}
}

// GetSeries fetches the ticker's daily bars in [start, end].
func (p *Provider) GetSeries(ctx context.Context, ticker string, start, end time.Time) (market.Series, error) {
	body, err := p.breaker.Execute(func() (any, error) {
		return p.fetch(ctx, ticker, start, end)
	})
	if err != nil {
		return market.Series{}, fmt.Errorf("%w: %s: %v", market.ErrDataUnavailable, ticker, err)
	}

	points, err := csvdata.ReadPoints(strings.NewReader(body.(string)), ticker)
	if err != nil {
		return market.Series{}, fmt.Errorf("stooq: %s: %w", ticker, err)
	}
	if len(points) == 0 {
		return market.Series{}, fmt.Errorf("%w: %s has no data in %s..%s", market.ErrDataUnavailable,
			ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return market.NewSeries(ticker, points)
}

func (p *Provider) fetch(ctx context.Context, ticker string, start, end time.Time) (string, error) {
	q := url.Values{}
	q.Set("s", symbol(ticker))
	q.Set("i", "d")
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stooq: status %d for %s", resp.StatusCode, ticker)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", err
	}

	body := string(raw)
	if !strings.HasPrefix(strings.ToLower(body), "date,") {
		// Stooq answers 200 with a plain-text notice for unknown symbols.
		return "", fmt.Errorf("stooq: no CSV payload for %s", ticker)
	}
	return body, nil
}

// symbol maps a plain US ticker to stooq notation (AAPL -> aapl.us). Tickers
// that already carry a market suffix pass through unchanged.
func symbol(ticker string) string {
	s := strings.ToLower(ticker)
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".us"
}
