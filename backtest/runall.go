package backtest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll executes independent runners concurrently and returns their reports
// in input order. The first hard failure cancels the remaining runs; faulted
// but finished runs come back as degraded reports, not errors.
func RunAll(ctx context.Context, runners ...*Runner) ([]Report, error) {
	reports := make([]Report, len(runners))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range runners {
		g.Go(func() error {
			report, err := r.Run(gctx)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
