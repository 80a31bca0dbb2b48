package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job builds and runs one simulation. Jobs run concurrently, so each must
// create and close its own world.
type Job func(ctx context.Context, index int) (*Result, error)

// Parallel runs n jobs with at most limit in flight (no limit when limit
// <= 0). The first failure cancels the context passed to the others.
func Parallel(ctx context.Context, n, limit int, job Job) ([]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	results := make([]*Result, n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			r, err := job(ctx, i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
