package query

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// newPool returns a pool of at most workers goroutines. The first error
// cancels the context of the others and is the one Wait returns.
func newPool(ctx context.Context, workers int) *pool.ContextPool {
	return pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(workers)
}
