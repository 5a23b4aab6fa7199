package query

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cimnine/netbox-forager/netbox/models"
)

// chunk is the result of one request or of one sequentially paged set.
type chunk struct {
	query   int
	offset  int
	objects []models.Object
}

// task is one offset-bounded page request.
type task struct {
	query  int
	offset int
	url    string
}

type plan struct {
	base     string
	queries  []Params
	pageSize int
	maxLimit int
}

func (e *Engine) dispatch(ctx context.Context, p plan, o options) ([]chunk, error) {
	if o.concurrency <= 1 {
		return e.sequential(ctx, p)
	}
	return e.concurrent(ctx, p, o)
}

func (e *Engine) sequential(ctx context.Context, p plan) ([]chunk, error) {
	chunks := make([]chunk, 0, len(p.queries))
	for i, params := range p.queries {
		objects, err := e.fetchAll(ctx, p.base, params, p.pageSize, p.maxLimit)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk{query: i, objects: objects})
	}
	return chunks, nil
}

// concurrent counts every parameter set first, turns the counts into page
// requests and lets exactly o.concurrency workers drain them from one queue.
func (e *Engine) concurrent(ctx context.Context, p plan, o options) ([]chunk, error) {
	counts, err := e.count(ctx, p, o.concurrency)
	if err != nil {
		return nil, err
	}

	tasks := e.tasks(p, counts)
	queue := make(chan task, len(tasks))
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	e.Logger.Debug("Dispatching requests.",
		zap.String("url", p.base), zap.Int("requests", len(tasks)), zap.Int("workers", o.concurrency))

	var mu sync.Mutex
	chunks := make([]chunk, 0, len(tasks))

	workers := newPool(ctx, o.concurrency)
	for i := 0; i < o.concurrency; i++ {
		if i > 0 && o.interval > 0 && !pause(ctx, o.interval) {
			break
		}

		workers.Go(func(ctx context.Context) error {
			for t := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}

				page, err := e.Fetcher.Fetch(ctx, t.url)
				if err != nil {
					return err
				}

				mu.Lock()
				chunks = append(chunks, chunk{query: t.query, offset: t.offset, objects: page.Results})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := workers.Wait(); err != nil {
		return nil, err
	}

	return chunks, nil
}

// pause waits for d and reports false when ctx ends first.
func pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// count asks NetBox for the number of matches of every parameter set.
func (e *Engine) count(ctx context.Context, p plan, concurrency int) ([]int, error) {
	counts := make([]int, len(p.queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, params := range p.queries {
		i, params := i, params
		g.Go(func() error {
			n, err := e.Fetcher.Count(gctx, countURL(p.base, params))
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (e *Engine) tasks(p plan, counts []int) []task {
	var tasks []task

	for i, n := range counts {
		if n == 0 {
			e.Logger.Debug("Nothing matches parameter set.", zap.String("url", p.base), zap.String("params", p.queries[i].Encode()))
			continue
		}
		if p.maxLimit > 0 && n > p.maxLimit {
			n = p.maxLimit
		}

		for offset := 0; offset < n; offset += p.pageSize {
			tasks = append(tasks, task{
				query:  i,
				offset: offset,
				url:    pageURL(p.base, p.queries[i], p.pageSize, offset),
			})
		}
	}

	return tasks
}
