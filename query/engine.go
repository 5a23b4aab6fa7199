// Package query turns filter arguments into NetBox list requests and merges
// the results.
package query

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/metrics"
	"github.com/cimnine/netbox-forager/netbox"
	"github.com/cimnine/netbox-forager/netbox/models"
)

// Fetcher loads pages from NetBox. *netbox.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (models.Page, error)
	Count(ctx context.Context, url string) (int, error)
	Resolve(r netbox.Resolver) string
}

var _ Fetcher = (*netbox.Client)(nil)

// offsetReserve is the room kept in a URL for the offset value.
const offsetReserve = 10

type Engine struct {
	Fetcher      Fetcher
	Config       Config
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	Translations []Translation

	combiner *Combiner
}

func NewEngine(fetcher Fetcher, config Config, log logger.Logger, m *metrics.Metrics) (*Engine, error) {
	config = config.WithDefaults()

	combiner, err := NewCombiner(config.Loners, config.Defaults)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Fetcher:      fetcher,
		Config:       config,
		Logger:       logger.OrNoop(log),
		Metrics:      m,
		Translations: DefaultTranslations,
		combiner:     combiner,
	}, nil
}

type options struct {
	concurrency int
	interval    time.Duration
}

type Option func(*options)

// WithConcurrency sets the number of workers. 1 or less fetches sequentially.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithInterval sets the pause between starting two workers.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// Get returns every object of ep that matches filters, without duplicates
// and sorted by id.
//
// The filter keys "limit" and "max_limit" set the page size and cap the
// number of objects per parameter set. Parameter sets are what remains after
// multi-value filters are expanded and long value lists are sliced to fit
// the URL length, so a call may return up to max_limit objects for each of
// them rather than max_limit in total.
func (e *Engine) Get(ctx context.Context, ep models.Endpoint, filters Filters, opts ...Option) ([]models.Object, error) {
	o := options{concurrency: e.Config.Threads, interval: e.Config.Interval()}
	for _, opt := range opts {
		opt(&o)
	}

	filters, directives, err := splitDirectives(filters)
	if err != nil {
		return nil, err
	}

	filters, err = e.translate(ctx, filters)
	if err != nil {
		return nil, err
	}

	sets, err := e.combiner.Combine(ep, filters)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		e.Logger.Debug("A filter has no values, nothing to fetch.", zap.Stringer("endpoint", ep))
		return []models.Object{}, nil
	}

	p := plan{
		base:     e.Fetcher.Resolve(ep),
		pageSize: e.Config.Limit,
		maxLimit: directives.MaxLimit,
	}
	if directives.Limit > 0 {
		p.pageSize = directives.Limit
	}
	if p.maxLimit > 0 && p.maxLimit < p.pageSize {
		p.pageSize = p.maxLimit
	}

	slicer := e.slicer(p.base, p.pageSize)
	for _, set := range sets {
		p.queries = append(p.queries, slicer.Slice(set)...)
	}

	chunks, err := e.dispatch(ctx, p, o)
	if err != nil {
		return nil, fmt.Errorf("can't fetch %s: %w", ep, err)
	}

	objects := e.merge(ep, chunks, p.maxLimit)
	e.Metrics.AddObjects(ep.String(), len(objects))

	return objects, nil
}

func (e *Engine) slicer(base string, pageSize int) Slicer {
	reserve := len(base) + len("?&limit=&offset=") + len(strconv.Itoa(pageSize)) + offsetReserve

	maxLength := e.Config.URLMaxLength - reserve
	if maxLength < 1 {
		maxLength = 1
	}

	return Slicer{MaxLength: maxLength, Preferred: e.Config.SliceKeys}
}

// merge joins the chunks of all parameter sets. Within one set, objects
// without id and repeated ids (pages shifted while fetching) are dropped and
// logged. Across sets, an object matched more than once is kept once.
func (e *Engine) merge(ep models.Endpoint, chunks []chunk, maxLimit int) []models.Object {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].query != chunks[j].query {
			return chunks[i].query < chunks[j].query
		}
		return chunks[i].offset < chunks[j].offset
	})

	seen := make(map[int]bool)
	objects := make([]models.Object, 0)

	for start := 0; start < len(chunks); {
		query := chunks[start].query

		var matched []models.Object
		end := start
		for ; end < len(chunks) && chunks[end].query == query; end++ {
			matched = append(matched, chunks[end].objects...)
		}
		start = end

		if maxLimit > 0 && len(matched) > maxLimit {
			matched = matched[:maxLimit]
		}

		inSet := make(map[int]bool, len(matched))
		for _, object := range matched {
			id := object.ID()
			if id == 0 {
				e.Logger.Error("Dropping an object without id.", zap.Stringer("endpoint", ep), zap.String("url", object.URL()))
				continue
			}
			if inSet[id] {
				e.Logger.Error("Dropping a duplicate object.", zap.Stringer("endpoint", ep), zap.Int("id", id))
				continue
			}
			inSet[id] = true

			if seen[id] {
				continue
			}
			seen[id] = true
			objects = append(objects, object)
		}
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].ID() < objects[j].ID()
	})

	return objects
}
