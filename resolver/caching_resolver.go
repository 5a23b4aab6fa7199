package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cimnine/netbox-forager/cache"
	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/query"
	"github.com/cimnine/netbox-forager/tree"
)

// Source and Cache are two independent implementations and are interchangeable
type CachingResolver struct {
	Source Sourcer
	Cache  Cacher
	Logger logger.Logger
}

func (r CachingResolver) log() logger.Logger {
	return logger.OrNoop(r.Logger)
}

// Fetch retrieves every object of the given endpoints. A later object
// replaces an earlier one with the same id.
func (r CachingResolver) Fetch(ctx context.Context, endpoints []models.Endpoint, opts ...query.Option) (models.Collections, error) {
	collections := make(models.Collections)

	for _, ep := range endpoints {
		objects, err := r.Source.Get(ctx, ep, nil, opts...)
		if err != nil {
			return nil, err
		}

		if skipped := collections.Put(ep.Key(), objects...); skipped > 0 {
			r.log().Error("Skipped objects without id.", zap.Stringer("endpoint", ep), zap.Int("skipped", skipped))
		}

		r.log().Info("Fetched collection.", zap.Stringer("endpoint", ep), zap.Int("objects", len(objects)))
	}

	return collections, nil
}

// Refresh fetches the endpoints and replaces the cached snapshot.
func (r CachingResolver) Refresh(ctx context.Context, endpoints []models.Endpoint, opts ...query.Option) (*cache.Snapshot, error) {
	version, err := r.Source.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't reach NetBox: %w", err)
	}

	collections, err := r.Fetch(ctx, endpoints, opts...)
	if err != nil {
		return nil, err
	}

	snapshot := cache.NewSnapshot(r.Source.URL(), version, collections)
	if err := r.Cache.Save(ctx, snapshot); err != nil {
		return nil, err
	}

	r.log().Info("Saved snapshot.", zap.String("snapshot", snapshot.Status.ID), zap.String("version", version))

	return snapshot, nil
}

// Load returns the cached snapshot. Entries whose key does not match the
// object's id are dropped.
func (r CachingResolver) Load(ctx context.Context) (*cache.Snapshot, error) {
	snapshot, err := r.Cache.Load(ctx)
	if err != nil {
		return nil, err
	}

	for _, problem := range snapshot.Collections.Sanitize() {
		r.log().Error("Dropped inconsistent cache entry.", zap.String("snapshot", snapshot.Status.ID), zap.String("problem", problem))
	}

	return snapshot, nil
}

// Tree loads the cached snapshot, resolves all stubs and adds the subnet
// hierarchy.
func (r CachingResolver) Tree(ctx context.Context) (models.Collections, error) {
	snapshot, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	return tree.Build(tree.Assemble(snapshot.Collections), r.log()), nil
}
