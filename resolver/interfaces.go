package resolver

import (
	"context"

	"github.com/cimnine/netbox-forager/cache"
	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/query"
)

// A Sourcer retrieves objects from NetBox.
type Sourcer interface {
	Get(ctx context.Context, ep models.Endpoint, filters query.Filters, opts ...query.Option) ([]models.Object, error)
	Version(ctx context.Context) (string, error)
	URL() string
}

// A Cacher keeps the latest snapshot of retrieved collections.
type Cacher interface {
	Save(ctx context.Context, snapshot *cache.Snapshot) error
	Load(ctx context.Context) (*cache.Snapshot, error)
}
