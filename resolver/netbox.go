package resolver

import (
	"context"

	"github.com/cimnine/netbox-forager/netbox"
	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/query"
)

type Netbox struct {
	Client *netbox.Client
	Engine *query.Engine
}

var _ Sourcer = Netbox{}

func (n Netbox) Get(ctx context.Context, ep models.Endpoint, filters query.Filters, opts ...query.Option) ([]models.Object, error) {
	return n.Engine.Get(ctx, ep, filters, opts...)
}

func (n Netbox) Version(ctx context.Context) (string, error) {
	return n.Client.Check(ctx)
}

func (n Netbox) URL() string {
	return n.Client.Config.API.URL
}
