package query

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/util"
)

// Translation replaces a filter on names by a filter on ids, e.g.
// vrf=blue becomes vrf_id=7 after looking up VRFs named blue.
type Translation struct {
	Key      string
	Endpoint models.Endpoint
	Field    string
	Target   string
}

var DefaultTranslations = []Translation{
	{Key: "vrf", Endpoint: models.VRFs, Field: "name", Target: "vrf_id"},
	{Key: "present_in_vrf", Endpoint: models.VRFs, Field: "name", Target: "present_in_vrf_id"},
}

// translate applies the translations to a copy of filters. Values listed as
// sentinels for the key are passed on literally.
func (e *Engine) translate(ctx context.Context, filters Filters) (Filters, error) {
	translated := make(Filters, len(filters))
	for key, value := range filters {
		translated[key] = value
	}

	for _, tr := range e.Translations {
		value, ok := filters[tr.Key]
		if !ok {
			continue
		}

		var ids, names []string
		for _, v := range util.ToStrings(value) {
			if e.isSentinel(tr.Key, v) {
				ids = append(ids, v)
			} else {
				names = append(names, v)
			}
		}

		if len(names) > 0 {
			objects, err := e.Get(ctx, tr.Endpoint, Filters{tr.Field: names})
			if err != nil {
				return nil, fmt.Errorf("can't translate %s: %w", tr.Key, err)
			}
			if len(objects) == 0 {
				e.Logger.Warn("No objects match the filter values.",
					zap.String("key", tr.Key), zap.Strings("values", names), zap.Stringer("endpoint", tr.Endpoint))
			}
			for _, object := range objects {
				ids = append(ids, strconv.Itoa(object.ID()))
			}
		}

		delete(translated, tr.Key)
		if existing, ok := translated[tr.Target]; ok {
			ids = append(util.ToStrings(existing), ids...)
		}
		translated[tr.Target] = util.Unique(ids)
	}

	return translated, nil
}

func (e *Engine) isSentinel(key, value string) bool {
	for _, sentinel := range e.Config.Sentinels[key] {
		if value == sentinel {
			return true
		}
	}
	return false
}
