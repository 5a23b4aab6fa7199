package query

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/cimnine/netbox-forager/netbox/models"
)

func pageURL(base string, params Params, limit, offset int) string {
	q := url.Values(params.Clone())
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return base + "?" + q.Encode()
}

func countURL(base string, params Params) string {
	q := url.Values(params.Clone())
	q.Set("limit", "1")
	return base + "?" + q.Encode()
}

// fetchAll pages through one parameter set until a page comes back short or
// maxLimit objects are collected.
func (e *Engine) fetchAll(ctx context.Context, base string, params Params, pageSize, maxLimit int) ([]models.Object, error) {
	var objects []models.Object

	for offset := 0; ; offset += pageSize {
		page, err := e.Fetcher.Fetch(ctx, pageURL(base, params, pageSize, offset))
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Results...)

		if len(page.Results) < pageSize {
			break
		}
		if maxLimit > 0 && len(objects) >= maxLimit {
			break
		}
	}

	if maxLimit > 0 && len(objects) > maxLimit {
		objects = objects[:maxLimit]
	}

	e.Logger.Debug("Fetched parameter set.", zap.String("url", base), zap.String("params", params.Encode()), zap.Int("objects", len(objects)))

	return objects, nil
}
