package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cimnine/netbox-forager/cache"
	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/netbox"
	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/query"
)

type source struct {
	objects map[models.Key][]models.Object
	err     error
}

func (s source) Get(_ context.Context, ep models.Endpoint, _ query.Filters, _ ...query.Option) ([]models.Object, error) {
	return s.objects[ep.Key()], s.err
}

func (s source) Version(context.Context) (string, error) {
	return "3.7.8", nil
}

func (s source) URL() string {
	return "http://nb/api/"
}

type memory struct {
	snapshot *cache.Snapshot
}

func (m *memory) Save(_ context.Context, snapshot *cache.Snapshot) error {
	m.snapshot = snapshot
	return nil
}

func (m *memory) Load(context.Context) (*cache.Snapshot, error) {
	if m.snapshot == nil {
		return nil, cache.ErrNotFound
	}
	return m.snapshot, nil
}

func url(ep models.Endpoint, id int) string {
	return fmt.Sprintf("http://nb/api/%s%d/", ep.Resolve(), id)
}

func inventory() source {
	return source{objects: map[models.Key][]models.Object{
		models.Aggregates.Key(): {
			{"id": float64(1), "url": url(models.Aggregates, 1), "prefix": "10.0.0.0/8", "vrf": nil},
		},
		models.Prefixes.Key(): {
			{"id": float64(2), "url": url(models.Prefixes, 2), "prefix": "10.1.0.0/16", "vrf": nil,
				"site": map[string]interface{}{"id": float64(3), "url": url(models.Sites, 3), "name": "ZRH"}},
		},
		models.Sites.Key(): {
			{"id": float64(3), "url": url(models.Sites, 3), "name": "ZRH", "slug": "zrh"},
			{"name": "broken"},
		},
	}}
}

var endpoints = []models.Endpoint{models.Aggregates, models.Prefixes, models.Sites}

func TestRefreshAndTree(t *testing.T) {
	log, logs := logger.NewObserverLogger("debug")
	store := &memory{}
	r := CachingResolver{Source: inventory(), Cache: store, Logger: log}

	snapshot, err := r.Refresh(context.Background(), endpoints)
	require.NoError(t, err)
	assert.Equal(t, "3.7.8", snapshot.Status.Version)
	assert.Equal(t, map[string]int{"ipam/aggregates": 1, "ipam/prefixes": 1, "dcim/sites": 1}, snapshot.Status.Counts)
	assert.Same(t, snapshot, store.snapshot)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	collections, err := r.Tree(context.Background())
	require.NoError(t, err)

	prefix := collections[models.Prefixes.Key()][2]
	site, ok := models.AsMap(prefix["site"])
	require.True(t, ok)
	assert.Equal(t, "zrh", site["slug"])

	aggregate, ok := models.AsMap(prefix["aggregate"])
	require.True(t, ok)
	assert.Equal(t, "10.0.0.0/8", aggregate["prefix"])

	_, assembled := store.snapshot.Collections[models.Prefixes.Key()][2]["aggregate"]
	assert.False(t, assembled)
}

func TestLoadSanitizes(t *testing.T) {
	log, logs := logger.NewObserverLogger("debug")

	collections := make(models.Collections)
	collections[models.Sites.Key()] = models.Collection{
		1: {"id": float64(1)},
		2: {"id": float64(3)},
	}
	store := &memory{snapshot: cache.NewSnapshot("http://nb/api/", "3.7.8", collections)}
	r := CachingResolver{Cache: store, Logger: log}

	snapshot, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, snapshot.Collections[models.Sites.Key()].IDs())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestErrors(t *testing.T) {
	r := CachingResolver{Source: source{err: netbox.ErrCredentials}, Cache: &memory{}}

	_, err := r.Refresh(context.Background(), endpoints)
	require.True(t, errors.Is(err, netbox.ErrCredentials))

	_, err = r.Tree(context.Background())
	require.True(t, errors.Is(err, cache.ErrNotFound))
}
