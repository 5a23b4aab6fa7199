package query

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/cimnine/netbox-forager/netbox"
	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/util"
)

const fakeBase = "http://nb/api/"

// fakeFetcher serves in-memory objects and filters them on exact field
// values. List fields match when any element matches.
type fakeFetcher struct {
	mu      sync.Mutex
	data    map[string][]models.Object
	fetches []string
	counts  []string
	err     error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{data: make(map[string][]models.Object)}
}

func (f *fakeFetcher) add(ep models.Endpoint, objects ...models.Object) {
	f.data[ep.Resolve()] = append(f.data[ep.Resolve()], objects...)
}

func (f *fakeFetcher) Resolve(r netbox.Resolver) string {
	return fakeBase + r.Resolve()
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches = append(f.fetches, rawURL)
	if f.err != nil {
		return models.Page{}, f.err
	}

	matched, limit, offset := f.match(rawURL)
	page := models.Page{Count: len(matched)}
	if offset < len(matched) {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		page.Results = matched[offset:end]
	}
	return page, nil
}

func (f *fakeFetcher) Count(_ context.Context, rawURL string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counts = append(f.counts, rawURL)
	if f.err != nil {
		return 0, f.err
	}

	matched, _, _ := f.match(rawURL)
	return len(matched), nil
}

func (f *fakeFetcher) match(rawURL string) ([]models.Object, int, int) {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	q := u.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	q.Del("limit")
	q.Del("offset")

	path := strings.TrimPrefix(u.Scheme+"://"+u.Host+u.Path, fakeBase)

	var matched []models.Object
	for _, object := range f.data[path] {
		if matches(object, q) {
			matched = append(matched, object)
		}
	}
	return matched, limit, offset
}

func matches(object models.Object, q url.Values) bool {
	for key, values := range q {
		field, ok := object[key]
		if !ok {
			return false
		}
		found := false
		for _, have := range util.ToStrings(field) {
			for _, want := range values {
				if have == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func (f *fakeFetcher) allURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(append([]string(nil), f.fetches...), f.counts...)
}
