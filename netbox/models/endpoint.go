package models

import "sort"

// Endpoint is one NetBox collection endpoint together with its query
// overrides.
type Endpoint struct {
	App   string
	Model string

	// Loners are patterns of filter keys whose values are sent together in
	// one request, in addition to the globally configured ones.
	Loners []string
	// Defaults are filter values sent when the caller does not set the key.
	Defaults map[string][]string
}

func (e Endpoint) Key() Key {
	return Key{App: e.App, Model: e.Model}
}

// Resolve returns the endpoint path relative to the API root.
func (e Endpoint) Resolve() string {
	return e.App + "/" + e.Model + "/"
}

func (e Endpoint) String() string {
	return e.Key().String()
}

var catalog = make(map[Key]Endpoint)

func register(e Endpoint) Endpoint {
	catalog[e.Key()] = e
	return e
}

// Lookup finds the endpoint for "app/model". Unknown but well-formed paths
// yield a plain endpoint and false.
func Lookup(path string) (Endpoint, bool, error) {
	key, err := ParseKey(path)
	if err != nil {
		return Endpoint{}, false, err
	}
	if e, ok := catalog[key]; ok {
		return e, true, nil
	}
	return Endpoint{App: key.App, Model: key.Model}, false, nil
}

// Endpoints returns the catalog sorted by path.
func Endpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(catalog))
	for _, e := range catalog {
		endpoints = append(endpoints, e)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].String() < endpoints[j].String()
	})
	return endpoints
}
