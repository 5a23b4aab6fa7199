package query

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/util"
)

const orPrefix = "or_"

// Filters are the caller's filter arguments. A value is a scalar or a list.
type Filters map[string]interface{}

// Params is one independently queryable set of filter values.
type Params map[string][]string

func (p Params) Encode() string {
	return url.Values(p).Encode()
}

func (p Params) Clone() Params {
	clone := make(Params, len(p))
	for key, values := range p {
		clone[key] = append([]string(nil), values...)
	}
	return clone
}

func (p Params) keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Directives are filter keys that steer paging instead of filtering.
type Directives struct {
	// Limit overrides the page size.
	Limit int
	// MaxLimit caps the number of objects returned per parameter set.
	MaxLimit int
}

func splitDirectives(filters Filters) (Filters, Directives, error) {
	var d Directives
	rest := make(Filters, len(filters))

	for key, value := range filters {
		var target *int
		switch key {
		case "limit":
			target = &d.Limit
		case "max_limit":
			target = &d.MaxLimit
		default:
			rest[key] = value
			continue
		}

		n, ok := util.ToInt(value)
		if !ok || n < 0 {
			return nil, d, fmt.Errorf("%s must be a non-negative integer, got '%v'", key, value)
		}
		*target = n
	}

	return rest, d, nil
}

type pathRule struct {
	path *regexp.Regexp
	keys []*regexp.Regexp
}

type defaultRule struct {
	path   *regexp.Regexp
	params Params
}

// Combiner expands filters into parameter sets.
//
// Values of a loner key are sent together in every set, NetBox already ORs
// them. Every other key with several values is split: each set carries one
// value per key, the sets form the Cartesian product over those keys.
type Combiner struct {
	anyLoners   []*regexp.Regexp
	loners      []pathRule
	anyDefaults Params
	defaults    []defaultRule

	mu       sync.Mutex
	epLoners map[string][]*regexp.Regexp
}

func NewCombiner(loners map[string][]string, defaults map[string]map[string][]string) (*Combiner, error) {
	c := &Combiner{epLoners: make(map[string][]*regexp.Regexp)}

	for _, path := range sortedKeys(loners) {
		keys, err := compileAll(loners[path])
		if err != nil {
			return nil, fmt.Errorf("loners of '%s': %w", path, err)
		}
		if path == AnyEndpoint {
			c.anyLoners = keys
			continue
		}
		pathRe, err := regexp.Compile(path)
		if err != nil {
			return nil, fmt.Errorf("loners path '%s': %w", path, err)
		}
		c.loners = append(c.loners, pathRule{path: pathRe, keys: keys})
	}

	for _, path := range sortedKeys(defaults) {
		params := Params(defaults[path]).Clone()
		if path == AnyEndpoint {
			c.anyDefaults = params
			continue
		}
		pathRe, err := regexp.Compile(path)
		if err != nil {
			return nil, fmt.Errorf("defaults path '%s': %w", path, err)
		}
		c.defaults = append(c.defaults, defaultRule{path: pathRe, params: params})
	}

	return c, nil
}

// IsLoner reports whether the values of key are kept together for ep.
func (c *Combiner) IsLoner(ep models.Endpoint, key string) (bool, error) {
	if matchAny(c.anyLoners, key) {
		return true, nil
	}

	path := ep.Resolve()
	for _, rule := range c.loners {
		if rule.path.MatchString(path) && matchAny(rule.keys, key) {
			return true, nil
		}
	}

	own, err := c.endpointLoners(ep)
	if err != nil {
		return false, err
	}

	return matchAny(own, key), nil
}

// endpointLoners compiles the loner patterns of ep once.
func (c *Combiner) endpointLoners(ep models.Endpoint) ([]*regexp.Regexp, error) {
	path := ep.Resolve()

	c.mu.Lock()
	defer c.mu.Unlock()

	if compiled, ok := c.epLoners[path]; ok {
		return compiled, nil
	}

	compiled, err := compileAll(ep.Loners)
	if err != nil {
		return nil, fmt.Errorf("loners of endpoint '%s': %w", ep, err)
	}
	c.epLoners[path] = compiled

	return compiled, nil
}

// Combine expands filters into parameter sets for ep. No filters yield one
// empty set. A key with an empty list of values yields no set at all.
func (c *Combiner) Combine(ep models.Endpoint, filters Filters) ([]Params, error) {
	loners := make(Params)
	combinable := make(Params)
	given := make(map[string]bool, len(filters))

	for _, key := range sortedKeys(filters) {
		values := util.ToStrings(filters[key])
		if len(values) == 0 {
			return nil, nil
		}

		name := strings.TrimPrefix(key, orPrefix)
		if name == "" {
			return nil, fmt.Errorf("invalid filter key '%s'", key)
		}
		given[name] = true

		loner, err := c.IsLoner(ep, name)
		if err != nil {
			return nil, err
		}
		if name != key || loner {
			loners[name] = util.Unique(append(loners[name], values...))
		} else {
			combinable[name] = values
		}
	}

	// or_key and key together form one OR group.
	for name, values := range combinable {
		if _, ok := loners[name]; ok {
			loners[name] = util.Unique(append(loners[name], values...))
			delete(combinable, name)
		}
	}

	sets := []Params{{}}
	for _, key := range combinable.keys() {
		next := make([]Params, 0, len(sets)*len(combinable[key]))
		for _, set := range sets {
			for _, value := range combinable[key] {
				s := set.Clone()
				s[key] = []string{value}
				next = append(next, s)
			}
		}
		sets = next
	}

	defaults := c.defaultsFor(ep)
	for _, set := range sets {
		for key, values := range loners {
			set[key] = values
		}
		for key, values := range defaults {
			if !given[key] {
				set[key] = values
			}
		}
	}

	return sets, nil
}

// defaultsFor merges the default filters for ep. The configured ones win
// over the ones declared by the endpoint.
func (c *Combiner) defaultsFor(ep models.Endpoint) Params {
	merged := make(Params)
	for key, values := range ep.Defaults {
		merged[key] = values
	}
	for key, values := range c.anyDefaults {
		merged[key] = values
	}

	path := ep.Resolve()
	for _, rule := range c.defaults {
		if rule.path.MatchString(path) {
			for key, values := range rule.params {
				merged[key] = values
			}
		}
	}

	return merged
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
