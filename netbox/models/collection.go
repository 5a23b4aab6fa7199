package models

import (
	"fmt"
	"sort"
	"strings"
)

// Key names a collection by application and model, e.g. ipam/prefixes.
type Key struct {
	App   string
	Model string
}

func (k Key) String() string {
	return k.App + "/" + k.Model
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses "app/model" (surrounding slashes are ignored).
func ParseKey(s string) (Key, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Key{}, fmt.Errorf("'%s' is not of the form app/model", s)
	}
	return Key{App: parts[0], Model: parts[1]}, nil
}

// Collection maps object ids to objects of one model.
type Collection map[int]Object

// IDs returns the ids in ascending order.
func (c Collection) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Collections holds all retrieved collections.
type Collections map[Key]Collection

// Put stores objects under their ids, replacing earlier objects with the same id.
// Objects without a valid id are skipped; their number is returned.
func (c Collections) Put(key Key, objects ...Object) (skipped int) {
	collection, ok := c[key]
	if !ok {
		collection = make(Collection)
		c[key] = collection
	}

	for _, object := range objects {
		id := object.ID()
		if id == 0 {
			skipped++
			continue
		}
		collection[id] = object
	}

	return skipped
}

// Get returns the object with the given ref.
func (c Collections) Get(ref Ref) (Object, bool) {
	object, ok := c[ref.Key][ref.ID]
	return object, ok
}

// Keys returns the collection keys in sorted order.
func (c Collections) Keys() []Key {
	keys := make([]Key, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Counts returns the number of objects per collection.
func (c Collections) Counts() map[string]int {
	counts := make(map[string]int, len(c))
	for key, collection := range c {
		counts[key.String()] = len(collection)
	}
	return counts
}

// Sanitize removes entries whose map key does not equal the object's id and
// returns a description of each removed entry.
func (c Collections) Sanitize() []string {
	var problems []string
	for _, key := range c.Keys() {
		collection := c[key]
		for _, id := range collection.IDs() {
			if objectID := collection[id].ID(); objectID != id {
				problems = append(problems, fmt.Sprintf("%s: entry %d holds object with id %d", key, id, objectID))
				delete(collection, id)
			}
		}
	}
	return problems
}
