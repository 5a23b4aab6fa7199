// Package tree turns retrieved collections into an object graph: stubs are
// replaced by the objects they refer to and IPv4 networks learn their place
// in the subnet hierarchy.
package tree

import (
	"reflect"

	"github.com/cimnine/netbox-forager/netbox/models"
)

// copier deep-copies decoded JSON. A map reachable along several paths is
// copied once, so shared and cyclic structures keep their shape.
type copier struct {
	maps map[uintptr]map[string]interface{}
}

func newCopier() *copier {
	return &copier{maps: make(map[uintptr]map[string]interface{})}
}

// Copy returns a deep copy of collections.
func Copy(collections models.Collections) models.Collections {
	c := newCopier()

	out := make(models.Collections, len(collections))
	for key, collection := range collections {
		copied := make(models.Collection, len(collection))
		for id, object := range collection {
			copied[id] = models.Object(c.object(object))
		}
		out[key] = copied
	}
	return out
}

func (c *copier) value(v interface{}) interface{} {
	switch t := v.(type) {
	case models.Object:
		return models.Object(c.object(t))
	case map[string]interface{}:
		return c.object(t)
	case []interface{}:
		if t == nil {
			return t
		}
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = c.value(item)
		}
		return out
	default:
		return v
	}
}

func (c *copier) object(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	ptr := reflect.ValueOf(m).Pointer()
	if copied, ok := c.maps[ptr]; ok {
		return copied
	}

	copied := make(map[string]interface{}, len(m))
	c.maps[ptr] = copied
	for k, v := range m {
		copied[k] = c.value(v)
	}
	return copied
}

func identity(m map[string]interface{}) uintptr {
	return reflect.ValueOf(m).Pointer()
}
