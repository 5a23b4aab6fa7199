package tree

import "github.com/cimnine/netbox-forager/netbox/models"

// Prune returns a finite copy of an assembled value. Nested objects deeper
// than depth keep only their scalar fields, which turns cycles into stubs.
func Prune(v interface{}, depth int) interface{} {
	switch t := v.(type) {
	case models.Object:
		return models.Object(pruneObject(t, depth))
	case map[string]interface{}:
		return pruneObject(t, depth)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = Prune(item, depth)
		}
		return out
	default:
		return v
	}
}

func pruneObject(m map[string]interface{}, depth int) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if !nested(v) {
			out[k] = v
		} else if depth <= 0 {
			out[k] = scalars(v)
		} else {
			out[k] = Prune(v, depth-1)
		}
	}
	return out
}

func nested(v interface{}) bool {
	switch v.(type) {
	case models.Object, map[string]interface{}, []interface{}:
		return true
	default:
		return false
	}
}

func scalars(v interface{}) interface{} {
	if m, ok := models.AsMap(v); ok {
		out := make(map[string]interface{}, len(m))
		for k, field := range m {
			if !nested(field) {
				out[k] = field
			}
		}
		return out
	}
	if list, ok := v.([]interface{}); ok {
		out := make([]interface{}, len(list))
		for i, item := range list {
			out[i] = scalars(item)
		}
		return out
	}
	return v
}
