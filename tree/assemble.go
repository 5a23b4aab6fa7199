package tree

import (
	"sort"

	"github.com/cimnine/netbox-forager/netbox/models"
)

// Assemble returns a copy of collections in which every stub that refers to
// a retrieved object carries that object's fields. Stubs are filled in place,
// so a filled stub shares its nested values with the object it refers to and
// chains of any length resolve in one pass. References may form cycles, use
// Prune before encoding.
//
// Stubs of objects that were not retrieved stay as they are. The input is
// not modified.
func Assemble(collections models.Collections) models.Collections {
	out := Copy(collections)

	var stubs []map[string]interface{}
	for _, key := range out.Keys() {
		collection := out[key]
		for _, id := range collection.IDs() {
			stubs = appendStubs(stubs, collection[id])
		}
	}

	resolved := make(map[uintptr]bool, len(stubs))
	for _, stub := range stubs {
		ptr := identity(stub)
		if resolved[ptr] {
			continue
		}
		resolved[ptr] = true

		ref, err := models.ParseURL(models.Object(stub).URL())
		if err != nil {
			continue
		}
		target, ok := out.Get(ref)
		if !ok || identity(target) == ptr {
			continue
		}

		fields := make(map[string]interface{}, len(target))
		for k, v := range target {
			fields[k] = v
		}
		for k := range stub {
			delete(stub, k)
		}
		for k, v := range fields {
			stub[k] = v
		}
	}

	return out
}

// appendStubs collects the stubs held directly by the fields of object,
// including those inside list fields, in field order.
func appendStubs(stubs []map[string]interface{}, object models.Object) []map[string]interface{} {
	fields := make([]string, 0, len(object))
	for field := range object {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		switch v := object[field].(type) {
		case []interface{}:
			for _, item := range v {
				if models.IsStub(item) {
					m, _ := models.AsMap(item)
					stubs = append(stubs, m)
				}
			}
		default:
			if models.IsStub(v) {
				m, _ := models.AsMap(v)
				stubs = append(stubs, m)
			}
		}
	}
	return stubs
}
