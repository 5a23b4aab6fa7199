package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cimnine/netbox-forager/util"
)

// Object is a NetBox object as decoded from JSON. Nested objects are
// map[string]interface{} values, lists are []interface{} values.
type Object map[string]interface{}

// ID returns the numeric id of the object, or 0 if it has none.
func (o Object) ID() int {
	id, ok := util.ToInt(o["id"])
	if !ok || id < 0 {
		return 0
	}
	return id
}

// URL returns the canonical url of the object.
func (o Object) URL() string {
	u, _ := o["url"].(string)
	return u
}

// Str returns a string field, or "" if the field is missing or not a string.
func (o Object) Str(field string) string {
	s, _ := o[field].(string)
	return s
}

// AsMap returns v as a map if it is a (nested) object.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, m != nil
	case Object:
		return m, m != nil
	default:
		return nil, false
	}
}

// IsStub reports whether v is a nested object that refers to another object by url.
func IsStub(v interface{}) bool {
	m, ok := AsMap(v)
	if !ok {
		return false
	}
	u, ok := m["url"].(string)
	return ok && u != ""
}

// Ref identifies one object: the collection it lives in and its id.
type Ref struct {
	Key Key
	ID  int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Key, r.ID)
}

// ParseURL extracts the app, model and id from an object url of the form
// {base}/{app}/{model}/{id}/.
func ParseURL(rawURL string) (Ref, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Ref{}, err
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 {
		return Ref{}, fmt.Errorf("url '%s' does not point to an object", rawURL)
	}
	parts = parts[len(parts)-3:]

	id, err := strconv.Atoi(parts[2])
	if err != nil || id <= 0 {
		return Ref{}, fmt.Errorf("url '%s' does not end with an object id", rawURL)
	}

	return Ref{Key: Key{App: parts[0], Model: parts[1]}, ID: id}, nil
}

// Page is one page of a NetBox list response.
type Page struct {
	Count    int      `json:"count"`
	Next     string   `json:"next"`
	Previous string   `json:"previous"`
	Results  []Object `json:"results"`

	// Status is set on synthetic pages that stand in for a failed request.
	Status string `json:"-"`
}
