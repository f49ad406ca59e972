package treemodel

import (
	"maps"
	"reflect"
	"slices"
)

// Attributes maps attribute keys to values.
type Attributes map[string]any

// Clone returns a copy of a. A nil or empty map clones to nil.
func (a Attributes) Clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	return maps.Clone(a)
}

// Equal reports whether a and b hold the same keys with deeply equal values.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// Keys returns the attribute keys in sorted order.
func (a Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// attributed is the read side shared by nodes and text proxies.
type attributed struct {
	attrs Attributes
}

// Attribute returns the value stored under key.
func (a *attributed) Attribute(key string) (any, bool) {
	v, ok := a.attrs[key]
	return v, ok
}

// HasAttribute reports whether key is set.
func (a *attributed) HasAttribute(key string) bool {
	_, ok := a.attrs[key]
	return ok
}

// AttributeKeys returns the set keys in sorted order.
func (a *attributed) AttributeKeys() []string {
	return a.attrs.Keys()
}

// Attributes returns a copy of all attributes.
func (a *attributed) Attributes() Attributes {
	return a.attrs.Clone()
}

func (a *attributed) setAttribute(key string, value any) {
	if a.attrs == nil {
		a.attrs = make(Attributes)
	}
	a.attrs[key] = value
}

func (a *attributed) removeAttribute(key string) {
	delete(a.attrs, key)
	if len(a.attrs) == 0 {
		a.attrs = nil
	}
}
