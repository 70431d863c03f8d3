package expr

import (
	"strings"

	"github.com/roach88/objsql/internal/model"
)

// PropertyPath is an ordered sequence of persisted properties walked from
// a root object, e.g. [Person.Address, Address.City]. Paths are values;
// every operation returns a new path.
type PropertyPath struct {
	props []*model.PropertyDescriptor
}

// EmptyPath is the zero-length path.
var EmptyPath = PropertyPath{}

// NewPropertyPath builds a path from properties in walk order.
func NewPropertyPath(props ...*model.PropertyDescriptor) PropertyPath {
	return PropertyPath{props: append([]*model.PropertyDescriptor(nil), props...)}
}

func (p PropertyPath) Len() int                           { return len(p.props) }
func (p PropertyPath) At(i int) *model.PropertyDescriptor { return p.props[i] }

// Last returns the final property, nil for the empty path.
func (p PropertyPath) Last() *model.PropertyDescriptor {
	if len(p.props) == 0 {
		return nil
	}
	return p.props[len(p.props)-1]
}

// Properties returns a copy of the path's properties.
func (p PropertyPath) Properties() []*model.PropertyDescriptor {
	return append([]*model.PropertyDescriptor(nil), p.props...)
}

// Prefix returns the first n properties; n is clamped to [0, Len].
func (p PropertyPath) Prefix(n int) PropertyPath {
	n = max(0, min(n, len(p.props)))
	return NewPropertyPath(p.props[:n]...)
}

// Skip drops the first n properties; n is clamped to [0, Len].
func (p PropertyPath) Skip(n int) PropertyPath {
	n = max(0, min(n, len(p.props)))
	return NewPropertyPath(p.props[n:]...)
}

// Concat returns p followed by o.
func (p PropertyPath) Concat(o PropertyPath) PropertyPath {
	return NewPropertyPath(append(p.Properties(), o.props...)...)
}

// Equal reports whether both paths walk the same properties.
func (p PropertyPath) Equal(o PropertyPath) bool {
	if len(p.props) != len(o.props) {
		return false
	}
	for i := range p.props {
		if p.props[i] != o.props[i] {
			return false
		}
	}
	return true
}

// Key is a stable map key distinguishing properties of different declaring
// types that share a name.
func (p PropertyPath) Key() string {
	var b strings.Builder
	for i, prop := range p.props {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(prop.String())
	}
	return b.String()
}

// String renders the path with member names only, e.g. "Address.City".
func (p PropertyPath) String() string {
	names := make([]string, len(p.props))
	for i, prop := range p.props {
		names[i] = prop.Name
	}
	return strings.Join(names, ".")
}

// PathMap is a map keyed by PropertyPath that iterates in insertion order.
type PathMap[V any] struct {
	keys []PropertyPath
	vals map[string]V
}

// NewPathMap returns an empty map.
func NewPathMap[V any]() *PathMap[V] {
	return &PathMap[V]{vals: make(map[string]V)}
}

// Get returns the value stored for path.
func (m *PathMap[V]) Get(path PropertyPath) (V, bool) {
	v, ok := m.vals[path.Key()]
	return v, ok
}

// Set stores v for path. Overwriting keeps the original position.
func (m *PathMap[V]) Set(path PropertyPath, v V) {
	k := path.Key()
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, path)
	}
	m.vals[k] = v
}

// Has reports whether path is present.
func (m *PathMap[V]) Has(path PropertyPath) bool {
	_, ok := m.vals[path.Key()]
	return ok
}

// Len returns the number of entries.
func (m *PathMap[V]) Len() int { return len(m.keys) }

// Keys returns the paths in insertion order.
func (m *PathMap[V]) Keys() []PropertyPath {
	return append([]PropertyPath(nil), m.keys...)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *PathMap[V]) Range(fn func(PropertyPath, V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.vals[k.Key()]) {
			return
		}
	}
}
