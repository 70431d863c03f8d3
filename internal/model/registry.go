package model

import "fmt"

// Model is the lookup the query core needs from the mapping layer.
type Model interface {
	// TypeDescriptor returns the descriptor registered under name.
	TypeDescriptor(name string) (*TypeDescriptor, bool)

	// DescriptorFor returns the descriptor for an entity type, or false when
	// t is not a registered entity.
	DescriptorFor(t Type) (*TypeDescriptor, bool)

	// Types returns all registered descriptors in registration order.
	Types() []*TypeDescriptor
}

// Registry is an in-memory Model.
type Registry struct {
	byName map[string]*TypeDescriptor
	order  []*TypeDescriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*TypeDescriptor)}
}

// Register adds td. Names must be unique.
func (r *Registry) Register(td *TypeDescriptor) error {
	if td == nil || td.Name == "" {
		return fmt.Errorf("register type: descriptor has no name")
	}
	if _, dup := r.byName[td.Name]; dup {
		return fmt.Errorf("register type %s: already registered", td.Name)
	}
	r.byName[td.Name] = td
	r.order = append(r.order, td)
	return nil
}

// MustRegister is Register for static setup; it panics on error.
func (r *Registry) MustRegister(tds ...*TypeDescriptor) *Registry {
	for _, td := range tds {
		if err := r.Register(td); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) TypeDescriptor(name string) (*TypeDescriptor, bool) {
	td, ok := r.byName[name]
	return td, ok
}

func (r *Registry) DescriptorFor(t Type) (*TypeDescriptor, bool) {
	if !t.IsEntity() {
		return nil, false
	}
	td, ok := r.byName[t.Entity.Name]
	if !ok || td != t.Entity {
		return nil, false
	}
	return td, true
}

func (r *Registry) Types() []*TypeDescriptor {
	out := make([]*TypeDescriptor, len(r.order))
	copy(out, r.order)
	return out
}
