package schema

import (
	"fmt"
	"slices"
)

// Registry holds descriptors by entity name. It is built once and then only
// read; concurrent reads after construction are safe.
type Registry struct {
	byName map[string]*Descriptor
	order  []string
}

// NewRegistry registers the given descriptors in order.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor)}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a descriptor. Duplicate entity or table names are rejected.
func (r *Registry) Register(d *Descriptor) error {
	if r.byName == nil {
		r.byName = make(map[string]*Descriptor)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("%w: entity %q registered twice", ErrInvalidDescriptor, d.Name)
	}
	for _, name := range r.order {
		if r.byName[name].TableName() == d.TableName() {
			return fmt.Errorf("%w: %s and %s share table %q",
				ErrInvalidDescriptor, name, d.Name, d.TableName())
		}
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the registered entity names, sorted.
func (r *Registry) Names() []string {
	names := slices.Clone(r.order)
	slices.Sort(names)
	return names
}

// All returns descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return len(r.order)
}

// Validate checks that every reference field points at a registered entity.
func (r *Registry) Validate() error {
	for _, d := range r.All() {
		for _, f := range d.Fields {
			if f.Type != TypeRef {
				continue
			}
			if _, ok := r.byName[f.Ref]; !ok {
				return fmt.Errorf("%w: %s.%s references unknown entity %q",
					ErrInvalidDescriptor, d.Name, f.Name, f.Ref)
			}
		}
	}
	return nil
}
