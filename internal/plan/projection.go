package plan

import "slices"

// Projection selects the columns a plan returns.
type Projection struct {
	entity bool
	fields []string
}

// Entity projects every field of the source, id first.
func Entity() Projection {
	return Projection{entity: true}
}

// Fields projects the named fields in the given order.
func Fields(names ...string) Projection {
	return Projection{fields: slices.Clone(names)}
}

// IsEntity reports whether the projection is the whole entity.
func (p Projection) IsEntity() bool {
	return p.entity
}

// Names returns the projected field names of a Fields projection.
func (p Projection) Names() []string {
	return slices.Clone(p.fields)
}
