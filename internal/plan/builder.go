package plan

import (
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/schema"
)

// DefaultMaxLimit caps the page size a plan may request.
const DefaultMaxLimit = 10000

// Builder assembles a Plan. Errors are sticky: the first one recorded is
// returned by Build and later calls do not replace it.
type Builder struct {
	source     *schema.Descriptor
	projection Projection
	filters    []queryir.Opt
	order      []queryir.OrderKey
	limit      int
	hasLimit   bool
	offset     int
	maxLimit   int
	err        error
}

// New returns an empty builder. Build fails until a source is set.
func New() *Builder {
	return &Builder{projection: Entity(), maxLimit: DefaultMaxLimit}
}

// From starts a plan over desc projecting the whole entity.
func From(desc *schema.Descriptor) *Builder {
	return New().From(desc)
}

// SelectFrom is From with an explicit entity projection.
func SelectFrom(desc *schema.Descriptor) *Builder {
	return From(desc).Select(Entity())
}

// From sets the source descriptor.
func (b *Builder) From(desc *schema.Descriptor) *Builder {
	b.source = desc
	return b
}

// Select sets the projection.
func (b *Builder) Select(p Projection) *Builder {
	b.projection = p
	return b
}

// Where adds filter predicates, AND-combined with any already present.
// Nil entries are dropped.
func (b *Builder) Where(preds ...queryir.Predicate) *Builder {
	for _, p := range preds {
		b.filters = append(b.filters, queryir.Maybe(p))
	}
	return b
}

// WhereOpt adds optional filter predicates. None entries are dropped.
func (b *Builder) WhereOpt(opts ...queryir.Opt) *Builder {
	b.filters = append(b.filters, opts...)
	return b
}

// OrderBy appends order keys. The first key overall is primary.
func (b *Builder) OrderBy(keys ...queryir.OrderKey) *Builder {
	b.order = append(b.order, keys...)
	return b
}

// Limit caps the number of returned rows.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		b.fail(queryir.NewInvalidPlanError(b.entity(), "limit must not be negative, got %d", n))
		return b
	}
	b.limit = n
	b.hasLimit = true
	return b
}

// Offset skips the first n matching rows.
func (b *Builder) Offset(n int) *Builder {
	if n < 0 {
		b.fail(queryir.NewInvalidPlanError(b.entity(), "offset must not be negative, got %d", n))
		return b
	}
	b.offset = n
	return b
}

// MaxLimit overrides DefaultMaxLimit. Zero removes the cap.
func (b *Builder) MaxLimit(n int) *Builder {
	b.maxLimit = n
	return b
}

// Build validates the collected parts against the source descriptor.
func (b *Builder) Build() (*Plan, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.source == nil {
		return nil, queryir.NewInvalidPlanError("", "no source entity")
	}

	columns, err := b.columns()
	if err != nil {
		return nil, err
	}

	filter := queryir.Collect(b.filters...)
	if err := queryir.Check(filter, b.source); err != nil {
		return nil, err
	}
	if err := queryir.CheckOrder(b.order, b.source); err != nil {
		return nil, err
	}

	if b.hasLimit && b.maxLimit > 0 && b.limit > b.maxLimit {
		return nil, queryir.NewInvalidPlanError(b.entity(),
			"limit %d exceeds maximum %d", b.limit, b.maxLimit)
	}

	return &Plan{
		source:   b.source,
		columns:  columns,
		filter:   filter,
		order:    append([]queryir.OrderKey(nil), b.order...),
		limit:    b.limit,
		hasLimit: b.hasLimit,
		offset:   b.offset,
	}, nil
}

func (b *Builder) columns() ([]string, error) {
	if b.projection.IsEntity() {
		return b.source.FieldNames(), nil
	}

	names := b.projection.Names()
	if len(names) == 0 {
		return nil, queryir.NewInvalidPlanError(b.entity(), "projection selects no fields")
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := b.source.Field(name); !ok {
			return nil, queryir.NewUnknownFieldError(b.source.Name, name)
		}
		if seen[name] {
			return nil, queryir.NewInvalidPlanError(b.entity(), "field %q projected twice", name)
		}
		seen[name] = true
	}
	return names, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) entity() string {
	if b.source == nil {
		return ""
	}
	return b.source.Name
}
