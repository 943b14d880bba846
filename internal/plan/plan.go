package plan

import (
	"slices"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/schema"
)

// Plan is a fully specified, not-yet-executed query.
type Plan struct {
	source   *schema.Descriptor
	columns  []string
	filter   queryir.Predicate
	order    []queryir.OrderKey
	limit    int
	hasLimit bool
	offset   int
}

// Source returns the source descriptor. Callers must treat it as read-only.
func (p *Plan) Source() *schema.Descriptor {
	return p.source
}

// Columns returns the projected field names.
func (p *Plan) Columns() []string {
	return slices.Clone(p.columns)
}

// Filter returns the plan's predicate; Unbound when there is no filter.
func (p *Plan) Filter() queryir.Predicate {
	return p.filter
}

// Order returns the order keys in precedence order.
func (p *Plan) Order() []queryir.OrderKey {
	return slices.Clone(p.order)
}

// Limit returns the row cap and whether one is set.
func (p *Plan) Limit() (int, bool) {
	return p.limit, p.hasLimit
}

// Offset returns the number of leading rows skipped.
func (p *Plan) Offset() int {
	return p.offset
}

// CountForm returns the counting form of the plan: same source and filter,
// no projection, order, limit or offset.
func (p *Plan) CountForm() *Plan {
	return &Plan{
		source: p.source,
		filter: p.filter,
	}
}

// WithLimit returns a copy limited to n rows. An existing smaller limit is
// kept.
func (p *Plan) WithLimit(n int) *Plan {
	cp := *p
	cp.columns = slices.Clone(p.columns)
	cp.order = slices.Clone(p.order)
	if !p.hasLimit || n < p.limit {
		cp.limit = n
		cp.hasLimit = true
	}
	return &cp
}

// Describe returns a canonical description of the plan.
func (p *Plan) Describe() ir.IRObject {
	columns := make(ir.IRArray, len(p.columns))
	for i, c := range p.columns {
		columns[i] = ir.IRString(c)
	}

	order := make(ir.IRArray, len(p.order))
	for i, k := range p.order {
		order[i] = ir.IRObject{
			"field": ir.IRString(k.Field),
			"dir":   ir.IRString(k.Direction.String()),
			"nulls": ir.IRString(k.Nulls.String()),
		}
	}

	desc := ir.IRObject{
		"source":  ir.IRString(p.source.Name),
		"columns": columns,
		"filter":  queryir.Describe(p.filter),
		"order":   order,
		"offset":  ir.IRInt(p.offset),
		"limit":   ir.IRNull{},
	}
	if p.hasLimit {
		desc["limit"] = ir.IRInt(p.limit)
	}
	return desc
}

// Fingerprint returns a stable content hash of the plan. Plans that differ
// only in map iteration order share a fingerprint.
func (p *Plan) Fingerprint() string {
	return ir.MustFingerprint(ir.DomainPlan, p.Describe())
}
