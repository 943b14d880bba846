// Package queryfile reads query definitions and fixture data from YAML.
//
// A query file names its source entity and fetch mode and lists filters and
// order keys:
//
//	source: Member
//	select: [username, age]          # optional, default whole entity
//	where:
//	  - {field: age, eq: 100}
//	  - {field: team, eq: null, optional: true}   # dropped when eq is null
//	order_by:
//	  - {field: age, dir: desc}
//	  - {field: username, dir: asc, nulls: last}
//	limit: 10
//	offset: 0
//	fetch: many                      # one|one_or_none|first|many|count|results
//
// Decoding is strict: unknown keys are rejected so typos surface early.
package queryfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querykit/internal/engine"
	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/schema"
)

// DefaultFetch is used when a query does not name a fetch mode.
const DefaultFetch = "many"

// Query is one query definition.
type Query struct {
	Source  string   `yaml:"source"`
	Select  []string `yaml:"select,omitempty"`
	Where   []Filter `yaml:"where,omitempty"`
	OrderBy []Order  `yaml:"order_by,omitempty"`
	Limit   *int     `yaml:"limit,omitempty"`
	Offset  *int     `yaml:"offset,omitempty"`
	Fetch   string   `yaml:"fetch,omitempty"`
}

// Filter is an equality filter. An optional filter whose value is null is
// dropped instead of being rejected.
type Filter struct {
	Field    string `yaml:"field"`
	Eq       any    `yaml:"eq"`
	Optional bool   `yaml:"optional,omitempty"`
}

// Order is one order key. Dir defaults to asc, Nulls to the storage
// default.
type Order struct {
	Field string `yaml:"field"`
	Dir   string `yaml:"dir,omitempty"`
	Nulls string `yaml:"nulls,omitempty"`
}

// Decode parses a single query document.
func Decode(r io.Reader) (*Query, error) {
	var q Query
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &q, nil
}

// LoadFile reads and parses a query file.
func LoadFile(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	q, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

// Cardinality resolves the fetch mode.
func (q *Query) Cardinality() (engine.Cardinality, error) {
	fetch := q.Fetch
	if fetch == "" {
		fetch = DefaultFetch
	}
	return engine.ParseCardinality(fetch)
}

// Plan builds the query against reg. Every failure is a QueryError:
// an unknown source or malformed literal is INVALID_PLAN, an undeclared
// field UNKNOWN_FIELD.
func (q *Query) Plan(reg *schema.Registry) (*plan.Plan, error) {
	if q.Source == "" {
		return nil, queryir.NewInvalidPlanError("", "query has no source entity")
	}
	desc, ok := reg.Lookup(q.Source)
	if !ok {
		return nil, queryir.NewInvalidPlanError(q.Source, "unknown entity %q", q.Source)
	}

	b := plan.From(desc)
	if len(q.Select) > 0 {
		b.Select(plan.Fields(q.Select...))
	}

	for _, f := range q.Where {
		opt, err := f.opt(desc.Name)
		if err != nil {
			return nil, err
		}
		b.WhereOpt(opt)
	}

	for _, o := range q.OrderBy {
		key, err := o.key(desc.Name)
		if err != nil {
			return nil, err
		}
		b.OrderBy(key)
	}

	if q.Limit != nil {
		b.Limit(*q.Limit)
	}
	if q.Offset != nil {
		b.Offset(*q.Offset)
	}
	return b.Build()
}

func (f Filter) opt(entity string) (queryir.Opt, error) {
	if f.Field == "" {
		return queryir.Opt{}, queryir.NewInvalidPlanError(entity, "filter has no field")
	}
	v, err := ir.FromAny(f.Eq)
	if err != nil {
		return queryir.Opt{}, queryir.NewInvalidPlanError(entity, "filter on %q: %v", f.Field, err)
	}
	return queryir.When(!(f.Optional && ir.IsNull(v)), queryir.Eq(f.Field, v)), nil
}

func (o Order) key(entity string) (queryir.OrderKey, error) {
	if o.Field == "" {
		return queryir.OrderKey{}, queryir.NewInvalidPlanError(entity, "order key has no field")
	}

	dir, err := queryir.ParseDirection(o.Dir)
	if err != nil {
		return queryir.OrderKey{}, queryir.NewInvalidPlanError(entity, "order key %q: %v", o.Field, err)
	}

	nulls, err := queryir.ParseNullPlacement(o.Nulls)
	if err != nil {
		return queryir.OrderKey{}, queryir.NewInvalidPlanError(entity, "order key %q: %v", o.Field, err)
	}
	return queryir.OrderKey{Field: o.Field, Direction: dir, Nulls: nulls}, nil
}
