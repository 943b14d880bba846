package queryir

import "github.com/roach88/querykit/internal/ir"

// Typed field paths give compile-time checked literal types for one field,
// the way a generated metamodel would. Field existence is still checked
// against the descriptor when the plan is built.

// StringPath is a string-typed field.
type StringPath struct{ Name string }

// IntPath is an integer-typed field.
type IntPath struct{ Name string }

// BoolPath is a bool-typed field.
type BoolPath struct{ Name string }

// RefPath is a reference field holding the id of another entity's row.
type RefPath struct{ Name string }

func (p StringPath) Eq(v string) Predicate { return Eq(p.Name, ir.IRString(v)) }
func (p StringPath) Asc() OrderKey          { return Asc(p.Name) }
func (p StringPath) Desc() OrderKey         { return Desc(p.Name) }

func (p IntPath) Eq(v int64) Predicate { return Eq(p.Name, ir.IRInt(v)) }
func (p IntPath) Asc() OrderKey        { return Asc(p.Name) }
func (p IntPath) Desc() OrderKey       { return Desc(p.Name) }

func (p BoolPath) Eq(v bool) Predicate { return Eq(p.Name, ir.IRBool(v)) }
func (p BoolPath) Asc() OrderKey       { return Asc(p.Name) }
func (p BoolPath) Desc() OrderKey      { return Desc(p.Name) }

// Eq matches rows referencing the row with the given id.
func (p RefPath) Eq(id int64) Predicate { return Eq(p.Name, ir.IRInt(id)) }
func (p RefPath) Asc() OrderKey         { return Asc(p.Name) }
func (p RefPath) Desc() OrderKey        { return Desc(p.Name) }
