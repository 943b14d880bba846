// Package queryir provides the predicate and ordering vocabulary used to
// describe what a query selects.
//
// Predicates form a small sealed tree:
//
//	Equals{Field, Value}      field = literal
//	Conjunction{Left, Right}  left AND right
//	Unbound{}                 matches every row
//
// Predicates are values. They are built with Eq, And and All (or the typed
// field paths in paths.go), never mutated after construction, and carry no
// reference to a descriptor. Field names and literal types are checked
// against a schema.Descriptor by Check when a plan is built, so a query with
// an undeclared field never reaches storage.
//
// SEALED INTERFACES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, which keeps type switches in the SQL
// compiler and the in-memory evaluator exhaustive.
//
// OPTIONAL FILTERS:
//
// Dynamic queries often build a filter list where some entries are absent.
// Opt makes that explicit: Maybe(nil) and When(false, p) yield None, and
// Collect drops None entries before AND-folding the rest. Collect is the
// only place absent filters disappear.
//
// ERRORS:
//
// QueryError carries one of five codes (UNKNOWN_FIELD, INVALID_PLAN,
// NO_RESULT, NON_UNIQUE_RESULT, STORAGE). Build-phase codes come from this
// package and package plan; execution-phase codes come from package engine.
//
// All literal values use ir.IRValue types, so there are no floats.
package queryir
