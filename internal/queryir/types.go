package queryir

import "github.com/roach88/querykit/internal/ir"

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal_value
//   - Conjunction: both sides must be true
//   - Unbound: always true
//
// And returns the conjunction of the receiver and other, so conditions
// chain fluently: QMember.Username.Eq("member1").And(QMember.Age.Eq(10)).
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
	And(other Predicate) Predicate
}

// Equals represents a field-equals-literal predicate.
//
// Semantics:
//
//	<field> = <value>
//
// Comparison follows SQL: an empty stored value never equals anything.
// Comparing against an IRNull literal is rejected by Check; use a
// nullable-aware filter in the caller instead.
type Equals struct {
	Field string     // Field name on the plan's source descriptor
	Value ir.IRValue // Literal value (constrained to IRValue types)
}

func (Equals) predicateNode() {}

// And returns And(e, other).
func (e Equals) And(other Predicate) Predicate { return And(e, other) }

// Conjunction represents left AND right.
//
// A row matches exactly when it matches both sides, so the rows matched by
// a Conjunction are the intersection of the rows matched by each side.
type Conjunction struct {
	Left  Predicate
	Right Predicate
}

func (Conjunction) predicateNode() {}

// And returns And(c, other).
func (c Conjunction) And(other Predicate) Predicate { return And(c, other) }

// Unbound matches every row. It is the filter of a plan without a where
// clause and the result of collecting an empty optional list.
type Unbound struct{}

func (Unbound) predicateNode() {}

// And returns And(u, other).
func (u Unbound) And(other Predicate) Predicate { return And(u, other) }

// Eq builds an Equals predicate.
func Eq(field string, value ir.IRValue) Predicate {
	return Equals{Field: field, Value: value}
}

// And builds the conjunction of two predicates. A nil operand is an absent
// filter and is dropped: And(p, nil) is p, And(nil, q) is q and And(nil, nil)
// is nil.
func And(left, right Predicate) Predicate {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	}
	return Conjunction{Left: left, Right: right}
}

// All left-folds preds with And. All() is Unbound and All(p) is p.
func All(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return Unbound{}
	case 1:
		return preds[0]
	}
	acc := preds[0]
	for _, p := range preds[1:] {
		acc = And(acc, p)
	}
	return acc
}

// IsUnbound reports whether p matches every row without testing a field:
// Unbound itself or a conjunction made only of Unbound.
func IsUnbound(p Predicate) bool {
	switch pred := p.(type) {
	case Unbound:
		return true
	case Conjunction:
		return IsUnbound(pred.Left) && IsUnbound(pred.Right)
	default:
		return false
	}
}

// Fields returns the field names referenced by p, in traversal order with
// duplicates removed.
func Fields(p Predicate) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch pred := p.(type) {
		case Equals:
			if !seen[pred.Field] {
				seen[pred.Field] = true
				out = append(out, pred.Field)
			}
		case Conjunction:
			walk(pred.Left)
			walk(pred.Right)
		}
	}
	walk(p)
	return out
}

// Describe renders p as a stable, human-readable expression used in logs
// and plan fingerprints.
func Describe(p Predicate) ir.IRValue {
	switch pred := p.(type) {
	case Equals:
		return ir.IRObject{
			"eq":    ir.IRString(pred.Field),
			"value": nullSafe(pred.Value),
		}
	case Conjunction:
		return ir.IRObject{
			"and": ir.IRArray{Describe(pred.Left), Describe(pred.Right)},
		}
	case Unbound:
		return ir.IRObject{"unbound": ir.IRBool(true)}
	default:
		return ir.IRNull{}
	}
}

func nullSafe(v ir.IRValue) ir.IRValue {
	if v == nil {
		return ir.IRNull{}
	}
	return v
}
