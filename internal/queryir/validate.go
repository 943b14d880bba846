package queryir

import (
	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/schema"
)

// Check validates a predicate against the descriptor of the plan's source.
//
// Rules:
//  1. Every referenced field must be declared (UNKNOWN_FIELD)
//  2. Literal values must match the field's semantic type (INVALID_PLAN)
//  3. Equality against an empty literal is rejected; it would never match
//     under SQL semantics (INVALID_PLAN)
//  4. Conjunction operands must be non-nil (INVALID_PLAN)
//
// A nil predicate is treated as Unbound. Check is a pure function with no
// side effects and stops at the first violation.
func Check(p Predicate, desc *schema.Descriptor) error {
	if desc == nil {
		return NewInvalidPlanError("", "predicate checked without a source descriptor")
	}
	if p == nil {
		return nil
	}
	return checkPredicate(p, desc)
}

func checkPredicate(p Predicate, desc *schema.Descriptor) error {
	switch pred := p.(type) {
	case Equals:
		return checkEquals(pred, desc)
	case Conjunction:
		if pred.Left == nil || pred.Right == nil {
			return NewInvalidPlanError(desc.Name, "conjunction has a nil operand")
		}
		if err := checkPredicate(pred.Left, desc); err != nil {
			return err
		}
		return checkPredicate(pred.Right, desc)
	case Unbound:
		return nil
	case nil:
		return NewInvalidPlanError(desc.Name, "nil predicate")
	default:
		return NewInvalidPlanError(desc.Name, "unknown predicate type %T", p)
	}
}

func checkEquals(eq Equals, desc *schema.Descriptor) error {
	if _, ok := desc.Field(eq.Field); !ok {
		return NewUnknownFieldError(desc.Name, eq.Field)
	}
	if ir.IsNull(eq.Value) {
		qe := NewInvalidPlanError(desc.Name, "field %q compared to an empty value, which never matches", eq.Field)
		qe.Field = eq.Field
		return qe
	}
	if err := desc.Accepts(eq.Field, eq.Value); err != nil {
		qe := NewInvalidPlanError(desc.Name, "literal for %q has the wrong type", eq.Field)
		qe.Field = eq.Field
		qe.Err = err
		return qe
	}
	return nil
}

// CheckOrder validates order keys against the descriptor: fields must be
// declared and directions and null placements must be known values.
func CheckOrder(keys []OrderKey, desc *schema.Descriptor) error {
	if desc == nil {
		return NewInvalidPlanError("", "order checked without a source descriptor")
	}
	for _, k := range keys {
		if _, ok := desc.Field(k.Field); !ok {
			return NewUnknownFieldError(desc.Name, k.Field)
		}
		if k.Direction != Ascending && k.Direction != Descending {
			return NewInvalidPlanError(desc.Name, "order key %q has invalid direction %d", k.Field, int(k.Direction))
		}
		if k.Nulls < NullsDefault || k.Nulls > NullsLast {
			return NewInvalidPlanError(desc.Name, "order key %q has invalid null placement %d", k.Field, int(k.Nulls))
		}
	}
	return nil
}
