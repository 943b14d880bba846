// Package plan assembles validated, immutable query plans.
//
// A Builder collects a source descriptor, a projection, filter predicates,
// order keys and an optional limit/offset. Build validates everything
// against the source descriptor and returns a Plan or the first error
// recorded along the way:
//
//	p, err := plan.SelectFrom(member).
//	    Where(QMember.Age.Eq(100)).
//	    OrderBy(QMember.Age.Desc(), QMember.Username.Asc().NullsLast()).
//	    Build()
//
// Where drops nil predicates. This lets callers pass an optional filter
// directly, the way the dynamic-query idiom does; the drop happens through
// queryir.Maybe so it follows the same rule as WhereOpt.
//
// A Plan is immutable: accessors return copies and derived plans
// (CountForm, WithLimit) are new values. The intended lifecycle is build,
// execute once, discard.
package plan
