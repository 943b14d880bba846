// Package querysql compiles query plans to parameterized SQLite SQL.
//
// It targets a single dialect. Identifiers are double-quoted, every literal
// is a ? parameter, and NULLS FIRST / NULLS LAST is emitted only for keys
// that ask for an explicit placement (SQLite 3.30+); default placement is
// left to SQLite, which sorts NULL lowest.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/schema"
)

// Compile converts a plan to a SELECT statement.
// Returns (sql, params, error) tuple.
//
// When the plan has order keys, "id" ASC is appended as a final tie-breaker
// unless a key already orders by id, so tie groups come back in insertion
// order. Plans without order keys get no ORDER BY and storage order applies.
func Compile(p *plan.Plan) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("cannot compile nil plan")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, col := range p.Columns() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(QuoteIdent(col))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteIdent(p.Source().TableName()))

	params, err := writeWhere(&sb, p.Filter())
	if err != nil {
		return "", nil, err
	}

	writeOrderBy(&sb, p.Order())

	limit, hasLimit := p.Limit()
	switch {
	case hasLimit:
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
		if p.Offset() > 0 {
			sb.WriteString(" OFFSET ")
			sb.WriteString(strconv.Itoa(p.Offset()))
		}
	case p.Offset() > 0:
		// SQLite requires LIMIT before OFFSET; -1 means no limit.
		sb.WriteString(" LIMIT -1 OFFSET ")
		sb.WriteString(strconv.Itoa(p.Offset()))
	}

	return sb.String(), params, nil
}

// CompileCount converts the counting form of a plan to
// SELECT COUNT(*). Order, limit and offset are ignored.
func CompileCount(p *plan.Plan) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("cannot compile nil plan")
	}

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(QuoteIdent(p.Source().TableName()))

	params, err := writeWhere(&sb, p.Filter())
	if err != nil {
		return "", nil, err
	}
	return sb.String(), params, nil
}

func writeWhere(sb *strings.Builder, filter queryir.Predicate) ([]any, error) {
	where, params, err := compilePredicate(filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	return params, nil
}

func writeOrderBy(sb *strings.Builder, keys []queryir.OrderKey) {
	if len(keys) == 0 {
		return
	}

	sb.WriteString(" ORDER BY ")
	hasID := false
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(compileOrderKey(k))
		if k.Field == schema.IDField {
			hasID = true
		}
	}
	if !hasID {
		sb.WriteString(", ")
		sb.WriteString(QuoteIdent(schema.IDField))
		sb.WriteString(" ASC")
	}
}

func compileOrderKey(k queryir.OrderKey) string {
	s := QuoteIdent(k.Field) + " ASC"
	if k.Direction == queryir.Descending {
		s = QuoteIdent(k.Field) + " DESC"
	}
	switch k.Nulls {
	case queryir.NullsFirst:
		s += " NULLS FIRST"
	case queryir.NullsLast:
		s += " NULLS LAST"
	}
	return s
}

// compilePredicate compiles a predicate to a WHERE fragment.
// Unbound compiles to the empty string (no condition).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil, queryir.Unbound:
		return "", nil, nil
	case queryir.Equals:
		return compileEquals(pred)
	case queryir.Conjunction:
		return compileConjunction(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to "field" = ?.
func compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := Param(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %q: %w", eq.Field, err)
	}
	return QuoteIdent(eq.Field) + " = ?", []any{param}, nil
}

// compileConjunction joins both sides with AND, skipping unbound sides.
func compileConjunction(c queryir.Conjunction) (string, []any, error) {
	left, leftParams, err := compilePredicate(c.Left)
	if err != nil {
		return "", nil, err
	}
	right, rightParams, err := compilePredicate(c.Right)
	if err != nil {
		return "", nil, err
	}

	switch {
	case left == "":
		return right, rightParams, nil
	case right == "":
		return left, leftParams, nil
	default:
		return left + " AND " + right, append(leftParams, rightParams...), nil
	}
}

// QuoteIdent double-quotes an SQLite identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Param converts an ir.IRValue to a Go value for a SQL parameter.
// Strings bind NFC-normalised, matching how stores write them. Booleans
// bind as 0/1 so they compare and sort like SQLite integers.
func Param(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return norm.NFC.String(string(val)), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case nil, ir.IRNull:
		return nil, nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
