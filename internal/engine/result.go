package engine

import (
	"fmt"

	"github.com/roach88/querykit/internal/ir"
)

// Cardinality is the contract a caller declares for a query's result.
type Cardinality int

const (
	// Many returns every row the plan selects.
	Many Cardinality = iota + 1

	// OneOrNone returns zero or one row; more is NON_UNIQUE_RESULT.
	OneOrNone

	// ExactlyOne returns one row; zero is NO_RESULT, more is NON_UNIQUE_RESULT.
	ExactlyOne

	// First returns the first row in plan order, if any.
	First

	// Count returns the number of rows matching the plan's filter.
	Count

	// ManyWithTotalCount returns a page of rows plus the unpaged total.
	ManyWithTotalCount
)

var cardinalityNames = map[Cardinality]string{
	Many:               "many",
	OneOrNone:          "one_or_none",
	ExactlyOne:         "exactly_one",
	First:              "first",
	Count:              "count",
	ManyWithTotalCount: "many_with_total_count",
}

func (c Cardinality) String() string {
	if name, ok := cardinalityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Cardinality(%d)", int(c))
}

// ParseCardinality maps a fetch mode name to a Cardinality. Besides the
// String forms it accepts the short names used in query files: "one" for
// ExactlyOne and "results" for ManyWithTotalCount.
func ParseCardinality(s string) (Cardinality, error) {
	switch s {
	case "one":
		return ExactlyOne, nil
	case "results":
		return ManyWithTotalCount, nil
	}
	for c, name := range cardinalityNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown fetch mode %q (want one, one_or_none, first, many, count or results)", s)
}

// Result is the envelope returned by Execute. Which fields are meaningful
// depends on Cardinality:
//
//	Many, OneOrNone, ExactlyOne, First   Rows
//	Count                                Total
//	ManyWithTotalCount                   Rows, Total, Limit, HasLimit, Offset
//
// OneOrNone and First carry at most one row, ExactlyOne exactly one.
type Result struct {
	Cardinality Cardinality
	QueryID     string

	Rows     []ir.IRObject
	Total    int64
	Limit    int
	HasLimit bool
	Offset   int
}

// Row returns the single row of a OneOrNone, ExactlyOne or First result.
func (r *Result) Row() (ir.IRObject, bool) {
	if len(r.Rows) == 0 {
		return nil, false
	}
	return r.Rows[0], true
}

// Describe returns the result payload as an IRObject. The query ID is
// left out so the value is stable across runs.
func (r *Result) Describe() ir.IRObject {
	obj := ir.IRObject{"fetch": ir.IRString(r.Cardinality.String())}

	switch r.Cardinality {
	case Count:
		obj["count"] = ir.IRInt(r.Total)
		return obj
	case OneOrNone, ExactlyOne, First:
		if row, ok := r.Row(); ok {
			obj["row"] = row
		} else {
			obj["row"] = ir.IRNull{}
		}
		return obj
	}

	rows := make(ir.IRArray, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = row
	}
	obj["rows"] = rows

	if r.Cardinality == ManyWithTotalCount {
		obj["total"] = ir.IRInt(r.Total)
		obj["offset"] = ir.IRInt(r.Offset)
		if r.HasLimit {
			obj["limit"] = ir.IRInt(r.Limit)
		} else {
			obj["limit"] = ir.IRNull{}
		}
	}
	return obj
}
