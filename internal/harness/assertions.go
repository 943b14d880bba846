package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/querykit/internal/engine"
	"github.com/roach88/querykit/internal/ir"
)

// ExpectationError is returned when a step's outcome differs from its
// expect clause.
type ExpectationError struct {
	Kind     string // rows, column, count, total or error
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expectation failed: %s\n", e.Kind)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpect compares a step outcome with its expect clause and returns one
// message per failed expectation. A nil clause only requires success.
func checkExpect(e *Expect, res *engine.Result, err error) []string {
	if e == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	if e.Error != "" {
		if got := errorCode(err); got != e.Error {
			actual := "success"
			if err != nil {
				actual = fmt.Sprintf("%s (%v)", got, err)
			}
			return []string{(&ExpectationError{Kind: "error", Expected: e.Error, Actual: actual}).Error()}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var failures []string
	for _, check := range []func(*Expect, *engine.Result) error{
		expectRows,
		expectColumn,
		expectCount,
		expectTotal,
	} {
		if err := check(e, res); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// expectRows checks the returned rows exactly, in order.
func expectRows(e *Expect, res *engine.Result) error {
	if e.Rows == nil {
		return nil
	}

	want := make(ir.IRArray, len(e.Rows))
	for i, raw := range e.Rows {
		row, err := ir.FromAny(raw)
		if err != nil {
			return fmt.Errorf("expect.rows[%d]: %w", i, err)
		}
		want[i] = row
	}

	got := make(ir.IRArray, len(res.Rows))
	for i, row := range res.Rows {
		got[i] = row
	}

	if !ir.Equal(want, got) {
		return &ExpectationError{Kind: "rows", Expected: render(want), Actual: render(got)}
	}
	return nil
}

// expectColumn checks one field of every returned row, in order.
func expectColumn(e *Expect, res *engine.Result) error {
	if e.Column == "" {
		return nil
	}

	want, err := ir.FromAny(e.Values)
	if err != nil {
		return fmt.Errorf("expect.values: %w", err)
	}

	got := make(ir.IRArray, len(res.Rows))
	for i, row := range res.Rows {
		v, ok := row[e.Column]
		if !ok {
			return &ExpectationError{
				Kind:     "column",
				Expected: fmt.Sprintf("field %q in every row", e.Column),
				Actual:   fmt.Sprintf("row %d has no field %q", i, e.Column),
			}
		}
		got[i] = v
	}

	if !ir.Equal(want, got) {
		return &ExpectationError{
			Kind:     "column " + e.Column,
			Expected: render(want),
			Actual:   render(got),
		}
	}
	return nil
}

func expectCount(e *Expect, res *engine.Result) error {
	if e.Count == nil || *e.Count == res.Total {
		return nil
	}
	return &ExpectationError{
		Kind:     "count",
		Expected: fmt.Sprintf("%d", *e.Count),
		Actual:   fmt.Sprintf("%d", res.Total),
	}
}

func expectTotal(e *Expect, res *engine.Result) error {
	if e.Total == nil || *e.Total == res.Total {
		return nil
	}
	return &ExpectationError{
		Kind:     "total",
		Expected: fmt.Sprintf("%d", *e.Total),
		Actual:   fmt.Sprintf("%d", res.Total),
	}
}

// render formats a value as canonical JSON for failure messages.
func render(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}
