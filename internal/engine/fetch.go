package engine

import (
	"context"
	"fmt"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/plan"
)

// Mapper converts a fetched row into a caller type.
type Mapper[T any] func(row ir.IRObject) (T, error)

// RowMapper returns rows unchanged.
func RowMapper(row ir.IRObject) (ir.IRObject, error) {
	return row, nil
}

// Page is a ManyWithTotalCount result mapped to T.
type Page[T any] struct {
	Rows     []T
	Total    int64
	Limit    int
	HasLimit bool
	Offset   int
}

// FetchOne returns the single row of p. Zero rows is NO_RESULT and more
// than one is NON_UNIQUE_RESULT.
func FetchOne[T any](ctx context.Context, e *Engine, h Handle, p *plan.Plan, m Mapper[T]) (T, error) {
	var zero T
	res, err := e.Execute(ctx, h, p, ExactlyOne)
	if err != nil {
		return zero, err
	}
	row, _ := res.Row()
	return mapRow(m, row, 0)
}

// FetchOneOrNone returns the row of p if there is one. More than one row
// is NON_UNIQUE_RESULT.
func FetchOneOrNone[T any](ctx context.Context, e *Engine, h Handle, p *plan.Plan, m Mapper[T]) (T, bool, error) {
	return fetchOptional(ctx, e, h, p, m, OneOrNone)
}

// FetchFirst returns the first row of p in plan order, if any.
func FetchFirst[T any](ctx context.Context, e *Engine, h Handle, p *plan.Plan, m Mapper[T]) (T, bool, error) {
	return fetchOptional(ctx, e, h, p, m, First)
}

func fetchOptional[T any](ctx context.Context, e *Engine, h Handle, p *plan.Plan, m Mapper[T], c Cardinality) (T, bool, error) {
	var zero T
	res, err := e.Execute(ctx, h, p, c)
	if err != nil {
		return zero, false, err
	}
	row, ok := res.Row()
	if !ok {
		return zero, false, nil
	}
	v, err := mapRow(m, row, 0)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Fetch returns every row of p.
func Fetch[T any](ctx context.Context, e *Engine, h Handle, p *plan.Plan, m Mapper[T]) ([]T, error) {
	res, err := e.Execute(ctx, h, p, Many)
	if err != nil {
		return nil, err
	}
	return mapRows(m, res.Rows)
}

// FetchCount returns the number of rows matching p's filter.
func FetchCount(ctx context.Context, e *Engine, h Handle, p *plan.Plan) (int64, error) {
	res, err := e.Execute(ctx, h, p, Count)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// FetchResults returns the page of rows selected by p together with the
// total number of matching rows. It performs two round trips.
func FetchResults[T any](ctx context.Context, e *Engine, h Handle, p *plan.Plan, m Mapper[T]) (Page[T], error) {
	res, err := e.Execute(ctx, h, p, ManyWithTotalCount)
	if err != nil {
		return Page[T]{}, err
	}
	rows, err := mapRows(m, res.Rows)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{
		Rows:     rows,
		Total:    res.Total,
		Limit:    res.Limit,
		HasLimit: res.HasLimit,
		Offset:   res.Offset,
	}, nil
}

func mapRows[T any](m Mapper[T], rows []ir.IRObject) ([]T, error) {
	out := make([]T, len(rows))
	for i, row := range rows {
		v, err := mapRow(m, row, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func mapRow[T any](m Mapper[T], row ir.IRObject, i int) (T, error) {
	v, err := m(row)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("map row %d: %w", i, err)
	}
	return v, nil
}
