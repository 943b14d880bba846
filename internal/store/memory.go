package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/ordering"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/schema"
)

// Memory is an in-memory storage handle. Rows live in per-entity tables
// kept in id order. It evaluates plans in Go with SQLite semantics and is
// safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	rows   []ir.IRObject
	nextID int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

// EnsureTables creates an empty table for every registered descriptor that
// does not have one yet.
func (m *Memory) EnsureTables(_ context.Context, reg *schema.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, desc := range reg.All() {
		if _, ok := m.tables[desc.TableName()]; !ok {
			m.tables[desc.TableName()] = &memTable{nextID: 1}
		}
	}
	return nil
}

// Insert validates row against desc, stores it and returns its id. The
// table is created on first insert.
func (m *Memory) Insert(ctx context.Context, desc *schema.Descriptor, row ir.IRObject) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prepared, err := prepareRow(desc, row)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[desc.TableName()]
	if !ok {
		t = &memTable{nextID: 1}
		m.tables[desc.TableName()] = t
	}

	var id int64
	if v, ok := prepared[schema.IDField]; ok {
		id = int64(v.(ir.IRInt))
	} else {
		id = t.nextID
		prepared[schema.IDField] = ir.IRInt(id)
	}

	pos, found := slices.BinarySearchFunc(t.rows, id, func(r ir.IRObject, id int64) int {
		return ordering.Compare(r[schema.IDField], ir.IRInt(id))
	})
	if found {
		return 0, fmt.Errorf("insert %s: UNIQUE constraint failed: %s.id", desc.Name, desc.TableName())
	}
	t.rows = slices.Insert(t.rows, pos, prepared)
	if id >= t.nextID {
		t.nextID = id + 1
	}
	return id, nil
}

// Select evaluates the plan: filter, order (ties by id), offset, limit and
// projection, in that order.
func (m *Memory) Select(ctx context.Context, p *plan.Plan) ([]ir.IRObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched, err := m.scan(p)
	if err != nil {
		return nil, err
	}

	ordering.Sort(matched, p.Order())

	offset := min(p.Offset(), len(matched))
	matched = matched[offset:]
	if limit, ok := p.Limit(); ok && limit < len(matched) {
		matched = matched[:limit]
	}

	cols := p.Columns()
	out := make([]ir.IRObject, len(matched))
	for i, row := range matched {
		projected := make(ir.IRObject, len(cols))
		for _, c := range cols {
			projected[c] = row.Get(c)
		}
		out[i] = projected
	}
	return out, nil
}

// Count returns the number of rows matching the plan's filter.
func (m *Memory) Count(ctx context.Context, p *plan.Plan) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	matched, err := m.scan(p)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// scan returns the matching rows in id order.
func (m *Memory) scan(p *plan.Plan) ([]ir.IRObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[p.Source().TableName()]
	if !ok {
		return nil, fmt.Errorf("no such table: %s", p.Source().TableName())
	}

	var matched []ir.IRObject
	for _, row := range t.rows {
		if Match(p.Filter(), row) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// Match reports whether row satisfies p under SQL semantics: an empty
// value equals nothing, a conjunction needs both sides, Unbound (or nil)
// matches everything.
func Match(p queryir.Predicate, row ir.IRObject) bool {
	switch pred := p.(type) {
	case nil, queryir.Unbound:
		return true
	case queryir.Equals:
		v := row.Get(pred.Field)
		if ir.IsNull(v) || ir.IsNull(pred.Value) {
			return false
		}
		return ordering.Compare(v, pred.Value) == 0
	case queryir.Conjunction:
		return Match(pred.Left, row) && Match(pred.Right, row)
	default:
		return false
	}
}
