package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/metrics"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryir"
)

// Handle is the storage collaborator a plan executes against.
// Implemented by store.SQLite and store.Memory.
type Handle interface {
	// Select returns the rows of p in plan order, honouring its limit and
	// offset, keyed by projected field.
	Select(ctx context.Context, p *plan.Plan) ([]ir.IRObject, error)

	// Count returns the number of rows matching p's filter.
	Count(ctx context.Context, p *plan.Plan) (int64, error)
}

// Round-trip operation labels.
const (
	opSelect = "select"
	opCount  = "count"
)

// Engine executes plans. It is safe for concurrent use as long as the
// configured IDGenerator is.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	ids     IDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records executions and round trips on m. Default: none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithIDGenerator sets the query ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs p against h under contract c.
//
// Round trips: ManyWithTotalCount performs two (rows, then the count form);
// every other contract performs exactly one.
func (e *Engine) Execute(ctx context.Context, h Handle, p *plan.Plan, c Cardinality) (*Result, error) {
	start := time.Now()
	res, err := e.execute(ctx, h, p, c)
	e.metrics.RecordExecution(c.String(), err, time.Since(start))
	return res, err
}

func (e *Engine) execute(ctx context.Context, h Handle, p *plan.Plan, c Cardinality) (*Result, error) {
	if p == nil {
		return nil, queryir.NewInvalidPlanError("", "cannot execute a nil plan")
	}
	entity := p.Source().Name
	if h == nil {
		return nil, queryir.NewInvalidPlanError(entity, "no storage handle")
	}
	if _, ok := cardinalityNames[c]; !ok {
		return nil, queryir.NewInvalidPlanError(entity, "unknown cardinality %d", int(c))
	}

	res := &Result{Cardinality: c, QueryID: e.ids.Generate()}
	log := e.logger.With(
		"query_id", res.QueryID,
		"fingerprint", p.Fingerprint(),
		"entity", entity,
		"cardinality", c.String(),
	)
	log.DebugContext(ctx, "executing plan")

	var err error
	switch c {
	case ExactlyOne, OneOrNone:
		res.Rows, err = e.selectRows(ctx, h, p.WithLimit(2))
		if err == nil {
			err = checkUnique(entity, c, len(res.Rows))
		}

	case First:
		res.Rows, err = e.selectRows(ctx, h, p.WithLimit(1))
		if len(res.Rows) > 1 {
			res.Rows = res.Rows[:1]
		}

	case Many:
		res.Rows, err = e.selectRows(ctx, h, p)

	case Count:
		res.Total, err = e.count(ctx, h, p)

	case ManyWithTotalCount:
		res.Limit, res.HasLimit = p.Limit()
		res.Offset = p.Offset()
		res.Rows, err = e.selectRows(ctx, h, p)
		if err == nil {
			res.Total, err = e.count(ctx, h, p)
		}
	}

	if err != nil {
		log.DebugContext(ctx, "plan failed", "error", err)
		return nil, err
	}

	log.DebugContext(ctx, "plan executed", "rows", len(res.Rows), "total", res.Total)
	return res, nil
}

// checkUnique applies the ExactlyOne and OneOrNone row-count rules.
func checkUnique(entity string, c Cardinality, n int) error {
	switch {
	case n > 1:
		return queryir.NewNonUniqueError(entity)
	case n == 0 && c == ExactlyOne:
		return queryir.NewNoResultError(entity)
	default:
		return nil
	}
}

func (e *Engine) selectRows(ctx context.Context, h Handle, p *plan.Plan) ([]ir.IRObject, error) {
	e.metrics.RecordRoundTrip(opSelect)
	rows, err := h.Select(ctx, p)
	if err != nil {
		return nil, queryir.NewStorageError(p.Source().Name, err)
	}
	return rows, nil
}

func (e *Engine) count(ctx context.Context, h Handle, p *plan.Plan) (int64, error) {
	e.metrics.RecordRoundTrip(opCount)
	n, err := h.Count(ctx, p.CountForm())
	if err != nil {
		return 0, queryir.NewStorageError(p.Source().Name, err)
	}
	if n < 0 {
		return 0, queryir.NewStorageError(p.Source().Name, fmt.Errorf("handle returned negative count %d", n))
	}
	return n, nil
}
