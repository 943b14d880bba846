package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/metrics"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/schema"
)

// fakeHandle serves canned rows and counts round trips.
type fakeHandle struct {
	rows  []ir.IRObject
	count int64
	err   error

	selects    int
	counts     int
	lastSelect *plan.Plan
	lastCount  *plan.Plan
}

func (h *fakeHandle) Select(_ context.Context, p *plan.Plan) ([]ir.IRObject, error) {
	h.selects++
	h.lastSelect = p
	if h.err != nil {
		return nil, h.err
	}
	rows := h.rows
	if limit, ok := p.Limit(); ok && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (h *fakeHandle) Count(_ context.Context, p *plan.Plan) (int64, error) {
	h.counts++
	h.lastCount = p
	if h.err != nil {
		return 0, h.err
	}
	return h.count, nil
}

func memberDesc() *schema.Descriptor {
	return &schema.Descriptor{
		Name: "Member",
		Fields: []schema.Field{
			{Name: "username", Type: schema.TypeString, Nullable: true},
			{Name: "age", Type: schema.TypeInt},
		},
	}
}

func rowsN(n int) []ir.IRObject {
	out := make([]ir.IRObject, n)
	for i := range out {
		out[i] = ir.IRObject{"id": ir.IRInt(i + 1)}
	}
	return out
}

func testPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.From(memberDesc()).
		OrderBy(queryir.Desc("age")).
		Limit(10).
		Offset(5).
		Build()
	require.NoError(t, err)
	return p
}

func quietEngine(opts ...Option) *Engine {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(opts...)
}

func TestExactlyOne(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		wantCode queryir.ErrorCode
	}{
		{"no rows", 0, queryir.ErrCodeNoResult},
		{"one row", 1, ""},
		{"two rows", 2, queryir.ErrCodeNonUnique},
		{"many rows", 5, queryir.ErrCodeNonUnique},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{rows: rowsN(tt.rows)}
			res, err := quietEngine().Execute(context.Background(), h, testPlan(t), ExactlyOne)

			assert.Equal(t, 1, h.selects)
			assert.Equal(t, 0, h.counts)
			limit, ok := h.lastSelect.Limit()
			assert.True(t, ok)
			assert.Equal(t, 2, limit)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, queryir.CodeOf(err))
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			row, ok := res.Row()
			require.True(t, ok)
			assert.Equal(t, ir.IRInt(1), row["id"])
		})
	}
}

func TestOneOrNone(t *testing.T) {
	e := quietEngine()
	ctx := context.Background()

	res, err := e.Execute(ctx, &fakeHandle{}, testPlan(t), OneOrNone)
	require.NoError(t, err)
	_, ok := res.Row()
	assert.False(t, ok)

	res, err = e.Execute(ctx, &fakeHandle{rows: rowsN(1)}, testPlan(t), OneOrNone)
	require.NoError(t, err)
	_, ok = res.Row()
	assert.True(t, ok)

	_, err = e.Execute(ctx, &fakeHandle{rows: rowsN(2)}, testPlan(t), OneOrNone)
	assert.True(t, queryir.IsNonUnique(err))
}

func TestFirst(t *testing.T) {
	h := &fakeHandle{rows: rowsN(3)}
	res, err := quietEngine().Execute(context.Background(), h, testPlan(t), First)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	limit, _ := h.lastSelect.Limit()
	assert.Equal(t, 1, limit)
	assert.Equal(t, []queryir.OrderKey{queryir.Desc("age")}, h.lastSelect.Order())

	res, err = quietEngine().Execute(context.Background(), &fakeHandle{}, testPlan(t), First)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestManyPassesPlanThrough(t *testing.T) {
	p := testPlan(t)
	h := &fakeHandle{rows: rowsN(3)}
	res, err := quietEngine().Execute(context.Background(), h, p, Many)
	require.NoError(t, err)

	assert.Same(t, p, h.lastSelect)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, 0, h.counts)
}

func TestCountUsesCountForm(t *testing.T) {
	h := &fakeHandle{count: 4}
	res, err := quietEngine().Execute(context.Background(), h, testPlan(t), Count)
	require.NoError(t, err)

	assert.Equal(t, int64(4), res.Total)
	assert.Equal(t, 0, h.selects)
	assert.Equal(t, 1, h.counts)
	assert.Empty(t, h.lastCount.Order())
	_, hasLimit := h.lastCount.Limit()
	assert.False(t, hasLimit)
	assert.Equal(t, 0, h.lastCount.Offset())
}

func TestNegativeCountIsStorageError(t *testing.T) {
	_, err := quietEngine().Execute(context.Background(), &fakeHandle{count: -1}, testPlan(t), Count)
	require.Error(t, err)
	assert.True(t, queryir.IsStorage(err))
	assert.Contains(t, err.Error(), "negative count -1")
}

func TestManyWithTotalCountTwoRoundTrips(t *testing.T) {
	p, err := plan.From(memberDesc()).Limit(2).Build()
	require.NoError(t, err)

	h := &fakeHandle{rows: rowsN(10), count: 10}
	res, err := quietEngine().Execute(context.Background(), h, p, ManyWithTotalCount)
	require.NoError(t, err)

	assert.Equal(t, 1, h.selects)
	assert.Equal(t, 1, h.counts)
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, int64(10), res.Total)
	assert.Equal(t, 2, res.Limit)
	assert.True(t, res.HasLimit)
	assert.Equal(t, 0, res.Offset)
}

func TestStorageErrorsWrapCause(t *testing.T) {
	cause := errors.New("disk on fire")

	for _, c := range []Cardinality{Many, OneOrNone, ExactlyOne, First, Count, ManyWithTotalCount} {
		t.Run(c.String(), func(t *testing.T) {
			_, err := quietEngine().Execute(context.Background(), &fakeHandle{err: cause}, testPlan(t), c)
			require.Error(t, err)
			assert.True(t, queryir.IsStorage(err))
			assert.ErrorIs(t, err, cause)

			var qe *queryir.QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, "Member", qe.Entity)
		})
	}
}

func TestInvalidExecution(t *testing.T) {
	h := &fakeHandle{}
	e := quietEngine()
	ctx := context.Background()

	_, err := e.Execute(ctx, h, nil, Many)
	assert.True(t, queryir.IsInvalidPlan(err))

	_, err = e.Execute(ctx, nil, testPlan(t), Many)
	assert.True(t, queryir.IsInvalidPlan(err))

	_, err = e.Execute(ctx, h, testPlan(t), Cardinality(0))
	assert.True(t, queryir.IsInvalidPlan(err))

	assert.Equal(t, 0, h.selects+h.counts)
}

func TestExecuteLogsQueryIDAndFingerprint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(WithLogger(logger), WithIDGenerator(NewFixedGenerator("q-1")))

	p := testPlan(t)
	res, err := e.Execute(context.Background(), &fakeHandle{rows: rowsN(1)}, p, Many)
	require.NoError(t, err)
	assert.Equal(t, "q-1", res.QueryID)

	out := buf.String()
	assert.Contains(t, out, `"query_id":"q-1"`)
	assert.Contains(t, out, `"fingerprint":"`+p.Fingerprint()+`"`)
	assert.Contains(t, out, `"msg":"plan executed"`)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestExecuteRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "")
	e := quietEngine(WithMetrics(m))
	ctx := context.Background()

	_, err := e.Execute(ctx, &fakeHandle{rows: rowsN(3), count: 3}, testPlan(t), ManyWithTotalCount)
	require.NoError(t, err)
	_, err = e.Execute(ctx, &fakeHandle{}, testPlan(t), ExactlyOne)
	require.Error(t, err)

	expected := `
# HELP querykit_round_trips_total Total number of storage round trips by operation
# TYPE querykit_round_trips_total counter
querykit_round_trips_total{operation="count"} 1
querykit_round_trips_total{operation="select"} 2
# HELP querykit_executions_total Total number of plan executions by cardinality contract and outcome
# TYPE querykit_executions_total counter
querykit_executions_total{cardinality="exactly_one",outcome="error"} 1
querykit_executions_total{cardinality="many_with_total_count",outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"querykit_round_trips_total", "querykit_executions_total"))
}
