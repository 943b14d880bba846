package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/engine"
	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryfile"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/querysql"
	"github.com/roach88/querykit/internal/schema"
	"github.com/roach88/querykit/internal/store"
)

// Harness is the test execution engine. It holds the two stores a scenario
// runs against and the engine executing every step.
type Harness struct {
	registry *schema.Registry
	sqlite   *store.SQLite
	memory   *store.Memory
	engine   *engine.Engine
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by the harness and its engine.
// Default: logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory SQLite database and a fresh
// Memory store. Fixtures are inserted into both, then every step is planned
// once and executed against each store. The SQLite outcome is the one
// checked against the step's expectation; the Memory outcome must match it
// exactly.
//
// A returned error means the scenario could not be set up. Failed
// expectations are reported through Result.Errors.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	reg, err := compiler.LoadDir(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	db, err := store.Open(ctx, store.Config{Path: ":memory:"})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer db.Close()

	mem := store.NewMemory()

	h := &Harness{
		registry: reg,
		sqlite:   db,
		memory:   mem,
		engine: engine.New(
			engine.WithLogger(o.logger),
			engine.WithIDGenerator(engine.NewStaticGenerator(scenario.QueryID)),
		),
		logger: o.logger,
	}

	if err := h.setup(ctx, scenario.Fixtures); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.runStep(ctx, i, step, result)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"steps", len(scenario.Steps),
		"pass", result.Pass,
	)
	return result, nil
}

// setup creates the tables and inserts the fixtures into both stores.
func (h *Harness) setup(ctx context.Context, fixtures []queryfile.Fixture) error {
	if err := h.sqlite.EnsureTables(ctx, h.registry); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if err := h.memory.EnsureTables(ctx, h.registry); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	n, err := queryfile.Apply(ctx, h.registry, h.sqlite, fixtures)
	if err != nil {
		return fmt.Errorf("failed to apply fixtures: %w", err)
	}
	if _, err := queryfile.Apply(ctx, h.registry, h.memory, fixtures); err != nil {
		return fmt.Errorf("failed to apply fixtures to memory store: %w", err)
	}

	h.logger.Debug("fixtures applied", "rows", n)
	return nil
}

// runStep plans and executes one step, recording its trace event and any
// failed expectation.
func (h *Harness) runStep(ctx context.Context, index int, step Step, result *Result) {
	fail := func(format string, args ...any) {
		result.AddError(fmt.Sprintf("step %d (%s): ", index, step.Name) + fmt.Sprintf(format, args...))
	}

	c, err := step.Query.Cardinality()
	if err != nil {
		fail("%v", err)
		return
	}

	event := TraceEvent{Step: index, Name: step.Name, Fetch: c.String()}

	p, err := step.Query.Plan(h.registry)
	if err != nil {
		event.Error = errorCode(err)
		result.AddTrace(event)
		for _, msg := range checkExpect(step.Expect, nil, err) {
			fail("%s", msg)
		}
		return
	}

	event.Fingerprint = p.Fingerprint()
	event.SQL, event.Params, err = compileSQL(p, c)
	if err != nil {
		fail("compile: %v", err)
		return
	}

	got, gotErr := h.engine.Execute(ctx, h.sqlite, p, c)
	ref, refErr := h.engine.Execute(ctx, h.memory, p, c)
	if msg := crossCheck(got, gotErr, ref, refErr); msg != "" {
		fail("%s", msg)
	}

	if gotErr != nil {
		event.Error = errorCode(gotErr)
	} else {
		event.Result = got.Describe()
	}
	result.AddTrace(event)

	for _, msg := range checkExpect(step.Expect, got, gotErr) {
		fail("%s", msg)
	}

	h.logger.Debug("step completed",
		"step", index,
		"name", step.Name,
		"fingerprint", event.Fingerprint,
		"error", event.Error,
	)
}

// compileSQL returns the statement the step's fetch mode is built on: the
// count statement for count fetches, the row statement otherwise.
func compileSQL(p *plan.Plan, c engine.Cardinality) (string, []any, error) {
	if c == engine.Count {
		return querysql.CompileCount(p.CountForm())
	}
	return querysql.Compile(p)
}

// crossCheck reports a mismatch between the SQLite and Memory outcomes.
func crossCheck(got *engine.Result, gotErr error, ref *engine.Result, refErr error) string {
	switch {
	case gotErr != nil || refErr != nil:
		if errorCode(gotErr) != errorCode(refErr) {
			return fmt.Sprintf("sqlite and memory disagree: sqlite error %q, memory error %q",
				errorCode(gotErr), errorCode(refErr))
		}
		return ""
	case !ir.Equal(got.Describe(), ref.Describe()):
		return fmt.Sprintf("sqlite and memory disagree:\n  sqlite: %s\n  memory: %s",
			render(got.Describe()), render(ref.Describe()))
	}
	return ""
}

// errorCode returns the QueryError code of err, "ERROR" for any other
// error and "" for nil.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := queryir.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}
