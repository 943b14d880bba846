package harness

import "github.com/roach88/querykit/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step   int    `json:"step"`
	Name   string `json:"name"`
	Fetch  string `json:"fetch"`
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`

	// Fingerprint identifies the plan. It is logged but left out of golden
	// snapshots so snapshots stay readable when the plan encoding changes.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Result is the canonical result description; nil when the step failed.
	Result ir.IRObject `json:"result,omitempty"`

	// Error is the QueryError code when the step failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and cross-check holds.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
