package harness

// TraceEvent is one recorded execution in a scenario run.
// Addresses are reported by their scenario names, so traces are stable and
// readable in golden files.
type TraceEvent struct {
	Seq         int64    `json:"seq"`
	ExecutionID string   `json:"execution_id"`
	Command     string   `json:"command"`
	Signer      string   `json:"signer"`
	Outcome     string   `json:"outcome"`
	Code        string   `json:"code,omitempty"`
	Written     []string `json:"written"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step matched its expect clause
	// and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
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

// AddTrace appends an execution to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
