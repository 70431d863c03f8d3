package harness

// Statement kinds recorded in the trace.
const (
	KindCreateTable = "create_table"
	KindCreateIndex = "create_index"
	KindInsert      = "insert"
)

// TraceEvent is one compiled statement. DDL events appear once per
// dialect; insert events are compiled for sqlite only and carry the
// database error when the row was rejected.
type TraceEvent struct {
	Kind    string `json:"kind"`
	Dialect string `json:"dialect"`
	Table   string `json:"table"`
	SQL     string `json:"sql"`
	Params  []any  `json:"params,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace contains every compiled statement in emission order.
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

// statements returns the trace events for one dialect.
func (r *Result) statements(dialect string) []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Dialect == dialect {
			out = append(out, ev)
		}
	}
	return out
}
