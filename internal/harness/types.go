package harness

// TraceEvent is one entry of a scenario run: a recorded step or a
// terminal call.
type TraceEvent struct {
	Type   string `json:"type"` // "step" or "terminal"
	Method string `json:"method"`
	Args   []any  `json:"args"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Seq    int64  `json:"seq"`
}

// Trace event types.
const (
	EventStep     = "step"
	EventTerminal = "terminal"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion and round trip succeeded.
	Pass bool `json:"pass"`

	// Describe is the recorded chain rendered for humans. Empty when
	// recording failed.
	Describe string `json:"describe,omitempty"`

	// ChainHash is the content hash of the recorded chain.
	ChainHash string `json:"chain_hash,omitempty"`

	// Encodings holds the JSON and YAML text of the chain.
	Encodings map[string]string `json:"encodings,omitempty"`

	// Trace lists recorded steps then terminal calls, in order.
	Trace []TraceEvent `json:"trace"`

	// ChainErr is the error that stopped recording, if any.
	ChainErr error `json:"-"`

	// Errors contains assertion and round-trip failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Encodings: map[string]string{},
		Trace:     []TraceEvent{},
		Errors:    []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) nextSeq() int64 {
	return int64(len(r.Trace) + 1)
}

// AddStepTrace records a chained step.
func (r *Result) AddStepTrace(method string, args []any, errMsg string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventStep,
		Method: method,
		Args:   args,
		Error:  errMsg,
		Seq:    r.nextSeq(),
	})
}

// AddTerminalTrace records a terminal call.
func (r *Result) AddTerminalTrace(method string, args []any, result any, errMsg string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventTerminal,
		Method: method,
		Args:   args,
		Result: result,
		Error:  errMsg,
		Seq:    r.nextSeq(),
	})
}
