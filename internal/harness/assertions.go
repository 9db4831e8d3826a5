package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/query"
)

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	Ctx context.Context

	// Recorder is the recorded chain, or nil when recording failed.
	Recorder *query.Recorder
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		line := fmt.Sprintf("  [%d] %s %s%v", i+1, event.Type, event.Method, event.Args)
		if event.Error != "" {
			line += " error: " + event.Error
		}
		fmt.Fprintln(&buf, line)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages. Terminal assertions append their calls to result.Trace.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertDescribe:
		return assertDescribe(result, a)
	case AssertHash:
		return assertHash(result, a)
	case AssertSteps:
		return assertSteps(result, a, actx)
	case AssertTerminal:
		return assertTerminal(result, a, actx)
	case AssertChainError:
		return assertChainError(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertDescribe(result *Result, a Assertion) error {
	if result.Describe == a.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertDescribe,
		Expected: a.Value,
		Actual:   orNone(result.Describe),
		Trace:    result.Trace,
	}
}

func assertHash(result *Result, a Assertion) error {
	if result.ChainHash == a.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertHash,
		Expected: a.Value,
		Actual:   orNone(result.ChainHash),
		Trace:    result.Trace,
	}
}

func assertSteps(result *Result, a Assertion, actx *AssertionContext) error {
	actual := -1
	if actx.Recorder != nil {
		actual = actx.Recorder.Len()
	}
	if actual == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertSteps,
		Expected: fmt.Sprintf("%d recorded steps", a.Count),
		Actual:   fmt.Sprintf("%d recorded steps", actual),
		Trace:    result.Trace,
	}
}

// assertTerminal calls the terminal on the recorded chain and compares
// the IR form of its result with the expected value.
func assertTerminal(result *Result, a Assertion, actx *AssertionContext) error {
	if actx.Recorder == nil {
		return &AssertionError{
			Type:     AssertTerminal,
			Expected: fmt.Sprintf("%s%v to run", a.Call, a.Args),
			Actual:   "chain was not recorded",
			Trace:    result.Trace,
		}
	}

	want, err := ir.FromGo(a.Result)
	if err != nil {
		return fmt.Errorf("expected result: %w", err)
	}

	args := a.Args
	if args == nil {
		args = []any{}
	}
	res, err := actx.Recorder.Dispatch(actx.Ctx, a.Call, args...)
	if err != nil {
		result.AddTerminalTrace(a.Call, args, nil, err.Error())
		return &AssertionError{
			Type:     AssertTerminal,
			Expected: fmt.Sprintf("%s%v = %s", a.Call, args, ir.Inspect(want)),
			Actual:   "error: " + err.Error(),
			Trace:    result.Trace,
		}
	}
	if res.Kind != query.KindTerminal {
		return &AssertionError{
			Type:     AssertTerminal,
			Expected: fmt.Sprintf("%s to be a terminal method", a.Call),
			Actual:   res.Kind.String(),
			Trace:    result.Trace,
		}
	}

	got, err := ir.FromGo(res.Value)
	if err != nil {
		return fmt.Errorf("terminal %s result: %w", a.Call, err)
	}
	result.AddTerminalTrace(a.Call, args, ir.ToGo(got), "")

	if ir.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTerminal,
		Expected: fmt.Sprintf("%s%v = %s", a.Call, args, ir.Inspect(want)),
		Actual:   ir.Inspect(got),
		Trace:    result.Trace,
	}
}

func assertChainError(result *Result, a Assertion) error {
	if result.ChainErr == nil {
		return &AssertionError{
			Type:     AssertChainError,
			Expected: describeChainError(a),
			Actual:   "chain recorded without error",
			Trace:    result.Trace,
		}
	}

	var stepErr *StepError
	if a.Step != nil && errors.As(result.ChainErr, &stepErr) && stepErr.Index != *a.Step {
		return &AssertionError{
			Type:     AssertChainError,
			Expected: describeChainError(a),
			Actual:   fmt.Sprintf("failure at step %d: %v", stepErr.Index, stepErr.Err),
			Trace:    result.Trace,
		}
	}

	if a.Code != "" && string(ir.CodeOf(result.ChainErr)) != a.Code {
		return &AssertionError{
			Type:     AssertChainError,
			Expected: describeChainError(a),
			Actual:   fmt.Sprintf("code %s: %v", orNone(string(ir.CodeOf(result.ChainErr))), result.ChainErr),
			Trace:    result.Trace,
		}
	}

	if a.Contains != "" && !strings.Contains(result.ChainErr.Error(), a.Contains) {
		return &AssertionError{
			Type:     AssertChainError,
			Expected: describeChainError(a),
			Actual:   result.ChainErr.Error(),
			Trace:    result.Trace,
		}
	}
	return nil
}

func describeChainError(a Assertion) string {
	var parts []string
	if a.Step != nil {
		parts = append(parts, fmt.Sprintf("failure at step %d", *a.Step))
	}
	if a.Code != "" {
		parts = append(parts, "code "+a.Code)
	}
	if a.Contains != "" {
		parts = append(parts, fmt.Sprintf("message containing %q", a.Contains))
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
