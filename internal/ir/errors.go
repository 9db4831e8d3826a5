package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the structured error raised by the codec and the recorder.
//
// The Code identifies the category; the remaining fields are filled only
// when they apply:
//   - Resource: the resource type involved
//   - Field: the missing or malformed field (codec errors)
//   - Step, Method: the failing step during replay (Step is -1 otherwise)
//   - Err: the underlying provider or parser error
type Error struct {
	Code     ErrorCode
	Message  string
	Resource ResourceRef
	Field    string
	Step     int
	Method   string
	Err      error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeMalformedEncoding indicates the payload is not the two-field shape.
	ErrCodeMalformedEncoding ErrorCode = "MALFORMED_ENCODING"

	// ErrCodeMissingField indicates class or chain_methods is absent.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeUnresolvableResource indicates the resource name has no live handle.
	ErrCodeUnresolvableResource ErrorCode = "UNRESOLVABLE_RESOURCE"

	// ErrCodeReplayFailed indicates a recorded step failed on replay.
	ErrCodeReplayFailed ErrorCode = "REPLAY_FAILED"

	// ErrCodeUnsupportedOperation indicates a call is neither chainable nor terminal.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"

	// ErrCodeUnserializableArgument indicates an argument outside the IRValue set.
	ErrCodeUnserializableArgument ErrorCode = "UNSERIALIZABLE_ARGUMENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.Resource != "" {
		ctx = append(ctx, "resource="+string(e.Resource))
	}
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	if e.Method != "" {
		ctx = append(ctx, fmt.Sprintf("step=%d", e.Step), "method="+e.Method)
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err (or anything it wraps) is an *Error with code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NewMalformedError creates a MALFORMED_ENCODING error.
func NewMalformedError(field, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeMalformedEncoding,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
		Step:    -1,
	}
}

// NewMissingFieldError creates a MISSING_FIELD error.
func NewMissingFieldError(field string) *Error {
	return &Error{
		Code:    ErrCodeMissingField,
		Message: fmt.Sprintf("required field %q is absent", field),
		Field:   field,
		Step:    -1,
	}
}

// NewUnresolvableError creates an UNRESOLVABLE_RESOURCE error.
func NewUnresolvableError(ref ResourceRef, err error) *Error {
	return &Error{
		Code:     ErrCodeUnresolvableResource,
		Message:  fmt.Sprintf("resource %q cannot be resolved", ref),
		Resource: ref,
		Step:     -1,
		Err:      err,
	}
}

// NewReplayError creates a REPLAY_FAILED error for step index i.
func NewReplayError(ref ResourceRef, i int, method string, err error) *Error {
	return &Error{
		Code:     ErrCodeReplayFailed,
		Message:  fmt.Sprintf("step %d (%s) failed", i, method),
		Resource: ref,
		Step:     i,
		Method:   method,
		Err:      err,
	}
}

// NewUnsupportedError creates an UNSUPPORTED_OPERATION error.
func NewUnsupportedError(ref ResourceRef, method string) *Error {
	return &Error{
		Code:     ErrCodeUnsupportedOperation,
		Message:  fmt.Sprintf("%s does not support %q", ref, method),
		Resource: ref,
		Step:     -1,
	}
}
