package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/querychain/internal/blob"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Check failure (invalid chain, failed replay, failed scenario)
	ExitCommandError = 2 // Command error (bad path, unreadable config, database not found)
)

// Error codes used in the JSON envelope.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeNotFound         = "E002" // Path, saved query or blob not found
	ErrCodeMalformed        = "E003" // MALFORMED_ENCODING
	ErrCodeMissingField     = "E004" // MISSING_FIELD
	ErrCodeUnresolvable     = "E005" // UNRESOLVABLE_RESOURCE
	ErrCodeReplayFailed     = "E006" // REPLAY_FAILED
	ErrCodeUnsupported      = "E007" // UNSUPPORTED_OPERATION
	ErrCodeUnserializable   = "E008" // UNSERIALIZABLE_ARGUMENT
	ErrCodeSchemaViolation  = "E009" // JSON Schema violation
	ErrCodeScenarioFailed   = "E010" // Harness scenario failed
	ErrCodeWriteFailed      = "E011" // Store or blob write error
	ErrCodeInvalidArguments = "E012" // Bad command arguments
)

// ExitError carries the process exit status a command should end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit status for err: the code of the first
// ExitError in its chain, ExitFailure otherwise.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

var envelopeCodes = map[ir.ErrorCode]string{
	ir.ErrCodeMalformedEncoding:      ErrCodeMalformed,
	ir.ErrCodeMissingField:           ErrCodeMissingField,
	ir.ErrCodeUnresolvableResource:   ErrCodeUnresolvable,
	ir.ErrCodeReplayFailed:           ErrCodeReplayFailed,
	ir.ErrCodeUnsupportedOperation:   ErrCodeUnsupported,
	ir.ErrCodeUnserializableArgument: ErrCodeUnserializable,
}

// ErrorCode maps an error to its envelope code.
func ErrorCode(err error) string {
	if code, ok := envelopeCodes[ir.CodeOf(err)]; ok {
		return code
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, blob.ErrNotFound) {
		return ErrCodeNotFound
	}
	return ErrCodeGeneric
}

// OutputFormatter writes command results as text or as a JSON CLIResponse.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; Writer when nil
	Verbose   bool
}

// CLIResponse is the JSON envelope every command emits with --format json.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) emit(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data. Text mode prints it with fmt.Println.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.emit(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes an error envelope, or "Error [code]: message" in text mode.
// Text mode shows details only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.emit(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err through Error and returns it as an ExitError with the
// given exit code, so the envelope and the process status agree.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	if outErr := f.Error(ErrorCode(err), fmt.Sprintf("%s: %v", message, err), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(exitCode, message, err)
}

// VerboseLog writes a diagnostic line when verbose. It never goes to
// Writer when ErrWriter is set, so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
