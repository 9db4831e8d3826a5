package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/query"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	In      string
	Offline bool // skip resolution and replay
}

// ValidationProblem is one finding of the validate command.
type ValidationProblem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    *int   `json:"step,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	File     string              `json:"file"`
	Format   string              `json:"format"`
	Valid    bool                `json:"valid"`
	Describe string              `json:"describe,omitempty"`
	Errors   []ValidationProblem `json:"errors,omitempty"`
	Warnings []ValidationProblem `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a chain file decodes and replays",
		Long: `Validate a chain file in three passes:

  1. JSON files are checked against the wire-format JSON Schema.
  2. The file is decoded.
  3. The class is resolved in the catalog and every step is replayed.

Schema violations are warnings when the file still decodes, since the
decoder also accepts legacy shapes. Use --offline to skip pass 3.

Exit codes:
  0 - Chain is valid
  1 - Chain is invalid
  2 - Command error (unreadable file, catalog not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "input format (json|yaml)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "decode only, do not resolve or replay")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	input, err := readChainInput(cmd, path, opts.In)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read chain", err)
	}

	result := ValidationResult{File: path, Format: input.Format.String()}

	var schemaProblems []ValidationProblem
	if input.Format == codec.FormatJSON {
		problems, err := codec.ValidateJSONSchema(input.Data)
		if err != nil {
			schemaProblems = append(schemaProblems, ValidationProblem{Code: ErrCodeSchemaViolation, Message: err.Error()})
		}
		for _, p := range problems {
			schemaProblems = append(schemaProblems, ValidationProblem{Code: ErrCodeSchemaViolation, Message: p})
		}
		formatter.VerboseLog("schema check: %d problem(s)", len(schemaProblems))
	}

	doc, err := codec.Decode(input.Data, input.Format)
	if err != nil {
		result.Errors = append(result.Errors, schemaProblems...)
		result.Errors = append(result.Errors, problemFor(err))
		return outputValidate(formatter, cmd, result)
	}
	result.Warnings = schemaProblems
	result.Describe = query.Describe(string(doc.Class), doc.Chain)

	if !opts.Offline {
		ws, err := opts.openWorkspace(cmd.Context())
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to open workspace", err)
		}
		defer ws.Close()

		rec, err := query.FromDocument(ws.resolver, doc, opts.queryOptions()...)
		if err != nil {
			result.Errors = append(result.Errors, problemFor(err))
		} else {
			result.Describe = rec.Describe()
		}
	}

	return outputValidate(formatter, cmd, result)
}

// problemFor converts a decode or replay error into a finding, keeping the
// failing step when the error names one.
func problemFor(err error) ValidationProblem {
	p := ValidationProblem{Code: ErrorCode(err), Message: err.Error()}
	var irErr *ir.Error
	if errors.As(err, &irErr) && irErr.Step >= 0 && irErr.Method != "" {
		step := irErr.Step
		p.Step = &step
	}
	return p
}

func outputValidate(formatter *OutputFormatter, cmd *cobra.Command, result ValidationResult) error {
	result.Valid = len(result.Errors) == 0

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printValidationText(cmd.OutOrStdout(), result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is not a valid chain", result.File))
	}
	return nil
}

func printValidationText(w io.Writer, result ValidationResult) {
	for _, p := range result.Warnings {
		fmt.Fprintf(w, "warning [%s]: %s\n", p.Code, p.Message)
	}
	for _, p := range result.Errors {
		if p.Step != nil {
			fmt.Fprintf(w, "error [%s] at step %d: %s\n", p.Code, *p.Step, p.Message)
			continue
		}
		fmt.Fprintf(w, "error [%s]: %s\n", p.Code, p.Message)
	}
	if result.Valid {
		fmt.Fprintf(w, "✓ %s: %s\n", result.File, result.Describe)
		return
	}
	fmt.Fprintf(w, "✗ %s: %d error(s)\n", result.File, len(result.Errors))
}
