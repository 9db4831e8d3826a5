package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/query"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	In string
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Describe string `json:"describe"`
	Call     string `json:"call"`
	Args     []any  `json:"args"`
	Result   any    `json:"result"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file> <method> [args-json...]",
		Short: "Replay a chain file and call a terminal method",
		Long: `Deserialize a chain file against the catalog and call one method on the
replayed chain. Each extra argument is parsed as a JSON value.

A terminal method runs against the database and prints its result. A
chainable method prints the extended chain instead.

Examples:
  querychain run paid.json count
  querychain run paid.json pluck '"id"' '"total_cents"'
  querychain run paid.json to_sql --format json`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "input format (json|yaml)")

	return cmd
}

func runChain(opts *RunOptions, path, method string, rawArgs []string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	values, err := parseJSONArgs(rawArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	input, err := readChainInput(cmd, path, opts.In)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read chain", err)
	}

	ws, err := opts.openWorkspace(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open workspace", err)
	}
	defer ws.Close()

	rec, err := query.Deserialize(ws.resolver, input.Data, input.Format, opts.queryOptions()...)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to deserialize chain", err)
	}

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	res, err := rec.Dispatch(ctx, method, args...)
	if err != nil {
		return formatter.Fail(ExitFailure, fmt.Sprintf("%s failed", method), err)
	}

	if res.Kind == query.KindChained {
		if opts.Format == "json" {
			return formatter.Success(map[string]any{"describe": res.Recorder.Describe()})
		}
		return formatter.Success(res.Recorder.Describe())
	}

	value, err := ir.FromGo(res.Value)
	if err != nil {
		return formatter.Fail(ExitFailure, fmt.Sprintf("%s returned an unprintable result", method), err)
	}
	opts.logger.Debug("terminal called", "chain", rec.Describe(), "method", method)

	if opts.Format == "json" {
		return formatter.Success(RunResult{
			Describe: rec.Describe(),
			Call:     method,
			Args:     ir.ToGo(values).([]any),
			Result:   ir.ToGo(value),
		})
	}
	return formatter.Success(ir.Inspect(value))
}

// parseJSONArgs parses each raw argument as a JSON value.
func parseJSONArgs(raw []string) (ir.IRArray, error) {
	values := make(ir.IRArray, len(raw))
	for i, r := range raw {
		v, err := ir.UnmarshalIRValue([]byte(r))
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i+1, r, err)
		}
		values[i] = v
	}
	return values, nil
}
