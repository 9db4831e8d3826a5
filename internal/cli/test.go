package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is one scenario's outcome.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
	Note   string   `json:"note,omitempty"`
}

// TestResult aggregates a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run chain scenarios",
		Long: `Run harness scenarios. Each scenario seeds an in-memory database from its
catalog, records a chain, round-trips it through every encoding and checks
its assertions.

When <scenarios-dir>/golden/<name>.golden exists the run's snapshot must
match it byte for byte. --update rewrites the golden files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  querychain test ./scenarios
  querychain test ./scenarios --filter "paid-*"
  querychain test ./scenarios --update
  querychain test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	jsonOut := opts.Format == "json"
	w := cmd.OutOrStdout()

	if _, err := os.Stat(dir); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := selectScenarios(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	if len(files) == 0 {
		if jsonOut {
			return formatter.Success(result)
		}
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr := opts.runScenario(file)
		if !jsonOut {
			printScenario(w, sr)
		}
		result.add(sr)
	}

	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if jsonOut {
		if failure == nil {
			return formatter.Success(result)
		}
		if err := formatter.Error(ErrCodeScenarioFailed, failure.Error(), result); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure == nil {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
	return failure
}

// selectScenarios returns the scenario files under dir whose name, minus
// extension, matches the glob filter. An empty filter keeps everything.
func selectScenarios(dir, filter string) ([]string, error) {
	paths, err := harness.Discover(dir)
	var notFound *harness.ScenarioNotFoundError
	switch {
	case errors.As(err, &notFound):
		return nil, nil
	case err != nil:
		return nil, err
	case filter == "":
		return paths, nil
	}

	kept := paths[:0]
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		ok, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func (opts *TestOptions) runScenario(file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return failed(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}
	name := scenario.Name

	run, err := harness.Run(scenario, harness.WithLogger(opts.logger))
	if err != nil {
		return failed(name, fmt.Sprintf("execution failed: %v", err))
	}

	golden := harness.GoldenPath(file, name)
	note := ""
	if opts.Update {
		if err := harness.WriteGolden(golden, name, run); err != nil {
			return failed(name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		note = "golden updated"
	} else {
		status, err := harness.CheckGolden(golden, name, run)
		switch {
		case err != nil:
			return failed(name, fmt.Sprintf("golden comparison failed: %v", err))
		case status == harness.GoldenMismatch:
			return failed(name, "snapshot does not match golden file (run with --update to regenerate)")
		}
	}

	if !run.Pass {
		return failed(name, run.Errors...)
	}
	return ScenarioResult{Name: name, Pass: true, Note: note}
}

func failed(name string, errs ...string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: errs}
}

func printScenario(w io.Writer, sr ScenarioResult) {
	if !sr.Pass {
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if sr.Note != "" {
		fmt.Fprintf(w, "✓ %s (%s)\n", sr.Name, sr.Note)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", sr.Name)
}
