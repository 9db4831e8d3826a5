package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/query"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	In string // input format override
}

// DescribeResult is the JSON payload of the describe command.
type DescribeResult struct {
	Class     string `json:"class"`
	Describe  string `json:"describe"`
	Steps     int    `json:"steps"`
	ChainHash string `json:"chain_hash"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <file>",
		Short: "Print a chain file in human-readable form",
		Long: `Decode a chain file and print it as Class.step(args).step(args).

The file is not resolved against the catalog, so describe works offline.
The format is taken from --in, then the file extension, then JSON.
Use "-" to read from stdin.

Examples:
  querychain describe paid.json
  cat paid.yaml | querychain describe - --in yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "input format (json|yaml)")

	return cmd
}

func runDescribe(opts *DescribeOptions, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	input, err := readChainInput(cmd, path, opts.In)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read chain", err)
	}

	doc, err := codec.Decode(input.Data, input.Format)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to decode chain", err)
	}

	hash, err := ir.ChainHash(doc)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to hash chain", err)
	}

	result := DescribeResult{
		Class:     string(doc.Class),
		Describe:  query.Describe(string(doc.Class), doc.Chain),
		Steps:     len(doc.Chain),
		ChainHash: hash,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	formatter.VerboseLog("format: %s, steps: %d, hash: %s", input.Format, result.Steps, result.ChainHash)
	return formatter.Success(result.Describe)
}
