package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	In     string
	To     string
	Indent bool
	Output string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Re-encode a chain file as canonical JSON or YAML",
		Long: `Decode a chain file in any accepted shape (step list, legacy mapping,
symbolic keys) and write it back in the canonical shape.

Examples:
  querychain convert paid.yaml --to json
  querychain convert paid.json --to yaml -o paid.yaml
  querychain convert legacy.json --to json --indent`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "input format (json|yaml)")
	cmd.Flags().StringVar(&opts.To, "to", "json", "output format (json|yaml)")
	cmd.Flags().BoolVar(&opts.Indent, "indent", false, "pretty-print JSON output")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runConvert(opts *ConvertOptions, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	to, err := textFormat(opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}

	input, err := readChainInput(cmd, path, opts.In)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read chain", err)
	}

	doc, err := codec.Decode(input.Data, input.Format)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to decode chain", err)
	}

	out, err := encodeDocument(doc, to, opts.Indent)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to encode chain", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, out, 0644); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to write %s", opts.Output), err)
		}
		formatter.VerboseLog("wrote %s (%s, %d bytes)", opts.Output, to, len(out))
		return nil
	}

	_, err = cmd.OutOrStdout().Write(trailingNewline(out))
	return err
}

// encodeDocument encodes doc as text. indent only affects JSON.
func encodeDocument(doc ir.Document, f codec.Format, indent bool) ([]byte, error) {
	if f == codec.FormatJSON && indent {
		return codec.EncodeIndent(doc)
	}
	return codec.Encode(doc, f)
}
