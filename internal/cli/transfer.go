package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/store"
)

// TransferResult is the JSON payload of export and import.
type TransferResult struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Driver string `json:"driver"`
	Format string `json:"format"`
	Bytes  int    `json:"bytes"`
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	To string // "" = from key extension, else json
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <name> <key>",
		Short: "Copy a saved chain to the blob store",
		Long: `Encode the chain saved under name and write it to the configured blob
store (local directory or S3 bucket) under key.

The encoding is taken from --to, then the key extension, then JSON.

Examples:
  querychain export paid-orders reports/paid.json
  querychain export paid-orders reports/paid.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "output format (json|yaml)")

	return cmd
}

func runExport(opts *ExportOptions, name, key string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	format, err := keyFormat(key, opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}

	var data []byte
	err = withStore(opts.RootOptions, formatter, func(st *store.Store) error {
		saved, err := st.Get(ctx, name)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to load", err)
		}
		data, err = codec.Encode(saved.Document, format)
		if err != nil {
			return formatter.Fail(ExitFailure, "failed to encode chain", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	bs, err := opts.openBlob(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open blob store", err)
	}
	if err := bs.Put(ctx, key, data); err != nil {
		return formatter.Fail(ExitCommandError, "failed to write blob", err)
	}
	opts.logger.Info("chain exported", "name", name, "key", key, "driver", bs.Driver())

	result := TransferResult{Name: name, Key: key, Driver: string(bs.Driver()), Format: format.String(), Bytes: len(data)}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("exported %s to %s:%s", name, result.Driver, key))
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	In string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <key> <name>",
		Short: "Save a chain read from the blob store",
		Long: `Read the blob under key, decode it and save it under name.

Examples:
  querychain import reports/paid.json paid-orders`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "input format (json|yaml)")

	return cmd
}

func runImport(opts *ImportOptions, key, name string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	format, err := keyFormat(key, opts.In)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --in", err)
	}

	bs, err := opts.openBlob(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open blob store", err)
	}
	data, err := bs.Get(ctx, key)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read blob", err)
	}

	doc, err := codec.Decode(data, format)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to decode chain", err)
	}

	return withStore(opts.RootOptions, formatter, func(st *store.Store) error {
		saved, err := st.Save(ctx, name, doc)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to save", err)
		}
		opts.logger.Info("chain imported", "name", saved.Name, "key", key, "driver", bs.Driver())

		result := TransferResult{Name: saved.Name, Key: key, Driver: string(bs.Driver()), Format: format.String(), Bytes: len(data)}
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		return formatter.Success(fmt.Sprintf("imported %s:%s as %s", result.Driver, key, saved.Name))
	})
}

// NewExportsCommand creates the exports command.
func NewExportsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exports [prefix]",
		Short: "List keys in the blob store",
		Long: `List the blob keys that start with prefix, sorted.

Examples:
  querychain exports
  querychain exports reports/`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return runExports(rootOpts, prefix, cmd)
		},
	}
}

func runExports(opts *RootOptions, prefix string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	bs, err := opts.openBlob(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open blob store", err)
	}
	keys, err := bs.List(ctx, prefix)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to list blobs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(keys)
	}
	w := cmd.OutOrStdout()
	if len(keys) == 0 {
		fmt.Fprintln(w, "No exports.")
		return nil
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}

// keyFormat picks the text format for a blob key.
func keyFormat(key, explicit string) (codec.Format, error) {
	if explicit != "" {
		return textFormat(explicit)
	}
	if f, ok := codec.FormatFromPath(key); ok {
		return f, nil
	}
	return codec.FormatJSON, nil
}
