package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/query"
	"github.com/roach88/querychain/internal/store"
)

// SavedQueryInfo is the JSON form of a saved query.
type SavedQueryInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	ChainHash string `json:"chain_hash"`
	Describe  string `json:"describe"`
	Seq       int64  `json:"seq"`
}

func savedQueryInfo(q store.SavedQuery) SavedQueryInfo {
	return SavedQueryInfo{
		ID:        q.ID,
		Name:      q.Name,
		Class:     string(q.Class),
		ChainHash: q.ChainHash,
		Describe:  query.Describe(string(q.Class), q.Document.Chain),
		Seq:       q.Seq,
	}
}

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	In     string
	Verify bool
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <name> <file>",
		Short: "Store a chain file under a name",
		Long: `Decode a chain file and store it in the saved-query database under name.
Saving an existing name replaces its chain.

With --verify the chain is replayed against the catalog first and is only
stored when every step applies.

Examples:
  querychain save paid-orders paid.json
  querychain save paid-orders paid.yaml --verify`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "input format (json|yaml)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "replay the chain before saving")

	return cmd
}

func runSave(opts *SaveOptions, name, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	input, err := readChainInput(cmd, path, opts.In)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read chain", err)
	}
	doc, err := codec.Decode(input.Data, input.Format)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to decode chain", err)
	}

	if opts.Verify {
		ws, err := opts.openWorkspace(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to open workspace", err)
		}
		_, err = query.FromDocument(ws.resolver, doc, opts.queryOptions()...)
		ws.Close()
		if err != nil {
			return formatter.Fail(ExitFailure, "chain does not replay", err)
		}
	}

	return withStore(opts.RootOptions, formatter, func(st *store.Store) error {
		saved, err := st.Save(ctx, name, doc)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to save", err)
		}
		opts.logger.Info("chain saved", "name", saved.Name, "hash", saved.ChainHash)

		info := savedQueryInfo(saved)
		if opts.Format == "json" {
			return formatter.Success(info)
		}
		return formatter.Success(fmt.Sprintf("saved %s: %s", info.Name, info.Describe))
	})
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	To     string
	Indent bool
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Print a saved chain",
		Long: `Print the chain saved under name as canonical JSON or YAML.

Examples:
  querychain load paid-orders
  querychain load paid-orders --to yaml > paid.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "json", "output format (json|yaml)")
	cmd.Flags().BoolVar(&opts.Indent, "indent", false, "pretty-print JSON output")

	return cmd
}

func runLoad(opts *LoadOptions, name string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	to, err := textFormat(opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}

	return withStore(opts.RootOptions, formatter, func(st *store.Store) error {
		saved, err := st.Get(cmd.Context(), name)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to load", err)
		}
		out, err := encodeDocument(saved.Document, to, opts.Indent)
		if err != nil {
			return formatter.Fail(ExitFailure, "failed to encode chain", err)
		}
		if opts.Format == "json" {
			return formatter.Success(map[string]any{
				"saved_query": savedQueryInfo(saved),
				"format":      to.String(),
				"encoded":     string(out),
			})
		}
		_, err = cmd.OutOrStdout().Write(trailingNewline(out))
		return err
	})
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Class string
	Hash  string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved chains",
		Long: `List saved chains in save order.

Examples:
  querychain list
  querychain list --class Order
  querychain list --hash 652b2d3a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Class, "class", "", "only chains on this resource")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "only chains with this chain hash")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.Class != "" && opts.Hash != "" {
		return NewExitError(ExitCommandError, "--class and --hash are mutually exclusive")
	}

	return withStore(opts.RootOptions, formatter, func(st *store.Store) error {
		var (
			saved []store.SavedQuery
			err   error
		)
		switch {
		case opts.Class != "":
			saved, err = st.ListByClass(ctx, ir.ResourceRef(opts.Class))
		case opts.Hash != "":
			saved, err = st.FindByHash(ctx, opts.Hash)
		default:
			saved, err = st.List(ctx)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to list", err)
		}

		infos := make([]SavedQueryInfo, len(saved))
		for i, q := range saved {
			infos[i] = savedQueryInfo(q)
		}
		if opts.Format == "json" {
			return formatter.Success(infos)
		}

		w := cmd.OutOrStdout()
		if len(infos) == 0 {
			fmt.Fprintln(w, "No saved chains.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCLASS\tHASH\tCHAIN")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.Class, shortHash(info.ChainHash), info.Describe)
		}
		return tw.Flush()
	})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved chain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}
}

func runDelete(opts *RootOptions, name string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	return withStore(opts, formatter, func(st *store.Store) error {
		if err := st.Delete(cmd.Context(), name); err != nil {
			return formatter.Fail(ExitCommandError, "failed to delete", err)
		}
		opts.logger.Info("chain deleted", "name", name)
		if opts.Format == "json" {
			return formatter.Success(map[string]string{"deleted": name})
		}
		return formatter.Success("deleted " + name)
	})
}

// withStore opens the saved-query store for the duration of fn.
func withStore(opts *RootOptions, formatter *OutputFormatter, fn func(*store.Store) error) error {
	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(st)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func trailingNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}
