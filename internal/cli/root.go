package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/config"
	"github.com/roach88/querychain/internal/ir"
)

// RootOptions holds global flags for all commands.
// Flags left empty fall back to the loaded configuration.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "json" | "text"
	Database   string
	Driver     string
	DSN        string
	Catalog    string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the querychain CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "querychain",
		Short:   "querychain - serializable query chains",
		Version: ir.ToolVersion,
		Long: `Record query chains against catalog resources, store them as canonical
JSON or YAML, and replay them later against a live database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./querychain.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the saved-query SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "SQL provider driver (sqlite3|pgx)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "SQL provider connection string")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "directory of CUE resource declarations")

	// Add subcommands
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportsCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads the configuration once and applies flag overrides.
// Commands call it so they also work when built without the root command.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.cfg != nil {
		return nil
	}

	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.DSN = o.DSN
	}
	if o.Catalog != "" {
		cfg.Catalog = o.Catalog
	}
	if o.Format != "" {
		if !isValidFormat(o.Format) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
		}
		cfg.Format = o.Format
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := cfg.Log.Logger(cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log configuration", err)
	}

	o.Format = cfg.Format
	o.cfg = cfg
	o.logger = logger
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
