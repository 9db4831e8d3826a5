package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/blob"
	"github.com/roach88/querychain/internal/catalog"
	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/provider"
	"github.com/roach88/querychain/internal/query"
	"github.com/roach88/querychain/internal/sqlprovider"
	"github.com/roach88/querychain/internal/store"
)

// workspace is the live environment chains resolve against: the catalog's
// resources bound to the provider database.
type workspace struct {
	db       *sql.DB
	resolver *provider.Registry
}

func (w *workspace) Close() error {
	return w.db.Close()
}

// openWorkspace loads the catalog and opens the provider database.
func (o *RootOptions) openWorkspace(ctx context.Context) (*workspace, error) {
	cat, err := catalog.Load(o.cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	db, dialect, err := sqlprovider.Open(ctx, o.cfg.Driver, o.cfg.ProviderDSN())
	if err != nil {
		return nil, err
	}

	reg, err := sqlprovider.Registry(db, dialect, cat.Resources)
	if err != nil {
		db.Close()
		return nil, err
	}

	o.logger.Debug("workspace ready",
		"catalog", o.cfg.Catalog,
		"driver", o.cfg.Driver,
		"resources", len(cat.Resources))
	return &workspace{db: db, resolver: reg}, nil
}

// queryOptions returns the deserialization options every command uses.
func (o *RootOptions) queryOptions(extra ...query.Option) []query.Option {
	return append([]query.Option{query.WithLogger(o.logger)}, extra...)
}

func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", o.cfg.Database, err)
	}
	return st, nil
}

func (o *RootOptions) openBlob(ctx context.Context) (blob.Store, error) {
	return blob.Open(ctx, o.cfg.Blob.BlobStore())
}

// chainInput is a chain file read from disk or stdin.
type chainInput struct {
	Path   string
	Format codec.Format
	Data   []byte
}

// readChainInput reads path ("-" for stdin). The format comes from the
// explicit name when given, then the file extension, then defaults to
// JSON.
func readChainInput(cmd *cobra.Command, path, explicit string) (*chainInput, error) {
	format := codec.FormatJSON
	if explicit != "" {
		f, err := codec.ParseFormat(explicit)
		if err != nil {
			return nil, err
		}
		if f == codec.FormatMap {
			return nil, fmt.Errorf("format %s has no text form", f)
		}
		format = f
	} else if f, ok := codec.FormatFromPath(path); ok {
		format = f
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &chainInput{Path: path, Format: format, Data: data}, nil
}

// textFormat parses a --to style flag that must name a text format.
func textFormat(name string) (codec.Format, error) {
	f, err := codec.ParseFormat(name)
	if err != nil {
		return 0, err
	}
	if f == codec.FormatMap {
		return 0, fmt.Errorf("format %s has no text form", f)
	}
	return f, nil
}
