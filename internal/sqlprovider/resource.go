package sqlprovider

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/provider"
	"github.com/roach88/querychain/internal/queryir"
	"github.com/roach88/querychain/internal/querysql"
)

// Method names understood by every SQL resource.
var (
	DefaultChainable = provider.NewOpSet(
		"where", "where_not", "where_in", "where_cmp",
		"select", "order", "reorder", "limit", "offset", "unscope",
	)
	DefaultTerminal = provider.NewOpSet(
		"to_sql", "count", "exists", "all", "first", "pluck",
	)
)

// Compile-time contract assertion.
var _ provider.Resource = (*Resource)(nil)

// Resource is a SQL table exposed as a chainable query resource.
type Resource struct {
	db       *sql.DB
	spec     ir.ResourceSpec
	compiler *querysql.Compiler
	caps     provider.Capabilities
}

// New builds a resource from its catalog entry. Chainable and Terminal,
// when present, narrow the default method sets.
func New(db *sql.DB, dialect querysql.Dialect, spec ir.ResourceSpec) (*Resource, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("resource has no name")
	}
	if spec.Table == "" {
		return nil, fmt.Errorf("resource %s has no table", spec.Name)
	}
	for field, typ := range spec.Fields {
		if !ir.ValidFieldTypes[typ] {
			return nil, fmt.Errorf("resource %s: field %s has unsupported type %q", spec.Name, field, typ)
		}
	}

	chainable, err := DefaultChainable.Restrict(spec.Chainable)
	if err != nil {
		return nil, fmt.Errorf("resource %s chainable: %w", spec.Name, err)
	}
	terminal, err := DefaultTerminal.Restrict(spec.Terminal)
	if err != nil {
		return nil, fmt.Errorf("resource %s terminal: %w", spec.Name, err)
	}

	compiler := querysql.NewCompiler(dialect)
	if _, ok := spec.Fields["id"]; !ok {
		compiler.Tiebreaker = ""
	}

	return &Resource{
		db:       db,
		spec:     spec,
		compiler: compiler,
		caps:     provider.Capabilities{Chainable: chainable, Terminal: terminal},
	}, nil
}

// Registry builds a resolver holding one resource per spec.
func Registry(db *sql.DB, dialect querysql.Dialect, specs []ir.ResourceSpec) (*provider.Registry, error) {
	reg, err := provider.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		res, err := New(db, dialect, spec)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(res); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Ref implements provider.Resource.
func (r *Resource) Ref() ir.ResourceRef { return ir.ResourceRef(r.spec.Name) }

// DisplayName implements provider.Resource.
func (r *Resource) DisplayName() string { return r.spec.Name }

// Spec returns the catalog declaration the resource was built from.
func (r *Resource) Spec() ir.ResourceSpec { return r.spec }

// Capabilities implements provider.Resource.
func (r *Resource) Capabilities() provider.Capabilities { return r.caps }

// Default implements provider.Resource: an unfiltered select of the table.
func (r *Resource) Default() provider.State {
	return queryir.NewSelect(r.spec.Table)
}

// Apply implements provider.Resource.
func (r *Resource) Apply(state provider.State, name string, args ir.IRArray) (provider.State, error) {
	sel, ok := state.(queryir.Select)
	if !ok {
		return nil, fmt.Errorf("state is %T, not a query", state)
	}
	if !r.caps.Chainable.Has(name) {
		return nil, fmt.Errorf("%s is not chainable on %s", name, r.spec.Name)
	}

	next, err := r.apply(sel, name, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	result := queryir.Validate(next, r.spec.Fields)
	if !result.OK() {
		return nil, fmt.Errorf("%s: %s", name, strings.Join(result.Errors, "; "))
	}
	return next, nil
}

// Call implements provider.Resource. Results are IR values so they can be
// printed and compared like chain arguments.
func (r *Resource) Call(ctx context.Context, state provider.State, name string, args ir.IRArray) (any, error) {
	sel, ok := state.(queryir.Select)
	if !ok {
		return nil, fmt.Errorf("state is %T, not a query", state)
	}
	if !r.caps.Terminal.Has(name) {
		return nil, fmt.Errorf("%s is not a terminal method of %s", name, r.spec.Name)
	}

	switch name {
	case "to_sql":
		return r.toSQL(sel)
	case "count":
		return r.count(ctx, sel)
	case "exists":
		return r.exists(ctx, sel)
	case "all":
		return r.all(ctx, sel)
	case "first":
		return r.first(ctx, sel)
	case "pluck":
		return r.pluck(ctx, sel, args)
	default:
		return nil, fmt.Errorf("terminal %s is not implemented", name)
	}
}
