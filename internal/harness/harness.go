package harness

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/querychain/internal/catalog"
	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/provider"
	"github.com/roach88/querychain/internal/query"
	"github.com/roach88/querychain/internal/querysql"
	"github.com/roach88/querychain/internal/sqlprovider"
)

// Harness holds the per-scenario database and resolver.
type Harness struct {
	db       *sql.DB
	resolver provider.Resolver
	logger   *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger used for step and round-trip messages.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the catalog and create one table per resource
// 2. Insert seed rows
// 3. Record the steps, stopping at the first failure
// 4. Round-trip the chain through every format
// 5. Evaluate assertions
//
// The returned error covers setup failures only; a failing assertion is
// reported through Result.Pass and Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	ctx := context.Background()

	cat, err := catalog.Load(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	db, dialect, err := sqlprovider.Open(ctx, "sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	defer db.Close()
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := seed(ctx, db, dialect, cat, scenario.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed: %w", err)
	}

	reg, err := sqlprovider.Registry(db, dialect, cat.Resources)
	if err != nil {
		return nil, fmt.Errorf("failed to build resources: %w", err)
	}

	h := &Harness{
		db:       db,
		resolver: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	result := NewResult()
	rec, err := h.record(scenario, result)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		h.roundTrip(rec, result)
	}

	actx := &AssertionContext{Ctx: ctx, Recorder: rec}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if result.ChainErr != nil && !expectsChainError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("chain failed: %v", result.ChainErr))
	}

	return result, nil
}

func seed(ctx context.Context, db *sql.DB, dialect querysql.Dialect, cat *catalog.Catalog, rows map[string][]map[string]any) error {
	byTable := make(map[string]ir.ResourceSpec, len(cat.Resources))
	for _, spec := range cat.Resources {
		if err := sqlprovider.CreateTable(ctx, db, dialect, spec); err != nil {
			return err
		}
		byTable[spec.Table] = spec
	}

	tables := make([]string, 0, len(rows))
	for table := range rows {
		tables = append(tables, table)
	}
	slices.Sort(tables)

	for _, table := range tables {
		spec, ok := byTable[table]
		if !ok {
			return fmt.Errorf("seed table %q is not declared by any resource", table)
		}
		objs := make([]ir.IRObject, len(rows[table]))
		for i, row := range rows[table] {
			v, err := ir.FromGo(row)
			if err != nil {
				return fmt.Errorf("%s row %d: %w", table, i, err)
			}
			objs[i] = v.(ir.IRObject)
		}
		if err := sqlprovider.InsertRows(ctx, db, dialect, spec, objs); err != nil {
			return err
		}
	}
	return nil
}

// record builds the chain step by step. A step failure is stored in
// result.ChainErr and ends recording; an unknown resource is a setup error.
func (h *Harness) record(scenario *Scenario, result *Result) (*query.Recorder, error) {
	rec, err := query.Create(h.resolver, ir.ResourceRef(scenario.Resource))
	if err != nil {
		return nil, fmt.Errorf("failed to create chain: %w", err)
	}

	for i, step := range scenario.Steps {
		name, args := stepCall(step)
		next, err := rec.Chain(name, args...)
		if err != nil {
			result.AddStepTrace(name, args, err.Error())
			result.ChainErr = &StepError{Index: i, Err: err}
			h.logger.Info("chain step failed", "step", i, "method", name, "error", err)
			return nil, nil
		}
		result.AddStepTrace(name, args, "")
		h.logger.Info("chain step recorded", "step", i, "method", name)
		rec = next
	}

	result.Describe = rec.Describe()
	hash, err := rec.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash chain: %w", err)
	}
	result.ChainHash = hash
	return rec, nil
}

// roundTrip serializes rec in every format, replays each encoding and
// checks the replayed chain is identical.
func (h *Harness) roundTrip(rec *query.Recorder, result *Result) {
	for _, f := range []codec.Format{codec.FormatMap, codec.FormatJSON, codec.FormatYAML} {
		var (
			replayed *query.Recorder
			err      error
		)
		if f == codec.FormatMap {
			replayed, err = query.FromMap(h.resolver, rec.ToMap())
		} else {
			var data []byte
			data, err = rec.Serialize(f)
			if err == nil {
				result.Encodings[f.String()] = string(data)
				replayed, err = query.Deserialize(h.resolver, data, f)
			}
		}

		switch {
		case err != nil:
			result.AddError(fmt.Sprintf("round trip via %s: %v", f, err))
		case !rec.Equal(replayed):
			result.AddError(fmt.Sprintf("round trip via %s: got %s, want %s", f, replayed.Describe(), rec.Describe()))
		default:
			h.logger.Info("round trip ok", "format", f.String())
		}
	}
}

func expectsChainError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertChainError {
			return true
		}
	}
	return false
}

// StepError reports the step at which recording stopped.
type StepError struct {
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
