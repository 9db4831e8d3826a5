package querysql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/queryir"
)

// Compiler compiles queryir.Select values to parameterized SQL.
//
// CRITICAL: All literal values are parameterized (never interpolated).
// CRITICAL: When Tiebreaker is set, every row-returning query ends its
// ORDER BY with that column so results are deterministic.
type Compiler struct {
	Dialect Dialect

	// Tiebreaker is appended to ORDER BY unless already present.
	// Empty disables it.
	Tiebreaker string
}

// NewCompiler creates a compiler for dialect with an "id" tiebreaker.
func NewCompiler(dialect Dialect) *Compiler {
	return &Compiler{Dialect: dialect, Tiebreaker: "id"}
}

// Compile converts a Select to a row-returning SQL statement.
// Returns (sql, params, error).
func (c *Compiler) Compile(sel queryir.Select) (string, []any, error) {
	b := c.newBuilder()
	if err := b.selectStmt(sel, c.columns(sel.Columns), true); err != nil {
		return "", nil, err
	}
	return b.sql.String(), b.params, nil
}

// CompileCount converts a Select to a statement returning one row with
// the number of matching rows. LIMIT and OFFSET are honoured.
func (c *Compiler) CompileCount(sel queryir.Select) (string, []any, error) {
	b := c.newBuilder()

	if sel.Limit == nil && sel.Offset == 0 {
		if err := b.selectStmt(sel, "COUNT(*)", false); err != nil {
			return "", nil, err
		}
		return b.sql.String(), b.params, nil
	}

	b.sql.WriteString("SELECT COUNT(*) FROM (")
	if err := b.selectStmt(sel, "1 AS one", false); err != nil {
		return "", nil, err
	}
	b.sql.WriteString(") AS counted")
	return b.sql.String(), b.params, nil
}

// CompileExists converts a Select to a statement returning at most one
// row, present only when a matching row exists.
func (c *Compiler) CompileExists(sel queryir.Select) (string, []any, error) {
	if sel.Limit == nil || *sel.Limit > 1 {
		sel = sel.WithLimit(1)
	}
	b := c.newBuilder()
	if err := b.selectStmt(sel, "1 AS one", false); err != nil {
		return "", nil, err
	}
	return b.sql.String(), b.params, nil
}

func (c *Compiler) columns(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = QuoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}

func (c *Compiler) newBuilder() *builder {
	return &builder{compiler: c}
}

// builder accumulates one statement and its parameters so placeholders
// are numbered in textual order.
type builder struct {
	compiler *Compiler
	sql      strings.Builder
	params   []any
}

func (b *builder) bind(v ir.IRValue) (string, error) {
	param, err := irValueToParam(v)
	if err != nil {
		return "", err
	}
	b.params = append(b.params, param)
	return b.compiler.Dialect.Placeholder(len(b.params)), nil
}

func (b *builder) selectStmt(sel queryir.Select, columns string, ordered bool) error {
	if sel.From == "" {
		return fmt.Errorf("cannot compile query without table")
	}

	fmt.Fprintf(&b.sql, "SELECT %s FROM %s", columns, QuoteIdent(sel.From))

	if sel.Filter != nil {
		where, err := b.predicate(sel.Filter)
		if err != nil {
			return fmt.Errorf("compile filter: %w", err)
		}
		b.sql.WriteString(" WHERE ")
		b.sql.WriteString(where)
	}

	if ordered {
		if order := b.orderBy(sel.OrderBy); order != "" {
			b.sql.WriteString(" ORDER BY ")
			b.sql.WriteString(order)
		}
	}

	return b.limitOffset(sel)
}

// orderBy renders the sort keys plus the tiebreaker.
func (b *builder) orderBy(keys []queryir.Order) string {
	parts := make([]string, 0, len(keys)+1)
	seen := make([]string, 0, len(keys))
	for _, k := range keys {
		if slices.Contains(seen, k.Field) {
			continue
		}
		seen = append(seen, k.Field)
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, QuoteIdent(k.Field)+" "+dir)
	}

	tb := b.compiler.Tiebreaker
	if tb != "" && !slices.Contains(seen, tb) {
		key := QuoteIdent(tb)
		if b.compiler.Dialect == DialectSQLite {
			key += " COLLATE BINARY"
		}
		parts = append(parts, key+" ASC")
	}
	return strings.Join(parts, ", ")
}

func (b *builder) limitOffset(sel queryir.Select) error {
	if sel.Limit != nil {
		if *sel.Limit < 0 {
			return fmt.Errorf("negative limit %d", *sel.Limit)
		}
		ph, err := b.bind(ir.IRInt(*sel.Limit))
		if err != nil {
			return err
		}
		b.sql.WriteString(" LIMIT " + ph)
	}
	if sel.Offset != 0 {
		if sel.Offset < 0 {
			return fmt.Errorf("negative offset %d", sel.Offset)
		}
		if sel.Limit == nil && b.compiler.Dialect == DialectSQLite {
			// SQLite only accepts OFFSET after a LIMIT clause.
			b.sql.WriteString(" LIMIT -1")
		}
		ph, err := b.bind(ir.IRInt(sel.Offset))
		if err != nil {
			return err
		}
		b.sql.WriteString(" OFFSET " + ph)
	}
	return nil
}

// predicate compiles a filter to a WHERE fragment.
// CRITICAL: Values NEVER interpolated - always bound.
func (b *builder) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil
	case queryir.Equals:
		if isNull(pred.Value) {
			return QuoteIdent(pred.Field) + " IS NULL", nil
		}
		return b.binary(pred.Field, "=", pred.Value)
	case queryir.NotEquals:
		if isNull(pred.Value) {
			return QuoteIdent(pred.Field) + " IS NOT NULL", nil
		}
		return b.binary(pred.Field, "<>", pred.Value)
	case queryir.Compare:
		switch pred.Op {
		case queryir.OpLess, queryir.OpLessEq, queryir.OpGreater, queryir.OpGreaterEq:
		default:
			return "", fmt.Errorf("unsupported comparison operator %q", pred.Op)
		}
		return b.binary(pred.Field, string(pred.Op), pred.Value)
	case queryir.In:
		if len(pred.Values) == 0 {
			return "1 = 0", nil
		}
		marks := make([]string, len(pred.Values))
		for i, v := range pred.Values {
			ph, err := b.bind(v)
			if err != nil {
				return "", fmt.Errorf("%s: %w", pred.Field, err)
			}
			marks[i] = ph
		}
		return fmt.Sprintf("%s IN (%s)", QuoteIdent(pred.Field), strings.Join(marks, ", ")), nil
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		for _, sub := range pred.Predicates {
			frag, err := b.predicate(sub)
			if err != nil {
				return "", err
			}
			if _, nested := sub.(queryir.And); nested {
				frag = "(" + frag + ")"
			}
			parts = append(parts, frag)
		}
		return strings.Join(parts, " AND "), nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *builder) binary(field, op string, v ir.IRValue) (string, error) {
	ph, err := b.bind(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return fmt.Sprintf("%s %s %s", QuoteIdent(field), op, ph), nil
}

func isNull(v ir.IRValue) bool {
	_, ok := v.(ir.IRNull)
	return ok || v == nil
}

// irValueToParam converts an ir.IRValue to a Go native type for a SQL
// parameter. Arrays and objects have no scalar SQL form.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRNull:
		return nil, nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
