package sqlprovider

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/querysql"
)

// CreateTable creates the table a resource spec declares, if missing.
// Columns are emitted in name order; an int "id" column becomes the
// primary key.
func CreateTable(ctx context.Context, db *sql.DB, dialect querysql.Dialect, spec ir.ResourceSpec) error {
	if spec.Table == "" {
		return fmt.Errorf("resource %s has no table", spec.Name)
	}
	cols := sortedFields(spec)
	if len(cols) == 0 {
		return fmt.Errorf("resource %s declares no fields", spec.Name)
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		typ, err := columnType(dialect, spec.Fields[col])
		if err != nil {
			return fmt.Errorf("resource %s field %s: %w", spec.Name, col, err)
		}
		def := querysql.QuoteIdent(col) + " " + typ
		if col == "id" && spec.Fields[col] == "int" {
			def += " PRIMARY KEY"
		}
		defs[i] = def
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		querysql.QuoteIdent(spec.Table), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Table, err)
	}
	return nil
}

// InsertRows inserts rows into the resource's table. Every key of every
// row must be a declared field whose type matches the value.
func InsertRows(ctx context.Context, db *sql.DB, dialect querysql.Dialect, spec ir.ResourceSpec, rows []ir.IRObject) error {
	for i, row := range rows {
		cols := row.SortedKeys()
		if len(cols) == 0 {
			return fmt.Errorf("%s row %d: empty row", spec.Table, i)
		}

		names := make([]string, len(cols))
		marks := make([]string, len(cols))
		params := make([]any, len(cols))
		for j, col := range cols {
			typ, ok := spec.Fields[col]
			if !ok {
				return fmt.Errorf("%s row %d: unknown column %q", spec.Table, i, col)
			}
			if err := checkRowValue(typ, row[col]); err != nil {
				return fmt.Errorf("%s row %d: column %q: %w", spec.Table, i, col, err)
			}
			names[j] = querysql.QuoteIdent(col)
			marks[j] = dialect.Placeholder(j + 1)
			params[j] = ir.ToGo(row[col])
		}

		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			querysql.QuoteIdent(spec.Table), strings.Join(names, ", "), strings.Join(marks, ", "))
		if _, err := db.ExecContext(ctx, stmt, params...); err != nil {
			return fmt.Errorf("%s row %d: %w", spec.Table, i, err)
		}
	}
	return nil
}

func sortedFields(spec ir.ResourceSpec) []string {
	cols := make([]string, 0, len(spec.Fields))
	for name := range spec.Fields {
		cols = append(cols, name)
	}
	slices.Sort(cols)
	return cols
}

func columnType(dialect querysql.Dialect, fieldType string) (string, error) {
	switch fieldType {
	case "int":
		if dialect == querysql.DialectPostgres {
			return "BIGINT", nil
		}
		return "INTEGER", nil
	case "string":
		return "TEXT", nil
	case "bool":
		return "BOOLEAN", nil
	default:
		return "", fmt.Errorf("unsupported type %q", fieldType)
	}
}

func checkRowValue(fieldType string, v ir.IRValue) error {
	var ok bool
	switch v.(type) {
	case ir.IRNull:
		return nil
	case ir.IRInt:
		ok = fieldType == "int"
	case ir.IRString:
		ok = fieldType == "string"
	case ir.IRBool:
		ok = fieldType == "bool"
	}
	if !ok {
		return fmt.Errorf("declared %s, got %s", fieldType, ir.Inspect(v))
	}
	return nil
}
