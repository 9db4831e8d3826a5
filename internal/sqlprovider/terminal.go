package sqlprovider

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/queryir"
)

func (r *Resource) toSQL(sel queryir.Select) (ir.IRValue, error) {
	text, params, err := r.compiler.Compile(sel)
	if err != nil {
		return nil, err
	}
	values := make(ir.IRArray, len(params))
	for i, p := range params {
		v, err := ir.FromGo(p)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		values[i] = v
	}
	return ir.IRObject{"sql": ir.IRString(text), "params": values}, nil
}

func (r *Resource) count(ctx context.Context, sel queryir.Select) (ir.IRValue, error) {
	text, params, err := r.compiler.CompileCount(sel)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, text, params...).Scan(&n); err != nil {
		return nil, fmt.Errorf("count %s: %w", r.spec.Table, err)
	}
	return ir.IRInt(n), nil
}

func (r *Resource) exists(ctx context.Context, sel queryir.Select) (ir.IRValue, error) {
	text, params, err := r.compiler.CompileExists(sel)
	if err != nil {
		return nil, err
	}
	var one int64
	err = r.db.QueryRowContext(ctx, text, params...).Scan(&one)
	if err == sql.ErrNoRows {
		return ir.IRBool(false), nil
	}
	if err != nil {
		return nil, fmt.Errorf("exists %s: %w", r.spec.Table, err)
	}
	return ir.IRBool(true), nil
}

func (r *Resource) all(ctx context.Context, sel queryir.Select) (ir.IRValue, error) {
	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	out := make(ir.IRArray, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, nil
}

func (r *Resource) first(ctx context.Context, sel queryir.Select) (ir.IRValue, error) {
	if sel.Limit == nil || *sel.Limit > 1 {
		sel = sel.WithLimit(1)
	}
	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return ir.IRNull{}, nil
	}
	return rows[0], nil
}

// pluck returns the values of one column, or a list per row for several.
func (r *Resource) pluck(ctx context.Context, sel queryir.Select, args ir.IRArray) (ir.IRValue, error) {
	cols, err := stringList(args, "column")
	if err != nil {
		return nil, fmt.Errorf("pluck: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("pluck: expected at least one column")
	}

	sel.Columns = nil
	sel = sel.WithColumns(cols...)
	if result := queryir.Validate(sel, r.spec.Fields); !result.OK() {
		return nil, fmt.Errorf("pluck: %w", result.Err())
	}

	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	out := make(ir.IRArray, len(rows))
	for i, row := range rows {
		if len(cols) == 1 {
			out[i] = row[cols[0]]
			continue
		}
		tuple := make(ir.IRArray, len(cols))
		for j, c := range cols {
			tuple[j] = row[c]
		}
		out[i] = tuple
	}
	return out, nil
}

// query runs a row-returning select and converts every row to an object.
func (r *Resource) query(ctx context.Context, sel queryir.Select) ([]ir.IRObject, error) {
	text, params, err := r.compiler.Compile(sel)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, text, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.spec.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []ir.IRObject
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.spec.Table, err)
		}

		obj := make(ir.IRObject, len(cols))
		for i, c := range cols {
			v, err := columnValue(raw[i], r.spec.Fields[c])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c, err)
			}
			obj[c] = v
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.spec.Table, err)
	}
	return out, nil
}

// columnValue converts a scanned driver value to an IR value, using the
// declared field type where drivers disagree (SQLite stores bools as 0/1).
func columnValue(raw any, fieldType string) (ir.IRValue, error) {
	switch v := raw.(type) {
	case nil:
		return ir.IRNull{}, nil
	case []byte:
		return textValue(string(v), fieldType)
	case string:
		return textValue(v, fieldType)
	case int64:
		if fieldType == "bool" {
			return ir.IRBool(v != 0), nil
		}
		return ir.IRInt(v), nil
	case int32:
		return columnValue(int64(v), fieldType)
	case int16:
		return columnValue(int64(v), fieldType)
	case bool:
		return ir.IRBool(v), nil
	case time.Time:
		return ir.IRString(v.UTC().Format(time.RFC3339Nano)), nil
	case float64, float32:
		return nil, fmt.Errorf("float values are not representable (got %v)", v)
	default:
		return nil, fmt.Errorf("unsupported driver type %T", raw)
	}
}

func textValue(s, fieldType string) (ir.IRValue, error) {
	switch fieldType {
	case "int":
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("declared int, got %q", s)
		}
		return ir.IRInt(n), nil
	case "bool":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("declared bool, got %q", s)
		}
		return ir.IRBool(b), nil
	default:
		return ir.IRString(s), nil
	}
}
