package queryir

import (
	"fmt"

	"github.com/roach88/querychain/internal/ir"
)

// ValidationResult reports problems found in a Select.
//
// Errors make the query unusable against the declared fields (unknown
// columns, values of the wrong type). Warnings flag queries that are legal
// but easy to get wrong, such as comparisons against NULL.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the query has no errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the first error as a Go error, or nil.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%s", r.Errors[0])
}

// Validate checks sel against fields, a map of column name to declared
// type ("string", "int" or "bool"). A nil fields map skips column checks.
//
// Validate is a pure function with no side effects.
func Validate(sel Select, fields map[string]string) ValidationResult {
	v := &validator{fields: fields}

	if sel.From == "" {
		v.addError("query has no table")
	}
	for _, c := range sel.Columns {
		v.checkColumn("select", c)
	}
	for _, o := range sel.OrderBy {
		v.checkColumn("order", o.Field)
	}
	if sel.Limit != nil && *sel.Limit < 0 {
		v.addError("limit must not be negative, got %d", *sel.Limit)
	}
	if sel.Offset < 0 {
		v.addError("offset must not be negative, got %d", sel.Offset)
	}
	v.validatePredicate(sel.Filter)

	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

type validator struct {
	fields   map[string]string
	errors   []string
	warnings []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// checkColumn reports an unknown column and returns its declared type.
func (v *validator) checkColumn(clause, field string) (string, bool) {
	if field == "" {
		v.addError("%s: empty column name", clause)
		return "", false
	}
	if v.fields == nil {
		return "", false
	}
	typ, ok := v.fields[field]
	if !ok {
		v.addError("%s: unknown column %q", clause, field)
	}
	return typ, ok
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.checkValue("where", pred.Field, pred.Value)
	case NotEquals:
		v.checkValue("where_not", pred.Field, pred.Value)
	case In:
		typ, known := v.checkColumn("where_in", pred.Field)
		if len(pred.Values) == 0 {
			v.addWarning("where_in: empty list for %q matches no rows", pred.Field)
		}
		for _, val := range pred.Values {
			if _, isNull := val.(ir.IRNull); isNull {
				v.addWarning("where_in: NULL in list for %q never matches", pred.Field)
				continue
			}
			if known {
				v.checkType("where_in", pred.Field, typ, val)
			}
		}
	case Compare:
		typ, known := v.checkColumn("where_cmp", pred.Field)
		if known && typ == "bool" {
			v.addError("where_cmp: column %q is bool and cannot be ordered", pred.Field)
		}
		if _, isNull := pred.Value.(ir.IRNull); isNull {
			v.addError("where_cmp: %q %s NULL is never true", pred.Field, pred.Op)
		} else if known {
			v.checkType("where_cmp", pred.Field, typ, pred.Value)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addError("unknown predicate type: %T", p)
	}
}

func (v *validator) checkValue(clause, field string, val ir.IRValue) {
	typ, known := v.checkColumn(clause, field)
	if _, isNull := val.(ir.IRNull); isNull {
		v.addWarning("%s: %q compared to NULL uses IS NULL semantics", clause, field)
		return
	}
	if known {
		v.checkType(clause, field, typ, val)
	}
}

func (v *validator) checkType(clause, field, typ string, val ir.IRValue) {
	var ok bool
	switch typ {
	case "string":
		_, ok = val.(ir.IRString)
	case "int":
		_, ok = val.(ir.IRInt)
	case "bool":
		_, ok = val.(ir.IRBool)
	default:
		v.addError("%s: column %q has unsupported type %q", clause, field, typ)
		return
	}
	if !ok {
		v.addError("%s: column %q is %s, got %s", clause, field, typ, ir.Inspect(val))
	}
}
