package sqlprovider

import (
	"fmt"
	"strings"

	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/queryir"
)

func (r *Resource) apply(sel queryir.Select, name string, args ir.IRArray) (queryir.Select, error) {
	switch name {
	case "where":
		pred, err := wherePredicate(args, false)
		if err != nil {
			return sel, err
		}
		return sel.Where(pred), nil

	case "where_not":
		pred, err := wherePredicate(args, true)
		if err != nil {
			return sel, err
		}
		return sel.Where(pred), nil

	case "where_in":
		if len(args) != 2 {
			return sel, fmt.Errorf("expected (field, [values]), got %d arguments", len(args))
		}
		field, err := stringArg(args, 0, "field")
		if err != nil {
			return sel, err
		}
		values, ok := args[1].(ir.IRArray)
		if !ok {
			return sel, fmt.Errorf("values must be a list, got %s", ir.Inspect(args[1]))
		}
		return sel.Where(queryir.In{Field: field, Values: values}), nil

	case "where_cmp":
		if len(args) != 3 {
			return sel, fmt.Errorf("expected (field, op, value), got %d arguments", len(args))
		}
		field, err := stringArg(args, 0, "field")
		if err != nil {
			return sel, err
		}
		opName, err := stringArg(args, 1, "operator")
		if err != nil {
			return sel, err
		}
		op, err := queryir.ParseCompareOp(opName)
		if err != nil {
			return sel, err
		}
		return sel.Where(queryir.Compare{Field: field, Op: op, Value: args[2]}), nil

	case "select":
		cols, err := stringList(args, "column")
		if err != nil {
			return sel, err
		}
		if len(cols) == 0 {
			return sel, fmt.Errorf("expected at least one column")
		}
		return sel.WithColumns(cols...), nil

	case "order":
		keys, err := orderKeys(args)
		if err != nil {
			return sel, err
		}
		return sel.WithOrder(keys...), nil

	case "reorder":
		keys, err := orderKeys(args)
		if err != nil {
			return sel, err
		}
		return sel.ReplaceOrder(keys...), nil

	case "limit":
		n, err := countArg(args, "limit")
		if err != nil {
			return sel, err
		}
		return sel.WithLimit(n), nil

	case "offset":
		n, err := countArg(args, "offset")
		if err != nil {
			return sel, err
		}
		return sel.WithOffset(n), nil

	case "unscope":
		parts, err := stringList(args, "part")
		if err != nil {
			return sel, err
		}
		return sel.Unscope(parts...)

	default:
		return sel, fmt.Errorf("unknown method")
	}
}

// wherePredicate accepts (field, value) or a single {field: value} object.
func wherePredicate(args ir.IRArray, negate bool) (queryir.Predicate, error) {
	switch len(args) {
	case 1:
		obj, ok := args[0].(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("single argument must be an object of conditions, got %s", ir.Inspect(args[0]))
		}
		if len(obj) == 0 {
			return nil, fmt.Errorf("empty condition object")
		}
		preds := make([]queryir.Predicate, 0, len(obj))
		for _, field := range obj.SortedKeys() {
			p, err := condition(field, obj[field], negate)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		if len(preds) == 1 {
			return preds[0], nil
		}
		return queryir.And{Predicates: preds}, nil

	case 2:
		field, err := stringArg(args, 0, "field")
		if err != nil {
			return nil, err
		}
		return condition(field, args[1], negate)

	default:
		return nil, fmt.Errorf("expected (field, value) or ({field: value}), got %d arguments", len(args))
	}
}

func condition(field string, value ir.IRValue, negate bool) (queryir.Predicate, error) {
	switch v := value.(type) {
	case ir.IRArray:
		if negate {
			return nil, fmt.Errorf("%s: list values are not supported by where_not", field)
		}
		return queryir.In{Field: field, Values: v}, nil
	case ir.IRObject:
		return nil, fmt.Errorf("%s: object values are not supported", field)
	}
	if negate {
		return queryir.NotEquals{Field: field, Value: value}, nil
	}
	return queryir.Equals{Field: field, Value: value}, nil
}

// orderKeys accepts (field), (field, dir) or ({field: dir, ...}).
func orderKeys(args ir.IRArray) ([]queryir.Order, error) {
	switch len(args) {
	case 1:
		if obj, ok := args[0].(ir.IRObject); ok {
			keys := make([]queryir.Order, 0, len(obj))
			for _, field := range obj.SortedKeys() {
				dir, ok := obj[field].(ir.IRString)
				if !ok {
					return nil, fmt.Errorf("%s: direction must be a string, got %s", field, ir.Inspect(obj[field]))
				}
				key, err := orderKey(field, string(dir))
				if err != nil {
					return nil, err
				}
				keys = append(keys, key)
			}
			return keys, nil
		}
		field, err := stringArg(args, 0, "field")
		if err != nil {
			return nil, err
		}
		return []queryir.Order{{Field: field}}, nil

	case 2:
		field, err := stringArg(args, 0, "field")
		if err != nil {
			return nil, err
		}
		dir, err := stringArg(args, 1, "direction")
		if err != nil {
			return nil, err
		}
		key, err := orderKey(field, dir)
		if err != nil {
			return nil, err
		}
		return []queryir.Order{key}, nil

	default:
		return nil, fmt.Errorf("expected (field[, direction]) or ({field: direction}), got %d arguments", len(args))
	}
}

func orderKey(field, dir string) (queryir.Order, error) {
	switch strings.ToLower(dir) {
	case "asc":
		return queryir.Order{Field: field}, nil
	case "desc":
		return queryir.Order{Field: field, Desc: true}, nil
	default:
		return queryir.Order{}, fmt.Errorf("%s: direction must be asc or desc, got %q", field, dir)
	}
}

func stringArg(args ir.IRArray, i int, what string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing %s argument", what)
	}
	s, ok := args[i].(ir.IRString)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", what, ir.Inspect(args[i]))
	}
	return string(s), nil
}

// stringList accepts (a, b, ...) or a single ([a, b, ...]).
func stringList(args ir.IRArray, what string) ([]string, error) {
	if len(args) == 1 {
		if list, ok := args[0].(ir.IRArray); ok {
			args = list
		}
	}
	out := make([]string, len(args))
	for i := range args {
		s, err := stringArg(args, i, what)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func countArg(args ir.IRArray, what string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one argument, got %d", len(args))
	}
	n, ok := args[0].(ir.IRInt)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer, got %s", what, ir.Inspect(args[0]))
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", what, n)
	}
	return int64(n), nil
}
