package queryir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/querychain/internal/ir"
)

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select is a single-table query.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order> LIMIT <limit> OFFSET <offset>
//
// Example:
//
//	Select{
//	  From:    "orders",
//	  Filter:  And{Predicates: []Predicate{
//	    Equals{Field: "status", Value: ir.IRString("paid")},
//	    Compare{Field: "total_cents", Op: OpGreaterEq, Value: ir.IRInt(1000)},
//	  }},
//	  OrderBy: []Order{{Field: "created_at", Desc: true}},
//	}.WithLimit(10)
//
// Treat a Select as immutable; use the With* helpers to derive new ones.
type Select struct {
	From    string    // Table name
	Columns []string  // Selected columns (empty = all columns)
	Filter  Predicate // WHERE conditions (nil = no filter)
	OrderBy []Order   // Sort keys in priority order
	Limit   *int64    // nil = no limit
	Offset  int64     // 0 = no offset
}

// NewSelect returns an unfiltered query over table.
func NewSelect(table string) Select {
	return Select{From: table}
}

// Order is one ORDER BY key.
type Order struct {
	Field string
	Desc  bool
}

// String renders the key as "field ASC" or "field DESC".
func (o Order) String() string {
	if o.Desc {
		return o.Field + " DESC"
	}
	return o.Field + " ASC"
}

// Where returns a copy with p AND-ed onto the existing filter.
// Nested And predicates are flattened.
func (s Select) Where(p Predicate) Select {
	out := s.clone()
	if p == nil {
		return out
	}
	var preds []Predicate
	preds = appendFlat(preds, s.Filter)
	preds = appendFlat(preds, p)
	if len(preds) == 1 {
		out.Filter = preds[0]
	} else {
		out.Filter = And{Predicates: preds}
	}
	return out
}

func appendFlat(dst []Predicate, p Predicate) []Predicate {
	switch pred := p.(type) {
	case nil:
		return dst
	case And:
		for _, sub := range pred.Predicates {
			dst = appendFlat(dst, sub)
		}
		return dst
	default:
		return append(dst, p)
	}
}

// WithColumns returns a copy selecting cols in addition to any columns
// already selected. Duplicates are dropped, first occurrence wins.
func (s Select) WithColumns(cols ...string) Select {
	out := s.clone()
	for _, c := range cols {
		if !slices.Contains(out.Columns, c) {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// WithOrder returns a copy with keys appended to ORDER BY.
func (s Select) WithOrder(keys ...Order) Select {
	out := s.clone()
	out.OrderBy = append(out.OrderBy, keys...)
	return out
}

// ReplaceOrder returns a copy whose ORDER BY is exactly keys.
func (s Select) ReplaceOrder(keys ...Order) Select {
	out := s.clone()
	out.OrderBy = slices.Clone(keys)
	return out
}

// WithLimit returns a copy limited to n rows.
func (s Select) WithLimit(n int64) Select {
	out := s.clone()
	out.Limit = &n
	return out
}

// WithOffset returns a copy skipping the first n rows.
func (s Select) WithOffset(n int64) Select {
	out := s.clone()
	out.Offset = n
	return out
}

// Unscope returns a copy with the named parts cleared. Parts are
// "where", "select", "order", "limit" and "offset"; no parts clears all.
func (s Select) Unscope(parts ...string) (Select, error) {
	if len(parts) == 0 {
		return NewSelect(s.From), nil
	}
	out := s.clone()
	for _, p := range parts {
		switch p {
		case "where":
			out.Filter = nil
		case "select":
			out.Columns = nil
		case "order":
			out.OrderBy = nil
		case "limit":
			out.Limit = nil
		case "offset":
			out.Offset = 0
		default:
			return Select{}, fmt.Errorf("cannot unscope %q: must be one of where, select, order, limit, offset", p)
		}
	}
	return out, nil
}

func (s Select) clone() Select {
	out := s
	out.Columns = slices.Clone(s.Columns)
	out.OrderBy = slices.Clone(s.OrderBy)
	if s.Limit != nil {
		n := *s.Limit
		out.Limit = &n
	}
	return out
}

// Equals represents a field-equals-literal predicate.
//
// Semantics:
//
//	<field> = <value>      (IS NULL when Value is ir.IRNull)
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// NotEquals represents a field-differs-from-literal predicate.
//
// Semantics:
//
//	<field> <> <value>     (IS NOT NULL when Value is ir.IRNull)
type NotEquals struct {
	Field string
	Value ir.IRValue
}

func (NotEquals) predicateNode() {}

// In represents set membership.
//
// Semantics:
//
//	<field> IN (<v1>, <v2>, ...)
//
// An empty Values list matches no rows.
type In struct {
	Field  string
	Values []ir.IRValue
}

func (In) predicateNode() {}

// Compare represents an ordered comparison against a literal.
//
// Semantics:
//
//	<field> <op> <value>
type Compare struct {
	Field string
	Op    CompareOp
	Value ir.IRValue
}

func (Compare) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// CompareOp is a comparison operator usable in Compare.
type CompareOp string

const (
	OpLess      CompareOp = "<"
	OpLessEq    CompareOp = "<="
	OpGreater   CompareOp = ">"
	OpGreaterEq CompareOp = ">="
)

// ParseCompareOp accepts the symbolic form or the short names lt, lte,
// gt and gte.
func ParseCompareOp(s string) (CompareOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "<", "lt":
		return OpLess, nil
	case "<=", "lte":
		return OpLessEq, nil
	case ">", "gt":
		return OpGreater, nil
	case ">=", "gte":
		return OpGreaterEq, nil
	default:
		return "", fmt.Errorf("unknown comparison operator %q", s)
	}
}

// Fields returns every field referenced by p, in first-use order.
func Fields(p Predicate) []string {
	var out []string
	var walk func(Predicate)
	walk = func(p Predicate) {
		var f string
		switch pred := p.(type) {
		case Equals:
			f = pred.Field
		case NotEquals:
			f = pred.Field
		case In:
			f = pred.Field
		case Compare:
			f = pred.Field
		case And:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
			return
		default:
			return
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	walk(p)
	return out
}
