// Package queryir provides the relational query representation built up by
// the SQL provider while a chain is recorded or replayed.
//
// Each chainable step (where, order, limit, ...) maps to a pure function
// from one Select to the next. Select values are never modified in place:
// every helper returns a copy, so two recorders branching from the same
// state never observe each other's steps.
//
// ARCHITECTURE:
//
//	[recorded step] → [queryir.Select] → [querysql.Compiler] → SQL + params
//
// The IR is dialect-free. Placeholders, identifier quoting and LIMIT/OFFSET
// syntax are decided by the querysql backend.
//
// SUPPORTED FRAGMENT:
//
//   - Select(from, columns, filter, order, limit, offset)
//   - Predicates: Equals, NotEquals, In, Compare, And
//   - Single-table queries only (no joins, no subqueries)
//
// SEALED INTERFACES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, so backends can switch over it
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case NotEquals:
//	case In:
//	case Compare:
//	case And:
//	}
//
// VALUES:
//
// All literal values are ir.IRValue (no floats). Equals and NotEquals
// against ir.IRNull compile to IS NULL / IS NOT NULL.
package queryir
