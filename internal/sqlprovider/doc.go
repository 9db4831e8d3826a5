// Package sqlprovider implements provider.Resource on top of database/sql.
//
// Each catalog resource becomes one Resource whose state is a
// queryir.Select. Chainable methods derive a new Select; terminal methods
// compile it with querysql and run it against the database.
//
// Chainable methods:
//
//	where(field, value)        field = value; a list value means IN, null means IS NULL
//	where({field: value, ...}) one where per key, in key order
//	where_not(field, value)    field <> value; null means IS NOT NULL
//	where_in(field, [values])  field IN (...)
//	where_cmp(field, op, value) op is <, <=, >, >= (or lt, lte, gt, gte)
//	select(field, ...)         restrict returned columns
//	order(field[, dir])        append a sort key; dir is asc or desc
//	order({field: dir, ...})   several sort keys, in key order
//	reorder(...)               like order, replacing earlier keys
//	limit(n), offset(n)
//	unscope([part, ...])       clear where/select/order/limit/offset
//
// Terminal methods:
//
//	to_sql  {"sql": text, "params": [...]}
//	count   number of matching rows
//	exists  whether any row matches
//	all     every row as an object
//	first   the first row or null
//	pluck(field, ...) the values of one column, or rows of several
//
// Every step is checked against the resource's declared fields before it
// is accepted, so an invalid step fails when it is chained or replayed,
// not when the query finally runs.
package sqlprovider
