package querysql

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavour emitted by the compiler.
type Dialect string

const (
	// DialectSQLite uses ? placeholders and LIMIT -1 for "no limit".
	DialectSQLite Dialect = "sqlite3"
	// DialectPostgres uses $n placeholders.
	DialectPostgres Dialect = "pgx"
)

// ParseDialect maps a database/sql driver name to its dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported SQL driver %q: must be sqlite3 or pgx", driver)
	}
}

// DriverName returns the database/sql driver the dialect is registered as.
func (d Dialect) DriverName() string {
	return string(d)
}

// Placeholder returns the bind marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes a column or table name. Both dialects accept ANSI
// double-quoted identifiers; embedded quotes are doubled.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
