package sqlprovider

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "github.com/mattn/go-sqlite3"    // register sqlite3 as a database/sql driver

	"github.com/roach88/querychain/internal/querysql"
)

// Open connects to the database the resources are read from.
// driver is sqlite3 or pgx (aliases: sqlite, postgres).
func Open(ctx context.Context, driver, dsn string) (*sql.DB, querysql.Dialect, error) {
	dialect, err := querysql.ParseDialect(driver)
	if err != nil {
		return nil, "", err
	}
	if dsn == "" {
		return nil, "", fmt.Errorf("open %s: empty DSN", dialect)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, dialect, nil
}
