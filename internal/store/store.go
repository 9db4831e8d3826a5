package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// connPragmas are applied by the driver on every new connection. The SQL
// provider may hold its own connection to the same file, so the settings
// travel in the DSN rather than as one-off statements.
var connPragmas = []struct {
	param string // mattn/go-sqlite3 DSN parameter
	value string
	name  string // PRAGMA name
	want  string // value PRAGMA reports back
}{
	{"_journal_mode", "WAL", "journal_mode", "wal"},
	{"_synchronous", "NORMAL", "synchronous", "1"},
	{"_busy_timeout", "5000", "busy_timeout", "5000"},
	{"_foreign_keys", "1", "foreign_keys", "1"},
}

type migration struct {
	version int
	stmt    string
}

// migrations run in order against databases whose user_version is below
// their version. Append only.
var migrations = []migration{
	{1, `CREATE INDEX IF NOT EXISTS idx_saved_queries_class ON saved_queries(class, seq)`},
}

var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is the saved-query repository. It owns a single SQLite connection.
type Store struct {
	db *sql.DB
}

// DSN is the go-sqlite3 connection string for the database file at path,
// carrying the connection pragmas. Anything else opening the file should
// use it too.
func DSN(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Set(p.param, p.value)
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens the database at path, creating it when missing, and brings
// the schema up to currentSchemaVersion. Opening an up-to-date database
// changes nothing.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; more connections only buy SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return err
	}
	for _, p := range connPragmas {
		if err := s.verifyPragma(p.name, p.want); err != nil {
			return err
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.migrate()
}

func (s *Store) migrate() error {
	var have int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&have); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= have {
			continue
		}
		if _, err := s.db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration v%d: %w", m.version, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("migration v%d: set user_version: %w", m.version, err)
		}
		have = m.version
	}
	return nil
}

// Close releases the connection. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for callers that share the file.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("pragma %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("pragma %s = %q, want %q", name, got, want)
	}
	return nil
}
