package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/querychain/internal/ir"
)

// ErrNotFound is returned when no chain is saved under a name.
var ErrNotFound = errors.New("saved query not found")

// SavedQuery is one stored chain.
type SavedQuery struct {
	ID        string
	Name      string
	Class     ir.ResourceRef
	ChainHash string
	Document  ir.Document
	Seq       int64
}

const selectColumns = `SELECT id, name, class, chain_hash, payload, seq FROM saved_queries`

// Get returns the chain saved under name.
func (s *Store) Get(ctx context.Context, name string) (SavedQuery, error) {
	name = cleanName(name)
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE name = ?`, name)
	q, err := scanSavedQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, fmt.Errorf("get %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return SavedQuery{}, fmt.Errorf("get %q: %w", name, err)
	}
	return q, nil
}

// List returns every saved chain.
// Ordering: seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) List(ctx context.Context) ([]SavedQuery, error) {
	return s.list(ctx, selectColumns+`
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ListByClass returns the chains scoped to one resource, in List order.
func (s *Store) ListByClass(ctx context.Context, class ir.ResourceRef) ([]SavedQuery, error) {
	return s.list(ctx, selectColumns+`
		WHERE class = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, string(class))
}

// FindByHash returns the chains whose document hashes to hash, in List
// order. Several names may hold the same chain.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]SavedQuery, error) {
	return s.list(ctx, selectColumns+`
		WHERE chain_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, hash)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query saved queries: %w", err)
	}
	defer rows.Close()

	out := []SavedQuery{}
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved queries: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSavedQuery(sc scanner) (SavedQuery, error) {
	var (
		q       SavedQuery
		class   string
		payload string
	)
	if err := sc.Scan(&q.ID, &q.Name, &class, &q.ChainHash, &payload, &q.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedQuery{}, err
		}
		return SavedQuery{}, fmt.Errorf("scan saved query: %w", err)
	}
	q.Class = ir.ResourceRef(class)

	doc, err := unmarshalDocument(payload)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("saved query %q: %w", q.Name, err)
	}
	q.Document = doc
	return q, nil
}
