package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/querychain/internal/ir"
)

// Save stores doc under name, replacing any chain already saved there.
// A replaced row keeps its ID but moves to the end of the listing order.
//
// The payload is the codec's canonical JSON, so saving the same chain
// twice writes identical bytes.
func (s *Store) Save(ctx context.Context, name string, doc ir.Document) (SavedQuery, error) {
	name = cleanName(name)
	if name == "" {
		return SavedQuery{}, fmt.Errorf("save: empty name")
	}

	payload, hash, err := marshalDocument(doc)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("save %q: %w", name, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return SavedQuery{}, fmt.Errorf("save %q: generate id: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (id, name, class, chain_hash, payload, seq)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM saved_queries))
		ON CONFLICT(name) DO UPDATE SET
			class = excluded.class,
			chain_hash = excluded.chain_hash,
			payload = excluded.payload,
			seq = excluded.seq
	`,
		id.String(),
		name,
		string(doc.Class),
		hash,
		payload,
	)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("save %q: %w", name, err)
	}

	return s.Get(ctx, name)
}

// Delete removes the chain saved under name.
// Returns ErrNotFound if there is none.
func (s *Store) Delete(ctx context.Context, name string) error {
	name = cleanName(name)
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	return nil
}

// cleanName is applied to every name a caller passes in, so lookups see
// the same key Save stored.
func cleanName(name string) string {
	return strings.TrimSpace(name)
}
