package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/querychain/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// paidOrders builds Order.where("status", "paid").limit(n).
func paidOrders(n int64) ir.Document {
	return ir.Document{
		Class: "Order",
		Chain: ir.Chain{
			ir.NewStep("where", ir.IRString("status"), ir.IRString("paid")),
			ir.NewStep("limit", ir.IRInt(n)),
		},
	}
}
