package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/querychain/internal/ir"
)

func TestSave_Basic(t *testing.T) {
	s := createTestStore(t)
	doc := paidOrders(10)

	saved, err := s.Save(context.Background(), "top-paid", doc)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if saved.Name != "top-paid" {
		t.Errorf("name = %q, want %q", saved.Name, "top-paid")
	}
	if saved.Class != "Order" {
		t.Errorf("class = %q, want Order", saved.Class)
	}
	if saved.Seq != 1 {
		t.Errorf("seq = %d, want 1", saved.Seq)
	}
	if want := ir.MustChainHash(doc); saved.ChainHash != want {
		t.Errorf("chain_hash = %q, want %q", saved.ChainHash, want)
	}
	if !saved.Document.Chain.Equal(doc.Chain) {
		t.Errorf("document chain = %v, want %v", saved.Document.Chain, doc.Chain)
	}

	id, err := uuid.Parse(saved.ID)
	if err != nil {
		t.Fatalf("id %q is not a UUID: %v", saved.ID, err)
	}
	if id.Version() != 7 {
		t.Errorf("id version = %d, want 7", id.Version())
	}
}

func TestSave_CanonicalPayload(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.Save(context.Background(), "q", paidOrders(10)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	var payload string
	if err := s.db.QueryRow(`SELECT payload FROM saved_queries WHERE name = 'q'`).Scan(&payload); err != nil {
		t.Fatalf("query failed: %v", err)
	}

	want := `{"chain_methods":[{"where":["status","paid"]},{"limit":[10]}],"class":"Order"}`
	if payload != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestSave_ReplacesExisting(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "q", paidOrders(10))
	if err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}
	if _, err := s.Save(ctx, "other", paidOrders(1)); err != nil {
		t.Fatalf("Save(other) failed: %v", err)
	}
	second, err := s.Save(ctx, "q", paidOrders(20))
	if err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("replaced row id = %q, want original %q", second.ID, first.ID)
	}
	if second.Seq != 3 {
		t.Errorf("replaced row seq = %d, want 3", second.Seq)
	}
	if got := second.Document.Chain[1].Args[0]; got != ir.IRInt(20) {
		t.Errorf("limit arg = %v, want 20", got)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM saved_queries`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("row count = %d, want 2", count)
	}
}

func TestSave_TrimsName(t *testing.T) {
	s := createTestStore(t)

	saved, err := s.Save(context.Background(), "  padded  ", paidOrders(1))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if saved.Name != "padded" {
		t.Errorf("name = %q, want %q", saved.Name, "padded")
	}
}

func TestPaddedNameLookups(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, " x ", paidOrders(1)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := s.Get(ctx, " x ")
	if err != nil {
		t.Fatalf("Get(\" x \") failed: %v", err)
	}
	if got.Name != "x" {
		t.Errorf("name = %q, want %q", got.Name, "x")
	}
	if err := s.Delete(ctx, "x  "); err != nil {
		t.Fatalf("Delete(\"x  \") failed: %v", err)
	}
	if _, err := s.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete: err = %v, want ErrNotFound", err)
	}
}

func TestSave_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "   ", paidOrders(1)); err == nil {
		t.Error("expected error for empty name")
	}

	bad := ir.Document{Class: "Order", Chain: ir.Chain{ir.NewStep("", ir.IRInt(1))}}
	if _, err := s.Save(ctx, "bad", bad); err == nil {
		t.Error("expected error for step without a name")
	}
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "q", paidOrders(1)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := s.Delete(ctx, "q"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Get(ctx, "q"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete: err = %v, want ErrNotFound", err)
	}

	err := s.Delete(ctx, "q")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete(): err = %v, want ErrNotFound", err)
	}
}
