package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"bilancio/internal/docstore"
	"bilancio/internal/docstore/docstoretest"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "bilancio.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	docstoretest.Run(t, testStore(t))
}

func TestStore_ReopenKeepsDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bilancio.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	doc, _ := docstore.Encode("b1", map[string]string{"id": "b1"})
	if err := s.WriteBatch(context.Background(), "budgets", []docstore.Document{doc}); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}
	s.Close()

	// Migrations must be a no-op the second time.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, ok, err := s.Read(context.Background(), "budgets", "b1"); !ok || err != nil {
		t.Errorf("Read() after reopen = ok %v, err %v", ok, err)
	}
}

func TestStore_RejectsBadFilterField(t *testing.T) {
	s := testStore(t)
	if _, err := s.Query(context.Background(), "months", docstore.Where("budget_id') OR 1=1 --", "x")); err == nil {
		t.Error("expected error for invalid filter field")
	}
}
