package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bilancio/internal/docstore"
	"bilancio/internal/docstore/docstoretest"
)

func TestStore_Conformance(t *testing.T) {
	docstoretest.Run(t, New())
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "budgets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "budgets", "home.json"), []byte(`{"id":"home"}`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir() error = %v", err)
	}
	if _, ok, _ := s.Read(context.Background(), "budgets", "home"); !ok {
		t.Error("seeded budget not found")
	}

	empty, err := NewFromDir(filepath.Join(dir, "missing"))
	if err != nil || empty.Count("budgets") != 0 {
		t.Errorf("NewFromDir(missing) = %d docs, err %v", empty.Count("budgets"), err)
	}
}

func TestNewFromDir_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "months"), 0755)
	os.WriteFile(filepath.Join(dir, "months", "bad.json"), []byte(`{`), 0644)
	if _, err := NewFromDir(dir); err == nil {
		t.Error("expected error for invalid seed JSON")
	}
}

func TestStore_FailWrite(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailWrite = func(string, []docstore.Document) error { return boom }
	doc, _ := docstore.Encode("a", map[string]int{})
	if err := s.WriteBatch(context.Background(), "c", []docstore.Document{doc}); !errors.Is(err, boom) {
		t.Errorf("WriteBatch() error = %v, want boom", err)
	}
	if s.Count("c") != 0 {
		t.Error("failed batch must not be applied")
	}
}
