// Package docstoretest checks that a docstore.Store behaves like the
// abstraction the recalculation engine relies on.
package docstoretest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bilancio/internal/docstore"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s docstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("read missing", func(t *testing.T) {
		_, ok, err := s.Read(ctx, "budgets", "nope")
		if err != nil || ok {
			t.Fatalf("Read() = ok %v, err %v; want false, nil", ok, err)
		}
	})

	t.Run("write read overwrite", func(t *testing.T) {
		doc, err := docstore.Encode("b1", map[string]any{"id": "b1", "name": "Home"})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if err := s.WriteBatch(ctx, "budgets", []docstore.Document{doc}); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}
		doc2, _ := docstore.Encode("b1", map[string]any{"id": "b1", "name": "Casa"})
		if err := s.WriteBatch(ctx, "budgets", []docstore.Document{doc2}); err != nil {
			t.Fatalf("WriteBatch() overwrite error = %v", err)
		}
		got, ok, err := s.Read(ctx, "budgets", "b1")
		if err != nil || !ok {
			t.Fatalf("Read() = ok %v, err %v", ok, err)
		}
		var v struct{ Name string }
		if err := got.Decode(&v); err != nil || v.Name != "Casa" {
			t.Errorf("Read() name = %q (err %v), want Casa", v.Name, err)
		}
	})

	t.Run("query filters by field", func(t *testing.T) {
		var docs []docstore.Document
		for i, budget := range []string{"b1", "b2", "b1"} {
			d, _ := docstore.Encode(fmt.Sprintf("%s_m%d", budget, i), map[string]any{"budget_id": budget, "n": i})
			docs = append(docs, d)
		}
		if err := s.WriteBatch(ctx, "months", docs); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}
		got, err := s.Query(ctx, "months", docstore.Where("budget_id", "b1"))
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != "b1_m0" || got[1].ID != "b1_m2" {
			t.Errorf("Query() = %v, want b1_m0, b1_m2", ids(got))
		}
		all, err := s.Query(ctx, "months")
		if err != nil || len(all) != 3 {
			t.Errorf("Query() without filters = %d docs (err %v), want 3", len(all), err)
		}
	})

	t.Run("atomic batch limit", func(t *testing.T) {
		docs := make([]docstore.Document, docstore.MaxBatchSize+1)
		for i := range docs {
			docs[i], _ = docstore.Encode(fmt.Sprintf("x%04d", i), map[string]int{"n": i})
		}
		err := s.WriteBatch(ctx, "bulk", docs)
		if !errors.Is(err, docstore.ErrBatchTooLarge) {
			t.Fatalf("WriteBatch(501) error = %v, want ErrBatchTooLarge", err)
		}
		if err := docstore.WriteChunked(ctx, s, "bulk", docs, 0); err != nil {
			t.Fatalf("WriteChunked() error = %v", err)
		}
		got, err := s.Query(ctx, "bulk")
		if err != nil || len(got) != len(docs) {
			t.Errorf("Query() = %d docs (err %v), want %d", len(got), err, len(docs))
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Delete(ctx, "budgets", "b1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok, _ := s.Read(ctx, "budgets", "b1"); ok {
			t.Error("document still present after Delete()")
		}
		if err := s.Delete(ctx, "budgets", "b1"); err != nil {
			t.Errorf("Delete() of missing document error = %v", err)
		}
	})
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
