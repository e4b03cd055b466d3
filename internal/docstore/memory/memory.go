// Package memory is an in-process docstore.Store, used by tests and the
// memory data backend. It can be seeded from JSON files on disk.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bilancio/internal/docstore"
)

type Store struct {
	mu    sync.RWMutex
	colls map[string]map[string]json.RawMessage

	// FailWrite, when set, is consulted before every WriteBatch.
	FailWrite func(collection string, docs []docstore.Document) error
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{colls: map[string]map[string]json.RawMessage{}}
}

// NewFromDir loads every <collection>/<id>.json file under base. A missing
// directory yields an empty store.
func NewFromDir(base string) (*Store, error) {
	s := New()
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(base, e.Name(), "*.json"))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", e.Name(), err)
		}
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f, err)
			}
			if !json.Valid(data) {
				return nil, fmt.Errorf("seed file %s is not valid JSON", f)
			}
			id := strings.TrimSuffix(filepath.Base(f), ".json")
			s.put(e.Name(), id, data)
		}
	}
	return s, nil
}

func (s *Store) put(collection, id string, data []byte) {
	c, ok := s.colls[collection]
	if !ok {
		c = map[string]json.RawMessage{}
		s.colls[collection] = c
	}
	c[id] = append(json.RawMessage(nil), data...)
}

func (s *Store) Read(_ context.Context, collection, id string) (docstore.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.colls[collection][id]
	if !ok {
		return docstore.Document{}, false, nil
	}
	return docstore.Document{ID: id, Data: append(json.RawMessage(nil), data...)}, true, nil
}

func (s *Store) Query(_ context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []docstore.Document
	for id, data := range s.colls[collection] {
		ok, err := matches(data, filters)
		if err != nil {
			return nil, fmt.Errorf("query %s/%s: %w", collection, id, err)
		}
		if ok {
			out = append(out, docstore.Document{ID: id, Data: append(json.RawMessage(nil), data...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(data json.RawMessage, filters []docstore.Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, err
	}
	for _, f := range filters {
		var v string
		if raw, ok := fields[f.Field]; !ok || json.Unmarshal(raw, &v) != nil || v != f.Value {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) WriteBatch(_ context.Context, collection string, docs []docstore.Document) error {
	if len(docs) > docstore.MaxBatchSize {
		return fmt.Errorf("%w: %d documents", docstore.ErrBatchTooLarge, len(docs))
	}
	for _, d := range docs {
		if d.ID == "" {
			return docstore.ErrEmptyID
		}
	}
	if s.FailWrite != nil {
		if err := s.FailWrite(collection, docs); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		s.put(collection, d.ID, d.Data)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.colls[collection], id)
	return nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.colls[collection])
}

func (s *Store) Close() error { return nil }
