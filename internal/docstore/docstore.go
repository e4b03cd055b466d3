// Package docstore is the document-store abstraction the recalculation
// engine reads from and writes to. Documents are JSON bodies addressed by
// collection and id.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxBatchSize is the largest number of documents a single WriteBatch call
// commits atomically.
const MaxBatchSize = 500

var (
	ErrBatchTooLarge = errors.New("batch exceeds the atomic write limit")
	ErrEmptyID       = errors.New("document id is empty")
)

// Document is a stored JSON body.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Filter selects documents whose top-level string field equals Value.
type Filter struct {
	Field string
	Value string
}

// Where builds an equality filter.
func Where(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Store is implemented by the memory and sqlite backends.
type Store interface {
	// Read returns the document and whether it exists.
	Read(ctx context.Context, collection, id string) (Document, bool, error)
	// Query returns every document matching all filters, ordered by id.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// WriteBatch upserts up to MaxBatchSize documents atomically.
	WriteBatch(ctx context.Context, collection string, docs []Document) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// WriteChunked writes docs in sequential chunks of at most limit documents
// (capped at MaxBatchSize) and reports a single error for the whole logical
// batch. Chunks written before a failing chunk stay written.
func WriteChunked(ctx context.Context, s Store, collection string, docs []Document, limit int) error {
	if limit <= 0 || limit > MaxBatchSize {
		limit = MaxBatchSize
	}
	for start := 0; start < len(docs); start += limit {
		end := min(start+limit, len(docs))
		if err := s.WriteBatch(ctx, collection, docs[start:end]); err != nil {
			return fmt.Errorf("write %s chunk %d-%d of %d: %w", collection, start, end, len(docs), err)
		}
	}
	return nil
}

// Encode marshals v into a document.
func Encode(id string, v any) (Document, error) {
	if id == "" {
		return Document{}, ErrEmptyID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", id, err)
	}
	return Document{ID: id, Data: data}, nil
}

// Decode unmarshals a document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.ID, err)
	}
	return nil
}
