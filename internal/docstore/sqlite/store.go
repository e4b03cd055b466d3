// Package sqlite is a docstore.Store persisted in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"bilancio/internal/docstore"

	_ "modernc.org/sqlite"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Store struct {
	db *sql.DB
}

var _ docstore.Store = (*Store)(nil)

// Open creates the database directory if needed, runs migrations and returns
// a ready store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent budget folds.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Read(ctx context.Context, collection, id string) (docstore.Document, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if err == sql.ErrNoRows {
		return docstore.Document{}, false, nil
	}
	if err != nil {
		return docstore.Document{}, false, fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	return docstore.Document{ID: id, Data: json.RawMessage(data)}, true, nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	var (
		where = []string{"collection = ?"}
		args  = []any{collection}
	)
	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("query %s: invalid filter field %q", collection, f.Field)
		}
		where = append(where, "json_extract(data, ?) = ?")
		args = append(args, "$."+f.Field, f.Value)
	}
	query := `SELECT id, data FROM documents WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, docstore.Document{ID: id, Data: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return out, nil
}

// WriteBatch upserts all documents in one transaction.
func (s *Store) WriteBatch(ctx context.Context, collection string, docs []docstore.Document) error {
	if len(docs) > docstore.MaxBatchSize {
		return fmt.Errorf("%w: %d documents", docstore.ErrBatchTooLarge, len(docs))
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if d.ID == "" {
			return docstore.ErrEmptyID
		}
		if _, err := stmt.ExecContext(ctx, collection, d.ID, string(d.Data)); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", collection, d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	slog.DebugContext(ctx, "Document batch committed",
		"collection", collection,
		"count", len(docs))

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}
