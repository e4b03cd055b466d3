package backend

import (
	"context"
	"fmt"

	"bilancio/internal/docstore/memory"
	"bilancio/internal/docstore/sqlite"
	"bilancio/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStorage),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.SQLiteDBPath == "" {
		return nil, fmt.Errorf("sqlite backend requires a database path")
	}
	store, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.DataDirectory == "" {
		f.logger.InfoContext(ctx, "Initialized empty memory backend")
		store := memory.New()
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	}

	store, err := memory.NewFromDir(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"seed_dir", config.DataDirectory,
		"budgets", store.Count("budgets"),
		"months", store.Count("months"))

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
