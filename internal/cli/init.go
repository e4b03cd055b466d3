// Package cli provides common CLI initialization utilities shared by
// cmd/bilancio and cmd/bilancio-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/backend"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/recalc"
	"bilancio/internal/repair"
	"bilancio/internal/storage"
)

// SetupLogger initializes structured logging at the given level and
// installs it as the default logger. Logs go to stderr so command output
// on stdout stays machine readable.
func SetupLogger(level string, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: log.ParseLevel(level),
		}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured document store.
// Returns the store or exits the process on failure.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open document store", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// Engine bundles the services built on top of one store.
type Engine struct {
	Repo         *storage.Repository
	Orchestrator *recalc.Orchestrator
	Repairer     *repair.Repairer
}

// NewEngine wires the repository, orchestrator and repairer for res.
func NewEngine(cfg *config.Config, res *backend.BackendResult, logger *log.Logger) *Engine {
	repo := storage.NewRepository(res.Store, cfg.RecalcBatchLimit)
	opts := recalc.DefaultOptions()
	opts.Concurrency = cfg.RecalcConcurrency
	orch := recalc.New(repo, opts, logger)
	return &Engine{
		Repo:         repo,
		Orchestrator: orch,
		Repairer:     repair.New(repo, orch, logger),
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
