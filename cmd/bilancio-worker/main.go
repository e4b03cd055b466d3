package main

import (
	"context"
	"errors"
	"os"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/log"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting bilancio-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	res := cli.OpenStore(context.Background(), logger, cfg)
	engine := cli.NewEngine(cfg, res, logger)

	// Initialize AMQP client for consuming recalculation requests
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}

	consumed := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		// The in-flight request finishes before the store is closed.
		<-consumed
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close store", log.FieldError, err)
		}
	})
	ctx = log.NewContext(ctx, logger)

	recalcWorker := worker.NewRecalcWorker(engine.Orchestrator, logger)

	go func() {
		defer close(consumed)
		if err := amqpClient.ConsumeRecalcRequests(ctx, recalcWorker.HandleRecalcRequest); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
				os.Exit(1)
			}
		}
	}()

	logger.Info("Worker consuming recalculation requests",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"prefetch", 1)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", log.FieldOperation, log.OpShutdown)
}
