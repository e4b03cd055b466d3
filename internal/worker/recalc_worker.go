// Package worker turns queued recalculation requests into orchestrator runs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/recalc"
)

// Recalculator is the part of recalc.Orchestrator the worker drives.
type Recalculator interface {
	RecalculateBudget(ctx context.Context, budgetID string) (*recalc.BudgetResult, error)
	RecalculateFrom(ctx context.Context, budgetID string, from core.YearMonth) (*recalc.BudgetResult, error)
}

// RecalcWorker handles recalculation request messages.
type RecalcWorker struct {
	orch   Recalculator
	logger *log.Logger
}

func NewRecalcWorker(orch Recalculator, logger *log.Logger) *RecalcWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecalcWorker{orch: orch, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleRecalcRequest runs one request. Failures that a retry cannot fix are
// wrapped with amqp.ErrDiscard so the message is not redelivered.
func (w *RecalcWorker) HandleRecalcRequest(ctx context.Context, msg *amqp.RecalcRequestMessage) error {
	start := time.Now()
	logger := w.logger.With(
		log.FieldMessageID, msg.ID,
		log.FieldBudgetID, msg.BudgetID)

	var (
		res *recalc.BudgetResult
		err error
	)
	if msg.From != nil {
		res, err = w.orch.RecalculateFrom(ctx, msg.BudgetID, *msg.From)
	} else {
		res, err = w.orch.RecalculateBudget(ctx, msg.BudgetID)
	}
	if err != nil {
		if permanent(err) {
			return fmt.Errorf("%w: %w", amqp.ErrDiscard, err)
		}
		return err
	}

	logger.InfoContext(ctx, "Recalculation request completed",
		log.FieldMonths, res.MonthsWritten,
		log.FieldSynthetic, len(res.SyntheticMonths),
		"warnings", len(res.Warnings),
		log.FieldDuration, time.Since(start).Milliseconds())

	for _, warn := range res.Warnings {
		logger.WarnContext(ctx, "Recalculation warning",
			"key", warn.Key,
			log.FieldErrorKind, warn.Kind,
			log.FieldError, warn.Message)
	}
	return nil
}

// permanent reports whether retrying the request would fail the same way.
func permanent(err error) bool {
	var be *recalc.BudgetError
	if !errors.As(err, &be) {
		return false
	}
	for _, e := range be.Entries {
		switch e.Kind {
		case recalc.KindStore, recalc.KindBatchWrite:
			return false
		}
	}
	return true
}
