// Package repair holds the maintenance passes that run outside a normal
// recalculation: precision fixes, orphan remapping, validation and month
// index reconciliation.
package repair

import (
	"context"
	"errors"
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/recalc"
	"bilancio/internal/storage"
)

// Report summarises one pass over one or more budgets.
type Report struct {
	Operation string              `json:"operation"`
	Processed int                 `json:"processed"`
	Fixed     int                 `json:"fixed"`
	Failed    int                 `json:"failed"`
	Findings  []core.Finding      `json:"findings,omitempty"`
	Errors    []recalc.ErrorEntry `json:"errors,omitempty"`
}

func (r *Report) fail(key string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, recalc.ErrorEntry{Key: key, Kind: r.Operation, Message: err.Error()})
}

type Repairer struct {
	repo   *storage.Repository
	orch   *recalc.Orchestrator
	logger *log.Logger
}

func New(repo *storage.Repository, orch *recalc.Orchestrator, logger *log.Logger) *Repairer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Repairer{repo: repo, orch: orch, logger: logger.WithComponent(log.ComponentRepair)}
}

// budgetFunc repairs one budget and returns how many values it fixed.
type budgetFunc func(ctx context.Context, budgetID string, rep *Report) (int, error)

// run applies fn to every budget in ids, or to every stored budget when ids
// is empty. A failing budget is recorded and the pass continues.
func (r *Repairer) run(ctx context.Context, op string, ids []string, fn budgetFunc) (*Report, error) {
	if len(ids) == 0 {
		var err error
		if ids, err = r.repo.ListBudgetIDs(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", recalc.ErrNoData, err)
		}
	}

	rep := &Report{Operation: op}
	for _, id := range ids {
		fixed, err := fn(ctx, id, rep)
		if err != nil {
			rep.fail(id, err)
			r.logger.ErrorContext(ctx, "Repair failed",
				log.FieldOperation, op,
				log.FieldBudgetID, id,
				log.FieldError, err)
			continue
		}
		rep.Processed++
		rep.Fixed += fixed
	}

	r.logger.InfoContext(ctx, "Repair pass finished",
		log.FieldOperation, op,
		log.FieldProcessed, rep.Processed,
		log.FieldFixed, rep.Fixed,
		log.FieldFailed, rep.Failed,
		log.FieldFindings, len(rep.Findings))

	return rep, nil
}

// loadAll reads a budget and all of its readable months. Unreadable month
// documents fail the budget.
func (r *Repairer) loadAll(ctx context.Context, budgetID string) (core.Budget, []core.Month, error) {
	b, err := r.repo.LoadBudget(ctx, budgetID)
	if err != nil {
		return core.Budget{}, nil, err
	}
	months, bad, err := r.repo.LoadMonths(ctx, budgetID)
	if err != nil {
		return core.Budget{}, nil, err
	}
	if len(bad) > 0 {
		errs := make([]error, len(bad))
		for i, d := range bad {
			errs[i] = d
		}
		return core.Budget{}, nil, errors.Join(errs...)
	}
	return b, months, nil
}
