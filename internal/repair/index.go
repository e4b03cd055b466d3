package repair

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// RepairIndex makes each budget's month index match the month documents
// that exist: missing entries are added and orphaned ones removed.
func (r *Repairer) RepairIndex(ctx context.Context, budgetIDs []string) (*Report, error) {
	return r.run(ctx, log.OpRepairIndex, budgetIDs, r.repairIndex)
}

func (r *Repairer) repairIndex(ctx context.Context, budgetID string, _ *Report) (int, error) {
	b, months, err := r.loadAll(ctx, budgetID)
	if err != nil {
		return 0, err
	}
	existing := make([]core.YearMonth, len(months))
	for i, m := range months {
		existing[i] = m.Period
	}

	added, removed := b.MonthIndex.Reconcile(existing)
	if len(added)+len(removed) == 0 {
		return 0, nil
	}
	if err := r.repo.SaveBudget(ctx, b); err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "Month index reconciled",
		log.FieldBudgetID, budgetID,
		"added", len(added),
		"removed", len(removed))

	return len(added) + len(removed), nil
}
