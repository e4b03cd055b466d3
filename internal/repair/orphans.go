package repair

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// RemapOrphans points every transaction reference to an account or category
// the budget does not define at the matching sentinel. Orphaned amounts never
// reached a balance row, so balances do not change.
func (r *Repairer) RemapOrphans(ctx context.Context, budgetIDs []string) (*Report, error) {
	return r.run(ctx, log.OpRemapOrphans, budgetIDs, r.remapOrphans)
}

func (r *Repairer) remapOrphans(ctx context.Context, budgetID string, _ *Report) (int, error) {
	b, months, err := r.loadAll(ctx, budgetID)
	if err != nil {
		return 0, err
	}

	fixed := 0
	var changed []core.Month
	for i := range months {
		if n := RemapMonthOrphans(b, &months[i]); n > 0 {
			fixed += n
			changed = append(changed, months[i])
		}
	}
	if err := r.repo.SaveMonths(ctx, changed); err != nil {
		return 0, err
	}
	return fixed, nil
}

func remapAccount(b core.Budget, id *core.AccountID) int {
	if id.IsSentinel() || b.HasAccount(*id) {
		return 0
	}
	*id = core.NoAccount
	return 1
}

func remapCategory(b core.Budget, id *core.CategoryID) int {
	if id.IsSentinel() || b.HasCategory(*id) {
		return 0
	}
	*id = core.NoCategory
	return 1
}

// RemapMonthOrphans rewrites m's orphaned references in place and returns
// how many it changed.
func RemapMonthOrphans(b core.Budget, m *core.Month) int {
	n := 0
	tx := &m.Transactions
	for i := range tx.Income {
		n += remapAccount(b, &tx.Income[i].AccountID)
	}
	for i := range tx.Expenses {
		n += remapAccount(b, &tx.Expenses[i].AccountID)
		n += remapCategory(b, &tx.Expenses[i].CategoryID)
	}
	for i := range tx.Transfers {
		t := &tx.Transfers[i]
		n += remapAccount(b, &t.FromAccountID)
		n += remapAccount(b, &t.ToAccountID)
		n += remapCategory(b, &t.FromCategoryID)
		n += remapCategory(b, &t.ToCategoryID)
	}
	for i := range tx.Adjustments {
		n += remapAccount(b, &tx.Adjustments[i].AccountID)
		n += remapCategory(b, &tx.Adjustments[i].CategoryID)
	}
	return n
}
