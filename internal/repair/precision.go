package repair

import (
	"context"
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// FixPrecision rounds every stored value that is not a whole number of cents
// and recalculates each budget it touched.
func (r *Repairer) FixPrecision(ctx context.Context, budgetIDs []string) (*Report, error) {
	return r.run(ctx, log.OpFixPrecision, budgetIDs, r.fixPrecision)
}

func (r *Repairer) fixPrecision(ctx context.Context, budgetID string, _ *Report) (int, error) {
	b, months, err := r.loadAll(ctx, budgetID)
	if err != nil {
		return 0, err
	}

	fixed := FixBudgetPrecision(&b)
	var changed []core.Month
	for i := range months {
		if n := FixMonthPrecision(&months[i]); n > 0 {
			fixed += n
			changed = append(changed, months[i])
		}
	}
	if fixed == 0 {
		return 0, nil
	}

	if err := r.repo.SaveMonths(ctx, changed); err != nil {
		return 0, err
	}
	if err := r.repo.SaveBudget(ctx, b); err != nil {
		return 0, err
	}
	r.logger.InfoContext(ctx, "Precision drift repaired",
		log.FieldBudgetID, budgetID,
		log.FieldFixed, fixed,
		log.FieldMonths, len(changed))

	if _, err := r.orch.RecalculateBudget(ctx, budgetID); err != nil {
		return fixed, fmt.Errorf("recalculate after precision fix: %w", err)
	}
	return fixed, nil
}

func round(v *core.Money) int {
	if !v.NeedsPrecisionFix() {
		return 0
	}
	*v = v.Round2()
	return 1
}

// FixMonthPrecision rounds the month's transaction amounts, balance rows and
// totals in place and returns the number of values changed.
func FixMonthPrecision(m *core.Month) int {
	n := 0
	tx := &m.Transactions
	for i := range tx.Income {
		n += round(&tx.Income[i].Amount)
	}
	for i := range tx.Expenses {
		n += round(&tx.Expenses[i].Amount)
	}
	for i := range tx.Transfers {
		n += round(&tx.Transfers[i].Amount)
	}
	for i := range tx.Adjustments {
		n += round(&tx.Adjustments[i].Amount)
	}
	for i := range m.CategoryBalances {
		row := &m.CategoryBalances[i]
		for _, v := range []*core.Money{&row.StartBalance, &row.Allocated, &row.Spent, &row.Transfers, &row.Adjustments, &row.EndBalance} {
			n += round(v)
		}
	}
	for i := range m.AccountBalances {
		row := &m.AccountBalances[i]
		for _, v := range []*core.Money{&row.StartBalance, &row.Income, &row.Expenses, &row.Transfers, &row.Adjustments, &row.NetChange, &row.EndBalance} {
			n += round(v)
		}
	}
	n += round(&m.TotalIncome)
	n += round(&m.TotalExpenses)
	return n
}

// FixBudgetPrecision rounds the budget's stored balances and category
// default allocations in place.
func FixBudgetPrecision(b *core.Budget) int {
	n := 0
	for id, v := range b.AccountBalances {
		if round(&v) > 0 {
			b.AccountBalances[id] = v
			n++
		}
	}
	for id, v := range b.CategoryBalances {
		if round(&v) > 0 {
			b.CategoryBalances[id] = v
			n++
		}
	}
	for id, c := range b.Categories {
		if c.DefaultAllocation != nil && c.DefaultAllocation.NeedsPrecisionFix() {
			rounded := c.DefaultAllocation.Round2()
			c.DefaultAllocation = &rounded
			b.Categories[id] = c
			n++
		}
	}
	return n
}
