package repair

import (
	"context"
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// Validate reports structural problems in stored months. It never changes
// data: each finding is left to the caller or to the pass that owns it.
func (r *Repairer) Validate(ctx context.Context, budgetIDs []string) (*Report, error) {
	return r.run(ctx, log.OpValidate, budgetIDs, r.validate)
}

func (r *Repairer) validate(ctx context.Context, budgetID string, rep *Report) (int, error) {
	b, months, err := r.loadAll(ctx, budgetID)
	if err != nil {
		return 0, err
	}
	for _, m := range months {
		rep.Findings = append(rep.Findings, ValidateMonth(b, m)...)
	}
	for id, v := range b.AccountBalances {
		if v.NeedsPrecisionFix() {
			rep.Findings = append(rep.Findings, core.Finding{
				Kind: core.FindingPrecisionDrift, BudgetID: b.ID,
				Message: fmt.Sprintf("account %s balance %s is not a whole number of cents", id, v),
			})
		}
	}
	for id, v := range b.CategoryBalances {
		if v.NeedsPrecisionFix() {
			rep.Findings = append(rep.Findings, core.Finding{
				Kind: core.FindingPrecisionDrift, BudgetID: b.ID,
				Message: fmt.Sprintf("category %s balance %s is not a whole number of cents", id, v),
			})
		}
	}
	return 0, nil
}

type checker struct {
	b        core.Budget
	m        core.Month
	findings []core.Finding
}

func (c *checker) add(kind core.FindingKind, txID, format string, args ...any) {
	c.findings = append(c.findings, core.Finding{
		Kind:          kind,
		BudgetID:      c.m.BudgetID,
		Period:        c.m.Period,
		TransactionID: txID,
		Message:       fmt.Sprintf(format, args...),
	})
}

func (c *checker) account(txID string, id core.AccountID) {
	if !id.IsSentinel() && !c.b.HasAccount(id) {
		c.add(core.FindingOrphanedAccount, txID, "unknown account %q", id)
	}
}

func (c *checker) category(txID string, id core.CategoryID) {
	if !id.IsSentinel() && !c.b.HasCategory(id) {
		c.add(core.FindingOrphanedCategory, txID, "unknown category %q", id)
	}
}

func (c *checker) amount(txID string, v core.Money) {
	if v.NeedsPrecisionFix() {
		c.add(core.FindingPrecisionDrift, txID, "amount %s is not a whole number of cents", v)
	}
}

func (c *checker) date(tx core.Transaction) {
	d := tx.TransactionDate()
	if d.IsZero() {
		return
	}
	if p := d.Period(); p != c.m.Period {
		c.add(core.FindingWrongMonth, tx.TransactionID(), "dated %s, stored in %s", p, c.m.Period)
	}
}

func (c *checker) transfer(t core.Transfer) {
	sameAccounts := t.FromAccountID == t.ToAccountID
	sameCategories := t.FromCategoryID == t.ToCategoryID
	noAccounts := t.FromAccountID.IsSentinel() && t.ToAccountID.IsSentinel()
	noCategories := t.FromCategoryID.IsSentinel() && t.ToCategoryID.IsSentinel()

	switch {
	case sameAccounts && sameCategories:
		c.add(core.FindingNoOpTransfer, t.ID, "transfer moves nothing: both sides are identical")
	case noAccounts:
		c.add(core.FindingAmbiguousTransfer, t.ID, "transfer has no account on either side")
	case noCategories:
		c.add(core.FindingAmbiguousTransfer, t.ID, "transfer has no category on either side")
	}
	if t.Amount.IsNegative() {
		c.add(core.FindingNegativeTransfer, t.ID, "transfer amount %s is negative", t.Amount)
	}
}

// ValidateMonth returns the findings for one stored month of b, in
// transaction order followed by balance rows.
func ValidateMonth(b core.Budget, m core.Month) []core.Finding {
	c := &checker{b: b, m: m}
	for _, tx := range m.Transactions.All() {
		c.date(tx)
		switch t := tx.(type) {
		case core.Income:
			c.account(t.ID, t.AccountID)
			c.amount(t.ID, t.Amount)
		case core.Expense:
			c.account(t.ID, t.AccountID)
			c.category(t.ID, t.CategoryID)
			c.amount(t.ID, t.Amount)
		case core.Transfer:
			c.transfer(t)
			c.account(t.ID, t.FromAccountID)
			c.account(t.ID, t.ToAccountID)
			c.category(t.ID, t.FromCategoryID)
			c.category(t.ID, t.ToCategoryID)
			c.amount(t.ID, t.Amount)
		case core.Adjustment:
			if t.AccountID.IsSentinel() && t.CategoryID.IsSentinel() {
				c.add(core.FindingAdjustmentNoTarget, t.ID, "adjustment has neither an account nor a category")
			}
			c.account(t.ID, t.AccountID)
			c.category(t.ID, t.CategoryID)
			c.amount(t.ID, t.Amount)
		}
	}

	drift := FixMonthPrecision(&core.Month{
		CategoryBalances: cloneCategoryRows(m.CategoryBalances),
		AccountBalances:  cloneAccountRows(m.AccountBalances),
		TotalIncome:      m.TotalIncome,
		TotalExpenses:    m.TotalExpenses,
	})
	if drift > 0 {
		c.add(core.FindingPrecisionDrift, "", "%d stored balance values are not whole numbers of cents", drift)
	}
	return c.findings
}

func cloneCategoryRows(rows []core.CategoryMonthBalance) []core.CategoryMonthBalance {
	return append([]core.CategoryMonthBalance(nil), rows...)
}

func cloneAccountRows(rows []core.AccountMonthBalance) []core.AccountMonthBalance {
	return append([]core.AccountMonthBalance(nil), rows...)
}
