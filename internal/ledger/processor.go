package ledger

import (
	"fmt"
	"sort"

	"bilancio/internal/core"
)

// Chart is the set of real categories and accounts a month is computed for.
type Chart struct {
	Categories []core.CategoryID
	Accounts   []core.AccountID
}

// NewChart sorts and de-duplicates the ids and drops sentinels.
func NewChart(categories []core.CategoryID, accounts []core.AccountID) Chart {
	c := Chart{}
	seenC := make(map[core.CategoryID]struct{}, len(categories))
	for _, id := range categories {
		if _, ok := seenC[id]; ok || id.IsSentinel() {
			continue
		}
		seenC[id] = struct{}{}
		c.Categories = append(c.Categories, id)
	}
	seenA := make(map[core.AccountID]struct{}, len(accounts))
	for _, id := range accounts {
		if _, ok := seenA[id]; ok || id.IsSentinel() {
			continue
		}
		seenA[id] = struct{}{}
		c.Accounts = append(c.Accounts, id)
	}
	sort.Slice(c.Categories, func(i, j int) bool { return c.Categories[i] < c.Categories[j] })
	sort.Slice(c.Accounts, func(i, j int) bool { return c.Accounts[i] < c.Accounts[j] })
	return c
}

// ChartOf returns the budget's current chart.
func ChartOf(b core.Budget) Chart {
	return NewChart(b.CategoryIDs(), b.AccountIDs())
}

// MonthInput is everything ProcessMonth needs for one month.
type MonthInput struct {
	Transactions core.TransactionSet
	Chart        Chart
	Start        Snapshot
	// Allocations holds the stored allocation per category and is only
	// consulted when the month's allocations are finalized. Nil means zero.
	Allocations map[core.CategoryID]core.Money
}

// MonthResult is one month's derived balances.
type MonthResult struct {
	CategoryRows  []core.CategoryMonthBalance
	AccountRows   []core.AccountMonthBalance
	TotalIncome   core.Money
	TotalExpenses core.Money
	End           Snapshot

	// Amounts that reached no row of the chart: sentinel or orphaned sides.
	UnattributedIncome          core.Money
	UnattributedAccountExpenses core.Money
	UnattributedCategoryExpense core.Money
}

// activity accumulates exact, unrounded sums per entity.
type activity struct {
	spent, catTransfers, catAdjustments              map[core.CategoryID]core.Money
	income, expenses, acctTransfers, acctAdjustments map[core.AccountID]core.Money
	totalIncome, totalExpenses                       core.Money
}

func newActivity() *activity {
	return &activity{
		spent:           map[core.CategoryID]core.Money{},
		catTransfers:    map[core.CategoryID]core.Money{},
		catAdjustments:  map[core.CategoryID]core.Money{},
		income:          map[core.AccountID]core.Money{},
		expenses:        map[core.AccountID]core.Money{},
		acctTransfers:   map[core.AccountID]core.Money{},
		acctAdjustments: map[core.AccountID]core.Money{},
	}
}

func addCat(m map[core.CategoryID]core.Money, id core.CategoryID, v core.Money) {
	if id.IsSentinel() {
		return
	}
	m[id] = m[id].Add(v)
}

func addAcct(m map[core.AccountID]core.Money, id core.AccountID, v core.Money) {
	if id.IsSentinel() {
		return
	}
	m[id] = m[id].Add(v)
}

func (a *activity) apply(tx core.Transaction) {
	switch t := tx.(type) {
	case core.Income:
		addAcct(a.income, t.AccountID, t.Amount)
		a.totalIncome = a.totalIncome.Add(t.Amount)
	case core.Expense:
		addAcct(a.expenses, t.AccountID, t.Amount)
		addCat(a.spent, t.CategoryID, t.Amount)
		a.totalExpenses = a.totalExpenses.Add(t.Amount)
	case core.Transfer:
		addAcct(a.acctTransfers, t.ToAccountID, t.Amount)
		addAcct(a.acctTransfers, t.FromAccountID, t.Amount.Neg())
		addCat(a.catTransfers, t.ToCategoryID, t.Amount)
		addCat(a.catTransfers, t.FromCategoryID, t.Amount.Neg())
	case core.Adjustment:
		addAcct(a.acctAdjustments, t.AccountID, t.Amount)
		addCat(a.catAdjustments, t.CategoryID, t.Amount)
	default:
		// Transaction is sealed; this is unreachable.
		panic(fmt.Sprintf("ledger: unhandled transaction %T", tx))
	}
}

// ProcessMonth computes one month's category and account rows from the start
// snapshot. Sums are exact and each stored value is rounded once, so the
// result does not depend on transaction order.
func ProcessMonth(in MonthInput) MonthResult {
	act := newActivity()
	for _, tx := range in.Transactions.All() {
		act.apply(tx)
	}

	res := MonthResult{
		CategoryRows:  make([]core.CategoryMonthBalance, 0, len(in.Chart.Categories)),
		AccountRows:   make([]core.AccountMonthBalance, 0, len(in.Chart.Accounts)),
		TotalIncome:   act.totalIncome.Round2(),
		TotalExpenses: act.totalExpenses.Round2(),
	}

	endCats := make(map[core.CategoryID]core.Money, len(in.Chart.Categories))
	for _, id := range in.Chart.Categories {
		row := core.CategoryMonthBalance{
			CategoryID:   id,
			StartBalance: in.Start.Category(id).Round2(),
			Allocated:    in.Allocations[id].Round2(),
			Spent:        act.spent[id].Round2(),
			Transfers:    act.catTransfers[id].Round2(),
			Adjustments:  act.catAdjustments[id].Round2(),
		}
		row.EndBalance = core.Sum(row.StartBalance, row.Allocated, row.Spent, row.Transfers, row.Adjustments).Round2()
		endCats[id] = row.EndBalance
		res.CategoryRows = append(res.CategoryRows, row)
	}

	endAccts := make(map[core.AccountID]core.Money, len(in.Chart.Accounts))
	for _, id := range in.Chart.Accounts {
		row := core.AccountMonthBalance{
			AccountID:    id,
			StartBalance: in.Start.Account(id).Round2(),
			Income:       act.income[id].Round2(),
			Expenses:     act.expenses[id].Round2(),
			Transfers:    act.acctTransfers[id].Round2(),
			Adjustments:  act.acctAdjustments[id].Round2(),
		}
		row.NetChange = core.Sum(row.Income, row.Expenses, row.Transfers, row.Adjustments).Round2()
		row.EndBalance = row.StartBalance.Add(row.NetChange).Round2()
		endAccts[id] = row.EndBalance
		res.AccountRows = append(res.AccountRows, row)
	}
	res.End = Snapshot{categories: endCats, accounts: endAccts}

	// Sentinel sides never enter the maps, so derive the remainder from totals.
	res.UnattributedIncome = act.totalIncome.Sub(attributed(act.income, endAccts)).Round2()
	res.UnattributedAccountExpenses = act.totalExpenses.Sub(attributed(act.expenses, endAccts)).Round2()
	res.UnattributedCategoryExpense = act.totalExpenses.Sub(attributedCats(act.spent, endCats)).Round2()
	return res
}

func attributed(m map[core.AccountID]core.Money, known map[core.AccountID]core.Money) core.Money {
	total := core.Zero
	for id, v := range m {
		if _, ok := known[id]; ok {
			total = total.Add(v)
		}
	}
	return total
}

func attributedCats(m map[core.CategoryID]core.Money, known map[core.CategoryID]core.Money) core.Money {
	total := core.Zero
	for id, v := range m {
		if _, ok := known[id]; ok {
			total = total.Add(v)
		}
	}
	return total
}

// CheckTotals verifies that the month totals equal the column sums plus
// whatever reached no row. A mismatch means the rows and totals disagree.
func (r MonthResult) CheckTotals() error {
	var income, acctExp, catExp []core.Money
	for _, row := range r.AccountRows {
		income = append(income, row.Income)
		acctExp = append(acctExp, row.Expenses)
	}
	for _, row := range r.CategoryRows {
		catExp = append(catExp, row.Spent)
	}
	if got := core.Sum(append(income, r.UnattributedIncome)...).Round2(); !got.Equal(r.TotalIncome) {
		return fmt.Errorf("%w: income column %s != total income %s", core.ErrValidationViolation, got, r.TotalIncome)
	}
	if got := core.Sum(append(acctExp, r.UnattributedAccountExpenses)...).Round2(); !got.Equal(r.TotalExpenses) {
		return fmt.Errorf("%w: account expense column %s != total expenses %s", core.ErrValidationViolation, got, r.TotalExpenses)
	}
	if got := core.Sum(append(catExp, r.UnattributedCategoryExpense)...).Round2(); !got.Equal(r.TotalExpenses) {
		return fmt.Errorf("%w: category spent column %s != total expenses %s", core.ErrValidationViolation, got, r.TotalExpenses)
	}
	return nil
}
