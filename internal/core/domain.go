package core

import (
	"fmt"
	"sort"
	"time"
)

// Kind tags a transaction variant.
type Kind string

const (
	KindIncome     Kind = "income"
	KindExpense    Kind = "expense"
	KindTransfer   Kind = "transfer"
	KindAdjustment Kind = "adjustment"
)

type (
	Account struct {
		ID        AccountID `json:"id"`
		Name      string    `json:"name"`
		OnBudget  bool      `json:"on_budget"`
		Active    bool      `json:"active"`
		CanIncome bool      `json:"can_income"`
		CanOutgo  bool      `json:"can_outgo"`
		Hidden    bool      `json:"hidden"`
	}

	Category struct {
		ID                CategoryID `json:"id"`
		Name              string     `json:"name"`
		DefaultAllocation *Money     `json:"default_allocation,omitempty"`
	}

	// Transaction is implemented by exactly the four variants below.
	Transaction interface {
		Kind() Kind
		TransactionID() string
		TransactionDate() Date
		isTransaction()
	}

	Income struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		AccountID   AccountID `json:"account_id"`
		Date        Date      `json:"date"`
		Payee       string    `json:"payee,omitempty"`
		Description string    `json:"description,omitempty"`
	}

	Expense struct {
		ID          string     `json:"id"`
		Amount      Money      `json:"amount"` // negative for outflow
		AccountID   AccountID  `json:"account_id"`
		CategoryID  CategoryID `json:"category_id"`
		Date        Date       `json:"date"`
		Payee       string     `json:"payee,omitempty"`
		Description string     `json:"description,omitempty"`
	}

	Transfer struct {
		ID             string     `json:"id"`
		Amount         Money      `json:"amount"` // positive magnitude
		FromAccountID  AccountID  `json:"from_account_id"`
		ToAccountID    AccountID  `json:"to_account_id"`
		FromCategoryID CategoryID `json:"from_category_id"`
		ToCategoryID   CategoryID `json:"to_category_id"`
		Date           Date       `json:"date"`
		Description    string     `json:"description,omitempty"`
	}

	Adjustment struct {
		ID          string     `json:"id"`
		Amount      Money      `json:"amount"`
		AccountID   AccountID  `json:"account_id"`
		CategoryID  CategoryID `json:"category_id"`
		Date        Date       `json:"date"`
		Description string     `json:"description,omitempty"`
	}

	// TransactionSet is one month's transactions, grouped by kind.
	TransactionSet struct {
		Income      []Income     `json:"income"`
		Expenses    []Expense    `json:"expenses"`
		Transfers   []Transfer   `json:"transfers"`
		Adjustments []Adjustment `json:"adjustments"`
	}

	CategoryMonthBalance struct {
		CategoryID   CategoryID `json:"category_id"`
		StartBalance Money      `json:"start_balance"`
		Allocated    Money      `json:"allocated"`
		Spent        Money      `json:"spent"`
		Transfers    Money      `json:"transfers"`
		Adjustments  Money      `json:"adjustments"`
		EndBalance   Money      `json:"end_balance"`
	}

	AccountMonthBalance struct {
		AccountID    AccountID `json:"account_id"`
		StartBalance Money     `json:"start_balance"`
		Income       Money     `json:"income"`
		Expenses     Money     `json:"expenses"`
		Transfers    Money     `json:"transfers"`
		Adjustments  Money     `json:"adjustments"`
		NetChange    Money     `json:"net_change"`
		EndBalance   Money     `json:"end_balance"`
	}

	Month struct {
		BudgetID             string                 `json:"budget_id"`
		Period               YearMonth              `json:"period"`
		Transactions         TransactionSet         `json:"transactions"`
		CategoryBalances     []CategoryMonthBalance `json:"category_balances"`
		AccountBalances      []AccountMonthBalance  `json:"account_balances"`
		AllocationsFinalized bool                   `json:"allocations_finalized"`
		TotalIncome          Money                  `json:"total_income"`
		TotalExpenses        Money                  `json:"total_expenses"`
		CreatedAt            time.Time              `json:"created_at"`
		UpdatedAt            time.Time              `json:"updated_at"`
	}

	Budget struct {
		ID               string                  `json:"id"`
		Name             string                  `json:"name"`
		Accounts         map[AccountID]Account   `json:"accounts"`
		Categories       map[CategoryID]Category `json:"categories"`
		AccountBalances  map[AccountID]Money     `json:"account_balances"`
		CategoryBalances map[CategoryID]Money    `json:"category_balances"`
		MonthIndex       MonthIndex              `json:"month_index"`
		UpdatedAt        time.Time               `json:"updated_at"`
	}
)

func (Income) Kind() Kind     { return KindIncome }
func (Expense) Kind() Kind    { return KindExpense }
func (Transfer) Kind() Kind   { return KindTransfer }
func (Adjustment) Kind() Kind { return KindAdjustment }

func (t Income) TransactionID() string     { return t.ID }
func (t Expense) TransactionID() string    { return t.ID }
func (t Transfer) TransactionID() string   { return t.ID }
func (t Adjustment) TransactionID() string { return t.ID }

func (t Income) TransactionDate() Date     { return t.Date }
func (t Expense) TransactionDate() Date    { return t.Date }
func (t Transfer) TransactionDate() Date   { return t.Date }
func (t Adjustment) TransactionDate() Date { return t.Date }

func (Income) isTransaction()     {}
func (Expense) isTransaction()    {}
func (Transfer) isTransaction()   {}
func (Adjustment) isTransaction() {}

// All returns every transaction as its variant, grouped by kind in a fixed order.
func (s TransactionSet) All() []Transaction {
	out := make([]Transaction, 0, s.Len())
	for _, t := range s.Income {
		out = append(out, t)
	}
	for _, t := range s.Expenses {
		out = append(out, t)
	}
	for _, t := range s.Transfers {
		out = append(out, t)
	}
	for _, t := range s.Adjustments {
		out = append(out, t)
	}
	return out
}

func (s TransactionSet) Len() int {
	return len(s.Income) + len(s.Expenses) + len(s.Transfers) + len(s.Adjustments)
}

// NewMonth returns an empty month with no activity.
func NewMonth(budgetID string, period YearMonth) Month {
	return Month{BudgetID: budgetID, Period: period}
}

// Allocations returns the stored allocation per category.
func (m Month) Allocations() map[CategoryID]Money {
	out := make(map[CategoryID]Money, len(m.CategoryBalances))
	for _, row := range m.CategoryBalances {
		out[row.CategoryID] = row.Allocated
	}
	return out
}

// AccountIDs returns the budget's real account ids, sorted.
func (b Budget) AccountIDs() []AccountID {
	ids := make([]AccountID, 0, len(b.Accounts))
	for id := range b.Accounts {
		if id.IsSentinel() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CategoryIDs returns the budget's real category ids, sorted.
func (b Budget) CategoryIDs() []CategoryID {
	ids := make([]CategoryID, 0, len(b.Categories))
	for id := range b.Categories {
		if id.IsSentinel() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasAccount reports whether id is a real account of the budget.
// The sentinel never matches.
func (b Budget) HasAccount(id AccountID) bool {
	if id.IsSentinel() {
		return false
	}
	_, ok := b.Accounts[id]
	return ok
}

// HasCategory reports whether id is a real category of the budget.
// The sentinel never matches.
func (b Budget) HasCategory(id CategoryID) bool {
	if id.IsSentinel() {
		return false
	}
	_, ok := b.Categories[id]
	return ok
}

// Validate checks the budget's own structure.
func (b Budget) Validate() error {
	if b.ID == "" {
		return ErrEmptyBudgetID
	}
	if _, ok := b.Accounts[NoAccount]; ok {
		return fmt.Errorf("%w: budget %s defines an account under the no-account id", ErrValidationViolation, b.ID)
	}
	if _, ok := b.Categories[NoCategory]; ok {
		return fmt.Errorf("%w: budget %s defines a category under the no-category id", ErrValidationViolation, b.ID)
	}
	return nil
}
