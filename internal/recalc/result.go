package recalc

import (
	"errors"
	"sort"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/storage"
)

// Error kinds reported in ErrorEntry.Kind.
const (
	KindMissingBudget  = "missing_budget"
	KindMissingMonth   = "missing_month"
	KindUnreadable     = "unreadable_document"
	KindInvalidBudget  = "invalid_budget"
	KindOrdering       = "ordering"
	KindBatchWrite     = "batch_write"
	KindTotalsMismatch = "totals_mismatch"
	KindStore          = "store_error"
)

// ErrorEntry is one failed item of a run, keyed by budget or month id.
type ErrorEntry struct {
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BudgetResult describes the recalculation of one budget.
type BudgetResult struct {
	BudgetID        string           `json:"budget_id"`
	MonthsWritten   int              `json:"months_written"`
	SyntheticMonths []core.YearMonth `json:"synthetic_months,omitempty"`
	IndexAdded      []core.YearMonth `json:"index_added,omitempty"`
	IndexRemoved    []core.YearMonth `json:"index_removed,omitempty"`

	// Non-fatal problems; the budget was still written.
	Warnings []ErrorEntry `json:"warnings,omitempty"`

	// Final all-time balances written to the budget.
	AccountBalances  map[core.AccountID]core.Money  `json:"account_balances"`
	CategoryBalances map[core.CategoryID]core.Money `json:"category_balances"`
}

// Result summarises a multi-budget run.
type Result struct {
	RunID           string         `json:"run_id"`
	Processed       int            `json:"processed"`
	Failed          int            `json:"failed"`
	MonthsWritten   int            `json:"months_written"`
	SyntheticMonths int            `json:"synthetic_months"`
	Budgets         []BudgetResult `json:"budgets"`
	Errors          []ErrorEntry   `json:"errors,omitempty"`
}

// OK reports whether every budget of the run succeeded.
func (r *Result) OK() bool { return r.Failed == 0 }

func (r *Result) add(br *BudgetResult) {
	r.Processed++
	r.MonthsWritten += br.MonthsWritten
	r.SyntheticMonths += len(br.SyntheticMonths)
	r.Budgets = append(r.Budgets, *br)
	r.Errors = append(r.Errors, br.Warnings...)
}

func (r *Result) fail(entries []ErrorEntry) {
	r.Failed++
	r.Errors = append(r.Errors, entries...)
}

func (r *Result) sortErrors() {
	sort.SliceStable(r.Errors, func(i, j int) bool { return r.Errors[i].Key < r.Errors[j].Key })
}

// BudgetError is returned when one budget cannot be recalculated. Nothing of
// that budget was written unless Kind is KindBatchWrite.
type BudgetError struct {
	BudgetID string
	Entries  []ErrorEntry
	Err      error
}

func (e *BudgetError) Error() string { return "recalculate " + e.BudgetID + ": " + e.Err.Error() }
func (e *BudgetError) Unwrap() error { return e.Err }

func newBudgetError(budgetID string, err error) *BudgetError {
	return &BudgetError{
		BudgetID: budgetID,
		Entries:  []ErrorEntry{{Key: budgetID, Kind: errorKind(err), Message: err.Error()}},
		Err:      err,
	}
}

func errorKind(err error) string {
	var docErr storage.DocError
	switch {
	case errors.Is(err, core.ErrBudgetMissing):
		return KindMissingBudget
	case errors.Is(err, core.ErrBatchWrite):
		return KindBatchWrite
	case errors.Is(err, ledger.ErrUnsortedMonths):
		return KindOrdering
	case errors.As(err, &docErr):
		return KindUnreadable
	case errors.Is(err, core.ErrEmptyBudgetID), errors.Is(err, core.ErrValidationViolation):
		return KindInvalidBudget
	default:
		return KindStore
	}
}
