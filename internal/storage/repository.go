// Package storage maps budgets and months onto documents in a docstore.Store.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"bilancio/internal/core"
	"bilancio/internal/docstore"
)

const (
	BudgetsCollection = "budgets"
	MonthsCollection  = "months"
)

// DocError is a stored document that could not be decoded.
type DocError struct {
	ID  string
	Err error
}

func (e DocError) Error() string { return fmt.Sprintf("document %s: %v", e.ID, e.Err) }
func (e DocError) Unwrap() error { return e.Err }

type Repository struct {
	store      docstore.Store
	batchLimit int
}

// NewRepository wraps store. batchLimit caps documents per physical write;
// zero means the store maximum.
func NewRepository(store docstore.Store, batchLimit int) *Repository {
	return &Repository{store: store, batchLimit: batchLimit}
}

// MonthDocID returns the document id of a budget's month.
func MonthDocID(budgetID string, ym core.YearMonth) string {
	return fmt.Sprintf("%s_%04d_%02d", budgetID, ym.Year, ym.Month)
}

// LoadBudget reads a budget. Nil maps are replaced with empty ones so callers
// can update balances and the month index in place.
func (r *Repository) LoadBudget(ctx context.Context, id string) (core.Budget, error) {
	if id == "" {
		return core.Budget{}, core.ErrEmptyBudgetID
	}
	doc, ok, err := r.store.Read(ctx, BudgetsCollection, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read budget %s: %w", id, err)
	}
	if !ok {
		return core.Budget{}, fmt.Errorf("%w: %s", core.ErrBudgetMissing, id)
	}

	var b core.Budget
	if err := doc.Decode(&b); err != nil {
		return core.Budget{}, DocError{ID: id, Err: err}
	}
	if b.ID == "" {
		b.ID = id
	}
	if b.Accounts == nil {
		b.Accounts = map[core.AccountID]core.Account{}
	}
	if b.Categories == nil {
		b.Categories = map[core.CategoryID]core.Category{}
	}
	if b.AccountBalances == nil {
		b.AccountBalances = map[core.AccountID]core.Money{}
	}
	if b.CategoryBalances == nil {
		b.CategoryBalances = map[core.CategoryID]core.Money{}
	}
	if b.MonthIndex == nil {
		b.MonthIndex = core.MonthIndex{}
	}
	return b, nil
}

// ListBudgetIDs returns every stored budget id in order.
func (r *Repository) ListBudgetIDs(ctx context.Context) ([]string, error) {
	docs, err := r.store.Query(ctx, BudgetsCollection)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// LoadMonths returns a budget's months in chronological order. Documents that
// fail to decode are returned separately and left out of the months.
func (r *Repository) LoadMonths(ctx context.Context, budgetID string) ([]core.Month, []DocError, error) {
	docs, err := r.store.Query(ctx, MonthsCollection, docstore.Where("budget_id", budgetID))
	if err != nil {
		return nil, nil, fmt.Errorf("query months of %s: %w", budgetID, err)
	}

	months := make([]core.Month, 0, len(docs))
	var bad []DocError
	for _, d := range docs {
		var m core.Month
		if err := d.Decode(&m); err != nil {
			bad = append(bad, DocError{ID: d.ID, Err: err})
			continue
		}
		if err := m.Period.Validate(); err != nil {
			bad = append(bad, DocError{ID: d.ID, Err: err})
			continue
		}
		months = append(months, m)
	}
	sort.SliceStable(months, func(i, j int) bool { return months[i].Period.Before(months[j].Period) })
	return months, bad, nil
}

// LoadMonth reads one month and reports whether it exists.
func (r *Repository) LoadMonth(ctx context.Context, budgetID string, ym core.YearMonth) (core.Month, bool, error) {
	id := MonthDocID(budgetID, ym)
	doc, ok, err := r.store.Read(ctx, MonthsCollection, id)
	if err != nil {
		return core.Month{}, false, fmt.Errorf("read month %s: %w", id, err)
	}
	if !ok {
		return core.Month{}, false, nil
	}
	var m core.Month
	if err := doc.Decode(&m); err != nil {
		return core.Month{}, false, DocError{ID: id, Err: err}
	}
	return m, true, nil
}

// SaveMonths writes months as one logical batch, chunked at the batch limit.
func (r *Repository) SaveMonths(ctx context.Context, months []core.Month) error {
	if len(months) == 0 {
		return nil
	}
	docs := make([]docstore.Document, 0, len(months))
	for _, m := range months {
		doc, err := docstore.Encode(MonthDocID(m.BudgetID, m.Period), m)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if err := docstore.WriteChunked(ctx, r.store, MonthsCollection, docs, r.batchLimit); err != nil {
		return fmt.Errorf("%w: %w", core.ErrBatchWrite, err)
	}

	slog.DebugContext(ctx, "Months saved",
		"budget_id", months[0].BudgetID,
		"count", len(months))

	return nil
}

func (r *Repository) SaveBudget(ctx context.Context, b core.Budget) error {
	doc, err := docstore.Encode(b.ID, b)
	if err != nil {
		return err
	}
	if err := r.store.WriteBatch(ctx, BudgetsCollection, []docstore.Document{doc}); err != nil {
		return fmt.Errorf("%w: budget %s: %w", core.ErrBatchWrite, b.ID, err)
	}
	return nil
}

func (r *Repository) DeleteMonth(ctx context.Context, budgetID string, ym core.YearMonth) error {
	id := MonthDocID(budgetID, ym)
	if err := r.store.Delete(ctx, MonthsCollection, id); err != nil {
		return fmt.Errorf("delete month %s: %w", id, err)
	}
	return nil
}
