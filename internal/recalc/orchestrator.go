// Package recalc loads budgets and their months from storage, folds them
// through the ledger and writes the recomputed documents back.
package recalc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

// ErrNoData is returned when a run could not read any budget at all.
var ErrNoData = errors.New("no budget data could be read")

// Options holds configuration for the orchestrator
type Options struct {
	// Concurrency bounds how many budgets are recalculated at once (default: 4)
	Concurrency int

	// Now stamps written documents (default: time.Now)
	Now func() time.Time
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Concurrency: 4,
		Now:         time.Now,
	}
}

// Orchestrator recalculates budgets. Two runs against the same budget must
// not overlap; callers serialise them.
type Orchestrator struct {
	repo   *storage.Repository
	opts   Options
	logger *log.Logger
}

func New(repo *storage.Repository, opts Options, logger *log.Logger) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Orchestrator{
		repo:   repo,
		opts:   opts,
		logger: logger.WithComponent(log.ComponentRecalc),
	}
}

// loaded is a budget with the months the fold will run over.
type loaded struct {
	budget core.Budget
	months []core.Month
	// stored holds the periods backed by a readable document.
	stored    map[core.YearMonth]bool
	synthetic []core.YearMonth
	warnings  []ErrorEntry
}

func (o *Orchestrator) load(ctx context.Context, budgetID string) (*loaded, error) {
	b, err := o.repo.LoadBudget(ctx, budgetID)
	if err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	if err := b.Validate(); err != nil {
		return nil, newBudgetError(budgetID, err)
	}

	months, bad, err := o.repo.LoadMonths(ctx, budgetID)
	if err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	if len(bad) > 0 {
		// Folding around an unreadable month would overwrite it and every
		// later month with wrong balances.
		be := &BudgetError{
			BudgetID: budgetID,
			Err:      fmt.Errorf("%d unreadable month documents: %w", len(bad), bad[0]),
		}
		for _, d := range bad {
			be.Entries = append(be.Entries, ErrorEntry{Key: d.ID, Kind: KindUnreadable, Message: d.Error()})
		}
		return nil, be
	}

	l := &loaded{budget: b, stored: make(map[core.YearMonth]bool, len(months))}
	for _, m := range months {
		l.stored[m.Period] = true
	}

	// Index entries without a document inside the stored range are folded
	// as empty months. Entries outside it are orphans and get pruned.
	for _, ym := range b.MonthIndex.Periods() {
		if l.stored[ym] {
			continue
		}
		key := storage.MonthDocID(budgetID, ym)
		msg := fmt.Sprintf("%s: indexed month %s has no document", core.ErrMissingMonth, ym)
		if !inRange(months, ym) {
			msg += ", entry removed"
		}
		l.warnings = append(l.warnings, ErrorEntry{Key: key, Kind: KindMissingMonth, Message: msg})
	}
	sortMonths(months)

	l.months, l.synthetic = ledger.FillGaps(budgetID, months)
	return l, nil
}

// inRange reports whether ym lies between the earliest and latest month.
func inRange(months []core.Month, ym core.YearMonth) bool {
	if len(months) == 0 {
		return false
	}
	first, last := months[0].Period, months[0].Period
	for _, m := range months[1:] {
		if m.Period.Before(first) {
			first = m.Period
		}
		if last.Before(m.Period) {
			last = m.Period
		}
	}
	return !ym.Before(first) && !last.Before(ym)
}

// indexPeriods returns the periods that exist once written is stored: the
// stored documents plus the written months.
func (l *loaded) indexPeriods(written []core.Month) []core.YearMonth {
	seen := make(map[core.YearMonth]bool, len(l.stored)+len(written))
	out := make([]core.YearMonth, 0, len(l.stored)+len(written))
	for ym := range l.stored {
		seen[ym] = true
		out = append(out, ym)
	}
	for _, m := range written {
		if !seen[m.Period] {
			seen[m.Period] = true
			out = append(out, m.Period)
		}
	}
	core.SortPeriods(out)
	return out
}

// RecalculateBudget recomputes every month of a budget from an empty
// snapshot and writes the months, the final balances and the month index.
func (o *Orchestrator) RecalculateBudget(ctx context.Context, budgetID string) (*BudgetResult, error) {
	l, err := o.load(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	out, err := ledger.Propagate(l.months, ledger.ChartOf(l.budget), ledger.EmptySnapshot())
	if err != nil {
		return nil, newBudgetError(budgetID, err)
	}

	res := &BudgetResult{
		BudgetID:        budgetID,
		SyntheticMonths: l.synthetic,
		Warnings:        l.warnings,
	}
	if err := o.persist(ctx, l, out, res); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "Budget recalculated",
		log.FieldBudgetID, budgetID,
		log.FieldOperation, log.OpRecalculate,
		log.FieldMonths, res.MonthsWritten,
		log.FieldSynthetic, len(res.SyntheticMonths))

	return res, nil
}

// RecalculateFrom recomputes the months from `from` onwards, seeded with the
// stored end balances of the last stored month before it. The result is only
// correct when no earlier month changed since it was last recalculated.
func (o *Orchestrator) RecalculateFrom(ctx context.Context, budgetID string, from core.YearMonth) (*BudgetResult, error) {
	if err := from.Validate(); err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	l, err := o.load(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	start := len(l.months)
	for i, m := range l.months {
		if !m.Period.Before(from) {
			start = i
			break
		}
	}
	// Months between the last stored month and `from` carry no balances of
	// their own, so they are folded again.
	for start > 0 && !l.stored[l.months[start-1].Period] {
		start--
	}
	seed := ledger.EmptySnapshot()
	if start > 0 {
		seed = ledger.SnapshotFromMonth(l.months[start-1])
	}

	out, err := ledger.Propagate(l.months[start:], ledger.ChartOf(l.budget), seed)
	if err != nil {
		return nil, newBudgetError(budgetID, err)
	}

	res := &BudgetResult{BudgetID: budgetID, Warnings: l.warnings}
	for _, ym := range l.synthetic {
		if start < len(l.months) && !ym.Before(l.months[start].Period) {
			res.SyntheticMonths = append(res.SyntheticMonths, ym)
		}
	}
	if err := o.persist(ctx, l, out, res); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "Budget recalculated from month",
		log.FieldBudgetID, budgetID,
		log.FieldOperation, log.OpRecalculateFrom,
		log.FieldPeriod, from.String(),
		log.FieldMonths, res.MonthsWritten)

	return res, nil
}

// persist writes the folded months, then the budget with its final balances
// and month index. The budget is not written if the months fail.
func (o *Orchestrator) persist(ctx context.Context, l *loaded, out ledger.Output, res *BudgetResult) error {
	b := l.budget
	for i, r := range out.Results {
		if err := r.CheckTotals(); err != nil {
			key := storage.MonthDocID(b.ID, out.Months[i].Period)
			res.Warnings = append(res.Warnings, ErrorEntry{Key: key, Kind: KindTotalsMismatch, Message: err.Error()})
			o.logger.WarnContext(ctx, "Month totals do not match account activity",
				log.FieldMonthID, key,
				log.FieldError, err)
		}
	}

	now := o.opts.Now().UTC()
	for i := range out.Months {
		if out.Months[i].CreatedAt.IsZero() {
			out.Months[i].CreatedAt = now
		}
		out.Months[i].UpdatedAt = now
	}
	if err := o.repo.SaveMonths(ctx, out.Months); err != nil {
		return newBudgetError(b.ID, err)
	}
	res.MonthsWritten = len(out.Months)

	chart := ledger.ChartOf(b)
	b.AccountBalances = make(map[core.AccountID]core.Money, len(chart.Accounts))
	for _, id := range chart.Accounts {
		b.AccountBalances[id] = out.Final.Account(id).Round2()
	}
	b.CategoryBalances = make(map[core.CategoryID]core.Money, len(chart.Categories))
	for _, id := range chart.Categories {
		b.CategoryBalances[id] = out.Final.Category(id).Round2()
	}

	periods := l.indexPeriods(out.Months)
	res.IndexAdded = b.MonthIndex.EnsurePresent(periods)
	res.IndexRemoved = b.MonthIndex.Prune(periods)

	b.UpdatedAt = now
	if err := o.repo.SaveBudget(ctx, b); err != nil {
		return newBudgetError(b.ID, err)
	}
	res.AccountBalances = b.AccountBalances
	res.CategoryBalances = b.CategoryBalances
	return nil
}

// RecalculateBudgets recalculates each budget independently, up to
// Options.Concurrency at a time. A failing budget is recorded in the result
// and does not stop the others. The error is non-nil only when no budget
// could be read at all.
func (o *Orchestrator) RecalculateBudgets(ctx context.Context, budgetIDs []string) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	logger := o.logger.With(log.FieldRunID, res.RunID)

	type outcome struct {
		br  *BudgetResult
		err error
	}
	outcomes := make([]outcome, len(budgetIDs))

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, id := range budgetIDs {
		g.Go(func() error {
			br, err := o.RecalculateBudget(ctx, id)
			outcomes[i] = outcome{br: br, err: err}
			return nil
		})
	}
	_ = g.Wait()

	unreadable := 0
	var firstErr error
	for i, oc := range outcomes {
		if oc.err == nil {
			res.add(oc.br)
			continue
		}
		var be *BudgetError
		if !errors.As(oc.err, &be) {
			be = newBudgetError(budgetIDs[i], oc.err)
		}
		res.fail(be.Entries)
		if errorKind(be.Err) == KindStore {
			unreadable++
			if firstErr == nil {
				firstErr = be.Err
			}
		}
		logger.ErrorContext(ctx, "Budget recalculation failed",
			log.FieldBudgetID, budgetIDs[i],
			log.FieldError, oc.err)
	}
	res.sortErrors()

	logger.InfoContext(ctx, "Recalculation run finished",
		log.FieldProcessed, res.Processed,
		log.FieldFailed, res.Failed,
		log.FieldMonths, res.MonthsWritten,
		log.FieldConcurrent, o.opts.Concurrency)

	if len(budgetIDs) > 0 && unreadable == len(budgetIDs) {
		return res, fmt.Errorf("%w: %w", ErrNoData, firstErr)
	}
	return res, nil
}

// RecalculateAll recalculates every stored budget.
func (o *Orchestrator) RecalculateAll(ctx context.Context) (*Result, error) {
	ids, err := o.repo.ListBudgetIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	return o.RecalculateBudgets(ctx, ids)
}

// FinalizeAllocations commits a month's allocations, creating the month if
// needed, and recalculates the budget from that month.
func (o *Orchestrator) FinalizeAllocations(ctx context.Context, budgetID string, ym core.YearMonth, amounts map[core.CategoryID]core.Money) (*BudgetResult, error) {
	if err := ym.Validate(); err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	b, err := o.repo.LoadBudget(ctx, budgetID)
	if err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	m, ok, err := o.repo.LoadMonth(ctx, budgetID, ym)
	if err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	if !ok {
		m = core.NewMonth(budgetID, ym)
	}

	m = ledger.FinalizeAllocations(m, ledger.ChartOf(b), b.Categories, amounts)
	now := o.opts.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if err := o.repo.SaveMonths(ctx, []core.Month{m}); err != nil {
		return nil, newBudgetError(budgetID, err)
	}

	o.logger.InfoContext(ctx, "Allocations finalized",
		log.FieldBudgetID, budgetID,
		log.FieldOperation, log.OpFinalize,
		log.FieldPeriod, ym.String())

	return o.RecalculateFrom(ctx, budgetID, ym)
}

// DeleteMonth removes a month document and its index entry, then
// recalculates the budget from that month. A month inside the budget's range
// comes back as an empty month, since the chain has no holes.
func (o *Orchestrator) DeleteMonth(ctx context.Context, budgetID string, ym core.YearMonth) (*BudgetResult, error) {
	if err := ym.Validate(); err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	b, err := o.repo.LoadBudget(ctx, budgetID)
	if err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	if err := o.repo.DeleteMonth(ctx, budgetID, ym); err != nil {
		return nil, newBudgetError(budgetID, err)
	}
	delete(b.MonthIndex, ym)
	if err := o.repo.SaveBudget(ctx, b); err != nil {
		return nil, newBudgetError(budgetID, err)
	}

	o.logger.InfoContext(ctx, "Month deleted",
		log.FieldBudgetID, budgetID,
		log.FieldPeriod, ym.String())

	return o.RecalculateFrom(ctx, budgetID, ym)
}

func sortMonths(months []core.Month) {
	// Duplicates stay adjacent so the fold rejects them.
	sort.SliceStable(months, func(i, j int) bool { return months[i].Period.Before(months[j].Period) })
}
