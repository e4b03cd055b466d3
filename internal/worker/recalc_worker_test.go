package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/docstore/memory"
	"bilancio/internal/recalc"
	"bilancio/internal/storage"
)

type fakeRecalculator struct {
	full, from int
	lastFrom   core.YearMonth
	err        error
}

func (f *fakeRecalculator) RecalculateBudget(_ context.Context, id string) (*recalc.BudgetResult, error) {
	f.full++
	if f.err != nil {
		return nil, f.err
	}
	return &recalc.BudgetResult{BudgetID: id}, nil
}

func (f *fakeRecalculator) RecalculateFrom(_ context.Context, id string, from core.YearMonth) (*recalc.BudgetResult, error) {
	f.from++
	f.lastFrom = from
	if f.err != nil {
		return nil, f.err
	}
	return &recalc.BudgetResult{BudgetID: id}, nil
}

func TestHandleRecalcRequest_Dispatch(t *testing.T) {
	fake := &fakeRecalculator{}
	w := NewRecalcWorker(fake, nil)
	ctx := context.Background()

	if err := w.HandleRecalcRequest(ctx, amqp.NewRecalcRequestMessage("home", nil)); err != nil {
		t.Fatalf("full request error = %v", err)
	}
	from := core.YearMonth{Year: 2024, Month: 5}
	if err := w.HandleRecalcRequest(ctx, amqp.NewRecalcRequestMessage("home", &from)); err != nil {
		t.Fatalf("suffix request error = %v", err)
	}
	if fake.full != 1 || fake.from != 1 || fake.lastFrom != from {
		t.Errorf("calls full=%d from=%d lastFrom=%v", fake.full, fake.from, fake.lastFrom)
	}
}

func TestHandleRecalcRequest_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantDiscard bool
	}{
		{
			name:        "missing budget is permanent",
			err:         &recalc.BudgetError{BudgetID: "b", Entries: []recalc.ErrorEntry{{Kind: recalc.KindMissingBudget}}, Err: core.ErrBudgetMissing},
			wantDiscard: true,
		},
		{
			name:        "batch write is retried",
			err:         &recalc.BudgetError{BudgetID: "b", Entries: []recalc.ErrorEntry{{Kind: recalc.KindBatchWrite}}, Err: core.ErrBatchWrite},
			wantDiscard: false,
		},
		{
			name:        "unknown error is retried",
			err:         errors.New("boom"),
			wantDiscard: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewRecalcWorker(&fakeRecalculator{err: tt.err}, nil)
			err := w.HandleRecalcRequest(context.Background(), amqp.NewRecalcRequestMessage("b", nil))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, amqp.ErrDiscard); got != tt.wantDiscard {
				t.Errorf("discard = %v, want %v (err %v)", got, tt.wantDiscard, err)
			}
		})
	}
}

func TestHandleRecalcRequest_WithOrchestrator(t *testing.T) {
	repo := storage.NewRepository(memory.New(), 0)
	orch := recalc.New(repo, recalc.Options{Concurrency: 1, Now: time.Now}, nil)
	b := core.Budget{ID: "home", Accounts: map[core.AccountID]core.Account{"acct": {ID: "acct"}}}
	if err := repo.SaveBudget(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	w := NewRecalcWorker(orch, nil)

	if err := w.HandleRecalcRequest(context.Background(), amqp.NewRecalcRequestMessage("home", nil)); err != nil {
		t.Errorf("HandleRecalcRequest() error = %v", err)
	}
	err := w.HandleRecalcRequest(context.Background(), amqp.NewRecalcRequestMessage("gone", nil))
	if !errors.Is(err, amqp.ErrDiscard) || !errors.Is(err, core.ErrBudgetMissing) {
		t.Errorf("HandleRecalcRequest(gone) error = %v, want discard of missing budget", err)
	}
}
