package ledger

import (
	"errors"
	"fmt"

	"bilancio/internal/core"
)

var ErrUnsortedMonths = errors.New("months are not in strictly ascending order")

// Output is the result of folding a budget's months.
type Output struct {
	Months  []core.Month
	Results []MonthResult
	Final   Snapshot
}

// Propagate folds months in order, feeding each month's end balances into the
// next as start balances. months must be strictly ascending by period and
// belong to one budget. The input slice is not modified.
//
// The fold is sequential by nature and has no suspension points: it either
// produces every month or returns an error before producing any.
func Propagate(months []core.Month, chart Chart, start Snapshot) (Output, error) {
	for i := 1; i < len(months); i++ {
		if !months[i-1].Period.Before(months[i].Period) {
			return Output{}, fmt.Errorf("%w: %s then %s", ErrUnsortedMonths, months[i-1].Period, months[i].Period)
		}
	}

	out := Output{
		Months:  make([]core.Month, 0, len(months)),
		Results: make([]MonthResult, 0, len(months)),
	}
	snap := start
	for _, m := range months {
		res := ProcessMonth(inputFor(m, chart, snap))
		out.Months = append(out.Months, Apply(m, res))
		out.Results = append(out.Results, res)
		snap = res.End
	}
	out.Final = snap
	return out, nil
}

func inputFor(m core.Month, chart Chart, start Snapshot) MonthInput {
	in := MonthInput{
		Transactions: m.Transactions,
		Chart:        chart,
		Start:        start,
	}
	if m.AllocationsFinalized {
		in.Allocations = m.Allocations()
	}
	return in
}

// Apply replaces the month's derived fields wholesale with res.
func Apply(m core.Month, res MonthResult) core.Month {
	m.CategoryBalances = res.CategoryRows
	m.AccountBalances = res.AccountRows
	m.TotalIncome = res.TotalIncome
	m.TotalExpenses = res.TotalExpenses
	return m
}

// FillGaps returns months with a synthetic zero-activity month inserted for
// every calendar month missing between the first and the last one. The input
// must already be sorted. The second result lists the synthesised periods.
func FillGaps(budgetID string, months []core.Month) ([]core.Month, []core.YearMonth) {
	if len(months) < 2 {
		return months, nil
	}
	out := make([]core.Month, 0, len(months))
	var synthetic []core.YearMonth
	out = append(out, months[0])
	for _, m := range months[1:] {
		for p := out[len(out)-1].Period.Next(); p.Before(m.Period); p = p.Next() {
			out = append(out, core.NewMonth(budgetID, p))
			synthetic = append(synthetic, p)
		}
		out = append(out, m)
	}
	return out, synthetic
}
