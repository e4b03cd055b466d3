package ledger

import "bilancio/internal/core"

// FinalizeAllocations commits a month's allocations and sets the finalized
// flag. Per category the allocation is taken from amounts, else the value
// already stored on the row, else the category's default. Rows of a month
// that is already finalized keep their stored allocation, zero included.
// Balances on the returned month are stale until the month is recalculated.
func FinalizeAllocations(m core.Month, chart Chart, categories map[core.CategoryID]core.Category, amounts map[core.CategoryID]core.Money) core.Month {
	existing := make(map[core.CategoryID]core.CategoryMonthBalance, len(m.CategoryBalances))
	for _, row := range m.CategoryBalances {
		existing[row.CategoryID] = row
	}

	rows := make([]core.CategoryMonthBalance, 0, len(chart.Categories))
	for _, id := range chart.Categories {
		row, ok := existing[id]
		if !ok {
			row = core.CategoryMonthBalance{CategoryID: id}
		}
		switch amount, set := amounts[id]; {
		case set:
			row.Allocated = amount.Round2()
		case ok && m.AllocationsFinalized, !row.Allocated.IsZero():
			row.Allocated = row.Allocated.Round2()
		case categories[id].DefaultAllocation != nil:
			row.Allocated = categories[id].DefaultAllocation.Round2()
		}
		rows = append(rows, row)
	}
	m.CategoryBalances = rows
	m.AllocationsFinalized = true
	return m
}
