package core

// BalanceLine is one entity's balance, used for compact reports.
type BalanceLine struct {
	ID      string
	Name    string
	Balance Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Period        YearMonth
	TotalIncome   Money
	TotalExpenses Money
	Net           Money
	Transactions  int
	Finalized     bool
}

// Overview summarises a recalculated month.
func (m Month) Overview() MonthOverview {
	return MonthOverview{
		Period:        m.Period,
		TotalIncome:   m.TotalIncome,
		TotalExpenses: m.TotalExpenses,
		Net:           m.TotalIncome.Add(m.TotalExpenses).Round2(),
		Transactions:  m.Transactions.Len(),
		Finalized:     m.AllocationsFinalized,
	}
}

// AccountLines lists the budget's all-time account balances in id order.
func (b Budget) AccountLines() []BalanceLine {
	ids := b.AccountIDs()
	out := make([]BalanceLine, 0, len(ids))
	for _, id := range ids {
		out = append(out, BalanceLine{ID: string(id), Name: b.Accounts[id].Name, Balance: b.AccountBalances[id]})
	}
	return out
}

// CategoryLines lists the budget's all-time category balances in id order.
func (b Budget) CategoryLines() []BalanceLine {
	ids := b.CategoryIDs()
	out := make([]BalanceLine, 0, len(ids))
	for _, id := range ids {
		out = append(out, BalanceLine{ID: string(id), Name: b.Categories[id].Name, Balance: b.CategoryBalances[id]})
	}
	return out
}
