// Package ledger is the recalculation engine: a pure per-month processor and
// the sequential fold that threads balances from one month to the next.
// Nothing in this package performs I/O.
package ledger

import "bilancio/internal/core"

// Snapshot holds category and account balances as of the end of the most
// recently processed month. It is immutable; every fold step returns a new one.
type Snapshot struct {
	categories map[core.CategoryID]core.Money
	accounts   map[core.AccountID]core.Money
}

// EmptySnapshot is the starting point of a budget with no history.
func EmptySnapshot() Snapshot {
	return Snapshot{}
}

// NewSnapshot copies the given balances. Sentinel ids are dropped.
func NewSnapshot(categories map[core.CategoryID]core.Money, accounts map[core.AccountID]core.Money) Snapshot {
	s := Snapshot{
		categories: make(map[core.CategoryID]core.Money, len(categories)),
		accounts:   make(map[core.AccountID]core.Money, len(accounts)),
	}
	for id, v := range categories {
		if !id.IsSentinel() {
			s.categories[id] = v
		}
	}
	for id, v := range accounts {
		if !id.IsSentinel() {
			s.accounts[id] = v
		}
	}
	return s
}

// SnapshotFromMonth reads a stored month's end balances.
func SnapshotFromMonth(m core.Month) Snapshot {
	cats := make(map[core.CategoryID]core.Money, len(m.CategoryBalances))
	for _, row := range m.CategoryBalances {
		cats[row.CategoryID] = row.EndBalance
	}
	accts := make(map[core.AccountID]core.Money, len(m.AccountBalances))
	for _, row := range m.AccountBalances {
		accts[row.AccountID] = row.EndBalance
	}
	return NewSnapshot(cats, accts)
}

// Category returns the balance of id, zero when unknown.
func (s Snapshot) Category(id core.CategoryID) core.Money {
	return s.categories[id]
}

// Account returns the balance of id, zero when unknown.
func (s Snapshot) Account(id core.AccountID) core.Money {
	return s.accounts[id]
}

// Categories returns a copy of the category balances.
func (s Snapshot) Categories() map[core.CategoryID]core.Money {
	out := make(map[core.CategoryID]core.Money, len(s.categories))
	for id, v := range s.categories {
		out[id] = v
	}
	return out
}

// Accounts returns a copy of the account balances.
func (s Snapshot) Accounts() map[core.AccountID]core.Money {
	out := make(map[core.AccountID]core.Money, len(s.accounts))
	for id, v := range s.accounts {
		out[id] = v
	}
	return out
}
