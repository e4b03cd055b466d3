package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSentinelIDs(t *testing.T) {
	tests := []struct {
		in       string
		account  AccountID
		category CategoryID
	}{
		{"no_account", NoAccount, "no_account"},
		{"NO_CATEGORY", "NO_CATEGORY", NoCategory},
		{"no_category", "no_category", NoCategory},
		{"", NoAccount, NoCategory},
		{"none", NoAccount, NoCategory},
		{"acc-1", "acc-1", "acc-1"},
	}
	for _, tt := range tests {
		if got := ParseAccountID(tt.in); got != tt.account {
			t.Errorf("ParseAccountID(%q) = %q, want %q", tt.in, got, tt.account)
		}
		if got := ParseCategoryID(tt.in); got != tt.category {
			t.Errorf("ParseCategoryID(%q) = %q, want %q", tt.in, got, tt.category)
		}
	}
}

func TestBudget_SentinelNeverMatches(t *testing.T) {
	b := Budget{
		ID:         "b1",
		Accounts:   map[AccountID]Account{"checking": {ID: "checking"}},
		Categories: map[CategoryID]Category{"food": {ID: "food"}},
	}
	if b.HasAccount(NoAccount) || b.HasCategory(NoCategory) {
		t.Error("sentinels must not match real entities")
	}
	if !b.HasAccount("checking") || !b.HasCategory("food") {
		t.Error("real entities must match")
	}

	b.Categories[NoCategory] = Category{ID: NoCategory}
	if err := b.Validate(); err == nil {
		t.Error("Validate() should reject a category stored under the sentinel id")
	}
	if ids := b.CategoryIDs(); !reflect.DeepEqual(ids, []CategoryID{"food"}) {
		t.Errorf("CategoryIDs() = %v, want [food]", ids)
	}
}

func TestTransactionSet_All(t *testing.T) {
	set := TransactionSet{
		Income:      []Income{{ID: "i1"}},
		Expenses:    []Expense{{ID: "e1"}, {ID: "e2"}},
		Transfers:   []Transfer{{ID: "t1"}},
		Adjustments: []Adjustment{{ID: "a1"}},
	}
	var kinds []Kind
	for _, tx := range set.All() {
		kinds = append(kinds, tx.Kind())
	}
	want := []Kind{KindIncome, KindExpense, KindExpense, KindTransfer, KindAdjustment}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("All() kinds = %v, want %v", kinds, want)
	}
}

func TestMonth_JSONRoundTripNormalisesSentinels(t *testing.T) {
	raw := `{
		"budget_id": "b1",
		"period": "2024-03",
		"transactions": {
			"transfers": [{"id": "t1", "amount": 50, "from_account_id": "NO_ACCOUNT", "to_account_id": "",
				"from_category_id": "a", "to_category_id": "b", "date": "2024-03-02"}]
		}
	}`
	var m Month
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.Period != (YearMonth{2024, 3}) {
		t.Errorf("Period = %v, want 2024-03", m.Period)
	}
	tr := m.Transactions.Transfers[0]
	if !tr.FromAccountID.IsSentinel() || !tr.ToAccountID.IsSentinel() {
		t.Errorf("transfer accounts = %q/%q, want sentinels", tr.FromAccountID, tr.ToAccountID)
	}
	if tr.Date.Period() != m.Period {
		t.Errorf("Date.Period() = %v, want %v", tr.Date.Period(), m.Period)
	}
}

func TestYearMonth(t *testing.T) {
	ym := YearMonth{Year: 2023, Month: 12}
	if got := ym.Next(); got != (YearMonth{2024, 1}) {
		t.Errorf("Next() = %v, want 2024-01", got)
	}
	if got := (YearMonth{2024, 1}).Prev(); got != ym {
		t.Errorf("Prev() = %v, want 2023-12", got)
	}
	if FromOrdinal(ym.Ordinal()) != ym {
		t.Errorf("FromOrdinal(Ordinal()) != %v", ym)
	}
	parsed, err := ParseYearMonth("2024-07")
	if err != nil || parsed != (YearMonth{2024, 7}) {
		t.Errorf("ParseYearMonth() = %v, %v", parsed, err)
	}
	if _, err := ParseYearMonth("2024-13"); err == nil {
		t.Error("ParseYearMonth(2024-13) expected error")
	}
}

func TestMonthIndex(t *testing.T) {
	jan, feb, mar, apr := YearMonth{2024, 1}, YearMonth{2024, 2}, YearMonth{2024, 3}, YearMonth{2024, 4}

	t.Run("additive mode never removes", func(t *testing.T) {
		idx := MonthIndex{jan: true, apr: true}
		added := idx.EnsurePresent([]YearMonth{mar, jan, feb})
		if !reflect.DeepEqual(added, []YearMonth{feb, mar}) {
			t.Errorf("EnsurePresent() added = %v, want [2024-02 2024-03]", added)
		}
		if !idx.Has(apr) {
			t.Error("additive mode removed an entry")
		}
	})

	t.Run("reconciling mode is a symmetric difference", func(t *testing.T) {
		idx := MonthIndex{jan: true, apr: true, mar: false}
		added, removed := idx.Reconcile([]YearMonth{jan, feb, mar})
		if !reflect.DeepEqual(added, []YearMonth{feb, mar}) {
			t.Errorf("Reconcile() added = %v, want [2024-02 2024-03]", added)
		}
		if !reflect.DeepEqual(removed, []YearMonth{apr}) {
			t.Errorf("Reconcile() removed = %v, want [2024-04]", removed)
		}
		if !reflect.DeepEqual(idx.Periods(), []YearMonth{jan, feb, mar}) {
			t.Errorf("Periods() = %v", idx.Periods())
		}
	})

	t.Run("index keys round trip through JSON", func(t *testing.T) {
		idx := MonthIndex{jan: true, YearMonth{2023, 11}: true}
		b, err := json.Marshal(idx)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		var back MonthIndex
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !reflect.DeepEqual(back, idx) {
			t.Errorf("round trip = %v, want %v", back, idx)
		}
	})
}
