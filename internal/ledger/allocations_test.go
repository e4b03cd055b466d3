package ledger

import (
	"testing"

	"bilancio/internal/core"
)

func allocationCategories() map[core.CategoryID]core.Category {
	rentDefault := m("650")
	return map[core.CategoryID]core.Category{
		"food":  {ID: "food"},
		"fun":   {ID: "fun"},
		"rent":  {ID: "rent", DefaultAllocation: &rentDefault},
		"saved": {ID: "saved"},
	}
}

func TestFinalizeAllocations(t *testing.T) {
	categories := allocationCategories()
	chart := NewChart([]core.CategoryID{"food", "fun", "rent", "saved"}, nil)
	period := core.YearMonth{Year: 2024, Month: 1}

	tests := []struct {
		name      string
		finalized bool
		stored    []core.CategoryMonthBalance
		amounts   map[core.CategoryID]core.Money
		want      map[core.CategoryID]string
	}{
		{
			name: "first finalization",
			stored: []core.CategoryMonthBalance{
				{CategoryID: "saved", Allocated: m("40.004")},
				{CategoryID: "gone", Allocated: m("10")},
			},
			amounts: map[core.CategoryID]core.Money{"food": m("300.555")},
			want: map[core.CategoryID]string{
				"food":  "300.56", // explicit amount, rounded
				"fun":   "0.00",   // nothing stored, no default
				"rent":  "650.00", // default allocation
				"saved": "40.00",  // stored value kept
			},
		},
		{
			name:      "already finalized month keeps stored zero",
			finalized: true,
			stored: []core.CategoryMonthBalance{
				{CategoryID: "food", Allocated: m("100")},
				{CategoryID: "rent", Allocated: core.Zero},
			},
			amounts: map[core.CategoryID]core.Money{"food": m("120")},
			want: map[core.CategoryID]string{
				"food":  "120.00",
				"fun":   "0.00",
				"rent":  "0.00",
				"saved": "0.00",
			},
		},
		{
			name:      "already finalized month defaults only missing rows",
			finalized: true,
			stored: []core.CategoryMonthBalance{
				{CategoryID: "food", Allocated: m("100")},
			},
			want: map[core.CategoryID]string{
				"food":  "100.00",
				"fun":   "0.00",
				"rent":  "650.00",
				"saved": "0.00",
			},
		},
		{
			name:    "explicit zero overrides default",
			amounts: map[core.CategoryID]core.Money{"rent": core.Zero},
			want: map[core.CategoryID]string{
				"food":  "0.00",
				"fun":   "0.00",
				"rent":  "0.00",
				"saved": "0.00",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month := core.NewMonth("b1", period)
			month.AllocationsFinalized = tt.finalized
			month.CategoryBalances = tt.stored

			got := FinalizeAllocations(month, chart, categories, tt.amounts)

			if !got.AllocationsFinalized {
				t.Error("AllocationsFinalized = false, want true")
			}
			if len(got.CategoryBalances) != len(chart.Categories) {
				t.Fatalf("rows = %d, want one per chart category", len(got.CategoryBalances))
			}
			for id, want := range tt.want {
				if row := findCat(t, got.CategoryBalances, id); row.Allocated.String() != want {
					t.Errorf("%s allocated = %s, want %s", id, row.Allocated, want)
				}
			}
		})
	}
}

func TestFinalizeAllocations_Twice(t *testing.T) {
	categories := allocationCategories()
	chart := NewChart([]core.CategoryID{"food", "fun", "rent", "saved"}, nil)
	month := core.NewMonth("b1", core.YearMonth{Year: 2024, Month: 1})

	first := FinalizeAllocations(month, chart, categories, map[core.CategoryID]core.Money{
		"rent": core.Zero,
		"food": m("100"),
	})
	second := FinalizeAllocations(first, chart, categories, map[core.CategoryID]core.Money{
		"food": m("120"),
	})

	if got := findCat(t, second.CategoryBalances, "rent").Allocated; !got.IsZero() {
		t.Errorf("rent allocated after second finalization = %s, want 0.00", got)
	}
	if got := findCat(t, second.CategoryBalances, "food").Allocated; got.String() != "120.00" {
		t.Errorf("food allocated = %s, want 120.00", got)
	}
	if month.AllocationsFinalized {
		t.Error("input month was modified")
	}
}

func TestFinalizeAllocations_FoldUsesAllocations(t *testing.T) {
	categories := allocationCategories()
	chart := NewChart([]core.CategoryID{"food", "rent"}, nil)
	month := core.NewMonth("b1", core.YearMonth{Year: 2024, Month: 5})

	got := FinalizeAllocations(month, chart, categories, map[core.CategoryID]core.Money{"food": m("40")})

	out, err := Propagate([]core.Month{got}, chart, EmptySnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if end := findCat(t, out.Months[0].CategoryBalances, "rent").EndBalance; !end.Equal(m("650")) {
		t.Errorf("rent end = %s, want 650.00", end)
	}
	if end := findCat(t, out.Months[0].CategoryBalances, "food").EndBalance; !end.Equal(m("40")) {
		t.Errorf("food end = %s, want 40.00", end)
	}
}
