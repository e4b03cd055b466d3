package core

import "sort"

// MonthIndex records which months physically exist for a budget.
// Every existing month has an entry and there are no entries for months
// that do not exist. Entries carry no per-month state.
type MonthIndex map[YearMonth]bool

// Has reports whether ym is indexed.
func (idx MonthIndex) Has(ym YearMonth) bool {
	return idx[ym]
}

// Periods returns the indexed months in chronological order.
func (idx MonthIndex) Periods() []YearMonth {
	out := make([]YearMonth, 0, len(idx))
	for ym, present := range idx {
		if present {
			out = append(out, ym)
		}
	}
	SortPeriods(out)
	return out
}

// EnsurePresent adds every existing month that is not yet indexed and
// returns the additions in chronological order. Entries are never removed.
func (idx MonthIndex) EnsurePresent(existing []YearMonth) []YearMonth {
	var added []YearMonth
	for _, ym := range existing {
		if idx[ym] {
			continue
		}
		idx[ym] = true
		added = append(added, ym)
	}
	SortPeriods(added)
	return added
}

// Prune removes entries for months that do not exist and returns them in
// chronological order.
func (idx MonthIndex) Prune(existing []YearMonth) []YearMonth {
	want := make(map[YearMonth]struct{}, len(existing))
	for _, ym := range existing {
		want[ym] = struct{}{}
	}
	var removed []YearMonth
	for ym := range idx {
		if _, ok := want[ym]; !ok {
			removed = append(removed, ym)
		}
	}
	for _, ym := range removed {
		delete(idx, ym)
	}
	SortPeriods(removed)
	return removed
}

// Reconcile makes the index equal to existing: missing months are added and
// orphaned entries removed. An existing month stored with a false marker
// counts as missing.
func (idx MonthIndex) Reconcile(existing []YearMonth) (added, removed []YearMonth) {
	removed = idx.Prune(existing)
	added = idx.EnsurePresent(existing)
	return added, removed
}

// SortPeriods sorts months chronologically in place.
func SortPeriods(ps []YearMonth) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Ordinal() < ps[j].Ordinal() })
}
