package main

import (
	"fmt"
	"sort"
	"strings"

	"bilancio/internal/core"
)

// allocationFlag collects repeated -alloc category=amount values.
type allocationFlag map[core.CategoryID]core.Money

func (a allocationFlag) String() string {
	parts := make([]string, 0, len(a))
	for id, amount := range a {
		parts = append(parts, fmt.Sprintf("%s=%s", id, amount))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (a allocationFlag) Set(v string) error {
	id, amount, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(id) == "" {
		return fmt.Errorf("allocation %q: want category=amount", v)
	}
	cat := core.ParseCategoryID(id)
	if cat.IsSentinel() {
		return fmt.Errorf("allocation %q: cannot allocate to the no-category marker", v)
	}
	m, err := core.ParseMoney(strings.TrimSpace(amount))
	if err != nil {
		return fmt.Errorf("allocation %q: %w", v, err)
	}
	a[cat] = m
	return nil
}

// yearMonthFlag parses a YYYY-MM flag value.
type yearMonthFlag struct {
	ym  core.YearMonth
	set bool
}

func (f *yearMonthFlag) String() string {
	if !f.set {
		return ""
	}
	return f.ym.String()
}

func (f *yearMonthFlag) Set(v string) error {
	ym, err := core.ParseYearMonth(v)
	if err != nil {
		return err
	}
	f.ym, f.set = ym, true
	return nil
}
