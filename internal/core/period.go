package core

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Period returns the year-month the date falls in.
func (d Date) Period() YearMonth {
	return YearMonth{Year: d.Year(), Month: int(d.Month())}
}

// MarshalJSON writes the date as "YYYY-MM-DD", or "" for the zero date.
// time.Time's own marshaller would otherwise be promoted.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Older documents carry full timestamps.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", s, err)
		}
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// YearMonth is a calendar month. Its text form is YYYY-MM.
type YearMonth struct {
	Year  int
	Month int // 1-12
}

// Validate checks that the month is in range.
func (ym YearMonth) Validate() error {
	if ym.Month < 1 || ym.Month > 12 {
		return ErrInvalidMonth
	}
	if ym.Year < 1 || ym.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// Ordinal is a monotonically increasing month number, one per calendar month.
func (ym YearMonth) Ordinal() int {
	return ym.Year*12 + ym.Month - 1
}

// FromOrdinal is the inverse of Ordinal.
func FromOrdinal(o int) YearMonth {
	return YearMonth{Year: o / 12, Month: o%12 + 1}
}

func (ym YearMonth) Next() YearMonth { return FromOrdinal(ym.Ordinal() + 1) }
func (ym YearMonth) Prev() YearMonth { return FromOrdinal(ym.Ordinal() - 1) }

func (ym YearMonth) Before(o YearMonth) bool { return ym.Ordinal() < o.Ordinal() }

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// ParseYearMonth parses YYYY-MM.
func ParseYearMonth(s string) (YearMonth, error) {
	var ym YearMonth
	if _, err := fmt.Sscanf(s, "%4d-%2d", &ym.Year, &ym.Month); err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	if err := ym.Validate(); err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return ym, nil
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
