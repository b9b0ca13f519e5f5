package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	// SlotsPerYear is the completion denominator: 12 months plus the two extra payments.
	SlotsPerYear = 14

	DefaultStartYear = 2015
	DefaultEndYear   = 2060
)

type (
	Theme string

	// Cursor is the (year, month) pair driving the active view.
	Cursor struct {
		Year  int       `json:"year"`
		Month MonthCode `json:"monthId"`
	}

	// Bounds is the configured inclusive year range.
	Bounds struct {
		Start int
		End   int
	}

	MonthAmounts map[MonthCode]Amount

	// Salaries maps a year to its recorded monthly amounts. Absence means "no data".
	Salaries map[int]MonthAmounts

	// LedgerState is the root persisted and synced object.
	LedgerState struct {
		View     Cursor   `json:"view"`
		Salaries Salaries `json:"salaries"`
		Theme    Theme    `json:"theme"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrUnknownMonth    = errors.New("unknown month code")
	ErrMissingSalaries = errors.New("missing salaries field")
	ErrYearOutOfBounds = errors.New("year out of bounds")
)

// DefaultBounds returns the 2015-2060 range.
func DefaultBounds() Bounds {
	return Bounds{Start: DefaultStartYear, End: DefaultEndYear}
}

// Validate checks that the range is not inverted.
func (b Bounds) Validate() error {
	if b.Start > b.End {
		return fmt.Errorf("invalid year bounds %d-%d: start after end", b.Start, b.End)
	}
	return nil
}

func (b Bounds) Contains(year int) bool {
	return year >= b.Start && year <= b.End
}

// ClampYear pins year into the range.
func (b Bounds) ClampYear(year int) int {
	if year < b.Start {
		return b.Start
	}
	if year > b.End {
		return b.End
	}
	return year
}

// Valid reports whether the cursor points at a known month inside bounds.
func (c Cursor) Valid(b Bounds) bool {
	return b.Contains(c.Year) && c.Month.Valid()
}

func (c Cursor) String() string {
	return fmt.Sprintf("%04d-%s", c.Year, c.Month)
}

// CursorAt returns the cursor for the calendar month of t, clamped to bounds.
func CursorAt(t time.Time, b Bounds) Cursor {
	return Cursor{Year: b.ClampYear(t.Year()), Month: MonthCodeOf(t.Month())}
}

// ParseTheme maps anything other than "dark" to the light theme.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle flips between light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// NewState builds the default state: cursor on the current month, no salaries.
func NewState(now time.Time, b Bounds) LedgerState {
	return LedgerState{
		View:     CursorAt(now, b),
		Salaries: Salaries{},
		Theme:    ThemeLight,
	}
}

// Amount returns the recorded amount for (year, code), if any.
func (s LedgerState) Amount(year int, code MonthCode) (Amount, bool) {
	months, ok := s.Salaries[year]
	if !ok {
		return Amount{}, false
	}
	a, ok := months[code]
	return a, ok
}

// SetAmount parses raw and stores it for (year, code). Blank input removes the entry.
// On error the state is left untouched.
func (s *LedgerState) SetAmount(year int, code MonthCode, raw string) error {
	if !code.Valid() {
		return &ValidationError{Field: "monthId", Value: string(code), Err: ErrUnknownMonth}
	}
	if IsBlank(raw) {
		s.Delete(year, code)
		return nil
	}
	a, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	s.Put(year, code, a)
	return nil
}

// Put stores an already validated amount.
func (s *LedgerState) Put(year int, code MonthCode, a Amount) {
	if s.Salaries == nil {
		s.Salaries = Salaries{}
	}
	months, ok := s.Salaries[year]
	if !ok {
		months = MonthAmounts{}
		s.Salaries[year] = months
	}
	months[code] = a
}

// Delete removes the entry for (year, code) and prunes an emptied year.
func (s *LedgerState) Delete(year int, code MonthCode) {
	months, ok := s.Salaries[year]
	if !ok {
		return
	}
	delete(months, code)
	if len(months) == 0 {
		delete(s.Salaries, year)
	}
}

// YearTotal sums every present amount of year.
func (s LedgerState) YearTotal(year int) decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.Salaries[year] {
		total = total.Add(a.Decimal())
	}
	return total
}

// YearCompletionCount counts present entries of year, out of SlotsPerYear.
func (s LedgerState) YearCompletionCount(year int) int {
	return len(s.Salaries[year])
}

// Clone returns a deep copy.
func (s LedgerState) Clone() LedgerState {
	out := LedgerState{View: s.View, Theme: s.Theme, Salaries: make(Salaries, len(s.Salaries))}
	for year, months := range s.Salaries {
		cp := make(MonthAmounts, len(months))
		for code, a := range months {
			cp[code] = a
		}
		out.Salaries[year] = cp
	}
	return out
}

// Equal compares cursor, theme and every amount by value.
func (s LedgerState) Equal(o LedgerState) bool {
	if s.View != o.View || s.Theme != o.Theme {
		return false
	}
	if len(s.Salaries) != len(o.Salaries) {
		return false
	}
	for year, months := range s.Salaries {
		other, ok := o.Salaries[year]
		if !ok || len(other) != len(months) {
			return false
		}
		for code, a := range months {
			b, ok := other[code]
			if !ok || !a.Equal(b) {
				return false
			}
		}
	}
	return true
}
