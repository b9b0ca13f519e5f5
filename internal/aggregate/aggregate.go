// Package aggregate derives totals, averages and deltas from a ledger.
//
// Every function is pure: it reads the state and never mutates it. All 14
// month codes are treated alike; display order only matters for slices that
// feed charts.
package aggregate

import (
	"github.com/shopspring/decimal"

	"stipendi/internal/core"
)

// BaseMonths is the divisor of Average. Extra payments are spread over the
// 12-month base, so the count of filled slots is irrelevant.
const BaseMonths = 12

var baseMonths = decimal.NewFromInt(BaseMonths)

type (
	// MonthDelta is the signed difference of one month code between two years.
	MonthDelta struct {
		Month core.MonthCode
		A     decimal.Decimal
		B     decimal.Decimal
		Delta decimal.Decimal
	}

	YearTotal struct {
		Year  int
		Total decimal.Decimal
	}
)

// Total sums every present amount of year.
func Total(s core.LedgerState, year int) decimal.Decimal {
	return s.YearTotal(year)
}

// Average is Total / 12, or 0 when the year has no entries.
func Average(s core.LedgerState, year int) decimal.Decimal {
	if s.YearCompletionCount(year) == 0 {
		return decimal.Zero
	}
	return Total(s, year).Div(baseMonths)
}

// Max returns the largest present amount of year, or 0 if none.
func Max(s core.LedgerState, year int) decimal.Decimal {
	max := decimal.Zero
	for _, a := range s.Salaries[year] {
		if a.Decimal().GreaterThan(max) {
			max = a.Decimal()
		}
	}
	return max
}

// CompletionCount is the number of filled slots of year, out of core.SlotsPerYear.
func CompletionCount(s core.LedgerState, year int) int {
	return s.YearCompletionCount(year)
}

// Delta is Total(a) - Total(b).
func Delta(s core.LedgerState, a, b int) decimal.Decimal {
	return Total(s, a).Sub(Total(s, b))
}

// PerMonthDelta compares every month code of a and b, absent counting as 0.
// The result follows display order and always sums to Delta(a, b).
func PerMonthDelta(s core.LedgerState, a, b int) [core.SlotsPerYear]MonthDelta {
	var out [core.SlotsPerYear]MonthDelta
	for i, m := range core.Months {
		va := amountOrZero(s, a, m.Code)
		vb := amountOrZero(s, b, m.Code)
		out[i] = MonthDelta{Month: m.Code, A: va, B: vb, Delta: va.Sub(vb)}
	}
	return out
}

// YearsInRange returns one entry per year in [from, to] clipped to bounds,
// including empty years so the timeline stays contiguous. A reversed range is
// normalised; a range entirely outside bounds yields nil.
func YearsInRange(s core.LedgerState, from, to int, b core.Bounds) []YearTotal {
	if from > to {
		from, to = to, from
	}
	if to < b.Start || from > b.End {
		return nil
	}
	from, to = b.ClampYear(from), b.ClampYear(to)
	out := make([]YearTotal, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, YearTotal{Year: y, Total: Total(s, y)})
	}
	return out
}

func amountOrZero(s core.LedgerState, year int, code core.MonthCode) decimal.Decimal {
	if a, ok := s.Amount(year, code); ok {
		return a.Decimal()
	}
	return decimal.Zero
}
