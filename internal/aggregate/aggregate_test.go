package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stipendi/internal/core"
)

func stateWith(t *testing.T, entries map[int]map[core.MonthCode]string) core.LedgerState {
	t.Helper()
	var s core.LedgerState
	for year, months := range entries {
		for code, raw := range months {
			require.NoError(t, s.SetAmount(year, code, raw))
		}
	}
	return s
}

func TestAverageDividesByTwelve(t *testing.T) {
	s := stateWith(t, map[int]map[core.MonthCode]string{
		2025: {core.January: "1000", core.February: "1000"},
	})

	avg := Average(s, 2025)
	want := decimal.NewFromInt(2000).Div(decimal.NewFromInt(12))
	assert.True(t, avg.Equal(want), "got %s want %s", avg, want)
	assert.Equal(t, "166.67", avg.StringFixed(2))
}

func TestEmptyYear(t *testing.T) {
	var s core.LedgerState
	assert.True(t, Total(s, 2030).IsZero())
	assert.True(t, Average(s, 2030).IsZero())
	assert.True(t, Max(s, 2030).IsZero())
	assert.Equal(t, 0, CompletionCount(s, 2030))
}

func TestMax(t *testing.T) {
	s := stateWith(t, map[int]map[core.MonthCode]string{
		2024: {core.January: "1500", core.Tredicesima: "2100.5", core.June: "0"},
	})
	assert.Equal(t, "2100.5", Max(s, 2024).String())
}

func TestDeltaAndPerMonthDelta(t *testing.T) {
	a := map[core.MonthCode]string{}
	b := map[core.MonthCode]string{}
	for i, m := range core.Months {
		if i < 12 {
			a[m.Code] = "2000"
		}
		if i < 10 {
			b[m.Code] = "2000"
		}
	}
	s := stateWith(t, map[int]map[core.MonthCode]string{2025: a, 2024: b})

	require.Equal(t, "24000", Total(s, 2025).String())
	require.Equal(t, "20000", Total(s, 2024).String())
	assert.Equal(t, "4000", Delta(s, 2025, 2024).String())
	assert.Equal(t, "-4000", Delta(s, 2024, 2025).String())

	sum := decimal.Zero
	per := PerMonthDelta(s, 2025, 2024)
	for i, d := range per {
		assert.Equal(t, core.Months[i].Code, d.Month)
		sum = sum.Add(d.Delta)
	}
	assert.Equal(t, "4000", sum.String())
}

func TestYearsInRange(t *testing.T) {
	s := stateWith(t, map[int]map[core.MonthCode]string{
		2016: {core.March: "100"},
	})
	b := core.Bounds{Start: 2015, End: 2018}

	got := YearsInRange(s, 2010, 2030, b)
	require.Len(t, got, 4)
	assert.Equal(t, 2015, got[0].Year)
	assert.Equal(t, 2018, got[3].Year)
	assert.Equal(t, "100", got[1].Total.String())
	assert.True(t, got[2].Total.IsZero())

	assert.Len(t, YearsInRange(s, 2017, 2016, b), 2)
	assert.Nil(t, YearsInRange(s, 2000, 2010, b))
}
