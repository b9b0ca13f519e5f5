// Package view turns a ledger into render-ready projections.
//
// Projections never mutate the state and do no I/O. Amounts stay numeric;
// currency formatting belongs to the renderer (see internal/format).
package view

import (
	"time"

	"github.com/shopspring/decimal"

	"stipendi/internal/aggregate"
	"stipendi/internal/core"
	"stipendi/internal/navigation"
)

type (
	GridCell struct {
		core.MonthDescriptor
		Selected       bool `json:"isSelected"`
		HasData        bool `json:"hasData"`
		IsCurrentMonth bool `json:"isRealCurrentMonth"`
	}

	SeriesPoint struct {
		Month core.MonthCode  `json:"monthId"`
		Label string          `json:"label"`
		Value decimal.Decimal `json:"value"`
	}

	YearPoint struct {
		Year      int             `json:"year"`
		Total     decimal.Decimal `json:"total"`
		Highlight bool            `json:"highlight"`
	}

	KPI struct {
		Year    int             `json:"year"`
		Total   decimal.Decimal `json:"total"`
		Average decimal.Decimal `json:"average"`
		Max     decimal.Decimal `json:"max"`
		Count   int             `json:"count"`
		Slots   int             `json:"slots"`
	}

	TableRow struct {
		Month   core.MonthDescriptor `json:"month"`
		Amount  decimal.Decimal      `json:"amount"`
		HasData bool                 `json:"hasData"`
	}

	// Form describes the amount editor for the cursor month.
	Form struct {
		Cursor core.Cursor `json:"cursor"`
		Title  string      `json:"title"`
		Value  string      `json:"value"`
	}

	Dashboard struct {
		Theme  core.Theme              `json:"theme"`
		Cursor core.Cursor             `json:"cursor"`
		Grid   []GridCell              `json:"grid"`
		Series []SeriesPoint           `json:"series"`
		Yearly []YearPoint             `json:"yearly"`
		KPI    KPI                     `json:"kpi"`
		Table  []TableRow              `json:"table"`
		Form   Form                    `json:"form"`
		Years  []navigation.YearOption `json:"years"`
	}
)

// MonthlyGrid flags the 14 months of the cursor year in display order.
// HasData is about presence: a stored zero counts as data.
func MonthlyGrid(s core.LedgerState, now time.Time) []GridCell {
	current := core.MonthCodeOf(now.Month())
	out := make([]GridCell, 0, core.SlotsPerYear)
	for _, m := range core.Months {
		_, has := s.Amount(s.View.Year, m.Code)
		out = append(out, GridCell{
			MonthDescriptor: m,
			Selected:        m.Code == s.View.Month,
			HasData:         has,
			IsCurrentMonth:  s.View.Year == now.Year() && m.Code == current,
		})
	}
	return out
}

// MonthlySeries lists the 14 amounts of year, 0 for absent entries.
func MonthlySeries(s core.LedgerState, year int) []SeriesPoint {
	out := make([]SeriesPoint, 0, core.SlotsPerYear)
	for _, m := range core.Months {
		v := decimal.Zero
		if a, ok := s.Amount(year, m.Code); ok {
			v = a.Decimal()
		}
		out = append(out, SeriesPoint{Month: m.Code, Label: m.Short, Value: v})
	}
	return out
}

// YearlySeries lists per-year totals in [from, to] clipped to b.
func YearlySeries(s core.LedgerState, from, to, highlight int, b core.Bounds) []YearPoint {
	totals := aggregate.YearsInRange(s, from, to, b)
	out := make([]YearPoint, 0, len(totals))
	for _, yt := range totals {
		out = append(out, YearPoint{Year: yt.Year, Total: yt.Total, Highlight: yt.Year == highlight})
	}
	return out
}

// KPIFor returns the numeric summary of year.
func KPIFor(s core.LedgerState, year int) KPI {
	return KPI{
		Year:    year,
		Total:   aggregate.Total(s, year),
		Average: aggregate.Average(s, year),
		Max:     aggregate.Max(s, year),
		Count:   aggregate.CompletionCount(s, year),
		Slots:   core.SlotsPerYear,
	}
}

// Table lists the months of year with their amount, if recorded.
func Table(s core.LedgerState, year int) []TableRow {
	out := make([]TableRow, 0, core.SlotsPerYear)
	for _, m := range core.Months {
		row := TableRow{Month: m, Amount: decimal.Zero}
		if a, ok := s.Amount(year, m.Code); ok {
			row.Amount = a.Decimal()
			row.HasData = true
		}
		out = append(out, row)
	}
	return out
}

// FormFor builds the editor for the cursor month, e.g. "Gennaio 2026".
func FormFor(s core.LedgerState) Form {
	f := Form{Cursor: s.View}
	if d, ok := s.View.Month.Descriptor(); ok {
		f.Title = d.Full + " " + itoa(s.View.Year)
	}
	if a, ok := s.Amount(s.View.Year, s.View.Month); ok {
		f.Value = a.String()
	}
	return f
}

// Build assembles every projection needed to paint the main screen.
func Build(s core.LedgerState, now time.Time, b core.Bounds) Dashboard {
	year := s.View.Year
	return Dashboard{
		Theme:  s.Theme,
		Cursor: s.View,
		Grid:   MonthlyGrid(s, now),
		Series: MonthlySeries(s, year),
		Yearly: YearlySeries(s, b.Start, b.End, year, b),
		KPI:    KPIFor(s, year),
		Table:  Table(s, year),
		Form:   FormFor(s),
		Years:  navigation.New(b).YearOptions(s.View, now),
	}
}
