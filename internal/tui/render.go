package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stipendi/internal/format"
	"stipendi/internal/view"
)

const (
	markerData    = "•"
	markerNoData  = " "
	cellsPerRow   = 7
	tableLabelCol = 16
)

// Dashboard renders the full screen: title, month grid, KPIs and table.
func Dashboard(d view.Dashboard) string {
	th := For(d.Theme)
	return lipgloss.JoinVertical(lipgloss.Left,
		th.Title.Render("Stipendi "+d.Form.Title),
		Grid(th, d.Grid),
		KPIs(th, d.KPI),
		Table(th, d.Table),
	)
}

// Grid draws the 14 months in two rows of seven, in display order.
func Grid(th Theme, cells []view.GridCell) string {
	var rows []string
	for start := 0; start < len(cells); start += cellsPerRow {
		end := min(start+cellsPerRow, len(cells))
		parts := make([]string, 0, cellsPerRow)
		for _, c := range cells[start:end] {
			parts = append(parts, gridCell(th, c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}
	return th.Box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func gridCell(th Theme, c view.GridCell) string {
	marker := markerNoData
	if c.HasData {
		marker = markerData
	}
	label := c.Short
	if c.IsCurrentMonth {
		label = th.Current.Render(label)
	}
	text := label + marker
	switch {
	case c.Selected:
		return th.Selected.Render(text)
	case c.HasData:
		return th.Filled.Render(text)
	default:
		return th.Cell.Render(text)
	}
}

// KPIs draws the yearly indicators side by side.
func KPIs(th Theme, k view.KPI) string {
	box := func(label, value string) string {
		return th.Box.Render(th.Label.Render(label) + "\n" + th.Value.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("Totale", format.Euro(k.Total)),
		box("Media", format.Euro(k.Average)),
		box("Massimo", format.Euro(k.Max)),
		box("Mesi", format.Progress(k.Count, k.Slots)),
	)
}

// Table lists every month of the year with its amount or a dash.
func Table(th Theme, rows []view.TableRow) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := th.Label.Width(tableLabelCol).Render(r.Month.Full)
		b.WriteString(label + th.Value.Render(format.EuroOrMissing(r.Amount, r.HasData)))
	}
	return th.Box.Render(b.String())
}

// Comparison draws per-month deltas between two years and the total delta.
func Comparison(th Theme, c view.Comparison) string {
	var b strings.Builder
	b.WriteString(th.Title.Render(strconv.Itoa(c.YearA) + " vs " + strconv.Itoa(c.YearB)))
	for i, d := range c.Deltas {
		b.WriteByte('\n')
		b.WriteString(th.Label.Width(tableLabelCol).Render(c.Labels[i]))
		b.WriteString(th.Value.Width(14).Render(format.Number(c.A[i])))
		b.WriteString(th.Value.Width(14).Render(format.Number(c.B[i])))
		b.WriteString(deltaStyle(th, d).Render(d.Label))
	}
	b.WriteString("\n" + th.Label.Width(tableLabelCol).Render("Differenza"))
	b.WriteString(deltaStyle(th, c.Delta).Render(format.Euro(c.Delta.Value)))
	return th.Box.Render(b.String())
}

func deltaStyle(th Theme, d view.DeltaPoint) lipgloss.Style {
	switch d.Value.Sign() {
	case 1:
		return th.Positive
	case -1:
		return th.Negative
	default:
		return th.Subtitle
	}
}
