// Package navigation implements the bounded cursor state machine.
package navigation

import (
	"strconv"
	"time"

	"stipendi/internal/core"
)

const (
	Back    = -1
	Forward = +1
)

// Navigator moves a cursor through display-ordered months and bounded years.
type Navigator struct {
	Bounds core.Bounds
}

func New(b core.Bounds) Navigator {
	return Navigator{Bounds: b}
}

// SelectMonth sets the month, keeping the year.
func (n Navigator) SelectMonth(c core.Cursor, code core.MonthCode) (core.Cursor, error) {
	if !code.Valid() {
		return c, &core.ValidationError{Field: "monthId", Value: string(code), Err: core.ErrUnknownMonth}
	}
	c.Month = code
	return c, nil
}

// StepMonth moves one position in display order. Crossing either end wraps the
// month and carries the year, which is then clamped rather than wrapped.
func (n Navigator) StepMonth(c core.Cursor, dir int) core.Cursor {
	c = n.Clamp(c)
	if dir == 0 {
		return c
	}
	step := Forward
	if dir < 0 {
		step = Back
	}
	i := c.Month.Index() + step
	year := c.Year
	switch {
	case i < 0:
		i = len(core.Months) - 1
		year--
	case i >= len(core.Months):
		i = 0
		year++
	}
	return core.Cursor{Year: n.Bounds.ClampYear(year), Month: core.Months[i].Code}
}

// SetYear replaces the year; out of bounds years are ignored.
func (n Navigator) SetYear(c core.Cursor, year int) core.Cursor {
	if !n.Bounds.Contains(year) {
		return c
	}
	c.Year = year
	return c
}

// StepYear moves one year when the result stays in bounds.
func (n Navigator) StepYear(c core.Cursor, dir int) core.Cursor {
	switch {
	case dir > 0:
		return n.SetYear(c, c.Year+1)
	case dir < 0:
		return n.SetYear(c, c.Year-1)
	}
	return c
}

// Clamp repairs a cursor coming from storage or an import: the year is pinned
// into bounds and an unknown month falls back to January.
func (n Navigator) Clamp(c core.Cursor) core.Cursor {
	c.Year = n.Bounds.ClampYear(c.Year)
	if !c.Month.Valid() {
		c.Month = core.January
	}
	return c
}

// YearOption is one entry of the year picker.
type YearOption struct {
	Year     int    `json:"year"`
	Label    string `json:"label"`
	Current  bool   `json:"current"`
	Selected bool   `json:"selected"`
}

// YearOptions lists every year in bounds, marking the real current year.
func (n Navigator) YearOptions(c core.Cursor, now time.Time) []YearOption {
	out := make([]YearOption, 0, n.Bounds.End-n.Bounds.Start+1)
	for y := n.Bounds.Start; y <= n.Bounds.End; y++ {
		label := strconv.Itoa(y)
		if y == now.Year() {
			label += " (Corrente)"
		}
		out = append(out, YearOption{Year: y, Label: label, Current: y == now.Year(), Selected: y == c.Year})
	}
	return out
}
