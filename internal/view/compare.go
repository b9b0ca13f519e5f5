package view

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"stipendi/internal/aggregate"
	"stipendi/internal/core"
)

type (
	DeltaPoint struct {
		Month core.MonthCode  `json:"monthId"`
		Value decimal.Decimal `json:"value"`
		Label string          `json:"label"`
	}

	// Comparison feeds a grouped bar chart of two years with per-month deltas.
	Comparison struct {
		YearA  int               `json:"yearA"`
		YearB  int               `json:"yearB"`
		Labels []string          `json:"labels"`
		A      []decimal.Decimal `json:"a"`
		B      []decimal.Decimal `json:"b"`
		Deltas []DeltaPoint      `json:"deltas"`
		Delta  DeltaPoint        `json:"delta"`
	}
)

// Compare projects years a and b side by side. Values keep full precision;
// only the labels are abbreviated.
func Compare(s core.LedgerState, a, b int) Comparison {
	per := aggregate.PerMonthDelta(s, a, b)
	c := Comparison{
		YearA:  a,
		YearB:  b,
		Labels: make([]string, 0, len(per)),
		A:      make([]decimal.Decimal, 0, len(per)),
		B:      make([]decimal.Decimal, 0, len(per)),
		Deltas: make([]DeltaPoint, 0, len(per)),
	}
	for i, d := range per {
		c.Labels = append(c.Labels, core.Months[i].Short)
		c.A = append(c.A, d.A)
		c.B = append(c.B, d.B)
		c.Deltas = append(c.Deltas, DeltaPoint{Month: d.Month, Value: d.Delta, Label: DeltaLabel(d.Delta)})
	}
	total := aggregate.Delta(s, a, b)
	c.Delta = DeltaPoint{Value: total, Label: DeltaLabel(total)}
	return c
}

// DeltaLabel renders a signed compact label: "+1.2k", "-350", "0".
func DeltaLabel(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	f, _ := d.Float64()
	sign := "+"
	if f < 0 {
		sign = "-"
	}
	f = math.Abs(f)
	if f < 1000 {
		r := math.Round(f)
		if r == 0 {
			return "0"
		}
		return sign + strconv.FormatFloat(r, 'f', -1, 64)
	}
	return sign + strings.ReplaceAll(humanize.SIWithDigits(f, 1, ""), " ", "")
}

func itoa(n int) string { return strconv.Itoa(n) }
