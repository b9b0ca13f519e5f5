package sheets

import (
	"testing"
	"time"

	"stipendi/internal/core"
)

func stateFor(t *testing.T) core.LedgerState {
	t.Helper()
	s := core.NewState(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), core.DefaultBounds())
	for _, e := range []struct {
		year int
		code core.MonthCode
		raw  string
	}{
		{2026, core.January, "2100"},
		{2024, core.Quattordicesima, "0"},
		{2024, core.December, "1999,99"},
	} {
		if err := s.SetAmount(e.year, e.code, e.raw); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestBuildGrid(t *testing.T) {
	g := BuildGrid(stateFor(t))

	if len(g) != 3 {
		t.Fatalf("rows = %d, want 3", len(g))
	}
	if g[0][0] != HeaderYear || g[0][7] != "14ª" || g[0][14] != "13ª" || g[0][15] != HeaderTotal {
		t.Errorf("header = %v", g[0])
	}
	if g[1][0] != 2024 || g[2][0] != 2026 {
		t.Errorf("years not ascending: %v, %v", g[1][0], g[2][0])
	}
	if g[1][7] != 0.0 {
		t.Errorf("stored zero = %#v, want 0.0", g[1][7])
	}
	if g[1][1] != "" {
		t.Errorf("absent month = %#v, want empty cell", g[1][1])
	}
	if g[1][15] != 1999.99 {
		t.Errorf("total = %#v", g[1][15])
	}
}

func TestParseGridRoundTrip(t *testing.T) {
	s := stateFor(t)
	got, err := ParseGrid(BuildGrid(s))
	if err != nil {
		t.Fatalf("ParseGrid() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("years = %d, want 2", len(got))
	}
	zero, ok := got[2024][core.Quattordicesima]
	if !ok || !zero.IsZero() {
		t.Errorf("stored zero lost: %v, %v", zero, ok)
	}
	if _, ok := got[2024][core.January]; ok {
		t.Error("absent month became present")
	}
}

func TestParseGridFormattedCells(t *testing.T) {
	values := [][]any{
		Header(),
		{"2025", "2.500,50 €", "", "", "", "", "", "", "", "", "", "", "", "", "", "ignored"},
	}
	got, err := ParseGrid(values)
	if err != nil {
		t.Fatalf("ParseGrid() error = %v", err)
	}
	if a := got[2025][core.January]; a.String() != "2500.5" {
		t.Errorf("Gen 2025 = %s, want 2500.5", a)
	}
}

func TestParseGridErrors(t *testing.T) {
	tests := map[string][][]any{
		"missing year column":  {{"Gen", "Feb"}},
		"missing month column": {{"Anno", "Gen"}},
		"bad year":             {Header(), {"duemila"}},
		"bad amount":           {Header(), {"2025", "tanti"}},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseGrid(values); err == nil {
				t.Error("expected error")
			}
		})
	}

	got, err := ParseGrid(nil)
	if err != nil || len(got) != 0 {
		t.Errorf("empty grid: %v, %v", got, err)
	}
}

func TestA1AndColumnLetter(t *testing.T) {
	if got := A1("Il mio foglio", "A1:P3"); got != "'Il mio foglio'!A1:P3" {
		t.Errorf("A1 = %q", got)
	}
	if got := A1("L'anno", "A:A"); got != "'L''anno'!A:A" {
		t.Errorf("A1 with quote = %q", got)
	}
	for n, want := range map[int]string{1: "A", 16: "P", 26: "Z", 27: "AA"} {
		if got := ColumnLetter(n); got != want {
			t.Errorf("ColumnLetter(%d) = %q, want %q", n, got, want)
		}
	}
}
