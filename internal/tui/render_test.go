package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stipendi/internal/core"
	"stipendi/internal/view"
)

func sampleState(t *testing.T) core.LedgerState {
	t.Helper()
	s := core.NewState(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), core.DefaultBounds())
	require.NoError(t, s.SetAmount(2026, core.January, "2000"))
	require.NoError(t, s.SetAmount(2026, core.Tredicesima, "1500,50"))
	require.NoError(t, s.SetAmount(2025, core.January, "1900"))
	return s
}

func TestDashboard(t *testing.T) {
	s := sampleState(t)
	out := Dashboard(view.Build(s, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), core.DefaultBounds()))

	for _, want := range []string{"Marzo 2026", "Gen", "14ª", "13ª", "Totale", "3.500,50 €", "2 / 14", "Tredicesima", "Aprile"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "-", "missing months show a dash")
}

func TestGridOrder(t *testing.T) {
	s := sampleState(t)
	out := Grid(Light, view.MonthlyGrid(s, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)))

	giu := strings.Index(out, "Giu")
	quattordicesima := strings.Index(out, "14ª")
	lug := strings.Index(out, "Lug")
	require.True(t, giu >= 0 && quattordicesima >= 0 && lug >= 0)
	assert.Less(t, giu, quattordicesima)
	assert.Less(t, quattordicesima, lug, "14ª sits between June and July")
}

func TestComparison(t *testing.T) {
	s := sampleState(t)
	out := Comparison(Dark, view.Compare(s, 2026, 2025))

	assert.Contains(t, out, "2026 vs 2025")
	assert.Contains(t, out, "Differenza")
	assert.Contains(t, out, "1.600,50 €")
}

func TestFor(t *testing.T) {
	assert.Equal(t, Dark.Primary, For(core.ThemeDark).Primary)
	assert.Equal(t, Light.Primary, For(core.ThemeLight).Primary)
	assert.Equal(t, Light.Primary, For(core.Theme("")).Primary)
}
