package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"stipendi/internal/core"
)

func TestMirrorAndReadBack(t *testing.T) {
	m := New()
	s := core.NewState(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), core.DefaultBounds())
	if err := s.SetAmount(2026, core.Quattordicesima, "1800"); err != nil {
		t.Fatal(err)
	}

	res, err := m.Mirror(context.Background(), s)
	if err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}
	if res.Years != 1 || res.Range != "mem:A1:P2" || res.Cells != 32 {
		t.Errorf("unexpected result %+v", res)
	}

	got, err := m.ReadGrid(context.Background())
	if err != nil {
		t.Fatalf("ReadGrid() error = %v", err)
	}
	a, ok := got[2026][core.Quattordicesima]
	if !ok || a.String() != "1800" {
		t.Errorf("2026/14 = %v, %v", a, ok)
	}
	if m.Writes() != 1 || len(m.Grid()) != 2 {
		t.Errorf("writes=%d grid rows=%d", m.Writes(), len(m.Grid()))
	}
}

func TestMirrorFailure(t *testing.T) {
	m := New()
	boom := errors.New("quota exceeded")
	m.Fail(boom)
	if _, err := m.Mirror(context.Background(), core.LedgerState{}); !errors.Is(err, boom) {
		t.Errorf("Mirror() error = %v, want %v", err, boom)
	}
	m.Fail(nil)
	if _, err := m.Mirror(context.Background(), core.LedgerState{}); err != nil {
		t.Errorf("Mirror() after reset error = %v", err)
	}
}
