package memory

import (
	"context"
	"testing"
	"time"

	"stipendi/internal/core"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected empty store")
	}
	_ = s.Set(ctx, "k", "v1")
	_ = s.Set(ctx, "k", "v2")
	if v, ok, _ := s.Get(ctx, "k"); !ok || v != "v2" {
		t.Fatalf("got %q", v)
	}
	if s.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", s.Writes())
	}
	_ = s.Delete(ctx, "k")
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected deleted")
	}
}

func TestRecentSyncs(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()
	_ = s.RecordSync(ctx, core.SyncReport{Stamp: 1, At: base})
	_ = s.RecordSync(ctx, core.SyncReport{Stamp: 2, At: base.Add(time.Second)})
	_ = s.RecordSync(ctx, core.SyncReport{Stamp: 3, At: base.Add(2 * time.Second)})
	got, _ := s.RecentSyncs(ctx, 2)
	if len(got) != 2 || got[0].Stamp != 3 || got[1].Stamp != 2 {
		t.Fatalf("unexpected order %+v", got)
	}
}
