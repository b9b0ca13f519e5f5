package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stipendi/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestKeyValueRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.Get(ctx, "salary_data_v2"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := repo.Set(ctx, "salary_data_v2", `{"a":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "salary_data_v2", `{"a":2}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := repo.Get(ctx, "salary_data_v2")
	if err != nil || !ok || v != `{"a":2}` {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
	if err := repo.Delete(ctx, "salary_data_v2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "salary_data_v2"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

func TestRecordSync(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	reports := []core.SyncReport{
		{Stamp: 1, Status: core.SyncFailed, Kind: core.SyncNetwork, Error: "dial tcp", At: base},
		{Stamp: 2, Status: core.SyncOK, Revision: "abc", At: base.Add(time.Minute)},
	}
	for _, r := range reports {
		if err := repo.RecordSync(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := repo.RecentSyncs(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got))
	}
	if got[0].Stamp != 2 || got[0].Status != core.SyncOK || got[0].Revision != "abc" {
		t.Fatalf("unexpected newest report %+v", got[0])
	}
	if got[1].Kind != core.SyncNetwork || got[1].ID == "" {
		t.Fatalf("unexpected oldest report %+v", got[1])
	}
}
