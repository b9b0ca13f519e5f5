package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stipendi/internal/amqp"
	"stipendi/internal/core"
	"stipendi/internal/persistence"
	remotemem "stipendi/internal/remote/memory"
	sheetsmem "stipendi/internal/sheets/memory"
	"stipendi/internal/storage/memory"
)

const remoteLedger = `{"view":{"year":2026,"monthId":"03"},"salaries":{"2025":{"01":"2000","14":"1500"},"2026":{"03":2100.5}},"theme":"dark"}`

type fixture struct {
	remote *remotemem.Store
	mirror *sheetsmem.Mirror
	worker *MirrorWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rs := remotemem.NewWithContent([]byte(remoteLedger))
	adapter, err := persistence.NewAdapter(persistence.Options{
		Local:  memory.New(),
		Remote: rs,
		Bounds: core.DefaultBounds(),
		Now:    func() time.Time { return time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	m := sheetsmem.New()
	return &fixture{remote: rs, mirror: m, worker: NewMirrorWorker(adapter, m, nil)}
}

func committed(rev string) *amqp.SyncReportMessage {
	return amqp.NewSyncReportMessage(core.SyncReport{Stamp: 3, Status: core.SyncOK, Revision: rev})
}

func TestHandleSyncReport_MirrorsCommittedRevision(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.worker.HandleSyncReport(context.Background(), committed("abc")))
	assert.Equal(t, 1, f.worker.Mirrored())

	got, err := f.mirror.ReadGrid(context.Background())
	require.NoError(t, err)
	a, ok := got[2026][core.MonthCode("03")]
	require.True(t, ok)
	assert.Equal(t, "2100.5", a.String())
	assert.Len(t, got[2025], 2)
}

func TestHandleSyncReport_SkipsDuplicatesAndFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.worker.HandleSyncReport(ctx, committed("abc")))
	require.NoError(t, f.worker.HandleSyncReport(ctx, committed("abc")))
	assert.Equal(t, 1, f.mirror.Writes())

	failed := amqp.NewSyncReportMessage(core.SyncReport{Stamp: 4, Status: core.SyncFailed, Kind: core.SyncConflict})
	require.NoError(t, f.worker.HandleSyncReport(ctx, failed))
	skipped := amqp.NewSyncReportMessage(core.SyncReport{Stamp: 5, Status: core.SyncSkipped})
	require.NoError(t, f.worker.HandleSyncReport(ctx, skipped))
	assert.Equal(t, 1, f.mirror.Writes())

	require.NoError(t, f.worker.HandleSyncReport(ctx, committed("def")))
	assert.Equal(t, 2, f.mirror.Writes())
}

func TestHandleSyncReport_RemoteDownLeavesMirror(t *testing.T) {
	f := newFixture(t)
	f.remote.FailFetch(errors.New("boom"))

	err := f.worker.HandleSyncReport(context.Background(), committed("abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not remote")
	assert.Zero(t, f.mirror.Writes())

	// The revision is retried once the remote is back.
	f.remote.FailFetch(nil)
	require.NoError(t, f.worker.HandleSyncReport(context.Background(), committed("abc")))
	assert.Equal(t, 1, f.mirror.Writes())
}

func TestHandleSyncReport_MirrorError(t *testing.T) {
	f := newFixture(t)
	f.mirror.Fail(errors.New("quota exceeded"))

	err := f.worker.HandleSyncReport(context.Background(), committed("abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror ledger")
	assert.Zero(t, f.worker.Mirrored())
}

func TestStartupAndPeriodicMirror(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.worker.StartupMirror(ctx))
	require.NoError(t, f.worker.PeriodicMirror(ctx))
	assert.Equal(t, 2, f.mirror.Writes())

	f.remote.FailFetch(errors.New("offline"))
	err := f.worker.StartupMirror(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup mirror")
}
