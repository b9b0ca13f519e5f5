package persistence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stipendi/internal/core"
	"stipendi/internal/remote"
	remotemem "stipendi/internal/remote/memory"
	"stipendi/internal/storage/memory"
)

var fixedNow = time.Date(2026, time.July, 4, 9, 30, 0, 0, time.UTC)

type collector struct {
	mu      sync.Mutex
	reports []core.SyncReport
}

func (c *collector) Notify(_ context.Context, rep core.SyncReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, rep)
}

func (c *collector) all() []core.SyncReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.SyncReport(nil), c.reports...)
}

type fixture struct {
	local   *memory.Store
	remote  *remotemem.Store
	creds   *Credentials
	notes   *collector
	syncer  *Syncer
	adapter *Adapter
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	f := &fixture{local: memory.New(), remote: remotemem.New(), notes: &collector{}}
	f.creds = NewCredentials(f.local)
	if token != "" {
		require.NoError(t, f.creds.Set(context.Background(), token))
	}
	f.syncer = NewSyncer(f.remote, f.creds, f.notes, f.local, nil, SyncerConfig{
		Timeout: 5 * time.Second,
		Now:     func() time.Time { return fixedNow },
	})
	var err error
	f.adapter, err = NewAdapter(Options{
		Local:  f.local,
		Remote: f.remote,
		Syncer: f.syncer,
		Bounds: core.DefaultBounds(),
		Now:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.syncer.Wait(ctx))
}

func sampleState(t *testing.T) core.LedgerState {
	t.Helper()
	s := core.LedgerState{View: core.Cursor{Year: 2025, Month: core.June}, Theme: core.ThemeDark}
	require.NoError(t, s.SetAmount(2025, core.June, "2100"))
	require.NoError(t, s.SetAmount(2025, core.Quattordicesima, "1900.40"))
	return s
}

func TestLoadFallsBackToDefault(t *testing.T) {
	f := newFixture(t, "")
	f.remote.FailFetch(errors.New("offline"))

	res, err := f.adapter.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Equal(t, core.Cursor{Year: 2026, Month: core.July}, res.State.View)
	assert.Empty(t, res.State.Salaries)
	require.Len(t, res.Fallbacks, 2)
	var se *core.SyncError
	assert.ErrorAs(t, res.Fallbacks[0], &se)
}

func TestLoadPrefersRemoteWithoutWriting(t *testing.T) {
	f := newFixture(t, "")
	remoteState := sampleState(t)
	content, err := RemoteContent(remoteState)
	require.NoError(t, err)
	f.remote.Overwrite(content)
	require.NoError(t, f.local.Set(context.Background(), StorageKey, `{"salaries":{"2020":{"01":1}}}`))

	res, err := f.adapter.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)
	assert.True(t, remoteState.Equal(res.State))

	stored, ok, _ := f.local.Get(context.Background(), StorageKey)
	require.True(t, ok)
	assert.Equal(t, `{"salaries":{"2020":{"01":1}}}`, stored, "the caller decides whether to adopt the remote result")
}

func TestLoadUsesLocalWhenRemoteUnusable(t *testing.T) {
	cases := map[string]func(f *fixture){
		"network error":     func(f *fixture) { f.remote.FailFetch(errors.New("dial tcp: timeout")) },
		"missing file":      func(f *fixture) {},
		"malformed content": func(f *fixture) { f.remote.Overwrite([]byte("<html>rate limited</html>")) },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "")
			setup(f)
			local := sampleState(t)
			raw, _ := Encode(local)
			require.NoError(t, f.local.Set(context.Background(), StorageKey, string(raw)))

			res, err := f.adapter.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, SourceLocal, res.Source)
			assert.True(t, local.Equal(res.State))
		})
	}
}

func TestLoadCorruptLocalGivesDefault(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.local.Set(context.Background(), StorageKey, "{not json"))

	res, err := f.adapter.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	var pe *core.ParseError
	require.ErrorAs(t, res.Fallbacks[len(res.Fallbacks)-1], &pe)
}

func TestLoadWithoutRemote(t *testing.T) {
	local := memory.New()
	a, err := NewAdapter(Options{Local: local, Bounds: core.DefaultBounds(), Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	res, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Len(t, res.Fallbacks, 1)
}

func TestSaveIsIdempotent(t *testing.T) {
	f := newFixture(t, "")
	s := sampleState(t)
	ctx := context.Background()

	require.NoError(t, f.adapter.Save(ctx, s, 1))
	first, _, _ := f.local.Get(ctx, StorageKey)
	require.NoError(t, f.adapter.Save(ctx, s, 1))
	second, _, _ := f.local.Get(ctx, StorageKey)
	assert.Equal(t, first, second)
	f.wait(t)
}

func TestSaveWithoutTokenStaysLocal(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.adapter.Save(context.Background(), sampleState(t), 1))
	f.wait(t)

	_, exists := f.remote.Content()
	assert.False(t, exists)
	reports := f.notes.all()
	require.Len(t, reports, 1)
	assert.Equal(t, core.SyncSkipped, reports[0].Status)
}

func TestSavePushesPrettyContent(t *testing.T) {
	f := newFixture(t, "tok")
	s := sampleState(t)
	require.NoError(t, f.adapter.Save(context.Background(), s, 1))
	f.wait(t)

	puts := f.remote.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, "Update 2026-07-04", puts[0].Message)
	assert.Empty(t, puts[0].Revision, "first write has no base revision")
	assert.True(t, strings.HasPrefix(string(puts[0].Content), "{\n  \"view\""))

	require.NoError(t, f.adapter.Save(context.Background(), s, 2))
	f.wait(t)
	puts = f.remote.Puts()
	require.Len(t, puts, 2)
	assert.NotEmpty(t, puts[1].Revision, "later writes carry the fetched revision")

	reports := f.notes.all()
	require.Len(t, reports, 2)
	assert.Equal(t, core.SyncOK, reports[1].Status)
	assert.Equal(t, uint64(2), reports[1].Stamp)

	recent, _ := f.local.RecentSyncs(context.Background(), 10)
	assert.Len(t, recent, 2)
}

func TestRemoteFailureDoesNotFailSave(t *testing.T) {
	f := newFixture(t, "tok")
	f.remote.FailPut(errors.New("connection reset"))
	s := sampleState(t)

	require.NoError(t, f.adapter.Save(context.Background(), s, 1))
	stored, ok, _ := f.local.Get(context.Background(), StorageKey)
	require.True(t, ok)
	want, _ := Encode(s)
	assert.Equal(t, string(want), stored)

	f.wait(t)
	reports := f.notes.all()
	require.Len(t, reports, 1)
	assert.Equal(t, core.SyncFailed, reports[0].Status)
	assert.Equal(t, core.SyncNetwork, reports[0].Kind)
}

func TestStaleRevisionIsReportedNotRetried(t *testing.T) {
	f := newFixture(t, "tok")
	f.remote.Overwrite([]byte(`{"salaries":{}}`))
	f.remote.OnPut = func(context.Context) error {
		f.remote.Overwrite([]byte(`{"salaries":{"2030":{"01":1}}}`))
		return nil
	}

	require.NoError(t, f.adapter.Save(context.Background(), sampleState(t), 1))
	f.wait(t)

	assert.Empty(t, f.remote.Puts())
	reports := f.notes.all()
	require.Len(t, reports, 1)
	assert.Equal(t, core.SyncFailed, reports[0].Status)
	assert.Equal(t, core.SyncConflict, reports[0].Kind)
}

func TestNewerPushCancelsOlder(t *testing.T) {
	f := newFixture(t, "tok")
	var calls atomic.Int32
	entered := make(chan struct{})
	f.remote.OnPut = func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			close(entered)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}

	older := sampleState(t)
	newer := older.Clone()
	require.NoError(t, newer.SetAmount(2025, core.July, "2200"))

	require.NoError(t, f.adapter.Save(context.Background(), older, 1))
	<-entered
	require.NoError(t, f.adapter.Save(context.Background(), newer, 2))
	f.wait(t)

	puts := f.remote.Puts()
	require.Len(t, puts, 1)
	got, err := Decode(puts[0].Content, core.DefaultBounds(), fallback)
	require.NoError(t, err)
	assert.True(t, newer.Equal(got))

	statuses := map[uint64]core.SyncStatus{}
	for _, r := range f.notes.all() {
		statuses[r.Stamp] = r.Status
	}
	assert.Equal(t, core.SyncStale, statuses[1])
	assert.Equal(t, core.SyncOK, statuses[2])
	assert.Zero(t, f.syncer.InFlight())
}

func TestOutdatedPushIsDropped(t *testing.T) {
	f := newFixture(t, "tok")
	require.NoError(t, f.adapter.Save(context.Background(), sampleState(t), 5))
	f.wait(t)
	f.syncer.Push(sampleState(t), 3)
	f.wait(t)
	assert.Len(t, f.remote.Puts(), 1)
}

func TestImportExport(t *testing.T) {
	f := newFixture(t, "")
	s := sampleState(t)
	raw, err := f.adapter.Export(s)
	require.NoError(t, err)
	got, err := f.adapter.Import(raw)
	require.NoError(t, err)
	assert.True(t, s.Equal(got))

	_, err = f.adapter.Import([]byte(`{"view":{"year":2025,"monthId":"01"}}`))
	var fe *core.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestClassifySyncError(t *testing.T) {
	cases := []struct {
		err  error
		want core.SyncKind
	}{
		{remote.ErrConflict, core.SyncConflict},
		{remote.ErrUnauthorized, core.SyncAuth},
		{remote.ErrNotFound, core.SyncNotFound},
		{&remote.StatusError{Op: "put", Status: 500}, core.SyncRemote},
		{context.DeadlineExceeded, core.SyncNetwork},
		{errors.New("boom"), core.SyncNetwork},
	}
	for _, tc := range cases {
		got := ClassifySyncError("write", tc.err)
		assert.Equal(t, tc.want, got.Kind, "%v", tc.err)
		assert.ErrorIs(t, got, tc.err)
	}
}
