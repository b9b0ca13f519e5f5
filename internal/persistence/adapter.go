package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"stipendi/internal/core"
	"stipendi/internal/log"
	"stipendi/internal/remote"
)

// Source tells where a loaded state came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// LoadResult is the outcome of Load. Fallbacks carries the errors that made
// earlier sources unusable, in the order they were tried.
type LoadResult struct {
	State     core.LedgerState
	Source    Source
	Fallbacks []error
}

type Options struct {
	Local        LocalStore
	// Key names the local entry (default: StorageKey).
	Key          string
	Remote       remote.Reader
	Syncer       *Syncer
	Bounds       core.Bounds
	Now          func() time.Time
	Logger       *log.Logger
	FetchTimeout time.Duration
}

// Adapter implements load, save, import and export of the ledger.
type Adapter struct {
	local   LocalStore
	key     string
	remote  remote.Reader
	syncer  *Syncer
	bounds  core.Bounds
	now     func() time.Time
	logger  *log.Logger
	timeout time.Duration
	fetches singleflight.Group
}

func NewAdapter(opts Options) (*Adapter, error) {
	if opts.Local == nil {
		return nil, errors.New("persistence: local store is required")
	}
	if err := opts.Bounds.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Key == "" {
		opts.Key = StorageKey
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	return &Adapter{
		local:   opts.Local,
		key:     opts.Key,
		remote:  opts.Remote,
		syncer:  opts.Syncer,
		bounds:  opts.Bounds,
		now:     opts.Now,
		logger:  opts.Logger.WithComponent(log.ComponentPersistence),
		timeout: opts.FetchTimeout,
	}, nil
}

func (a *Adapter) Bounds() core.Bounds { return a.bounds }

// Syncer returns the background pusher, possibly nil.
func (a *Adapter) Syncer() *Syncer { return a.syncer }

// Load resolves the startup state: remote, else local, else a default cursor
// on the current month. The first usable source wins; sources are never merged.
// Load never writes: a caller adopting a remote result stores it with
// SaveLocal once it knows the result is still current.
// An error is returned only when ctx ends first.
func (a *Adapter) Load(ctx context.Context) (LoadResult, error) {
	var res LoadResult

	if a.remote != nil {
		state, err := a.loadRemote(ctx)
		if err == nil {
			res.State, res.Source = state, SourceRemote
			a.logger.InfoContext(ctx, "Ledger loaded", log.FieldSource, res.Source)
			return res, nil
		}
		a.logger.WarnContext(ctx, "Remote load failed, falling back to local copy", log.FieldError, err)
		res.Fallbacks = append(res.Fallbacks, err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	state, err := a.loadLocal(ctx)
	if err == nil {
		res.State, res.Source = state, SourceLocal
		a.logger.InfoContext(ctx, "Ledger loaded", log.FieldSource, res.Source)
		return res, nil
	}
	if !errors.Is(err, errNoLocalCopy) {
		a.logger.WarnContext(ctx, "Local copy unusable, starting from defaults", log.FieldError, err)
	}
	res.Fallbacks = append(res.Fallbacks, err)

	res.State, res.Source = core.NewState(a.now(), a.bounds), SourceDefault
	a.logger.InfoContext(ctx, "Ledger loaded", log.FieldSource, res.Source)
	return res, nil
}

var errNoLocalCopy = errors.New("no local copy")

func (a *Adapter) loadRemote(ctx context.Context) (core.LedgerState, error) {
	v, err, _ := a.fetches.Do("fetch", func() (any, error) {
		fctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.remote.Fetch(fctx)
	})
	if err != nil {
		return core.LedgerState{}, ClassifySyncError("fetch", err)
	}
	state, err := Decode(v.([]byte), a.bounds, core.CursorAt(a.now(), a.bounds))
	if err != nil {
		return core.LedgerState{}, &core.SyncError{Op: "fetch", Kind: core.SyncContent, Err: err}
	}
	return state, nil
}

func (a *Adapter) loadLocal(ctx context.Context) (core.LedgerState, error) {
	raw, ok, err := a.local.Get(ctx, a.key)
	if err != nil {
		return core.LedgerState{}, &core.ParseError{Key: a.key, Err: err}
	}
	if !ok {
		return core.LedgerState{}, errNoLocalCopy
	}
	state, err := Decode([]byte(raw), a.bounds, core.CursorAt(a.now(), a.bounds))
	if err != nil {
		return core.LedgerState{}, &core.ParseError{Key: a.key, Err: err}
	}
	return state, nil
}

func (a *Adapter) writeLocal(ctx context.Context, state core.LedgerState) error {
	b, err := Encode(state)
	if err != nil {
		return err
	}
	if err := a.local.Set(ctx, a.key, string(b)); err != nil {
		return fmt.Errorf("save local copy: %w", err)
	}
	return nil
}

// Save writes state locally and schedules a remote push tagged with stamp.
// Only a local write failure is returned.
func (a *Adapter) Save(ctx context.Context, state core.LedgerState, stamp uint64) error {
	if err := a.writeLocal(ctx, state); err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "Ledger saved locally", log.FieldStamp, stamp)
	if a.syncer != nil {
		a.syncer.Push(state, stamp)
	}
	return nil
}

// SaveLocal writes state to the local store only. Cursor moves use it so that
// browsing does not produce remote commits.
func (a *Adapter) SaveLocal(ctx context.Context, state core.LedgerState) error {
	return a.writeLocal(ctx, state)
}

// Import validates raw as a full replacement ledger. It does not persist;
// the caller saves the returned state.
func (a *Adapter) Import(raw []byte) (core.LedgerState, error) {
	return Decode(raw, a.bounds, core.CursorAt(a.now(), a.bounds))
}

// Export serializes state for download.
func (a *Adapter) Export(state core.LedgerState) ([]byte, error) {
	return Export(state)
}
