package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"stipendi/internal/core"
	"stipendi/internal/log"
	"stipendi/internal/remote"
)

// SyncerConfig tunes remote pushes.
type SyncerConfig struct {
	// Timeout bounds one revision-lookup-then-write pair (default: 30s).
	Timeout time.Duration
	Now     func() time.Time
}

func DefaultSyncerConfig() SyncerConfig {
	return SyncerConfig{Timeout: 30 * time.Second, Now: time.Now}
}

// Syncer pushes ledger snapshots to the remote file in the background.
//
// Each push runs with its own cancellable context and carries the stamp of
// the state it was started for. Starting a newer push cancels the one in
// flight; the cancelled push reports SyncStale. A write that still loses the
// revision race is reported as a conflict and never retried.
type Syncer struct {
	remote   remote.Writer
	creds    *Credentials
	notifier Notifier
	recorder SyncRecorder
	logger   *log.Logger
	config   SyncerConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	latest  uint64
	running int
	closed  bool
	wg      sync.WaitGroup
}

func NewSyncer(w remote.Writer, creds *Credentials, notifier Notifier, recorder SyncRecorder, logger *log.Logger, cfg SyncerConfig) *Syncer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSyncerConfig().Timeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = log.Discard()
	}
	if creds == nil {
		creds = NewCredentials(nil)
	}
	return &Syncer{
		remote:   w,
		creds:    creds,
		notifier: notifier,
		recorder: recorder,
		logger:   logger.WithComponent(log.ComponentSync),
		config:   cfg,
	}
}

// Push schedules a remote write of state. Pushes older than the latest
// accepted stamp are dropped.
func (s *Syncer) Push(state core.LedgerState, stamp uint64) {
	s.mu.Lock()
	if s.closed || stamp < s.latest {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	s.cancel = cancel
	s.latest = stamp
	s.running++
	s.wg.Add(1)
	s.mu.Unlock()

	snapshot := state.Clone()
	go func() {
		defer s.wg.Done()
		defer cancel()
		rep := s.push(ctx, snapshot, stamp)
		s.finish(rep)
	}()
}

// InFlight returns the number of pushes not yet finished.
func (s *Syncer) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until every scheduled push has finished or ctx is done.
func (s *Syncer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting pushes and waits for the ones in flight.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Wait(ctx)
}

func (s *Syncer) push(ctx context.Context, state core.LedgerState, stamp uint64) core.SyncReport {
	rep := core.SyncReport{ID: uuid.NewString(), Stamp: stamp}

	token := s.creds.Token()
	if s.remote == nil || token == "" {
		rep.Status = core.SyncSkipped
		return rep
	}

	content, err := RemoteContent(state)
	if err != nil {
		return s.failed(ctx, rep, "encode", err)
	}

	rev, err := s.remote.Revision(ctx, token)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return s.failed(ctx, rep, "revision", err)
	}

	message := "Update " + s.config.Now().Format("2006-01-02")
	newRev, err := s.remote.Put(ctx, token, remote.PutRequest{Content: content, Revision: rev, Message: message})
	if err != nil {
		return s.failed(ctx, rep, "write", err)
	}
	rep.Status = core.SyncOK
	rep.Revision = newRev
	return rep
}

func (s *Syncer) failed(ctx context.Context, rep core.SyncReport, op string, err error) core.SyncReport {
	if errors.Is(ctx.Err(), context.Canceled) {
		rep.Status = core.SyncStale
		return rep
	}
	serr := ClassifySyncError(op, err)
	rep.Status = core.SyncFailed
	rep.Kind = serr.Kind
	rep.Error = serr.Error()
	return rep
}

func (s *Syncer) finish(rep core.SyncReport) {
	rep.At = s.config.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.recorder != nil && rep.Status != core.SyncStale {
		if err := s.recorder.RecordSync(ctx, rep); err != nil {
			s.logger.WarnContext(ctx, "Failed to record sync report", log.FieldError, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, rep)
	}

	s.mu.Lock()
	s.running--
	s.mu.Unlock()
}

// ClassifySyncError wraps a remote failure into a *core.SyncError.
func ClassifySyncError(op string, err error) *core.SyncError {
	var se *core.SyncError
	if errors.As(err, &se) {
		return se
	}
	kind := core.SyncNetwork
	var status *remote.StatusError
	switch {
	case errors.Is(err, remote.ErrConflict):
		kind = core.SyncConflict
	case errors.Is(err, remote.ErrUnauthorized):
		kind = core.SyncAuth
	case errors.Is(err, remote.ErrNotFound):
		kind = core.SyncNotFound
	case errors.As(err, &status):
		kind = core.SyncRemote
	case errors.Is(err, context.DeadlineExceeded):
		kind = core.SyncNetwork
	}
	return &core.SyncError{Op: op, Kind: kind, Err: err}
}
