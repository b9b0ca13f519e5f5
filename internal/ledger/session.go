// Package ledger owns the live ledger state and turns user commands into
// navigation, mutations and persistence calls.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stipendi/internal/core"
	"stipendi/internal/log"
	"stipendi/internal/navigation"
	"stipendi/internal/persistence"
)

var (
	ErrStaleResult    = errors.New("ledger changed while loading, result discarded")
	ErrUnknownCommand = errors.New("unknown command")
)

// Persister is the subset of persistence.Adapter the session needs.
type Persister interface {
	Load(ctx context.Context) (persistence.LoadResult, error)
	Save(ctx context.Context, state core.LedgerState, stamp uint64) error
	SaveLocal(ctx context.Context, state core.LedgerState) error
	Import(raw []byte) (core.LedgerState, error)
	Export(state core.LedgerState) ([]byte, error)
}

// Session serializes commands against one ledger. Every mutation, cursor
// moves included, bumps a monotonic stamp; background results computed
// against an older stamp are discarded.
type Session struct {
	mu     sync.Mutex
	state  core.LedgerState
	stamp  uint64
	nav    navigation.Navigator
	store  Persister
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Session)

func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

func NewSession(store Persister, bounds core.Bounds, opts ...Option) *Session {
	s := &Session{
		store:  store,
		nav:    navigation.New(bounds),
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.state = core.NewState(s.now(), bounds)
	return s
}

func (s *Session) Bounds() core.Bounds { return s.nav.Bounds }

func (s *Session) Navigator() navigation.Navigator { return s.nav }

// Snapshot returns a deep copy of the current state and its stamp.
func (s *Session) Snapshot() (core.LedgerState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), s.stamp
}

// Open performs the startup load unconditionally.
func (s *Session) Open(ctx context.Context) (persistence.LoadResult, error) {
	res, err := s.store.Load(ctx)
	if err != nil {
		return res, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adopt(ctx, res)
	return res, nil
}

// Refresh reloads from the persistence chain. If any command ran while the
// load was in flight the result is dropped and ErrStaleResult returned.
func (s *Session) Refresh(ctx context.Context) (persistence.LoadResult, error) {
	s.mu.Lock()
	started := s.stamp
	s.mu.Unlock()

	res, err := s.store.Load(ctx)
	if err != nil {
		return res, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stamp != started {
		s.logger.InfoContext(ctx, "Discarding stale load", log.FieldStamp, started, "current_stamp", s.stamp)
		return res, ErrStaleResult
	}
	s.adopt(ctx, res)
	return res, nil
}

// adopt installs a load result. A remote result replaces the local copy too;
// that write happens here, under the lock, so a discarded load never touches
// the store. Callers hold s.mu.
func (s *Session) adopt(ctx context.Context, res persistence.LoadResult) {
	if res.Source == persistence.SourceRemote {
		if err := s.store.SaveLocal(ctx, res.State); err != nil {
			s.logger.ErrorContext(ctx, "Failed to refresh local copy from remote", log.FieldError, err)
		}
	}
	s.state = res.State.Clone()
	s.stamp++
}

// Dispatch applies cmd atomically: the state changes only if the whole
// command, including the local write, succeeds.
func (s *Session) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd.Kind == CmdExport {
		b, err := s.store.Export(s.state)
		if err != nil {
			return Result{}, err
		}
		return Result{State: s.state.Clone(), Stamp: s.stamp, Export: b}, nil
	}

	next := s.state.Clone()
	remote := true
	notice := ""

	switch cmd.Kind {
	case CmdSelectMonth:
		c, err := s.nav.SelectMonth(next.View, cmd.Month)
		if err != nil {
			return Result{}, err
		}
		next.View, remote = c, false
	case CmdStepMonth:
		next.View, remote = s.nav.StepMonth(next.View, cmd.Dir), false
	case CmdSetYear:
		next.View, remote = s.nav.SetYear(next.View, cmd.Year), false
	case CmdStepYear:
		next.View, remote = s.nav.StepYear(next.View, cmd.Dir), false
	case CmdSaveAmount:
		if err := next.SetAmount(next.View.Year, next.View.Month, cmd.Raw); err != nil {
			return Result{}, err
		}
		notice = "Dati salvati!"
	case CmdToggleTheme:
		next.Theme = next.Theme.Toggle()
	case CmdSetTheme:
		next.Theme = core.ParseTheme(string(cmd.Theme))
	case CmdImport:
		imported, err := s.store.Import(cmd.Data)
		if err != nil {
			return Result{}, err
		}
		next = imported
		notice = "Dati importati con successo!"
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}

	changed := !next.Equal(s.state)
	if !changed && !remote {
		return Result{State: next, Stamp: s.stamp, Notice: notice}, nil
	}

	stamp := s.stamp + 1
	var err error
	if remote {
		err = s.store.Save(ctx, next, stamp)
	} else {
		err = s.store.SaveLocal(ctx, next)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", cmd.Kind, err)
	}

	s.state = next
	s.stamp = stamp
	op := log.OpSave
	if !remote {
		op = log.OpNavigate
	}
	fields := log.NewFields().
		WithOperation(op).
		WithStamp(stamp).
		WithCursor(next.View.Year, string(next.View.Month))
	fields[log.FieldCommand] = string(cmd.Kind)
	s.logger.DebugContext(ctx, "Command applied", fields.ToSlice()...)
	return Result{State: next.Clone(), Stamp: stamp, Changed: changed, Notice: notice}, nil
}
