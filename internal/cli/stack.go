package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stipendi/internal/amqp"
	"stipendi/internal/config"
	"stipendi/internal/ledger"
	"stipendi/internal/log"
	"stipendi/internal/persistence"
	"stipendi/internal/remote"
	"stipendi/internal/remote/github"
	"stipendi/internal/storage"
	"stipendi/internal/storage/memory"
)

// localStore is what both local backends provide.
type localStore interface {
	persistence.LocalStore
	persistence.SyncRecorder
}

// StackOptions selects the optional parts of the stack.
type StackOptions struct {
	// Publish dials AMQP (when configured) and forwards sync reports to it.
	Publish bool
	// Remote overrides the GitHub client, mainly for tests.
	Remote remote.Store
	Now    func() time.Time
}

// Stack is the wired ledger: local store, credentials, remote file,
// background syncer, adapter and session.
type Stack struct {
	Config      *config.Config
	Logger      *log.Logger
	Local       persistence.LocalStore
	Credentials *persistence.Credentials
	Remote      remote.Store
	Syncer      *persistence.Syncer
	Adapter     *persistence.Adapter
	Session     *ledger.Session
	Publisher   *amqp.Client

	sqlite *storage.SQLiteRepository
}

// NewStack builds the stack described by cfg. The session is not opened.
func NewStack(ctx context.Context, cfg *config.Config, logger *log.Logger, opts StackOptions) (*Stack, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Stack{Config: cfg, Logger: logger}

	var local localStore
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s.sqlite = repo
		local = repo
		logger.Info("Initialized SQLite local store", "path", cfg.SQLiteDBPath)
	default:
		local = memory.New()
		logger.Info("Initialized memory local store")
	}
	s.Local = local

	s.Credentials = persistence.NewCredentials(local)
	if err := s.Credentials.Restore(ctx); err != nil {
		logger.Warn("Stored token unreadable", log.FieldError, err)
	}
	if cfg.GitHubToken != "" && !s.Credentials.HasToken() {
		if err := s.Credentials.Set(ctx, cfg.GitHubToken); err != nil {
			logger.Warn("Failed to store token from environment", log.FieldError, err)
		}
	}

	s.Remote = opts.Remote
	if s.Remote == nil && cfg.RemoteConfigured() {
		gh, err := github.New(github.Config{
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Path:    cfg.GitHubPath,
			Branch:  cfg.GitHubBranch,
			Timeout: cfg.RemoteTimeout,
			Now:     opts.Now,
		})
		if err != nil {
			s.closeLocal()
			return nil, err
		}
		s.Remote = gh
		logger.Info("Remote file configured", "owner", cfg.GitHubOwner, "repo", cfg.GitHubRepo, "path", cfg.GitHubPath)
	}

	notifiers := persistence.Notifiers{persistence.LogNotifier{Logger: logger.WithComponent(log.ComponentSync)}}
	if opts.Publish && cfg.AMQPConfigured() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Sync reports are a side channel; run without them.
			logger.Warn("AMQP unavailable, sync reports will not be published", log.FieldError, err)
		} else {
			s.Publisher = client
			notifiers = append(notifiers, amqp.Notifier{Publisher: client, Logger: logger})
		}
	}

	adapterOpts := persistence.Options{
		Local:        local,
		Key:          cfg.StorageKey,
		Bounds:       cfg.Bounds(),
		Now:          opts.Now,
		Logger:       logger,
		FetchTimeout: cfg.RemoteTimeout,
	}
	if s.Remote != nil {
		s.Syncer = persistence.NewSyncer(s.Remote, s.Credentials, notifiers, local, logger,
			persistence.SyncerConfig{Timeout: cfg.RemoteTimeout, Now: opts.Now})
		adapterOpts.Remote = s.Remote
		adapterOpts.Syncer = s.Syncer
	}

	adapter, err := persistence.NewAdapter(adapterOpts)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Adapter = adapter
	s.Session = ledger.NewSession(adapter, cfg.Bounds(), ledger.WithLogger(logger), ledger.WithClock(opts.Now))
	return s, nil
}

// Open runs the startup load and logs the sources that were skipped.
func (s *Stack) Open(ctx context.Context) (persistence.LoadResult, error) {
	res, err := s.Session.Open(ctx)
	if err != nil {
		return res, err
	}
	for _, fb := range res.Fallbacks {
		s.Logger.Debug("Load fallback", log.FieldError, fb)
	}
	return res, nil
}

// Ready reports whether the local store answers.
func (s *Stack) Ready(ctx context.Context) error {
	if s.sqlite != nil {
		return s.sqlite.Ping(ctx)
	}
	return nil
}

// Close waits for in-flight pushes and releases connections.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	if s.Syncer != nil {
		if err := s.Syncer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("syncer: %w", err))
		}
	}
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := s.closeLocal(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Stack) closeLocal() error {
	if s.sqlite == nil {
		return nil
	}
	err := s.sqlite.Close()
	s.sqlite = nil
	return err
}
