package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stipendi/internal/cli"
	apphttp "stipendi/internal/http"
	"stipendi/internal/ledger"
	"stipendi/internal/log"
	"stipendi/internal/persistence"
)

const shutdownTimeout = 30 * time.Second

type serveOptions struct {
	rateLimit       int
	refreshInterval time.Duration
}

func serveCmd(a *app) *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Avvia l'API HTTP del registro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", 60, "write requests per minute per client")
	cmd.Flags().DurationVar(&opts.refreshInterval, "refresh-interval", 0, "reload from the remote file periodically (0 disables)")
	return cmd
}

func (a *app) serve(parent context.Context, opts serveOptions) error {
	stack, err := cli.NewStack(parent, a.cfg, a.logger, cli.StackOptions{
		Publish: true,
		Remote:  a.remote,
		Now:     a.now,
	})
	if err != nil {
		return err
	}

	res, err := stack.Open(parent)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = stack.Close(closeCtx)
		return fmt.Errorf("load ledger: %w", err)
	}
	a.logger.Info("Ledger ready", log.FieldSource, res.Source, "summary", totalLine(res.State))

	srv := apphttp.NewServer(":"+a.cfg.Port, stack.Session, apphttp.Options{
		Credentials: stack.Credentials,
		Ready:       stack.Ready,
		Logger:      a.logger,
		Now:         a.now,
		RateLimit:   opts.rateLimit,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(parent, a.logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := stack.Close(ctx); err != nil {
			a.logger.Error("Ledger shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting stipendi server", "port", a.cfg.Port, "backend", a.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if opts.refreshInterval > 0 && stack.Remote != nil {
		g.Go(func() error {
			refreshLoop(gctx, stack.Session, opts.refreshInterval, a.logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Error("Server error", log.FieldError, err, "port", a.cfg.Port)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = stack.Close(shutdownCtx)
		return err
	}

	cli.WaitForShutdown(ctx, done)
	a.logger.Info("Server stopped gracefully")
	return nil
}

// refreshLoop pulls the remote file every interval. A reload that races a
// command is dropped by the session and retried on the next tick.
func refreshLoop(ctx context.Context, session *ledger.Session, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := session.Refresh(ctx)
			switch {
			case errors.Is(err, ledger.ErrStaleResult):
				logger.Debug("Periodic refresh superseded by a local change")
			case err != nil:
				if ctx.Err() == nil {
					logger.Warn("Periodic refresh failed", log.FieldError, err)
				}
			case res.Source != persistence.SourceRemote:
				logger.Warn("Periodic refresh fell back", log.FieldSource, res.Source)
			default:
				logger.Debug("Periodic refresh completed")
			}
		}
	}
}
