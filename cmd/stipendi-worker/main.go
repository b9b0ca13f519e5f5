package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"stipendi/internal/amqp"
	"stipendi/internal/cli"
	"stipendi/internal/log"
	"stipendi/internal/sheets"
	gsheet "stipendi/internal/sheets/google"
	mem "stipendi/internal/sheets/memory"
	"stipendi/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), nil).WithComponent(log.ComponentWorker)
	logger.Info("Starting stipendi-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.RemoteConfigured() {
		logger.Error("Remote file not configured: set GITHUB_OWNER, GITHUB_REPO and GITHUB_PATH")
		os.Exit(1)
	}
	if !cfg.AMQPConfigured() {
		logger.Error("AMQP_URL is required to consume sync reports")
		os.Exit(1)
	}

	bootCtx := context.Background()
	stack, err := cli.NewStack(bootCtx, cfg, logger, cli.StackOptions{})
	if err != nil {
		logger.Error("Failed to initialize ledger stack", log.FieldError, err)
		os.Exit(1)
	}

	var mirror sheets.LedgerMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(bootCtx, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	mirrorWorker := worker.NewMirrorWorker(stack.Adapter, mirror, logger)

	ctx, done := cli.GracefulShutdown(bootCtx, logger, 30*time.Second, func(ctx context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		if err := stack.Close(ctx); err != nil {
			logger.Warn("Ledger close error", log.FieldError, err)
		}
	})

	// Catch up on reports missed while the worker was down.
	logger.Info("Performing startup mirror...")
	if err := mirrorWorker.StartupMirror(ctx); err != nil {
		logger.Error("Failed startup mirror", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeSyncReports(gctx, mirrorWorker.HandleSyncReport)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := mirrorWorker.PeriodicMirror(gctx); err != nil {
					logger.Error("Periodic mirror failed", log.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = amqpClient.Close()
		_ = stack.Close(context.Background())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", "mirrored", mirrorWorker.Mirrored())
}
