// Package worker keeps the spreadsheet mirror in step with the remote ledger.
package worker

import (
	"context"
	"fmt"
	"sync"

	"stipendi/internal/amqp"
	"stipendi/internal/log"
	"stipendi/internal/persistence"
	"stipendi/internal/sheets"
)

// Loader resolves the current ledger. *persistence.Adapter satisfies it.
type Loader interface {
	Load(ctx context.Context) (persistence.LoadResult, error)
}

// MirrorWorker rewrites the mirror whenever a push commits a new remote
// revision. It only mirrors state loaded from the remote file, so a worker
// with a stale local copy never overwrites newer data.
type MirrorWorker struct {
	loader Loader
	mirror sheets.LedgerMirror
	logger *log.Logger

	mu           sync.Mutex
	lastRevision string
	mirrored     int
}

func NewMirrorWorker(loader Loader, mirror sheets.LedgerMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		loader: loader,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncReport processes one sync report from AMQP. Reports that did not
// commit, and revisions already mirrored, are acknowledged without work.
func (w *MirrorWorker) HandleSyncReport(ctx context.Context, msg *amqp.SyncReportMessage) error {
	w.logger.InfoContext(ctx, "Processing sync report",
		"id", msg.ID,
		log.FieldStamp, msg.Stamp,
		log.FieldSyncStatus, msg.Status,
		log.FieldRevision, msg.Revision)

	if !msg.Committed() {
		w.logger.DebugContext(ctx, "Sync report did not commit, nothing to mirror", "id", msg.ID)
		return nil
	}

	w.mu.Lock()
	seen := msg.Revision == w.lastRevision
	w.mu.Unlock()
	if seen {
		w.logger.DebugContext(ctx, "Revision already mirrored", log.FieldRevision, msg.Revision)
		return nil
	}

	if err := w.mirrorRemote(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	w.lastRevision = msg.Revision
	w.mu.Unlock()
	return nil
}

// StartupMirror brings the mirror up to date before consuming, recovering
// from reports missed while the worker was down.
func (w *MirrorWorker) StartupMirror(ctx context.Context) error {
	if err := w.mirrorRemote(ctx); err != nil {
		return fmt.Errorf("startup mirror: %w", err)
	}
	return nil
}

// PeriodicMirror is the backup path for lost messages.
func (w *MirrorWorker) PeriodicMirror(ctx context.Context) error {
	return w.mirrorRemote(ctx)
}

// Mirrored returns the number of successful mirror writes.
func (w *MirrorWorker) Mirrored() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mirrored
}

func (w *MirrorWorker) mirrorRemote(ctx context.Context) error {
	res, err := w.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if res.Source != persistence.SourceRemote {
		w.logger.WarnContext(ctx, "Remote ledger unavailable, mirror left unchanged",
			log.FieldSource, res.Source, "fallbacks", len(res.Fallbacks))
		return fmt.Errorf("ledger loaded from %s, not remote", res.Source)
	}

	out, err := w.mirror.Mirror(ctx, res.State)
	if err != nil {
		return fmt.Errorf("mirror ledger: %w", err)
	}

	w.mu.Lock()
	w.mirrored++
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Ledger mirrored",
		"range", out.Range,
		"years", out.Years,
		"cells", out.Cells)
	return nil
}
