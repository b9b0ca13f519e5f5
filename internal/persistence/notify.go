package persistence

import (
	"context"

	"stipendi/internal/core"
	"stipendi/internal/log"
)

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, rep core.SyncReport)

func (f NotifierFunc) Notify(ctx context.Context, rep core.SyncReport) { f(ctx, rep) }

// Notifiers fans a report out to every non-nil notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, rep core.SyncReport) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, rep)
		}
	}
}

// LogNotifier writes reports to the log: failures at warn, the rest at info.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(ctx context.Context, rep core.SyncReport) {
	l := n.Logger
	if l == nil {
		l = log.FromContext(ctx)
	}
	args := []any{log.FieldStamp, rep.Stamp, log.FieldSyncStatus, rep.Status}
	switch rep.Status {
	case core.SyncFailed:
		l.WarnContext(ctx, "Remote sync failed", append(args, log.FieldSyncKind, rep.Kind, log.FieldError, rep.Error)...)
	case core.SyncOK:
		l.InfoContext(ctx, "Remote sync completed", append(args, log.FieldRevision, rep.Revision)...)
	case core.SyncSkipped:
		l.InfoContext(ctx, "Remote sync skipped, saved locally only", args...)
	default:
		l.DebugContext(ctx, "Remote sync superseded", args...)
	}
}
