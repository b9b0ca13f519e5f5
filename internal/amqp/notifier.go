package amqp

import (
	"context"

	"stipendi/internal/core"
	"stipendi/internal/log"
)

// Publisher is satisfied by *Client.
type Publisher interface {
	PublishSyncReport(ctx context.Context, rep core.SyncReport) error
}

// Notifier forwards sync reports to a Publisher. Publish errors are logged
// and never reach the saver.
type Notifier struct {
	Publisher Publisher
	Logger    *log.Logger
}

func (n Notifier) Notify(ctx context.Context, rep core.SyncReport) {
	if n.Publisher == nil || rep.Status == core.SyncStale {
		return
	}
	if err := n.Publisher.PublishSyncReport(ctx, rep); err != nil && n.Logger != nil {
		n.Logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "Sync report not published",
			log.FieldError, err, log.FieldStamp, rep.Stamp)
	}
}
