// Package persistence reads and writes the ledger to the local durable store
// and the remote versioned file.
//
// Local writes are synchronous and authoritative. Remote writes are
// best-effort: they run in the background and their outcome is reported
// through a Notifier, never returned to the caller.
package persistence

import (
	"context"

	"stipendi/internal/core"
)

const (
	StorageKey     = "salary_data_v2"
	TokenKey       = "gh_token"
	ExportFileName = "salary_backup.json"
	TokenParam     = "token"
)

type (
	// LocalStore is a synchronous string-valued key/value store.
	LocalStore interface {
		Get(ctx context.Context, key string) (string, bool, error)
		Set(ctx context.Context, key, value string) error
		Delete(ctx context.Context, key string) error
	}

	// SyncRecorder keeps a history of push outcomes.
	SyncRecorder interface {
		RecordSync(ctx context.Context, rep core.SyncReport) error
	}

	// Notifier is the side channel for remote sync outcomes.
	Notifier interface {
		Notify(ctx context.Context, rep core.SyncReport)
	}
)
