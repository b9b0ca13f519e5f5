package core

import "time"

type SyncStatus string

const (
	SyncOK      SyncStatus = "ok"
	SyncFailed  SyncStatus = "failed"
	SyncSkipped SyncStatus = "skipped"
	SyncStale   SyncStatus = "stale"
)

// SyncReport describes the outcome of one remote push.
type SyncReport struct {
	ID       string     `json:"id"`
	Stamp    uint64     `json:"stamp"`
	Status   SyncStatus `json:"status"`
	Revision string     `json:"revision,omitempty"`
	Kind     SyncKind   `json:"kind,omitempty"`
	Error    string     `json:"error,omitempty"`
	At       time.Time  `json:"at"`
}
