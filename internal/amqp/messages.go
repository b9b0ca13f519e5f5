package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stipendi/internal/core"
)

// MessageVersion is bumped when the wire shape changes incompatibly.
const MessageVersion = 1

// SyncReportMessage announces the outcome of one remote push. Consumers
// fetch the ledger themselves; the message only says what happened.
type SyncReportMessage struct {
	ID        string          `json:"id"`
	Version   int             `json:"version"`
	Stamp     uint64          `json:"stamp"`
	Status    core.SyncStatus `json:"status"`
	Revision  string          `json:"revision,omitempty"`
	Kind      core.SyncKind   `json:"kind,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSyncReportMessage wraps rep, assigning an ID when it has none.
func NewSyncReportMessage(rep core.SyncReport) *SyncReportMessage {
	id := rep.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := rep.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &SyncReportMessage{
		ID:        id,
		Version:   MessageVersion,
		Stamp:     rep.Stamp,
		Status:    rep.Status,
		Revision:  rep.Revision,
		Kind:      rep.Kind,
		Error:     rep.Error,
		Timestamp: ts.UTC(),
	}
}

func (m *SyncReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Report converts the message back to a core.SyncReport.
func (m *SyncReportMessage) Report() core.SyncReport {
	return core.SyncReport{
		ID:       m.ID,
		Stamp:    m.Stamp,
		Status:   m.Status,
		Revision: m.Revision,
		Kind:     m.Kind,
		Error:    m.Error,
		At:       m.Timestamp,
	}
}

// Committed reports whether the push produced a new remote revision.
func (m *SyncReportMessage) Committed() bool {
	return m.Status == core.SyncOK && m.Revision != ""
}

var errUnknownStatus = errors.New("unknown sync status")

func SyncReportMessageFromJSON(data []byte) (*SyncReportMessage, error) {
	var msg SyncReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("sync report message without id")
	}
	if msg.Version > MessageVersion {
		return nil, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	switch msg.Status {
	case core.SyncOK, core.SyncFailed, core.SyncSkipped, core.SyncStale:
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownStatus, msg.Status)
	}
	return &msg, nil
}
