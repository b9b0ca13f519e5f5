// Package remote declares the versioned file store the ledger is synced to.
package remote

import (
	"context"
	"errors"
	"fmt"
)

// Ports for the remote file adapter.
type (
	// Reader fetches the current file content. Reads need no credentials and
	// must bypass intermediate caches.
	Reader interface {
		Fetch(ctx context.Context) ([]byte, error)
	}

	// Writer performs conditional updates guarded by a revision identifier.
	Writer interface {
		// Revision returns the identifier of the current content, or ErrNotFound.
		Revision(ctx context.Context, token string) (string, error)
		// Put replaces the content. A non-empty req.Revision that no longer
		// matches yields ErrConflict. It returns the new revision.
		Put(ctx context.Context, token string, req PutRequest) (string, error)
	}

	Store interface {
		Reader
		Writer
	}

	PutRequest struct {
		Content  []byte
		Revision string
		Message  string
	}
)

var (
	ErrNotFound     = errors.New("remote file not found")
	ErrConflict     = errors.New("remote revision conflict")
	ErrUnauthorized = errors.New("remote rejected credentials")
)

// StatusError is an unexpected response from the remote service.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}
