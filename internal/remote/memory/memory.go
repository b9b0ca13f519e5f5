// Package memory is an in-process versioned file store used by tests and
// offline sessions.
package memory

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"

	"stipendi/internal/remote"
)

type Store struct {
	mu       sync.Mutex
	content  []byte
	revision string
	exists   bool
	puts     []remote.PutRequest

	fetchErr error
	putErr   error
	// OnPut runs before a write is committed; a non-nil error aborts it.
	OnPut func(ctx context.Context) error
}

func New() *Store {
	return &Store{}
}

// NewWithContent starts with an existing file.
func NewWithContent(content []byte) *Store {
	s := New()
	s.commit(content)
	return s
}

// FailFetch makes every Fetch return err until reset with nil.
func (s *Store) FailFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// FailPut makes every Put return err until reset with nil.
func (s *Store) FailPut(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putErr = err
}

func (s *Store) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if !s.exists {
		return nil, remote.ErrNotFound
	}
	return append([]byte(nil), s.content...), nil
}

func (s *Store) Revision(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if token == "" {
		return "", remote.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return "", remote.ErrNotFound
	}
	return s.revision, nil
}

func (s *Store) Put(ctx context.Context, token string, req remote.PutRequest) (string, error) {
	if token == "" {
		return "", remote.ErrUnauthorized
	}
	if s.OnPut != nil {
		if err := s.OnPut(ctx); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return "", s.putErr
	}
	if req.Revision != s.revision {
		return "", remote.ErrConflict
	}
	s.puts = append(s.puts, req)
	return s.commit(req.Content), nil
}

// Content returns the stored file and whether it exists.
func (s *Store) Content() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.content...), s.exists
}

// Puts returns every committed write in order.
func (s *Store) Puts() []remote.PutRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.PutRequest(nil), s.puts...)
}

// Overwrite replaces the content out of band, as another client would.
func (s *Store) Overwrite(content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(content)
}

func (s *Store) commit(content []byte) string {
	sum := sha1.Sum(content)
	s.content = append([]byte(nil), content...)
	s.revision = hex.EncodeToString(sum[:])
	s.exists = true
	return s.revision
}
