// Package memory provides an in-process local store for tests and
// throwaway sessions.
package memory

import (
	"context"
	"sort"
	"sync"

	"stipendi/internal/core"
)

type Store struct {
	mu      sync.Mutex
	values  map[string]string
	reports []core.SyncReport
	writes  int
}

func New() *Store {
	return &Store{values: map[string]string{}}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Writes counts Set calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Store) RecordSync(_ context.Context, rep core.SyncReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, rep)
	return nil
}

// RecentSyncs returns up to limit reports, newest first.
func (s *Store) RecentSyncs(_ context.Context, limit int) ([]core.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.SyncReport(nil), s.reports...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
