// Package memory is an in-process spreadsheet mirror for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"stipendi/internal/core"
	ports "stipendi/internal/sheets"
)

type Mirror struct {
	mu     sync.Mutex
	grid   [][]any
	writes int
	err    error
}

var (
	_ ports.LedgerMirror = (*Mirror)(nil)
	_ ports.GridReader   = (*Mirror)(nil)
)

func New() *Mirror { return &Mirror{} }

// Fail makes subsequent calls return err until reset with nil.
func (m *Mirror) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mirror) Mirror(_ context.Context, state core.LedgerState) (ports.MirrorResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return ports.MirrorResult{}, m.err
	}
	m.grid = ports.BuildGrid(state)
	m.writes++
	cells := 0
	for _, row := range m.grid {
		cells += len(row)
	}
	return ports.MirrorResult{
		Range: fmt.Sprintf("mem:A1:%s%d", ports.ColumnLetter(ports.Columns), len(m.grid)),
		Years: len(m.grid) - 1,
		Cells: cells,
	}, nil
}

func (m *Mirror) ReadGrid(_ context.Context) (core.Salaries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return ports.ParseGrid(m.grid)
}

// Grid returns a copy of the last written grid.
func (m *Mirror) Grid() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.grid))
	for i, row := range m.grid {
		out[i] = append([]any(nil), row...)
	}
	return out
}

func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
