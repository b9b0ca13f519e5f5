// Package sheets mirrors the ledger into a spreadsheet: one row per year,
// one column per month in display order, plus a yearly total.
package sheets

import (
	"context"

	"stipendi/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror replaces the mirrored grid with the salaries of state.
	LedgerMirror interface {
		Mirror(ctx context.Context, state core.LedgerState) (MirrorResult, error)
	}

	// GridReader reads the mirrored grid back.
	GridReader interface {
		ReadGrid(ctx context.Context) (core.Salaries, error)
	}
)

// MirrorResult describes what a Mirror call wrote.
type MirrorResult struct {
	Range string
	Years int
	Cells int
}
