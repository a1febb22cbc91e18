package tui

import (
	"context"

	"spyglass-hq/spyglass/pkg/control"
	"spyglass-hq/spyglass/pkg/txstore"
)

// Source abstracts control API access for the TUI. The live
// implementation is [Client]; tests substitute a stub. Replay is the
// only call that mutates proxy state.
type Source interface {
	// Stats returns the aggregate request counters and the health of
	// every configured upstream.
	Stats(ctx context.Context) (control.StatsResponse, error)

	// Transactions returns the most recent finalized transactions,
	// newest first.
	Transactions(ctx context.Context, limit int) ([]txstore.Transaction, error)

	// Replay reissues the stored request for the given transaction id.
	// The response carries the new transaction's id; the replay's
	// outcome shows up in Transactions once it finishes.
	Replay(ctx context.Context, id uint64) (control.ReplayResponse, error)
}
