package archive

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"spyglass-hq/spyglass/pkg/txstore"
)

// finalizedTransaction builds a transaction as the store hands it to
// finalize hooks.
func finalizedTransaction(id uint64) txstore.Transaction {
	start := time.Now().UTC().Truncate(time.Millisecond)
	return txstore.Transaction{
		ID:             id,
		StartTime:      start,
		EndTime:        start.Add(42 * time.Millisecond),
		DurationMillis: 42,
		Method:         "POST",
		Host:           "api.example.com",
		Path:           "/v1/orders",
		Query:          "dry_run=true",
		Route:          "api",
		Upstream:       "http://10.0.0.2:3000",
		Outcome:        txstore.OutcomeSuccess,
		Status:         201,
		RequestBytes:   256,
		ResponseBytes:  1024,
	}
}

// TestArchiver_RecordAndClose tests the full async write path.
func TestArchiver_RecordAndClose(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	var writes atomic.Int64
	archiver := NewArchiver(store, &Config{BufferSize: 10})
	archiver.OnWrite(func() { writes.Add(1) })

	if _, err := uuid.Parse(archiver.RunID()); err != nil {
		t.Errorf("RunID %q is not a valid UUID: %v", archiver.RunID(), err)
	}

	archiver.Record(finalizedTransaction(1))
	archiver.Record(finalizedTransaction(2))

	// Close drains the channel before returning.
	if err := archiver.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if got := writes.Load(); got != 2 {
		t.Errorf("Expected 2 writes, got %d", got)
	}

	rows, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 archived rows, got %d", len(rows))
	}

	for _, row := range rows {
		if row.RunID != archiver.RunID() {
			t.Errorf("RunID = %q, want %q", row.RunID, archiver.RunID())
		}
		if _, err := uuid.Parse(row.ArchiveID); err != nil {
			t.Errorf("ArchiveID %q is not a valid UUID: %v", row.ArchiveID, err)
		}
	}

	byTx := make(map[uint64]Row, len(rows))
	for _, row := range rows {
		byTx[row.TransactionID] = row
	}
	got, ok := byTx[2]
	if !ok {
		t.Fatal("Transaction 2 was not archived")
	}
	want := finalizedTransaction(2)
	if got.Method != want.Method || got.Path != want.Path || got.Query != want.Query {
		t.Errorf("Request line not preserved: %s %s?%s", got.Method, got.Path, got.Query)
	}
	if got.Outcome != string(want.Outcome) || got.Status != want.Status {
		t.Errorf("Result not preserved: outcome=%q status=%d", got.Outcome, got.Status)
	}
}

// TestArchiver_PreservesReplayLineage tests that replay ids are archived.
func TestArchiver_PreservesReplayLineage(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	archiver := NewArchiver(store, nil)

	tx := finalizedTransaction(7)
	tx.ReplayOf = 3
	archiver.Record(tx)
	archiver.Close()

	rows, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].ReplayOf != 3 {
		t.Errorf("ReplayOf = %d, want 3", rows[0].ReplayOf)
	}
}

// TestArchiver_DropWhenFull tests that a full channel drops instead of
// blocking. The archiver is built without its worker so the channel cannot
// drain.
func TestArchiver_DropWhenFull(t *testing.T) {
	var drops atomic.Int64

	a := &Archiver{
		config: DefaultConfig(),
		runID:  "test-run",
		txChan: make(chan txstore.Transaction, 1),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "archive.archiver"),
	}
	a.OnDrop(func() { drops.Add(1) })

	a.Record(finalizedTransaction(1))
	if got := drops.Load(); got != 0 {
		t.Fatalf("Expected no drops while channel has space, got %d", got)
	}

	a.Record(finalizedTransaction(2))
	a.Record(finalizedTransaction(3))
	if got := drops.Load(); got != 2 {
		t.Errorf("Expected 2 drops on full channel, got %d", got)
	}
}

// TestArchiver_DropAfterClose tests that late records are dropped.
func TestArchiver_DropAfterClose(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	var drops atomic.Int64
	archiver := NewArchiver(store, &Config{BufferSize: 10})
	archiver.OnDrop(func() { drops.Add(1) })

	if err := archiver.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	archiver.Record(finalizedTransaction(1))
	if got := drops.Load(); got != 1 {
		t.Errorf("Expected 1 drop after close, got %d", got)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no rows written after close, got %d", count)
	}
}

// TestArchiver_RunIDsDiffer tests that each archiver gets its own run id.
func TestArchiver_RunIDsDiffer(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	first := NewArchiver(store, nil)
	second := NewArchiver(store, nil)
	defer first.Close()
	defer second.Close()

	if first.RunID() == second.RunID() {
		t.Errorf("Expected distinct run ids, both are %q", first.RunID())
	}
}
