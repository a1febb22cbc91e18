package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"spyglass-hq/spyglass/pkg/txstore"
)

// Config contains configuration for the archiver.
type Config struct {
	// BufferSize is the size of the async write channel buffer.
	// Default: 1000
	BufferSize int

	// WriteTimeout is the timeout for writing a row to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default archiver configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferSize:   1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Archiver persists finalized transactions asynchronously. Record never
// blocks: transactions flow through a bounded channel into a single worker
// that writes to storage, and a full channel drops the transaction. Wire it
// to the store:
//
//	store.OnFinalize(archiver.Record)
type Archiver struct {
	store  *SQLiteStore
	config *Config
	runID  string
	txChan chan txstore.Transaction
	wg     sync.WaitGroup
	done   chan struct{}
	logger *slog.Logger

	onWrite func()
	onDrop  func()
}

// NewArchiver creates an archiver writing to the given store and starts its
// background worker. Every row written by this archiver carries a fresh
// run id.
func NewArchiver(store *SQLiteStore, config *Config) *Archiver {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	a := &Archiver{
		store:  store,
		config: config,
		runID:  uuid.New().String(),
		txChan: make(chan txstore.Transaction, config.BufferSize),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "archive.archiver"),
	}

	a.wg.Add(1)
	go a.worker()

	a.logger.Info("archiver started",
		"run_id", a.runID,
		"buffer_size", config.BufferSize,
	)

	return a
}

// RunID returns the UUID stamped on every row this archiver writes.
func (a *Archiver) RunID() string {
	return a.runID
}

// OnWrite registers a hook invoked after each successful write. Must be set
// before the first transaction is recorded.
func (a *Archiver) OnWrite(fn func()) {
	a.onWrite = fn
}

// OnDrop registers a hook invoked for each dropped transaction. Must be set
// before the first transaction is recorded.
func (a *Archiver) OnDrop(fn func()) {
	a.onDrop = fn
}

// Record enqueues a finalized transaction for archival. It returns
// immediately; when the channel is full or the archiver is shutting down,
// the transaction is dropped and counted.
func (a *Archiver) Record(tx txstore.Transaction) {
	select {
	case <-a.done:
		a.drop(tx, "archiver shutting down")
		return
	default:
	}

	select {
	case a.txChan <- tx:
	default:
		a.drop(tx, "archive queue full")
	}
}

// Close drains the channel and waits for all pending writes to complete.
// The underlying store is not closed.
func (a *Archiver) Close() error {
	close(a.done)
	a.wg.Wait()

	a.logger.Info("archiver shut down")
	return nil
}

// worker is the background goroutine that drains the transaction channel
// and writes rows to storage.
func (a *Archiver) worker() {
	defer a.wg.Done()

	for {
		select {
		case tx := <-a.txChan:
			a.writeRow(tx)

		case <-a.done:
			// Drain remaining transactions before exit.
			pending := len(a.txChan)
			if pending > 0 {
				a.logger.Info("draining archive queue before shutdown",
					"pending_count", pending,
				)
			}

			for {
				select {
				case tx := <-a.txChan:
					a.writeRow(tx)
				default:
					return
				}
			}
		}
	}
}

// writeRow writes a single transaction to storage.
func (a *Archiver) writeRow(tx txstore.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.WriteTimeout)
	defer cancel()

	row := NewRow(a.runID, tx)
	if err := a.store.Insert(ctx, row); err != nil {
		a.logger.Error("failed to archive transaction",
			"id", tx.ID,
			"error", err,
		)
		return
	}

	if a.onWrite != nil {
		a.onWrite()
	}

	a.logger.Debug("transaction archived",
		"id", tx.ID,
		"archive_id", row.ArchiveID,
	)
}

func (a *Archiver) drop(tx txstore.Transaction, reason string) {
	if a.onDrop != nil {
		a.onDrop()
	}

	a.logger.Warn("dropping transaction",
		"id", tx.ID,
		"reason", reason,
		"capacity", cap(a.txChan),
	)
}
