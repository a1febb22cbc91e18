// Package archive provides optional SQLite persistence for finalized
// transactions.
//
// # Design
//
// The in-memory transaction ring is the source of truth for the control API
// and the TUI; the archive is a write-behind copy for after-the-fact
// inspection. An Archiver subscribes to the store's finalize hook and pushes
// summaries through a bounded channel into a single writer goroutine. The
// data path never blocks on the archive: a full channel drops the
// transaction and counts the drop.
//
// The SQLite store runs in WAL mode with a busy timeout and a single
// connection (SQLite supports one writer). Rows carry a UUID archive id and
// the run id of the writing process, since transaction ids restart at 1 on
// every start. Headers and bodies are never archived.
//
// # Retention
//
// A Pruner deletes rows older than the configured retention period on a
// cron schedule.
//
// # Basic Usage
//
//	store, err := archive.NewSQLiteStore(archive.SQLiteConfig{
//	    Path: "data/spyglass.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	archiver := archive.NewArchiver(store, &archive.Config{BufferSize: 1000})
//	defer archiver.Close()
//	txs.OnFinalize(archiver.Record)
//
//	pruner := archive.NewPruner(store, "0 3 * * *", 168*time.Hour)
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
package archive
