package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig contains configuration for the SQLite archive store.
type SQLiteConfig struct {
	// Path is the database file path. The parent directory is created if it
	// does not exist.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore persists archive rows to a SQLite database.
type SQLiteStore struct {
	db        *sql.DB
	config    SQLiteConfig
	logger    *slog.Logger
	closeOnce sync.Once

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// NewSQLiteStore opens the archive database, creating the file, its parent
// directory, and the schema as needed. WAL mode is always enabled; SQLite
// supports a single writer, so the connection pool is pinned to one
// connection.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("archive path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		config: cfg,
		logger: slog.Default().With("component", "archive.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("archive store initialized", "path", cfg.Path)

	return s, nil
}

// initialize sets up WAL mode, the busy timeout, and the database schema.
func (s *SQLiteStore) initialize() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO transactions (
			archive_id, run_id, transaction_id, replay_of,
			start_time, end_time, duration_ms,
			method, host, path, query,
			route, upstream,
			outcome, status, error,
			request_bytes, response_bytes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM transactions WHERE start_time < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Insert persists one archive row.
func (s *SQLiteStore) Insert(ctx context.Context, row Row) error {
	var errorVal interface{}
	if row.Error != "" {
		errorVal = row.Error
	}

	_, err := s.insertStmt.ExecContext(ctx,
		row.ArchiveID, row.RunID, row.TransactionID, row.ReplayOf,
		row.StartTime.UnixMilli(), row.EndTime.UnixMilli(), row.DurationMillis,
		row.Method, row.Host, row.Path, row.Query,
		row.Route, row.Upstream,
		row.Outcome, row.Status, errorVal,
		row.RequestBytes, row.ResponseBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert archive row: %w", err)
	}

	return nil
}

// PruneOlderThan deletes rows whose transaction started before the cutoff.
// Returns the number of rows deleted.
func (s *SQLiteStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.pruneStmt.ExecContext(ctx, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive rows: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Count returns the total number of archived rows.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archive rows: %w", err)
	}

	return count, nil
}

// Recent returns up to limit rows, newest first by transaction start time.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			archive_id, run_id, transaction_id, replay_of,
			start_time, end_time, duration_ms,
			method, host, path, query,
			route, upstream,
			outcome, status, error,
			request_bytes, response_bytes
		FROM transactions
		ORDER BY start_time DESC, archive_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive rows: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating archive rows: %w", err)
	}

	return result, nil
}

// Close checkpoints the WAL and closes the database. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		if s.insertStmt != nil {
			s.insertStmt.Close()
		}
		if s.pruneStmt != nil {
			s.pruneStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}

		s.logger.Info("archive store closed")
	})

	return closeErr
}

// scanRow scans a database row into a Row.
func scanRow(rows *sql.Rows) (Row, error) {
	var row Row
	var startMs, endMs int64
	var errorVal sql.NullString

	err := rows.Scan(
		&row.ArchiveID, &row.RunID, &row.TransactionID, &row.ReplayOf,
		&startMs, &endMs, &row.DurationMillis,
		&row.Method, &row.Host, &row.Path, &row.Query,
		&row.Route, &row.Upstream,
		&row.Outcome, &row.Status, &errorVal,
		&row.RequestBytes, &row.ResponseBytes,
	)
	if err != nil {
		return Row{}, err
	}

	row.StartTime = time.UnixMilli(startMs)
	row.EndTime = time.UnixMilli(endMs)
	if errorVal.Valid {
		row.Error = errorVal.String
	}

	return row, nil
}
