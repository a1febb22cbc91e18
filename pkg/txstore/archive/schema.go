package archive

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the archive database schema.
const Schema = `
-- Archived transaction summaries
CREATE TABLE IF NOT EXISTS transactions (
    archive_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    transaction_id INTEGER NOT NULL,
    replay_of INTEGER,

    -- Timestamps (unix milliseconds)
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,

    -- Request line
    method TEXT NOT NULL,
    host TEXT NOT NULL,
    path TEXT NOT NULL,
    query TEXT,

    -- Routing
    route TEXT,
    upstream TEXT,

    -- Result
    outcome TEXT NOT NULL,
    status INTEGER,
    error TEXT,

    -- Sizes
    request_bytes INTEGER,
    response_bytes INTEGER
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_transactions_start_time ON transactions(start_time);
CREATE INDEX IF NOT EXISTS idx_transactions_outcome ON transactions(outcome);
CREATE INDEX IF NOT EXISTS idx_transactions_route ON transactions(route);
CREATE INDEX IF NOT EXISTS idx_transactions_run_id ON transactions(run_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
