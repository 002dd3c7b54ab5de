// Package manifest keeps a SQLite ledger of batch runs and of the table
// layouts they wrote.
package manifest

// CreateRunsTableSQL creates the runs table. One row per extract, tidy, fit
// or publish invocation.
const CreateRunsTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    input TEXT NOT NULL,
    output TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    row_count INTEGER NOT NULL DEFAULT 0,
    failure_count INTEGER NOT NULL DEFAULT 0,
    checksum TEXT NOT NULL DEFAULT '',
    schema_version INTEGER NOT NULL DEFAULT 0
)`

// CreateRunsIndexesSQL supports listing runs by kind, newest first.
var CreateRunsIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_runs_kind_started ON runs(kind, started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
}

// CreateSchemaVersionsTableSQL creates the table layout history.
const CreateSchemaVersionsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
    version INTEGER PRIMARY KEY,
    schema_json TEXT NOT NULL,
    created_at INTEGER NOT NULL
)`

// AllSchemaSQL returns all SQL statements needed to initialize the manifest.
func AllSchemaSQL() []string {
	statements := []string{
		CreateRunsTableSQL,
		CreateSchemaVersionsTableSQL,
	}
	return append(statements, CreateRunsIndexesSQL...)
}
