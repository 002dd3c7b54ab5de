package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// RunKind names the command that produced a run.
type RunKind string

const (
	RunExtract RunKind = "extract"
	RunTidy    RunKind = "tidy"
	RunFit     RunKind = "fit"
	RunPublish RunKind = "publish"
	RunFetch   RunKind = "fetch"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("manifest: run not found")

// Catalog records batch runs.
type Catalog interface {
	// RegisterRun stores run, assigning an id when it has none, and returns the id.
	RegisterRun(ctx context.Context, run *Run) (string, error)

	// GetRun retrieves a single run by id.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns runs newest first. An empty kind matches every kind;
	// limit <= 0 means no limit.
	ListRuns(ctx context.Context, kind RunKind, limit int) ([]*Run, error)

	// Close closes the catalog database connection.
	Close() error
}

// Run describes one invocation and what it produced.
type Run struct {
	ID            string
	Kind          RunKind
	Input         string
	Output        string
	StartedAt     time.Time
	FinishedAt    time.Time
	RowCount      int64
	FailureCount  int64
	Checksum      string
	SchemaVersion int
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SQLiteCatalog implements Catalog on a single SQLite file.
type SQLiteCatalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewCatalog opens or creates the manifest at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	catalog := &SQLiteCatalog{db: db, dbPath: dbPath}
	if err := catalog.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: failed to initialize schema: %w", err)
	}
	return catalog, nil
}

func (c *SQLiteCatalog) initSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (c *SQLiteCatalog) Path() string {
	return c.dbPath
}

// RegisterRun stores run.
func (c *SQLiteCatalog) RegisterRun(ctx context.Context, run *Run) (string, error) {
	if run.Kind == "" {
		return "", fmt.Errorf("manifest: run kind is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, kind, input, output, started_at, finished_at,
			row_count, failure_count, checksum, schema_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Input, run.Output,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.RowCount, run.FailureCount, run.Checksum, run.SchemaVersion,
	)
	if err != nil {
		return "", fmt.Errorf("manifest: failed to insert run: %w", err)
	}
	return run.ID, nil
}

const selectRunSQL = `
	SELECT run_id, kind, input, output, started_at, finished_at,
		row_count, failure_count, checksum, schema_version
	FROM runs`

// GetRun retrieves a single run by id.
func (c *SQLiteCatalog) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := c.db.QueryRowContext(ctx, selectRunSQL+" WHERE run_id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns runs newest first.
func (c *SQLiteCatalog) ListRuns(ctx context.Context, kind RunKind, limit int) ([]*Run, error) {
	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString(selectRunSQL)
	if kind != "" {
		query.WriteString(" WHERE kind = ?")
		args = append(args, string(kind))
	}
	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest: error iterating runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var kind string
	var started, finished int64
	err := row.Scan(
		&run.ID, &kind, &run.Input, &run.Output, &started, &finished,
		&run.RowCount, &run.FailureCount, &run.Checksum, &run.SchemaVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("manifest: failed to scan run: %w", err)
	}
	run.Kind = RunKind(kind)
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)
	return &run, nil
}

// Close closes the catalog database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
