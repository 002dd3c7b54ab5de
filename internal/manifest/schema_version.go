package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wormsim/sweeping/pkg/types"
)

// SchemaVersionManager tracks the column layouts written to table files so a
// run can be traced back to the layout it used.
type SchemaVersionManager struct {
	db *sql.DB
}

// NewSchemaVersionManager creates a manager on the catalog's database.
func NewSchemaVersionManager(catalog *SQLiteCatalog) *SchemaVersionManager {
	return &SchemaVersionManager{db: catalog.db}
}

// SchemaVersionRecord is a stored layout.
type SchemaVersionRecord struct {
	Version   int
	Columns   []types.ColumnDef
	CreatedAt time.Time
}

// GetCurrentVersion returns the latest version number, or 0 when none exist.
func (m *SchemaVersionManager) GetCurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_versions",
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("schema_version: failed to get current version: %w", err)
	}
	return version, nil
}

// GetSchemaVersion retrieves a specific layout.
func (m *SchemaVersionManager) GetSchemaVersion(ctx context.Context, version int) (*SchemaVersionRecord, error) {
	var schemaJSON string
	var createdAtUnix int64

	err := m.db.QueryRowContext(ctx,
		"SELECT schema_json, created_at FROM schema_versions WHERE version = ?",
		version,
	).Scan(&schemaJSON, &createdAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("schema_version: version %d not found", version)
		}
		return nil, fmt.Errorf("schema_version: failed to get version %d: %w", version, err)
	}

	var columns []types.ColumnDef
	if err := json.Unmarshal([]byte(schemaJSON), &columns); err != nil {
		return nil, fmt.Errorf("schema_version: failed to unmarshal schema for version %d: %w", version, err)
	}

	return &SchemaVersionRecord{
		Version:   version,
		Columns:   columns,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

// RegisterSchema returns the version of columns, creating a new version when
// they differ from the current one.
func (m *SchemaVersionManager) RegisterSchema(ctx context.Context, columns []types.ColumnDef) (int, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return 0, err
	}

	if currentVersion > 0 {
		current, err := m.GetSchemaVersion(ctx, currentVersion)
		if err != nil {
			return 0, err
		}
		if columnsEqual(current.Columns, columns) {
			return currentVersion, nil
		}
	}

	newVersion := currentVersion + 1
	schemaJSON, err := json.Marshal(columns)
	if err != nil {
		return 0, fmt.Errorf("schema_version: failed to marshal schema: %w", err)
	}

	_, err = m.db.ExecContext(ctx,
		"INSERT INTO schema_versions (version, schema_json, created_at) VALUES (?, ?, ?)",
		newVersion, string(schemaJSON), time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("schema_version: failed to insert version %d: %w", newVersion, err)
	}
	return newVersion, nil
}

// GetColumnDiff returns columns present in newVersion but absent in oldVersion.
func (m *SchemaVersionManager) GetColumnDiff(ctx context.Context, oldVersion, newVersion int) ([]types.ColumnDef, error) {
	oldRecord, err := m.GetSchemaVersion(ctx, oldVersion)
	if err != nil {
		return nil, err
	}
	newRecord, err := m.GetSchemaVersion(ctx, newVersion)
	if err != nil {
		return nil, err
	}

	oldCols := make(map[types.Field]bool, len(oldRecord.Columns))
	for _, col := range oldRecord.Columns {
		oldCols[col.Name] = true
	}

	var diff []types.ColumnDef
	for _, col := range newRecord.Columns {
		if !oldCols[col.Name] {
			diff = append(diff, col)
		}
	}
	return diff, nil
}

func columnsEqual(a, b []types.ColumnDef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
