package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// SchemaVersion returns the most recently applied migration version, or 0.0.0
func SchemaVersion(ctx context.Context, db Querier) (*semver.Version, error) {
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	var current string
	err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY rowid DESC LIMIT 1").Scan(&current)
	if err == sql.ErrNoRows || current == "" {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}

	v, err := semver.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("invalid current schema version %s: %w", current, err)
	}
	return v, nil
}

// ApplyMigrations runs all pending migrations in order
func ApplyMigrations(ctx context.Context, db *sql.DB, migrations []Migration) error {
	if _, err := db.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue // Already applied
		}

		err = WithTx(ctx, db, func(q Querier) error {
			if _, err := q.ExecContext(ctx, migration.Up); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
			}
			if _, err := q.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		currentVersion = migrationVersion
	}

	return nil
}
