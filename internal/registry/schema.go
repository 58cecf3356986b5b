package registry

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (r *Registry) initializeSchema() error {
	return r.withTx(context.Background(), func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createNodeTypesTable(tx); err != nil {
			return err
		}
		if err := createRegistrationsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		r.logger.Info("Registry schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (r *Registry) runMigrations() error {
	version, err := r.getSchemaVersion()
	if err != nil {
		return err
	}

	switch {
	case version == 0:
		// created but never initialized, e.g. an interrupted first run
		return r.initializeSchema()
	case version == currentSchemaVersion:
		r.logger.Debug("Registry schema is up to date", "version", version)
		return nil
	case version > currentSchemaVersion:
		return fmt.Errorf("registry schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	r.logger.Info("Running registry migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	// Migrations to later versions go here, applied in order.
	return nil
}

// getSchemaVersion gets the current schema version, 0 for an empty database
func (r *Registry) getSchemaVersion() (int, error) {
	var tableName string
	err := r.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = r.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createNodeTypesTable creates the node_types table holding the current
// definition of each registered node type.
func createNodeTypesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS node_types (
			name TEXT PRIMARY KEY,
			version INTEGER NOT NULL CHECK(version > 0),
			encoding TEXT NOT NULL CHECK(encoding IN ('json', 'zstd')),
			definition BLOB NOT NULL,
			registered_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create node_types table: %w", err)
	}
	return nil
}

// createRegistrationsTable creates the append-only registrations history.
func createRegistrationsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS registrations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			operation TEXT NOT NULL CHECK(operation IN ('register', 'unregister')),
			severity TEXT NOT NULL,
			forced INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL,
			report_json TEXT,
			registered_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create registrations table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_registrations_name ON registrations(name)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
