package db

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrate runs all pending migrations.
func Migrate(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	sortedMigrations := make([]Migration, len(postgresMigrations))
	copy(sortedMigrations, postgresMigrations)
	sort.Slice(sortedMigrations, func(i, j int) bool {
		return sortedMigrations[i].Version < sortedMigrations[j].Version
	})

	for _, m := range sortedMigrations {
		if m.Version <= currentVersion {
			continue
		}
		if err := runMigration(db, m); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table if it doesn't
// exist.
func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

// getCurrentVersion returns the current migration version.
func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// runMigration executes a single migration inside a transaction.
func runMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.Up); err != nil {
		return err
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name); err != nil {
		return err
	}

	return tx.Commit()
}
