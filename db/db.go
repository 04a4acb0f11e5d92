// Package db implements the PostgreSQL store for users, links, folders and
// tags.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DB wraps the database connection and provides data access methods.
type DB struct {
	conn *sql.DB
}

// Config contains database configuration.
type Config struct {
	DSN string // PostgreSQL connection string
}

// New opens a connection pool, verifies it and runs pending migrations.
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying connection for metrics collection.
func (db *DB) DB() *sql.DB {
	return db.conn
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
