package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linkstash/linkstash/models"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = fmt.Errorf("email already registered")

// CreateUser persists a new user row.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := "INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)"
	_, err := db.conn.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns the user with this email, or nil when absent.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := "SELECT id, email, password_hash, created_at FROM users WHERE email = $1"
	err := db.conn.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetUserByID returns the user with this id, or nil when absent.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	query := "SELECT id, email, password_hash, created_at FROM users WHERE id = $1"
	err := db.conn.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}
