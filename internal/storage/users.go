package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hoanghai1803/sportsignup/internal/models"
)

// CreateUser inserts a new user and returns its ID. A username collision is
// reported as ErrDuplicateUsername.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		return 0, translateErr(fmt.Errorf("creating user: %w", err), ErrDuplicateUsername)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting user id: %w", err)
	}
	return id, nil
}

// RestoreUser inserts a user with an existing password hash and creation
// time, as read from a backup.
func (s *Store) RestoreUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, formatTime(createdAt),
	)
	if err != nil {
		return 0, translateErr(fmt.Errorf("restoring user: %w", err), ErrDuplicateUsername)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting user id: %w", err)
	}
	return id, nil
}

// UserExists reports whether a user with the exact username exists.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username = ?`, username,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, translateErr(fmt.Errorf("checking user %q: %w", username, err), nil)
	}
	return true, nil
}

// GetUserByUsername returns the user with the exact username, or ErrNotFound.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		u         models.User
		createdAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, translateErr(fmt.Errorf("getting user %q: %w", username, err), nil)
	}
	u.CreatedAt = parseTime(createdAt.String)
	return &u, nil
}

// UpdatePasswordHash replaces the stored hash for username. It returns
// ErrNotFound when no such user exists.
func (s *Store) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password = ? WHERE username = ?`, passwordHash, username,
	)
	if err != nil {
		return translateErr(fmt.Errorf("updating password for %q: %w", username, err), nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns every user ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, password, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, translateErr(fmt.Errorf("querying users: %w", err), nil)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var (
			u         models.User
			createdAt sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		u.CreatedAt = parseTime(createdAt.String)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(fmt.Errorf("iterating user rows: %w", err), nil)
	}
	return users, nil
}
