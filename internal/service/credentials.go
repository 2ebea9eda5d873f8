// Package service implements the signup and lookup operations on top of the
// storage layer: account creation and credential checks, the one-sport-per-user
// preference store, and the combined registration workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hoanghai1803/sportsignup/internal/storage"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// dummyPassword is hashed once at startup so that lookups of unknown users
// spend the same bcrypt work as a real comparison.
const dummyPassword = "sportsignup-timing-equalizer"

// Credentials owns account identity: creating users and verifying passwords.
type Credentials struct {
	store     *storage.Store
	cost      int
	dummyHash []byte
}

// NewCredentials creates a credential store hashing at the given bcrypt
// cost.
func NewCredentials(store *storage.Store, cost int) (*Credentials, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d: must be between %d and %d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hashing timing placeholder: %w", err)
	}
	return &Credentials{store: store, cost: cost, dummyHash: dummy}, nil
}

// CreateAccount validates the input, hashes the password and inserts a new
// user, returning its ID. An existing username yields
// storage.ErrDuplicateUsername.
func (c *Credentials) CreateAccount(ctx context.Context, username, password string) (int64, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return 0, err
	}
	if err := validatePassword(password); err != nil {
		return 0, err
	}

	hash, err := c.hash(password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = c.store.WithTx(ctx, func(ctx context.Context, tx *storage.Store) error {
		var txErr error
		id, txErr = insertAccount(ctx, tx, username, hash)
		return txErr
	})
	if err != nil {
		return 0, err
	}

	slog.Info("account created", "user_id", id, "username", username)
	return id, nil
}

// VerifyCredentials reports whether password matches the hash stored for
// username. An unknown username yields false with no error, after the same
// bcrypt work a real comparison costs. When the stored hash was produced at
// a different cost, it is transparently re-hashed.
func (c *Credentials) VerifyCredentials(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)

	user, err := c.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(c.dummyHash, []byte(password))
			return false, nil
		}
		return false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}

	c.rehashIfNeeded(ctx, username, user.PasswordHash, password)
	return true, nil
}

// rehashIfNeeded upgrades a hash whose cost no longer matches the configured
// one. Failures are logged and otherwise ignored.
func (c *Credentials) rehashIfNeeded(ctx context.Context, username, stored, password string) {
	cost, err := bcrypt.Cost([]byte(stored))
	if err != nil || cost == c.cost {
		return
	}

	hash, err := c.hash(password)
	if err != nil {
		slog.Warn("password rehash failed", "username", username, "error", err)
		return
	}
	if err := c.store.UpdatePasswordHash(ctx, username, hash); err != nil {
		slog.Warn("password rehash failed", "username", username, "error", err)
		return
	}
	slog.Info("password rehashed", "username", username, "old_cost", cost, "new_cost", c.cost)
}

func (c *Credentials) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// insertAccount runs the advisory existence check and the insert on tx. The
// UNIQUE constraint remains the authority if the check races.
func insertAccount(ctx context.Context, tx *storage.Store, username, hash string) (int64, error) {
	exists, err := tx.UserExists(ctx, username)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, storage.ErrDuplicateUsername
	}
	return tx.CreateUser(ctx, username, hash)
}
