package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hoanghai1803/sportsignup/internal/models"
	"github.com/hoanghai1803/sportsignup/internal/storage"
)

// Preferences owns the one-sport-per-user mapping. There is no update path:
// a second SetPreference for the same user fails.
type Preferences struct {
	store *storage.Store
}

// NewPreferences creates a preference store.
func NewPreferences(store *storage.Store) *Preferences {
	return &Preferences{store: store}
}

// SetPreference records sport for username. It fails with
// storage.ErrDuplicatePreference when the user already has one.
func (p *Preferences) SetPreference(ctx context.Context, username, sport string) error {
	username, err := normalizeUsername(username)
	if err != nil {
		return err
	}
	sport, err = normalizeSport(sport)
	if err != nil {
		return err
	}

	if _, err := p.store.CreateSportPreference(ctx, username, sport); err != nil {
		return err
	}
	slog.Info("sport preference recorded", "username", username)
	return nil
}

// FindByUsername returns all preferences whose username equals the trimmed
// input exactly. Absence is an empty slice, not an error.
func (p *Preferences) FindByUsername(ctx context.Context, username string) ([]models.SportPreference, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return []models.SportPreference{}, nil
	}
	return p.store.FindSportsByUsername(ctx, username)
}

// Profile returns the single preference for username, or storage.ErrNotFound.
func (p *Preferences) Profile(ctx context.Context, username string) (*models.SportPreference, error) {
	prefs, err := p.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		return nil, storage.ErrNotFound
	}
	return &prefs[0], nil
}
