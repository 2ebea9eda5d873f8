package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hoanghai1803/sportsignup/internal/models"
	"github.com/hoanghai1803/sportsignup/internal/storage"
)

// SignupRequest carries the raw signup form fields.
type SignupRequest struct {
	Username string
	Password string
	Sport    string
}

// SignupResult is the account and preference created by a signup.
type SignupResult struct {
	User       models.User
	Preference models.SportPreference
}

// Registrar composes account creation and preference recording into one
// atomic signup.
type Registrar struct {
	store *storage.Store
	creds *Credentials
}

// NewRegistrar creates a Registrar sharing the credential store's database.
func NewRegistrar(store *storage.Store, creds *Credentials) *Registrar {
	return &Registrar{store: store, creds: creds}
}

// Signup validates every field, then creates the user and the sport
// preference in a single transaction. Either both rows exist afterwards or
// neither does.
func (r *Registrar) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || strings.TrimSpace(req.Sport) == "" {
		return nil, invalid("", "All fields are required")
	}
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	sport, err := normalizeSport(req.Sport)
	if err != nil {
		return nil, err
	}

	// Hash before BEGIN so the write lock is not held across bcrypt.
	hash, err := r.creds.hash(req.Password)
	if err != nil {
		return nil, err
	}

	res := &SignupResult{}
	err = r.store.WithTx(ctx, func(ctx context.Context, tx *storage.Store) error {
		userID, err := insertAccount(ctx, tx, username, hash)
		if err != nil {
			return err
		}
		prefID, err := tx.CreateSportPreference(ctx, username, sport)
		if err != nil {
			return err
		}
		res.User = models.User{ID: userID, Username: username}
		res.Preference = models.SportPreference{ID: prefID, Username: username, Sport: sport}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("signup completed", "user_id", res.User.ID, "username", username)
	return res, nil
}
