// Package backup exports and restores the users and sports tables as a
// versioned JSON document.
//
// Restores accept plain data only: the decoder rejects unknown fields and
// trailing content, every record is validated before anything is written,
// and all inserts share one transaction.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/hoanghai1803/sportsignup/internal/service"
	"github.com/hoanghai1803/sportsignup/internal/storage"
)

// FormatVersion is the only document version Import accepts.
const FormatVersion = 1

// bcryptHashLen is the length of a modular-crypt bcrypt hash:
// "$2a$", two cost digits, "$", then 53 characters of salt and digest.
const bcryptHashLen = 60

// ErrInvalidDocument wraps every rejection of a backup document's shape or
// content.
var ErrInvalidDocument = errors.New("invalid backup document")

// Document is the on-disk backup format.
type Document struct {
	Version     int          `json:"version"`
	ExportedAt  time.Time    `json:"exported_at"`
	Users       []User       `json:"users"`
	Preferences []Preference `json:"preferences"`
}

// User is one exported account. PasswordHash is the stored bcrypt hash.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Preference is one exported sport preference.
type Preference struct {
	Username  string    `json:"username"`
	Sport     string    `json:"sport"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary reports how many rows an import wrote.
type Summary struct {
	Users       int
	Preferences int
}

// Export writes every user and preference in store to w.
func Export(ctx context.Context, store *storage.Store, w io.Writer) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	prefs, err := store.ListSportPreferences(ctx)
	if err != nil {
		return fmt.Errorf("listing sport preferences: %w", err)
	}

	doc := Document{
		Version:     FormatVersion,
		ExportedAt:  time.Now().UTC(),
		Users:       make([]User, 0, len(users)),
		Preferences: make([]Preference, 0, len(prefs)),
	}
	for _, u := range users {
		doc.Users = append(doc.Users, User{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
		})
	}
	for _, p := range prefs {
		doc.Preferences = append(doc.Preferences, Preference{
			Username:  p.Username,
			Sport:     p.Sport,
			CreatedAt: p.CreatedAt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}

	slog.Info("exported backup", "users", len(doc.Users), "preferences", len(doc.Preferences))
	return nil
}

// Decode parses and validates a backup document without touching storage.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidDocument)
	}

	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Import decodes a backup from r and inserts its rows into store in a single
// transaction. Any existing username or preference aborts the whole import.
func Import(ctx context.Context, store *storage.Store, r io.Reader) (Summary, error) {
	doc, err := Decode(r)
	if err != nil {
		return Summary{}, err
	}

	now := time.Now().UTC()
	err = store.WithTx(ctx, func(ctx context.Context, tx *storage.Store) error {
		for _, u := range doc.Users {
			if _, err := tx.RestoreUser(ctx, u.Username, u.PasswordHash, orNow(u.CreatedAt, now)); err != nil {
				return fmt.Errorf("restoring user %q: %w", u.Username, err)
			}
		}
		for _, p := range doc.Preferences {
			if _, err := tx.RestoreSportPreference(ctx, p.Username, p.Sport, orNow(p.CreatedAt, now)); err != nil {
				return fmt.Errorf("restoring preference for %q: %w", p.Username, err)
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Users: len(doc.Users), Preferences: len(doc.Preferences)}
	slog.Info("imported backup", "users", sum.Users, "preferences", sum.Preferences)
	return sum, nil
}

func (d *Document) validate() error {
	if d.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidDocument, d.Version)
	}

	seen := make(map[string]bool, len(d.Users))
	for i, u := range d.Users {
		if err := checkUsername(u.Username); err != nil {
			return fmt.Errorf("%w: users[%d]: %v", ErrInvalidDocument, i, err)
		}
		if seen[u.Username] {
			return fmt.Errorf("%w: users[%d]: duplicate username %q", ErrInvalidDocument, i, u.Username)
		}
		seen[u.Username] = true
		if len(u.PasswordHash) != bcryptHashLen {
			return fmt.Errorf("%w: users[%d]: password_hash is not a bcrypt hash", ErrInvalidDocument, i)
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return fmt.Errorf("%w: users[%d]: password_hash is not a bcrypt hash", ErrInvalidDocument, i)
		}
	}

	seenPref := make(map[string]bool, len(d.Preferences))
	for i, p := range d.Preferences {
		if err := checkUsername(p.Username); err != nil {
			return fmt.Errorf("%w: preferences[%d]: %v", ErrInvalidDocument, i, err)
		}
		if seenPref[p.Username] {
			return fmt.Errorf("%w: preferences[%d]: duplicate preference for %q", ErrInvalidDocument, i, p.Username)
		}
		seenPref[p.Username] = true
		if strings.TrimSpace(p.Sport) == "" || p.Sport != strings.TrimSpace(p.Sport) {
			return fmt.Errorf("%w: preferences[%d]: sport must be non-empty and trimmed", ErrInvalidDocument, i)
		}
	}
	return nil
}

func checkUsername(username string) error {
	if username != strings.TrimSpace(username) {
		return errors.New("username has surrounding whitespace")
	}
	if utf8.RuneCountInString(username) < service.MinUsernameLength {
		return fmt.Errorf("username must be at least %d characters", service.MinUsernameLength)
	}
	return nil
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
