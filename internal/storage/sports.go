package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hoanghai1803/sportsignup/internal/models"
)

// CreateSportPreference records the sport for username and returns the row
// ID. A second preference for the same username is reported as
// ErrDuplicatePreference; a username with no account as ErrUnknownUser.
func (s *Store) CreateSportPreference(ctx context.Context, username, sport string) (int64, error) {
	return s.insertSportPreference(ctx, username, sport, nil)
}

// RestoreSportPreference inserts a preference with its original creation
// time, as read from a backup.
func (s *Store) RestoreSportPreference(ctx context.Context, username, sport string, createdAt time.Time) (int64, error) {
	return s.insertSportPreference(ctx, username, sport, &createdAt)
}

func (s *Store) insertSportPreference(ctx context.Context, username, sport string, createdAt *time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		res sql.Result
		err error
	)
	if createdAt == nil {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO sports (username, sport) VALUES (?, ?)`,
			username, sport,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO sports (username, sport, created_at) VALUES (?, ?, ?)`,
			username, sport, formatTime(*createdAt),
		)
	}
	if err != nil {
		return 0, translateErr(fmt.Errorf("creating sport preference: %w", err), ErrDuplicatePreference)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting sport preference id: %w", err)
	}
	return id, nil
}

// FindSportsByUsername returns every preference whose username equals the
// given value exactly. The value is always bound as a parameter. No match
// yields an empty slice.
func (s *Store) FindSportsByUsername(ctx context.Context, username string) ([]models.SportPreference, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, sport, created_at FROM sports WHERE username = ? ORDER BY id`,
		username,
	)
	if err != nil {
		return nil, translateErr(fmt.Errorf("querying sports for %q: %w", username, err), nil)
	}
	defer rows.Close()

	return scanSportPreferences(rows)
}

// ListSportPreferences returns every preference ordered by ID.
func (s *Store) ListSportPreferences(ctx context.Context) ([]models.SportPreference, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, sport, created_at FROM sports ORDER BY id`)
	if err != nil {
		return nil, translateErr(fmt.Errorf("querying sports: %w", err), nil)
	}
	defer rows.Close()

	return scanSportPreferences(rows)
}

func scanSportPreferences(rows *sql.Rows) ([]models.SportPreference, error) {
	prefs := []models.SportPreference{}
	for rows.Next() {
		var (
			p         models.SportPreference
			createdAt sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Username, &p.Sport, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning sport row: %w", err)
		}
		p.CreatedAt = parseTime(createdAt.String)
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(fmt.Errorf("iterating sport rows: %w", err), nil)
	}
	return prefs, nil
}
