package storage

import (
	"context"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when a user with the same username
	// already exists.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicatePreference is returned when the user already has a sport
	// preference recorded.
	ErrDuplicatePreference = errors.New("sport preference already exists")

	// ErrUnknownUser is returned when a sport preference references a
	// username with no account.
	ErrUnknownUser = errors.New("unknown user")

	// ErrStorageUnavailable is returned when the database is locked, busy, or
	// did not answer within the query timeout. Callers may retry with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCanceled is returned when the caller's context was canceled, most
	// often because the client went away. It is not a server fault.
	ErrCanceled = errors.New("request canceled")
)

// storageError keeps the driver error for logging while matching the
// taxonomy sentinel through errors.Is.
type storageError struct {
	kind  error
	cause error
}

func (e *storageError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *storageError) Is(target error) bool {
	return target == e.kind
}

func (e *storageError) Unwrap() error {
	return e.cause
}

// translateErr maps driver errors onto the storage taxonomy. A UNIQUE
// violation becomes conflict (when non-nil); busy, locked, and deadline
// errors become ErrStorageUnavailable; cancellation becomes ErrCanceled.
// Anything else is returned unchanged.
func translateErr(err error, conflict error) error {
	if err == nil {
		return nil
	}

	var se *storageError
	if errors.As(err, &se) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &storageError{kind: ErrStorageUnavailable, cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &storageError{kind: ErrCanceled, cause: err}
	}

	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	code := sqliteErr.Code()
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return &storageError{kind: ErrStorageUnavailable, cause: err}
	case sqlite3.SQLITE_CONSTRAINT:
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(sqliteErr.Error(), "FOREIGN KEY") {
			return &storageError{kind: ErrUnknownUser, cause: err}
		}
		isUnique := code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			strings.Contains(sqliteErr.Error(), "UNIQUE")
		if isUnique && conflict != nil {
			return &storageError{kind: conflict, cause: err}
		}
	}
	return err
}
