package service

import "strings"

const (
	// MinUsernameLength is the shortest accepted username after trimming.
	MinUsernameLength = 3
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
	// MaxPasswordLength is the longest password bcrypt can hash in bytes.
	MaxPasswordLength = 72
)

// ValidationError reports malformed caller input. It is never retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// normalizeUsername trims surrounding whitespace and checks length.
func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", invalid("username", "Username is required")
	}
	if len([]rune(username)) < MinUsernameLength {
		return "", invalid("username", "Username must be at least 3 characters")
	}
	return username, nil
}

func validatePassword(password string) error {
	if password == "" {
		return invalid("password", "Password is required")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", "Password must be at least 6 characters")
	}
	if len(password) > MaxPasswordLength {
		return invalid("password", "Password must be at most 72 bytes")
	}
	return nil
}

func normalizeSport(sport string) (string, error) {
	sport = strings.TrimSpace(sport)
	if sport == "" {
		return "", invalid("sport", "Sport is required")
	}
	return sport, nil
}
