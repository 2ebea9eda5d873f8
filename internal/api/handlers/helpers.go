package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/hoanghai1803/sportsignup/internal/service"
	"github.com/hoanghai1803/sportsignup/internal/storage"
)

// maxBodyBytes caps request bodies; the forms carry three short fields.
const maxBodyBytes = 64 << 10

// statusClientClosedRequest is recorded when the client disconnected before
// the answer was ready. Nobody reads the body.
const statusClientClosedRequest = 499

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service or storage error onto an HTTP response.
// Storage error text is logged, never sent to the client.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, storage.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, storage.ErrDuplicatePreference):
		writeError(w, http.StatusConflict, "Sport preference already exists")
	case errors.Is(err, storage.ErrUnknownUser), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, storage.ErrStorageUnavailable):
		slog.Warn("storage unavailable", "action", action, "error", err)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	case errors.Is(err, storage.ErrCanceled):
		slog.Debug("request canceled by client", "action", action, "error", err)
		w.WriteHeader(statusClientClosedRequest)
	default:
		slog.Error("request failed", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// readFields extracts the named string fields from a JSON object body or a
// URL-encoded form body. Unknown JSON fields are rejected.
func readFields(w http.ResponseWriter, r *http.Request, names ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	fields := make(map[string]string, len(names))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return nil, fmt.Errorf("parsing form: %w", err)
		}
		for _, name := range names {
			fields[name] = r.PostForm.Get(name)
		}
		return fields, nil
	}

	var body map[string]string
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding JSON body: trailing data")
	}

	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}
	for key := range body {
		if !allowed[key] {
			return nil, fmt.Errorf("decoding JSON body: unknown field %q", key)
		}
	}
	for _, name := range names {
		fields[name] = body[name]
	}
	return fields, nil
}
