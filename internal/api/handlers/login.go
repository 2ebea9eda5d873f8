package handlers

import (
	"net/http"

	"github.com/hoanghai1803/sportsignup/internal/service"
)

// Login handles POST /api/login. It answers {"valid": true} with 200 when the
// credentials match and {"valid": false} with 401 otherwise, without saying
// which part was wrong.
func Login(creds *service.Credentials) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := readFields(w, r, "username", "password")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		ok, err := creds.VerifyCredentials(r.Context(), fields["username"], fields["password"])
		if err != nil {
			writeServiceError(w, err, "login")
			return
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"valid": false,
				"error": "Invalid username or password",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	}
}
