package handlers

import (
	"net/http"

	"github.com/hoanghai1803/sportsignup/internal/service"
)

type signupResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Sport    string `json:"sport"`
}

// Signup handles POST /api/signup. It accepts username, password and sport
// and creates the account and preference atomically.
func Signup(reg *service.Registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := readFields(w, r, "username", "password", "sport")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		res, err := reg.Signup(r.Context(), service.SignupRequest{
			Username: fields["username"],
			Password: fields["password"],
			Sport:    fields["sport"],
		})
		if err != nil {
			writeServiceError(w, err, "signup")
			return
		}

		writeJSON(w, http.StatusCreated, signupResponse{
			ID:       res.User.ID,
			Username: res.User.Username,
			Sport:    res.Preference.Sport,
		})
	}
}
