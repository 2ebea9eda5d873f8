package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/sportsignup/internal/service"
)

type sportResult struct {
	Username string `json:"username"`
	Sport    string `json:"sport"`
}

type searchResponse struct {
	Found    bool          `json:"found"`
	Username string        `json:"username"`
	Data     []sportResult `json:"data"`
}

// Search handles GET /api/search?username=... and POST /api/search. The
// username is matched exactly; no match is a 200 with found=false.
func Search(prefs *service.Preferences) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if r.Method == http.MethodPost {
			fields, err := readFields(w, r, "username")
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			username = fields["username"]
		}
		username = strings.TrimSpace(username)

		found, err := prefs.FindByUsername(r.Context(), username)
		if err != nil {
			writeServiceError(w, err, "search")
			return
		}

		resp := searchResponse{
			Found:    len(found) > 0,
			Username: username,
			Data:     make([]sportResult, 0, len(found)),
		}
		for _, p := range found {
			resp.Data = append(resp.Data, sportResult{Username: p.Username, Sport: p.Sport})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GetProfile handles GET /api/users/{username}/sport. It returns the user's
// single sport preference or 404.
func GetProfile(prefs *service.Preferences) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		p, err := prefs.Profile(r.Context(), username)
		if err != nil {
			writeServiceError(w, err, "profile")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
