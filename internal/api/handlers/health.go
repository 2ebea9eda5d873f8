package handlers

import "net/http"

// Health handles GET /health. It reports process liveness without touching
// the database.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
