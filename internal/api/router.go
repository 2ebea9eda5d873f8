package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/sportsignup/internal/api/handlers"
	"github.com/hoanghai1803/sportsignup/internal/config"
	"github.com/hoanghai1803/sportsignup/internal/service"
)

// NewRouter creates and configures the HTTP router with the signup, login,
// search and health routes.
func NewRouter(creds *service.Credentials, prefs *service.Preferences, reg *service.Registrar, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS(cfg.Server.AllowedOrigin))

	// Liveness only; never touches the database.
	r.Get("/health", handlers.Health())

	r.Route("/api", func(api chi.Router) {
		api.Post("/signup", handlers.Signup(reg))
		api.Post("/login", handlers.Login(creds))

		api.Get("/search", handlers.Search(prefs))
		api.Post("/search", handlers.Search(prefs))

		api.Get("/users/{username}/sport", handlers.GetProfile(prefs))
	})

	return r
}
