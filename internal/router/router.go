package router

import (
	"net/http"

	"tcg-labeler/internal/config"
	"tcg-labeler/internal/handler"
	"tcg-labeler/internal/metrics"
	"tcg-labeler/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Label    *handler.LabelHandler
	Import   *handler.ImportHandler
	Batch    *handler.BatchHandler
	Settings *handler.SettingsHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth config.AuthConfig, reg *metrics.Registry, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> Logging -> CORS -> APIKeyAuth -> UserIdentity
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(auth.APIKey, logger))
	r.Use(middleware.UserIdentity(auth.JWTSecret, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", reg.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/labels", h.Label.Purchase)
		r.Post("/upload", h.Label.Purchase)

		r.Post("/orders/parse", h.Import.Parse)
		r.Post("/orders/import", h.Import.Import)

		r.Get("/batches", h.Batch.List)
		r.Get("/batches/{batchId}", h.Batch.Get)
		r.Get("/batches/{batchId}/tracking.csv", h.Batch.TrackingCSV)

		r.Get("/settings", h.Settings.Get)
		r.Put("/settings", h.Settings.Save)
	})

	return r
}
