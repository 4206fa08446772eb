package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"vidgen/internal/http/handlers"
	"vidgen/internal/infra"
	"vidgen/internal/middleware"
	"vidgen/internal/telemetry"
)

// NewRouter wires middleware and routes for the API binary.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(logger),
		chimw.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", telemetry.Handler())

	r.Post("/v1/videos/generate", app.VideosGenerate)
	r.Get("/v1/predictions", app.PredictionStatus)
	r.Get("/v1/predictions/{id}", app.PredictionStatus)

	return r
}
