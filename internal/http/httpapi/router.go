// Package httpapi assembles the worker's router.
package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mediaworker/internal/http/handlers"
	"mediaworker/internal/middleware"
)

// NewRouter wires middleware and routes. OPTIONS preflights are answered by
// the CORS middleware before routing happens.
func NewRouter(app *handlers.App, log zerolog.Logger, allowedOrigins []string) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(log),
		middleware.CORS(allowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Get("/v1/process-jobs", app.ProcessJobs)
	r.Post("/v1/process-jobs", app.ProcessJobs)

	return r
}
