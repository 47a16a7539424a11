package handlers

import (
	"net/http"

	"mediaworker/internal/middleware"
)

// ProcessJobs runs one dispatch cycle and reports the batch outcome. GET is
// the scheduler's path, POST the manual one; both behave identically apart
// from the logged trigger source.
func (a *App) ProcessJobs(w http.ResponseWriter, r *http.Request) {
	trigger := "scheduled"
	if r.Method == http.MethodPost {
		trigger = "manual"
	}
	// The query flag is informational only; behavior never branches on it.
	if q := r.URL.Query().Get("trigger"); q != "" {
		trigger = q
	}

	a.log.Info().
		Str("trigger", trigger).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("dispatch requested")

	summary, err := a.runner.Run(r.Context())
	if err != nil {
		a.log.Error().Err(err).Msg("dispatch cycle failed")
		a.json(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	a.json(w, http.StatusOK, summary)
}
