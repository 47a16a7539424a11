// Package handlers exposes the worker's HTTP surface: the trigger endpoint
// the scheduler and dashboard call, plus a liveness probe.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"mediaworker/internal/infra"
	"mediaworker/internal/worker"
)

// Runner executes one dispatch cycle; *worker.Dispatcher in production.
type Runner interface {
	Run(ctx context.Context) (*worker.Summary, error)
}

// App bundles the handler dependencies.
type App struct {
	runner Runner
	log    infra.Logger
}

// NewApp builds the handler container.
func NewApp(runner Runner, log infra.Logger) *App {
	return &App{runner: runner, log: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
