package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"mediaworker/internal/http/handlers"
	"mediaworker/internal/worker"
)

type stubRunner struct{ calls int }

func (s *stubRunner) Run(ctx context.Context) (*worker.Summary, error) {
	s.calls++
	return &worker.Summary{Jobs: []worker.JobSummary{}}, nil
}

func newTestRouter(runner handlers.Runner) http.Handler {
	app := handlers.NewApp(runner, zerolog.Nop())
	return NewRouter(app, zerolog.Nop(), []string{"*"})
}

func TestRouterTriggerMethods(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		runner := &stubRunner{}
		router := newTestRouter(runner)

		req := httptest.NewRequest(method, "/v1/process-jobs", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", method, rec.Code)
		}
		if runner.calls != 1 {
			t.Fatalf("%s runner calls = %d, want 1", method, runner.calls)
		}
	}
}

func TestRouterPreflightBypassesDispatch(t *testing.T) {
	runner := &stubRunner{}
	router := newTestRouter(runner)

	req := httptest.NewRequest(http.MethodOptions, "/v1/process-jobs", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q, want *", got)
	}
	if runner.calls != 0 {
		t.Fatal("preflight must not run a dispatch cycle")
	}
}

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(&stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRouterRequestIDEchoed(t *testing.T) {
	router := newTestRouter(&stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "rid-42" {
		t.Fatalf("request id = %q, want rid-42", got)
	}
}
