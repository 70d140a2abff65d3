// Package health serves the dependency probe mounted at /healthz.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Timeout bounds a whole round of dependency checks.
const Timeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a ping function such as (*sql.DB).PingContext to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Status is the outcome of one dependency check.
type Status struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
}

type Handler struct {
	checks map[string]Checker
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

// Run checks every dependency concurrently and reports whether all passed.
// A slow dependency cannot hold the others past Timeout.
func (h *Handler) Run(ctx context.Context) (map[string]Status, bool) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		healthy = true
		results = make(map[string]Status, len(h.checks))
	)
	var g errgroup.Group
	for name, c := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Check(ctx)
			st := Status{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				st.Status = "error"
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = st
			healthy = healthy && err == nil
			return nil
		})
	}
	g.Wait()
	return results, healthy
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	results, healthy := h.Run(r.Context())

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
