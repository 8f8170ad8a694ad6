// Package health serves the dependency health endpoint.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks   map[string]Checker
	optional map[string]bool
	logger   *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, optional: map[string]bool{}, logger: logger}
}

// Optional marks dependencies the console can run without. Their failure
// reports "degraded" and keeps the status at 200.
func (h *Handler) Optional(names ...string) *Handler {
	for _, n := range names {
		h.optional[n] = true
	}
	return h
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status string `json:"status"`
}

type Response struct {
	Status string            `json:"status"`
	Checks map[string]result `json:"checks"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := Response{Status: "ok", Checks: make(map[string]result, len(h.checks))}
	status := http.StatusOK

	for _, name := range names {
		if err := h.checks[name].Check(ctx); err != nil {
			h.logger.Error("health check failed", "name", name, "error", err)
			resp.Checks[name] = result{Status: "error"}
			if h.optional[name] {
				if resp.Status == "ok" {
					resp.Status = "degraded"
				}
				continue
			}
			resp.Status = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = result{Status: "ok"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
