// Package health serves the readiness check for the hunt backend's
// infrastructure dependencies.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// SQLite checks that the database answers a query, not just a ping. The
// pool holds one connection, so a long transaction shows up here as a
// timeout.
func SQLite(db *sql.DB) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		var one int
		return db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
	})
}

func Redis(client *redis.Client) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
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

type result struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]result, len(h.checks))
	status := http.StatusOK

	for name, c := range h.checks {
		start := time.Now()
		err := c.Check(ctx)
		res := result{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			h.logger.Error("health check failed", "name", name, "error", err)
			res.Status = "error"
			status = http.StatusServiceUnavailable
		}
		results[name] = res
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
