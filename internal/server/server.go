package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playperu/qrhunt/internal/hunt"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Store  Store
	Engine *hunt.Engine
	// Broker fans updates out to stream clients on this instance.
	Broker *Broker
	// Notifier receives updates produced outside the engine. It is the
	// broker itself, or the Redis relay when one is configured.
	Notifier hunt.Notifier
	Metrics  *Metrics
	SPADir   string
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the router. mount, if non-nil, can attach extra routes such as
// the health check.
func New(addr string, logger *slog.Logger, deps Deps, mount func(chi.Router)) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(logger, deps, mount),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler returns the root handler without an http.Server around it.
func NewHandler(logger *slog.Logger, deps Deps, mount func(chi.Router)) http.Handler {
	if deps.Broker == nil {
		deps.Broker = NewBroker()
	}
	if deps.Notifier == nil {
		deps.Notifier = deps.Broker
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(deps.Metrics.middleware)
	r.Use(middleware.Recoverer)

	if mount != nil {
		mount(r)
	}
	addRoutes(r, logger, deps)

	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
