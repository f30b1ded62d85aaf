package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one server. Each instance owns
// its registry so tests can build servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Scans           *prometheus.CounterVec
	HintsRevealed   prometheus.Counter
	StreamClients   *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "qrhunt",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "qrhunt",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Scans: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "qrhunt",
				Subsystem: "hunt",
				Name:      "scans_total",
				Help:      "QR scans by result (advanced, completed, decoy or rejection code)",
			},
			[]string{"result"},
		),
		HintsRevealed: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "qrhunt",
				Subsystem: "hunt",
				Name:      "hints_revealed_total",
				Help:      "Timed hints revealed for the first time",
			},
		),
		StreamClients: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "qrhunt",
				Subsystem: "hunt",
				Name:      "stream_clients",
				Help:      "Connected live update clients",
			},
			[]string{"transport"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// middleware records request count and latency by chi route pattern.
func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
