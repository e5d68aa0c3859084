package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muurk/apled/internal/actuator"
)

const unmatchedRoute = "unmatched"

// httpMetrics holds the collectors exposed on the metrics listener.
type httpMetrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	ledState     prometheus.GaugeFunc
	stateChanges *prometheus.CounterVec
}

func newHTTPMetrics(reg *prometheus.Registry, state *actuator.State) *httpMetrics {
	m := &httpMetrics{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apled_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apled_http_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		// Read at scrape time; observers can deliver changes out of order.
		ledState: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "apled_led_state",
				Help: "Current actuator state (1 = on, 0 = off)",
			},
			func() float64 { return boolToFloat(state.Engaged()) },
		),
		stateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apled_state_changes_total",
				Help: "Actuator mutations by operation",
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.ledState,
		m.stateChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// countChanges counts every mutation of state by operation.
func (m *httpMetrics) countChanges(state *actuator.State) {
	state.Subscribe(func(c actuator.Change) {
		m.stateChanges.WithLabelValues(string(c.Source)).Inc()
	})
}

func (m *httpMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *httpMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
