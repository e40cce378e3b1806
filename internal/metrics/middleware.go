package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by endpoint",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served by endpoint",
		},
		[]string{"endpoint"},
	)
)

// Endpoint labels.
const (
	EndpointSearch       = "search"
	EndpointAutocomplete = "autocomplete"
	EndpointHealth       = "health"
	EndpointMetrics      = "metrics"
	EndpointOther        = "other"
	EndpointUnknown      = "unknown"
)

var endpoints = map[string]string{
	"/api/v1/search":       EndpointSearch,
	"/api/v1/autocomplete": EndpointAutocomplete,
	"/health":              EndpointHealth,
	"/metrics":             EndpointMetrics,
}

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestsInFlight)
}

// Middleware records HTTP request duration, count and in-flight requests
// per search endpoint.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// The route pattern is only known once chi has matched, so the
			// in-flight gauge is keyed by the raw path.
			inFlight := httpRequestsInFlight.WithLabelValues(endpointOf(r.URL.Path))
			inFlight.Inc()
			defer inFlight.Dec()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			endpoint := EndpointUnknown
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				endpoint = endpointOf(rctx.RoutePattern())
			}
			status := strconv.Itoa(ww.status)

			httpRequestDuration.WithLabelValues(endpoint, r.Method, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(endpoint, r.Method, status).Inc()
		})
	}
}

// endpointOf maps a route to a bounded endpoint label.
func endpointOf(route string) string {
	if route == "" {
		return EndpointUnknown
	}
	if e, ok := endpoints[strings.TrimSuffix(route, "/")]; ok {
		return e
	}
	return EndpointOther
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
