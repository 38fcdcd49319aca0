package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets, // [0.005..10]
		},
		[]string{"method", "path", "status"},
	)
)

// Init registers the metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument measures RPS, latency and in-flight count per request.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses path parameters to placeholders so metric
// label cardinality stays bounded. Unknown shapes pass through as-is.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == "/" {
		return "/"
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" {
		return p
	}
	rest := parts[2:]
	switch parts[1] {
	case "users":
		switch {
		case len(rest) == 0:
			return "/v1/users"
		case len(rest) == 1 && (rest[0] == "renew" || rest[0] == "has-access" || rest[0] == "auth"):
			return p
		case len(rest) == 1:
			return "/v1/users/:id"
		case len(rest) == 2 && rest[0] == "token":
			return "/v1/users/token/:token"
		case len(rest) == 2 && rest[0] == "email":
			return "/v1/users/email/:email"
		case len(rest) == 2 && rest[0] == "email-exists":
			return "/v1/users/email-exists/:email"
		case len(rest) == 2 && rest[1] == "organizations":
			return "/v1/users/:id/organizations"
		case len(rest) == 3 && rest[1] == "permissions":
			return "/v1/users/:id/permissions/:permission"
		case len(rest) == 4 && rest[0] == "check-permission" && rest[2] == "permissions":
			return "/v1/users/check-permission/:id/permissions/:name"
		}
	case "organizations":
		switch {
		case len(rest) == 0:
			return "/v1/organizations"
		case len(rest) == 1:
			return "/v1/organizations/:id"
		case len(rest) == 2 && (rest[1] == "members" || rest[1] == "servers"):
			return "/v1/organizations/:id/" + rest[1]
		}
	}
	return p
}

// statusWriter is a local copy so we can observe the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
