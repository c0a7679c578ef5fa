package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	ua "github.com/mileusna/useragent"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times the requests served by a handler.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var metricLabels = []string{"handler", "method", "path", "status", "response_code", "user_agent"}

// NewMetrics registers the HTTP collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luxvision",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests served.",
		}, metricLabels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "luxvision",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, metricLabels),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Handler instruments next under name.
func (m *Metrics) Handler(name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			srw := newStatusResponseWriter(w)

			defer func(start time.Time) {
				code := srw.Code()
				// client errors would only add label cardinality
				if !reportFromCode(code) {
					return
				}
				label := prometheus.Labels{
					"handler":       name,
					"method":        r.Method,
					"path":          normalizePath(r.URL.Path),
					"status":        srw.StatusCodeClass(),
					"response_code": strconv.Itoa(code),
					"user_agent":    UserAgent(r),
				}
				m.duration.With(label).Observe(time.Since(start).Seconds())
				m.requests.With(label).Inc()
			}(time.Now())

			next.ServeHTTP(srw, r)
		})
	}
}

// UserAgent returns the browser or client name of r.
func UserAgent(r *http.Request) string {
	header := r.Header.Get("User-Agent")
	if header == "" {
		return "unknown"
	}
	return ua.Parse(header).Name
}

// normalizePath replaces ids and slugs following a known collection with a
// placeholder so that every product shares one series.
func normalizePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		if _, err := uuid.Parse(part); err == nil && len(part) == 36 {
			parts[i] = ":id"
			continue
		}
		if i > 0 && parts[i-1] == "slug" {
			parts[i] = ":slug"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func reportFromCode(c int) bool {
	return (c >= 200 && c <= 299) || (c >= 500 && c <= 599)
}
