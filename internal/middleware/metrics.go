package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	StoreFallbacks  *prometheus.CounterVec
	SampleResponses *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "govstatus_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "govstatus_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		StoreFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "govstatus_store_fallbacks_total",
			Help: "Reads served by the cache because the primary store failed",
		}, []string{"operation"}),
		SampleResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "govstatus_sample_responses_total",
			Help: "Responses built from sample data because no store could answer",
		}, []string{"endpoint"}),
	}
}

// Middleware records request count and latency per chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// SampleServed counts a degraded-mode response for endpoint
func (m *Metrics) SampleServed(endpoint string) {
	m.SampleResponses.WithLabelValues(endpoint).Inc()
}
