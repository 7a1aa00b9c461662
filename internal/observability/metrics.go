package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	notificationsPublished prometheus.Counter
	liveDelivered          prometheus.Counter
	liveDropped            prometheus.Counter
}

// NewMetrics initializes the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quillpress_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quillpress_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quillpress_notifications_published_total",
		Help: "Durable notification rows written.",
	})
	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quillpress_live_deliveries_total",
		Help: "Messages accepted by a live session channel.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quillpress_live_dropped_total",
		Help: "Messages dropped because a session channel stayed full past the send timeout.",
	})
	registry.MustRegister(requests, duration, published, delivered, dropped)
	return &Metrics{
		registry:               registry,
		handler:                promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:          requests,
		requestDuration:        duration,
		notificationsPublished: published,
		liveDelivered:          delivered,
		liveDropped:            dropped,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// NotificationPublished counts a durable notification write.
func (m *Metrics) NotificationPublished() {
	if m != nil {
		m.notificationsPublished.Inc()
	}
}

// LiveDelivered counts a message accepted by a session channel.
func (m *Metrics) LiveDelivered() {
	if m != nil {
		m.liveDelivered.Inc()
	}
}

// LiveDropped counts a message dropped on send timeout.
func (m *Metrics) LiveDropped() {
	if m != nil {
		m.liveDropped.Inc()
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush lets streaming handlers behind the middleware reach the underlying
// flusher.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
