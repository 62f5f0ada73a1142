// Package telemetry owns the Prometheus registry and the OpenTelemetry
// tracer provider of the API process.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grape"

// Match sources.
const (
	SourceMutualLike = "mutual_like"
	SourceAccept     = "accept"
	SourceManual     = "manual"
)

// Metrics are registered on their own registry so tests can build as many
// instances as they like. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	likesRecorded   *prometheus.CounterVec
	matchesCreated  *prometheus.CounterVec
	unmatches       prometheus.Counter
	messagesSent    prometheus.Counter
	otpRequests     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	notifyDelivered *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		likesRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "likes",
			Name:      "recorded_total",
			Help:      "Likes recorded, by kind",
		}, []string{"kind"}),
		matchesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matches",
			Name:      "created_total",
			Help:      "Matches created, by the operation that created them",
		}, []string{"source"}),
		unmatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matches",
			Name:      "unmatched_total",
			Help:      "Matches deactivated by unmatch",
		}),
		messagesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_sent_total",
			Help:      "Messages persisted",
		}),
		otpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "otp_requests_total",
			Help:      "OTP challenges issued and verified, by step and outcome",
		}, []string{"step", "outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		notifyDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "notifications_total",
			Help:      "Notification delivery attempts, by event type and outcome",
		}, []string{"type", "outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LikeRecorded(superLike bool) {
	if m == nil {
		return
	}
	kind := "like"
	if superLike {
		kind = "super_like"
	}
	m.likesRecorded.WithLabelValues(kind).Inc()
}

func (m *Metrics) MatchCreated(source string) {
	if m == nil {
		return
	}
	m.matchesCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) Unmatched() {
	if m == nil {
		return
	}
	m.unmatches.Inc()
}

func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

func (m *Metrics) OTP(step string, err error) {
	if m == nil {
		return
	}
	m.otpRequests.WithLabelValues(step, outcome(err)).Inc()
}

func (m *Metrics) NotificationDelivered(eventType string, err error) {
	if m == nil {
		return
	}
	m.notifyDelivered.WithLabelValues(eventType, outcome(err)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
