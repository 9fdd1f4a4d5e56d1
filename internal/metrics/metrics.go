package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courier",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "messages_sent_total",
			Help:      "Messages accepted by the API",
		},
	)

	// Registrations counts register attempts by result (ok, taken, invalid, error).
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "registrations_total",
			Help:      "Registration attempts by result",
		},
		[]string{"result"},
	)

	// Logins counts login attempts by result (ok, invalid, error).
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		},
		[]string{"result"},
	)

	// Users and Messages are refreshed from the database by the stats job.
	Users = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "courier",
			Name:      "users",
			Help:      "Registered users",
		},
	)
	Messages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "courier",
			Name:      "messages",
			Help:      "Stored messages",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestDuration, RequestTotal, MessagesSent, Registrations, Logins, Users, Messages)
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /users/12/messages -> /users/{id}/messages.
func NormalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseUint(p, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncMessagesSent() {
	MessagesSent.Inc()
}

func IncRegistrations(result string) {
	Registrations.WithLabelValues(result).Inc()
}

func IncLogins(result string) {
	Logins.WithLabelValues(result).Inc()
}

// SetTotals publishes the latest user and message counts.
func SetTotals(users, messages int64) {
	Users.Set(float64(users))
	Messages.Set(float64(messages))
}
