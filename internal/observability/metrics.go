package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	requestsTotal     *prometheus.CounterVec
	latencySeconds    *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	submissionsTotal  *prometheus.CounterVec
	enrollmentsEvents *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edutrack_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_submissions_total",
			Help: "Total number of assignment submissions accepted.",
		}, []string{"timeliness"})

		enrollmentsEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_enrollment_events_total",
			Help: "Total number of enrollment changes processed.",
		}, []string{"event"})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal, submissionsTotal, enrollmentsEvents)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// Submissions exposes the counter for accepted submissions, labelled "on_time" or
// "late".
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// EnrollmentEvents exposes the counter for enroll and unenroll events.
func EnrollmentEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return enrollmentsEvents
}
