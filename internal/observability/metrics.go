package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	submissionsTotal            *prometheus.CounterVec
	essayGradesTotal            prometheus.Counter
	reportRequestsTotal         *prometheus.CounterVec
	reportLatencySeconds        prometheus.Histogram
	notificationsPublishedTotal *prometheus.CounterVec
	streamClientsActive         prometheus.Gauge
	timerClientsActive          prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examhub_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_submissions_total",
			Help: "Exam submission attempts by outcome.",
		}, []string{"outcome"})

		essayGradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "examhub_essay_grades_total",
			Help: "Total number of essay answers graded.",
		})

		reportRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_report_requests_total",
			Help: "Performance report requests by cache outcome.",
		}, []string{"result"})

		reportLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "examhub_report_latency_seconds",
			Help:    "Latency distribution for performance report generation.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		notificationsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examhub_notifications_published_total",
			Help: "Notifications published, labelled by type.",
		}, []string{"type"})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "examhub_stream_clients_active",
			Help: "Active notification stream subscribers.",
		})

		timerClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "examhub_timer_clients_active",
			Help: "Active exam timer websocket clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			submissionsTotal, essayGradesTotal,
			reportRequestsTotal, reportLatencySeconds,
			notificationsPublishedTotal, streamClientsActive, timerClientsActive,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsTotal exposes the counter for submission outcomes.
func SubmissionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// EssayGradesTotal exposes the counter for graded essay answers.
func EssayGradesTotal() prometheus.Counter {
	RegisterMetrics()
	return essayGradesTotal
}

// ReportRequests exposes the counter for report cache outcomes.
func ReportRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return reportRequestsTotal
}

// ReportLatency exposes the report generation histogram.
func ReportLatency() prometheus.Histogram {
	RegisterMetrics()
	return reportLatencySeconds
}

// NotificationsPublishedTotal exposes the counter for published notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedTotal
}

// StreamClientsActive exposes the gauge of live notification subscribers.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}

// TimerClientsActive exposes the gauge of live exam timer clients.
func TimerClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return timerClientsActive
}
