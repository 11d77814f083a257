package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	runsTotal              *prometheus.CounterVec
	testCasesEvaluated     *prometheus.CounterVec
	verdictsPublishedTotal *prometheus.CounterVec
	sseClientsActive       prometheus.Gauge
	consoleSocketsActive   prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the IDE API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ide_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ide_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ide_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ide_runs_total",
			Help: "Runs executed from the IDE, by mode and outcome.",
		}, []string{"mode", "outcome"})

		testCasesEvaluated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ide_test_cases_evaluated_total",
			Help: "Test cases evaluated, by result.",
		}, []string{"result"})

		verdictsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ide_verdicts_published_total",
			Help: "Submit verdicts delivered to subscribers, by origin.",
		}, []string{"origin"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ide_sse_clients_active",
			Help: "Open verdict stream connections.",
		})

		consoleSocketsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ide_console_sockets_active",
			Help: "Open console websocket connections.",
		})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			runsTotal, testCasesEvaluated, verdictsPublishedTotal,
			sseClientsActive, consoleSocketsActive,
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

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Runs exposes the run counter.
func Runs() *prometheus.CounterVec {
	RegisterMetrics()
	return runsTotal
}

// TestCasesEvaluated exposes the per-case counter.
func TestCasesEvaluated() *prometheus.CounterVec {
	RegisterMetrics()
	return testCasesEvaluated
}

// VerdictsPublished exposes the verdict fan-out counter.
func VerdictsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return verdictsPublishedTotal
}

// SSEClientsActive exposes the open SSE connection gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// ConsoleSocketsActive exposes the open websocket gauge.
func ConsoleSocketsActive() prometheus.Gauge {
	RegisterMetrics()
	return consoleSocketsActive
}
