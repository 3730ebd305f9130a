package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loan_engine"

// Metrics holds the collectors of the loan engine on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	transactions     *prometheus.CounterVec
	replayDuration   prometheus.Histogram
	retries          *prometheus.CounterVec
	delinquentLoans  *prometheus.GaugeVec
	cobRunDuration   prometheus.Histogram
	cobFailedLoans   prometheus.Counter
	scheduleCacheHit *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Loan transactions by type and outcome.",
		}, []string{"type", "outcome"}),
		replayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replay_duration_seconds",
			Help:      "Time spent regenerating a loan schedule and replaying its transactions.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_retries_total",
			Help:      "Command retries after a retryable failure.",
		}, []string{"operation"}),
		delinquentLoans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delinquent_loans",
			Help:      "Loans per delinquency classification after the last close of business.",
		}, []string{"classification"}),
		cobRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cob_run_duration_seconds",
			Help:      "Duration of close-of-business delinquency runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		cobFailedLoans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cob_failed_loans_total",
			Help:      "Loans that failed to classify during close of business.",
		}),
		scheduleCacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_cache_requests_total",
			Help:      "Schedule cache lookups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.transactions,
		m.replayDuration,
		m.retries,
		m.delinquentLoans,
		m.cobRunDuration,
		m.cobFailedLoans,
		m.scheduleCacheHit,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveTransaction(txType string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "rejected"
	}
	m.transactions.WithLabelValues(txType, outcome).Inc()
}

func (m *Metrics) ObserveReplay(d time.Duration) {
	m.replayDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRetry(operation string, _ error) {
	m.retries.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.scheduleCacheHit.WithLabelValues(result).Inc()
}

// ObserveCOB records a close-of-business run: its duration, failures and the loan count
// per classification. Classifications absent from counts are reset to zero.
func (m *Metrics) ObserveCOB(d time.Duration, failed int, counts map[string]int) {
	m.cobRunDuration.Observe(d.Seconds())
	m.cobFailedLoans.Add(float64(failed))
	m.delinquentLoans.Reset()
	for classification, n := range counts {
		m.delinquentLoans.WithLabelValues(classification).Set(float64(n))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency by mux route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
