// Package metrics exposes Prometheus metrics for the API server: request
// counts and latencies, finished scraping jobs, and the size of each
// record collection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

const namespace = "salesdesk"

// Metrics owns a private registry so several servers (and tests) can
// coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	jobs          *prometheus.CounterVec
	scrapedEvents prometheus.Counter
}

// New registers the process, Go runtime and salesdesk collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scraping_jobs_finished_total",
			Help:      "Scraping jobs that reached a terminal state, by status",
		}, []string{"status"}),
		scrapedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scraped_events_total",
			Help:      "Events stored by completed scraping jobs",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.jobs, m.scrapedEvents,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request. An empty route means no
// pattern matched.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// JobFinished implements scraping.Observer.
func (m *Metrics) JobFinished(status types.JobStatus, eventsFound int) {
	m.jobs.WithLabelValues(string(status)).Inc()
	if status == types.JobCompleted {
		m.scrapedEvents.Add(float64(eventsFound))
	}
}

// WatchTables exports the record count of each table, read at collection
// time.
func (m *Metrics) WatchTables(tables ...types.Table) error {
	return m.registry.Register(&recordCollector{tables: tables})
}

var recordsDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "", "records"),
	"Records currently stored, by kind",
	[]string{"kind"}, nil,
)

// recordCollector reads the collections on every scrape. Kinds that fail
// to load are reported as invalid metrics.
type recordCollector struct {
	tables []types.Table
}

func (c *recordCollector) Describe(ch chan<- *prometheus.Desc) { ch <- recordsDesc }

func (c *recordCollector) Collect(ch chan<- prometheus.Metric) {
	for _, t := range c.tables {
		records, err := t.List()
		if err != nil {
			ch <- prometheus.NewInvalidMetric(recordsDesc, err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(recordsDesc, prometheus.GaugeValue, float64(len(records)), t.Name())
	}
}
