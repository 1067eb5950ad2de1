package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements Recorder backed by Prometheus collectors.
type PrometheusRecorder struct {
	metricsQueries  *prometheus.CounterVec
	queryDuration   prometheus.Histogram
	eventsRecorded  prometheus.Counter
	eventsDeleted   prometheus.Counter
	exportsBuilt    prometheus.Counter
	postWrites      *prometheus.CounterVec
	postReads       *prometheus.CounterVec
}

// NewPrometheus creates and registers all Prometheus metrics under the
// given namespace using the default registerer.
func NewPrometheus(namespace string) *PrometheusRecorder {
	return &PrometheusRecorder{
		metricsQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metrics_queries_total",
				Help:      "Total analytics metrics queries served, by store tier",
			},
			[]string{"tier"},
		),
		queryDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "metrics_query_duration_seconds",
				Help:      "Duration of analytics metrics queries",
				Buckets:   prometheus.DefBuckets,
			},
		),
		eventsRecorded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "click_events_recorded_total",
				Help:      "Total click events recorded via the tracking endpoint",
			},
		),
		eventsDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "click_events_deleted_total",
				Help:      "Total click events removed by clear operations",
			},
		),
		exportsBuilt: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_exports_total",
				Help:      "Total CSV report exports generated",
			},
		),
		postWrites: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "post_writes_total",
				Help:      "Total post mutations, by serving store tier",
			},
			[]string{"tier"},
		),
		postReads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "post_reads_total",
				Help:      "Total post reads, by serving store tier",
			},
			[]string{"tier"},
		),
	}
}

// IncMetricsQuery increments the query counter for a tier.
func (p *PrometheusRecorder) IncMetricsQuery(tier string) {
	p.metricsQueries.WithLabelValues(tier).Inc()
}

// ObserveQueryDuration records how long a metrics query took.
func (p *PrometheusRecorder) ObserveQueryDuration(duration time.Duration) {
	p.queryDuration.Observe(duration.Seconds())
}

// IncEventRecorded increments the recorded-event counter.
func (p *PrometheusRecorder) IncEventRecorded() {
	p.eventsRecorded.Inc()
}

// AddEventsDeleted adds to the deleted-event counter.
func (p *PrometheusRecorder) AddEventsDeleted(count int64) {
	p.eventsDeleted.Add(float64(count))
}

// IncExportGenerated increments the export counter.
func (p *PrometheusRecorder) IncExportGenerated() {
	p.exportsBuilt.Inc()
}

// IncPostWrite increments the post write counter for a tier.
func (p *PrometheusRecorder) IncPostWrite(tier string) {
	p.postWrites.WithLabelValues(tier).Inc()
}

// IncPostRead increments the post read counter for a tier.
func (p *PrometheusRecorder) IncPostRead(tier string) {
	p.postReads.WithLabelValues(tier).Inc()
}
