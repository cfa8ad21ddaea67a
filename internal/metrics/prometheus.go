package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Prometheus struct {
	flushes       *prometheus.CounterVec
	flushLatency  prometheus.Histogram
	merges        *prometheus.CounterVec
	mergedRecords *prometheus.CounterVec
	mergeLatency  *prometheus.HistogramVec
	importFiles   *prometheus.CounterVec
	parses        *prometheus.CounterVec
	parseLatency  prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	circuitState  *prometheus.GaugeVec
	requests      *prometheus.CounterVec
	reqLatency    *prometheus.HistogramVec
}

func NewPrometheus(namespace string) *Prometheus {
	return &Prometheus{
		flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_flushes_total",
				Help:      "Ledger flushes to durable storage by outcome",
			},
			[]string{"success"},
		),
		flushLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_flush_duration_seconds",
				Help:      "Latency of ledger flushes",
				Buckets:   prometheus.DefBuckets,
			},
		),
		merges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merges_total",
				Help:      "Reconciliation merges by source",
			},
			[]string{"source"},
		),
		mergedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merged_transactions_total",
				Help:      "Transactions seen by merges, by source and result",
			},
			[]string{"source", "result"},
		),
		mergeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "merge_duration_seconds",
				Help:      "Latency of reconciliation merges",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		importFiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_files_total",
				Help:      "Files processed by the batch import queue",
			},
			[]string{"mode", "success"},
		),
		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parser_calls_total",
				Help:      "Document parser calls by outcome",
			},
			[]string{"outcome"},
		),
		parseLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "parser_duration_seconds",
				Help:      "Latency of document parser calls",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_cache_lookups_total",
				Help:      "Ledger cache lookups by result",
			},
			[]string{"result"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern and status code",
			},
			[]string{"route", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of HTTP requests by route pattern",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

func (p *Prometheus) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		p.flushes,
		p.flushLatency,
		p.merges,
		p.mergedRecords,
		p.mergeLatency,
		p.importFiles,
		p.parses,
		p.parseLatency,
		p.cacheLookups,
		p.circuitState,
		p.requests,
		p.reqLatency,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prometheus) RecordFlush(success bool, duration time.Duration) {
	p.flushes.WithLabelValues(strconv.FormatBool(success)).Inc()
	p.flushLatency.Observe(duration.Seconds())
}

func (p *Prometheus) RecordMerge(source string, inserted, duplicates int, duration time.Duration) {
	p.merges.WithLabelValues(source).Inc()
	p.mergedRecords.WithLabelValues(source, "inserted").Add(float64(inserted))
	p.mergedRecords.WithLabelValues(source, "duplicate").Add(float64(duplicates))
	p.mergeLatency.WithLabelValues(source).Observe(duration.Seconds())
}

func (p *Prometheus) RecordImportFile(mode string, success bool) {
	p.importFiles.WithLabelValues(mode, strconv.FormatBool(success)).Inc()
}

func (p *Prometheus) RecordParse(outcome string, duration time.Duration) {
	p.parses.WithLabelValues(outcome).Inc()
	p.parseLatency.Observe(duration.Seconds())
}

func (p *Prometheus) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookups.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordCircuitState(name string, state CircuitState) {
	p.circuitState.WithLabelValues(name).Set(float64(state))
}

func (p *Prometheus) RecordRequest(route string, status int, duration time.Duration) {
	p.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	p.reqLatency.WithLabelValues(route).Observe(duration.Seconds())
}
