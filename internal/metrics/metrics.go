// Package metrics exposes Prometheus collectors for dataset loads and chart
// renders.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "heatmap"

type Metrics struct {
	registry *prometheus.Registry

	DatasetLoads        *prometheus.CounterVec
	DatasetLoadDuration prometheus.Histogram
	DatasetRecords      prometheus.Gauge
	ChartRenders        *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DatasetLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_loads_total",
				Help:      "Dataset load attempts by outcome (ok, failed).",
			},
			[]string{"outcome"},
		),
		DatasetLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_load_duration_seconds",
				Help:      "Time spent fetching and decoding the dataset.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		DatasetRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_records",
				Help:      "Monthly records in the loaded dataset.",
			},
		),
		ChartRenders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chart_renders_total",
				Help:      "Rendered charts by format (html, svg).",
			},
			[]string{"format"},
		),
	}
	m.registry.MustRegister(
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.DatasetRecords,
		m.ChartRenders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLoad records one load attempt.
func (m *Metrics) ObserveLoad(outcome string, d time.Duration, records int) {
	m.DatasetLoads.WithLabelValues(outcome).Inc()
	m.DatasetLoadDuration.Observe(d.Seconds())
	if outcome == "ok" {
		m.DatasetRecords.Set(float64(records))
	}
}

func (m *Metrics) ObserveRender(format string) {
	m.ChartRenders.WithLabelValues(format).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
