// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the report generator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	recordsIngested    prometheus.Counter
	recordErrors       prometheus.Counter
	validationErrors   prometheus.Counter
	validationWarnings prometheus.Counter
	batchesByStatus    *prometheus.CounterVec
	reportsByType      *prometheus.CounterVec
	qualityScore       prometheus.Histogram
}

// NewCollector creates the collector and registers every metric.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		recordsIngested: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_records_ingested_total",
			Help: "Total transaction records accepted into the ledger",
		}),
		recordErrors: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_record_errors_total",
			Help: "Total records rejected during loading",
		}),
		validationErrors: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_validation_errors_total",
			Help: "Total hard validation errors across batches",
		}),
		validationWarnings: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_validation_warnings_total",
			Help: "Total validation warnings across batches",
		}),
		batchesByStatus: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_batches_total",
			Help: "Ingestion batches by final status",
		}, []string{"status"}),
		reportsByType: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_reports_generated_total",
			Help: "Generated reports by type and status",
		}, []string{"report_type", "status"}),
		qualityScore: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_batch_quality_score",
			Help:    "Distribution of batch quality scores",
			Buckets: []float64{0, 20, 40, 60, 70, 80, 90, 95, 100},
		}),
	}
}

// ObserveBatch records the outcome of one ingestion batch.
func (c *Collector) ObserveBatch(status string, ingested, recordErrors, errors, warnings int, qualityScore float64) {
	c.batchesByStatus.WithLabelValues(status).Inc()
	c.recordsIngested.Add(float64(ingested))
	c.recordErrors.Add(float64(recordErrors))
	c.validationErrors.Add(float64(errors))
	c.validationWarnings.Add(float64(warnings))
	c.qualityScore.Observe(qualityScore)
}

// ObserveReport records one report-generation attempt.
func (c *Collector) ObserveReport(reportType, status string) {
	c.reportsByType.WithLabelValues(reportType, status).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
