// Package metrics exposes Prometheus collectors for the enrichment pipeline
// and the database connection pool.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LinksSaved counts links persisted after a successful pipeline run.
	LinksSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkstash_links_saved_total",
		Help: "Links saved after successful enrichment",
	})

	// FetchFailures counts save requests rejected because the source page
	// could not be fetched.
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkstash_fetch_failures_total",
		Help: "Save requests rejected due to page fetch failure",
	})

	// ModerationBlocks counts saves rejected by the text safety filter.
	ModerationBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkstash_moderation_blocks_total",
		Help: "Save requests rejected by the content safety filter",
	})

	// ImagesDropped counts representative images discarded by the image
	// safety check.
	ImagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkstash_images_dropped_total",
		Help: "Representative images dropped as unsafe",
	})

	// SummariesDegraded counts saves that fell back to placeholder summary
	// and empty tags.
	SummariesDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkstash_summaries_degraded_total",
		Help: "Saves stored with placeholder summary because summarization was unavailable",
	})
)

// Handler serves the default registry on /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DatabaseMetrics exports sql.DBStats gauges for one component.
type DatabaseMetrics struct {
	openConns  prometheus.Gauge
	idleConns  prometheus.Gauge
	inUseConns prometheus.Gauge
	waitCount  prometheus.Gauge
}

// NewDatabaseMetrics registers connection pool gauges labeled by component.
func NewDatabaseMetrics(component string) *DatabaseMetrics {
	labels := prometheus.Labels{"component": component}
	return &DatabaseMetrics{
		openConns: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "linkstash_db_open_connections", Help: "Open database connections", ConstLabels: labels,
		}),
		idleConns: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "linkstash_db_idle_connections", Help: "Idle database connections", ConstLabels: labels,
		}),
		inUseConns: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "linkstash_db_in_use_connections", Help: "Database connections in use", ConstLabels: labels,
		}),
		waitCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "linkstash_db_wait_count", Help: "Total connections waited for", ConstLabels: labels,
		}),
	}
}

// UpdateDBStats refreshes the gauges from the pool's current stats.
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.openConns.Set(float64(stats.OpenConnections))
	m.idleConns.Set(float64(stats.Idle))
	m.inUseConns.Set(float64(stats.InUse))
	m.waitCount.Set(float64(stats.WaitCount))
}
