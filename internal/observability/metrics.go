// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Crawler metrics
	ProviderRequests         *prometheus.CounterVec
	QuotaSuspensions         prometheus.Counter
	RateLimitCooldowns       prometheus.Counter
	HandleResolutionFailures prometheus.Counter
	PostsStored              prometheus.Counter
	AuthorsStored            prometheus.Counter

	// Market data metrics
	BarsStored *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal  *prometheus.CounterVec
	PipelineBatchSize  prometheus.Histogram
	PostsDropped       *prometheus.CounterVec
	CleanedPostsStored prometheus.Counter

	// Refresh metrics
	RefreshRunsTotal  *prometheus.CounterVec
	RefreshDuration   prometheus.Histogram
	SnapshotsWritten  prometheus.Counter
	ArchiveRowsStored prometheus.Counter

	// Health metrics
	LastSuccessfulCrawl   prometheus.Gauge
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "btc_sentiment_lab"
	}

	return &Metrics{
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "provider_requests_total",
			Help:      "Total number of provider requests by resource",
		}, []string{"resource"}),
		QuotaSuspensions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "quota_suspensions_total",
			Help:      "Times the crawler slept out the request quota window",
		}),
		RateLimitCooldowns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "rate_limit_cooldowns_total",
			Help:      "Times the provider signaled backpressure inside a 200 response",
		}),
		HandleResolutionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "handle_resolution_failures_total",
			Help:      "Roster handles that could not be resolved to an account id",
		}),
		PostsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "posts_stored_total",
			Help:      "Total number of raw posts upserted",
		}),
		AuthorsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "authors_stored_total",
			Help:      "Total number of authors upserted",
		}),

		BarsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "bars_stored_total",
			Help:      "Total number of price bars upserted by resolution",
		}, []string{"resolution"}),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by status",
		}, []string{"status"}),
		PipelineBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "batch_size",
			Help:      "Raw posts per pipeline batch",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		PostsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "posts_dropped_total",
			Help:      "Posts dropped per pipeline stage",
		}, []string{"stage"}),
		CleanedPostsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cleaned_posts_stored_total",
			Help:      "Total number of cleaned posts inserted",
		}),

		RefreshRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total refresh runs by status",
		}, []string{"status"}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Wall time of one snapshot refresh",
			Buckets:   prometheus.DefBuckets,
		}),
		SnapshotsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "snapshots_written_total",
			Help:      "Snapshot artifacts written",
		}),
		ArchiveRowsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "archive_rows_stored_total",
			Help:      "Bucketed series rows appended to the analytics archive",
		}),

		LastSuccessfulCrawl: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_crawl_timestamp",
			Help:      "Unix timestamp of the last successful crawl run",
		}),
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last successful refresh run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
