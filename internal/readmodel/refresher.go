// Package readmodel precomputes and serves the presentation-layer
// artifacts: raw tables, joined series and correlation tables.
package readmodel

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"btc-sentiment-lab/internal/aggregation"
	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/snapshot"
	"btc-sentiment-lab/internal/storage"
)

// Snapshot labels. The per-metric correlation tables append a
// resolution suffix: "_d" for daily, "_h" for hourly.
const (
	LabelDataTweets = "data_tweets"
	LabelBTCDaily   = "btc_daily"
	LabelBTCHourly  = "btc_hourly"
)

// allAccountsLabel tags unfiltered archive rows.
const allAccountsLabel = "all"

// CorrelationLabel is the snapshot label of one metric/resolution
// correlation table.
func CorrelationLabel(metric domain.SentimentMetric, resolution domain.Resolution) string {
	if resolution == domain.ResolutionHourly {
		return string(metric) + "_h"
	}
	return string(metric) + "_d"
}

// Refresher recomputes every snapshot artifact from the durable
// stores. It runs on a fixed cadence next to an in-flight crawl; the
// cache's atomic writes keep readers consistent.
type Refresher struct {
	engine  *aggregation.Engine
	cache   *snapshot.Cache
	cleaned storage.CleanedPostStore
	daily   storage.DailyBarStore
	hourly  storage.HourlyBarStore
	archive storage.BucketArchiveStore
	roster  []domain.RosterEntry
	logger  *log.Logger
	metrics *observability.Metrics
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithArchive enables archiving the joined all-accounts frames.
func WithArchive(archive storage.BucketArchiveStore) RefresherOption {
	return func(r *Refresher) { r.archive = archive }
}

// WithRefresherLogger overrides the default logger.
func WithRefresherLogger(logger *log.Logger) RefresherOption {
	return func(r *Refresher) { r.logger = logger }
}

// WithRefresherMetrics attaches Prometheus metrics.
func WithRefresherMetrics(m *observability.Metrics) RefresherOption {
	return func(r *Refresher) { r.metrics = m }
}

// NewRefresher creates a Refresher for the given roster.
func NewRefresher(engine *aggregation.Engine, cache *snapshot.Cache, cleaned storage.CleanedPostStore, daily storage.DailyBarStore, hourly storage.HourlyBarStore, roster []domain.RosterEntry, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		engine:  engine,
		cache:   cache,
		cleaned: cleaned,
		daily:   daily,
		hourly:  hourly,
		roster:  roster,
		logger:  log.New(os.Stdout, "[refresh] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh rebuilds and atomically replaces every artifact. A failure
// leaves earlier artifacts from this run in place; each label is
// individually consistent.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()
	written, err := r.refresh(ctx)
	if r.metrics != nil {
		r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
		r.metrics.SnapshotsWritten.Add(float64(written))
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.RefreshRunsTotal.WithLabelValues(status).Inc()
		if err == nil {
			r.metrics.LastSuccessfulRefresh.SetToCurrentTime()
		}
	}
	if err == nil {
		r.logger.Printf("refreshed %d snapshots in %s", written, time.Since(start).Round(time.Millisecond))
	}
	return err
}

func (r *Refresher) refresh(ctx context.Context) (int, error) {
	posts, err := r.cleaned.GetScored(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading scored posts: %w", err)
	}
	dailyBars, err := r.daily.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading daily bars: %w", err)
	}
	hourlyBars, err := r.hourly.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading hourly bars: %w", err)
	}

	written := 0
	for label, artifact := range map[string]any{
		LabelDataTweets: posts,
		LabelBTCDaily:   dailyBars,
		LabelBTCHourly:  hourlyBars,
	} {
		if err := r.cache.Write(label, artifact); err != nil {
			return written, err
		}
		written++
	}

	for _, metric := range domain.SentimentMetrics {
		for _, resolution := range []domain.Resolution{domain.ResolutionDaily, domain.ResolutionHourly} {
			table, err := r.engine.BuildCorrelationTable(ctx, metric, resolution, r.roster)
			if err != nil {
				return written, fmt.Errorf("building %s %s table: %w", resolution, metric, err)
			}
			if err := r.cache.Write(CorrelationLabel(metric, resolution), table); err != nil {
				return written, err
			}
			written++
		}
	}

	if r.archive != nil {
		if err := r.archiveFrames(ctx); err != nil {
			return written, err
		}
	}
	return written, nil
}

// archiveFrames appends the unfiltered joined series for both
// resolutions to the analytics archive.
func (r *Refresher) archiveFrames(ctx context.Context) error {
	var rows []*domain.BucketArchiveRow
	for _, resolution := range []domain.Resolution{domain.ResolutionDaily, domain.ResolutionHourly} {
		frame, err := r.engine.BuildBucketedSeries(ctx, resolution, nil)
		if err != nil {
			return fmt.Errorf("building %s archive frame: %w", resolution, err)
		}
		for i := range frame.Rows {
			row := &frame.Rows[i]
			rows = append(rows, &domain.BucketArchiveRow{
				AccountLabel:     allAccountsLabel,
				Resolution:       string(resolution),
				PeriodKey:        row.PeriodKey,
				Open:             row.Open,
				High:             row.High,
				Low:              row.Low,
				Close:            row.Close,
				Volume:           row.Volume,
				AvgVaderCompound: row.AvgVaderCompound,
				AvgPolarity:      row.AvgPolarity,
				AvgSubjectivity:  row.AvgSubjectivity,
				PostCount:        row.PostCount,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.archive.InsertBulk(ctx, rows); err != nil {
		return fmt.Errorf("archiving joined series: %w", err)
	}
	if r.metrics != nil {
		r.metrics.ArchiveRowsStored.Add(float64(len(rows)))
	}
	return nil
}
