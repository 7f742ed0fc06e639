package marketdata

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/storage"
)

// DailyProvider supplies daily bars for a time range.
type DailyProvider interface {
	DailyBars(ctx context.Context, from, to time.Time) ([]*domain.DailyBar, error)
}

// HourlyProvider supplies up to limit hourly bars ending at to.
type HourlyProvider interface {
	HourlyBars(ctx context.Context, limit int, to time.Time) ([]*domain.HourlyBar, error)
}

// Collector fetches price bars from the providers and persists them.
// A fetch error leaves the stores untouched: bars are written only
// after the provider response has been fully decoded.
type Collector struct {
	daily       DailyProvider
	hourly      HourlyProvider
	dailyStore  storage.DailyBarStore
	hourlyStore storage.HourlyBarStore
	logger      *log.Logger
	metrics     *observability.Metrics
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCollectorLogger overrides the default logger.
func WithCollectorLogger(logger *log.Logger) CollectorOption {
	return func(c *Collector) { c.logger = logger }
}

// WithCollectorMetrics attaches Prometheus metrics.
func WithCollectorMetrics(m *observability.Metrics) CollectorOption {
	return func(c *Collector) { c.metrics = m }
}

// NewCollector creates a Collector over the given providers and stores.
func NewCollector(daily DailyProvider, hourly HourlyProvider, dailyStore storage.DailyBarStore, hourlyStore storage.HourlyBarStore, opts ...CollectorOption) *Collector {
	c := &Collector{
		daily:       daily,
		hourly:      hourly,
		dailyStore:  dailyStore,
		hourlyStore: hourlyStore,
		logger:      log.New(os.Stdout, "[marketdata] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches and persists bars for one resolution.
func (c *Collector) Collect(ctx context.Context, resolution domain.Resolution, from, to time.Time) (int, error) {
	switch resolution {
	case domain.ResolutionDaily:
		return c.collectDaily(ctx, from, to)
	case domain.ResolutionHourly:
		return c.collectHourly(ctx, from, to)
	default:
		return 0, fmt.Errorf("%w: resolution %q", storage.ErrInvalidInput, resolution)
	}
}

func (c *Collector) collectDaily(ctx context.Context, from, to time.Time) (int, error) {
	bars, err := c.daily.DailyBars(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetching daily bars: %w", err)
	}
	if len(bars) == 0 {
		c.logger.Printf("no daily bars in [%s, %s]", from.Format("2006-01-02"), to.Format("2006-01-02"))
		return 0, nil
	}
	if err := c.dailyStore.UpsertBulk(ctx, bars); err != nil {
		return 0, fmt.Errorf("storing daily bars: %w", err)
	}
	if c.metrics != nil {
		c.metrics.BarsStored.WithLabelValues(string(domain.ResolutionDaily)).Add(float64(len(bars)))
	}
	c.logger.Printf("stored %d daily bars through %s", len(bars), bars[len(bars)-1].Date.Format("2006-01-02"))
	return len(bars), nil
}

func (c *Collector) collectHourly(ctx context.Context, from, to time.Time) (int, error) {
	limit := maxHistoHourLimit
	if !from.IsZero() && !to.IsZero() {
		if hours := int(to.Sub(from) / time.Hour); hours > 0 && hours < limit {
			limit = hours
		}
	}

	bars, err := c.hourly.HourlyBars(ctx, limit, to)
	if err != nil {
		return 0, fmt.Errorf("fetching hourly bars: %w", err)
	}
	if !from.IsZero() {
		filtered := bars[:0]
		for _, bar := range bars {
			if !bar.Timestamp.Before(from) {
				filtered = append(filtered, bar)
			}
		}
		bars = filtered
	}
	if len(bars) == 0 {
		c.logger.Printf("no hourly bars in [%s, %s]", from.Format(time.RFC3339), to.Format(time.RFC3339))
		return 0, nil
	}
	if err := c.hourlyStore.UpsertBulk(ctx, bars); err != nil {
		return 0, fmt.Errorf("storing hourly bars: %w", err)
	}
	if c.metrics != nil {
		c.metrics.BarsStored.WithLabelValues(string(domain.ResolutionHourly)).Add(float64(len(bars)))
	}
	c.logger.Printf("stored %d hourly bars through %s", len(bars), bars[len(bars)-1].Timestamp.Format(time.RFC3339))
	return len(bars), nil
}
