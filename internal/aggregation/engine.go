package aggregation

import (
	"context"
	"fmt"
	"log"
	"os"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// Engine builds bucketed sentiment/price series and correlation
// tables from the durable stores. All computation happens in memory;
// the engine never writes.
type Engine struct {
	cleaned storage.CleanedPostStore
	daily   storage.DailyBarStore
	hourly  storage.HourlyBarStore
	logger  *log.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger overrides the default logger.
func WithEngineLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an Engine over the given stores.
func NewEngine(cleaned storage.CleanedPostStore, daily storage.DailyBarStore, hourly storage.HourlyBarStore, opts ...EngineOption) *Engine {
	e := &Engine{
		cleaned: cleaned,
		daily:   daily,
		hourly:  hourly,
		logger:  log.New(os.Stdout, "[aggregation] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildBucketedSeries computes the joined, normalized frame for one
// resolution. accountIDs filters posts to the conversations those
// accounts took part in; nil means all posts.
func (e *Engine) BuildBucketedSeries(ctx context.Context, resolution domain.Resolution, accountIDs []string) (*domain.Frame, error) {
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: resolution %q", storage.ErrInvalidInput, resolution)
	}

	posts, err := e.cleaned.GetScored(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading scored posts: %w", err)
	}
	bars, err := e.priceBars(ctx, resolution)
	if err != nil {
		return nil, err
	}

	return BuildFrame(posts, bars, resolution, accountIDs), nil
}

// BuildCorrelationTable computes one row per roster account for the
// chosen metric and resolution, sorted descending by correlation
// against the close price. Accounts without joinable buckets get NaN
// correlations and sort last.
func (e *Engine) BuildCorrelationTable(ctx context.Context, metric domain.SentimentMetric, resolution domain.Resolution, roster []domain.RosterEntry) (*domain.CorrelationTable, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: metric %q", storage.ErrInvalidInput, metric)
	}
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: resolution %q", storage.ErrInvalidInput, resolution)
	}

	posts, err := e.cleaned.GetScored(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading scored posts: %w", err)
	}
	bars, err := e.priceBars(ctx, resolution)
	if err != nil {
		return nil, err
	}

	table := &domain.CorrelationTable{Metric: metric, Resolution: resolution}
	for _, entry := range roster {
		frame := BuildFrame(posts, bars, resolution, []string{entry.AccountID})
		table.Rows = append(table.Rows, correlationRow(frame, metric, entry))
	}
	table.Sort()

	e.logger.Printf("built %s correlation table for %s: %d accounts", resolution, metric, len(table.Rows))
	return table, nil
}

// priceBars loads one resolution's bars as the resolution-neutral
// join view.
func (e *Engine) priceBars(ctx context.Context, resolution domain.Resolution) ([]domain.PriceBar, error) {
	if resolution == domain.ResolutionHourly {
		bars, err := e.hourly.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading hourly bars: %w", err)
		}
		return HourlyPriceBars(bars), nil
	}

	bars, err := e.daily.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading daily bars: %w", err)
	}
	return DailyPriceBars(bars), nil
}
