package readmodel

import (
	"fmt"

	"btc-sentiment-lab/internal/aggregation"
	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/snapshot"
	"btc-sentiment-lab/internal/storage"
)

// RawTables bundles the three cached source artifacts.
type RawTables struct {
	Posts      []*domain.ScoredPost
	DailyBars  []*domain.DailyBar
	HourlyBars []*domain.HourlyBar
}

// Models serves precomputed artifacts from the snapshot cache. It
// never touches the durable stores; a missing artifact surfaces as
// snapshot.ErrCacheMiss so callers can tell "not refreshed yet" from
// a real failure.
type Models struct {
	cache *snapshot.Cache
}

// NewModels creates a cache-backed read model.
func NewModels(cache *snapshot.Cache) *Models {
	return &Models{cache: cache}
}

// GetRawTables loads the cached posts and price bars.
func (m *Models) GetRawTables() (*RawTables, error) {
	var tables RawTables
	if err := m.cache.Read(LabelDataTweets, &tables.Posts); err != nil {
		return nil, err
	}
	if err := m.cache.Read(LabelBTCDaily, &tables.DailyBars); err != nil {
		return nil, err
	}
	if err := m.cache.Read(LabelBTCHourly, &tables.HourlyBars); err != nil {
		return nil, err
	}
	return &tables, nil
}

// GetCorrelationTable loads the precomputed table for one metric and
// resolution.
func (m *Models) GetCorrelationTable(metric domain.SentimentMetric, resolution domain.Resolution) (*domain.CorrelationTable, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: metric %q", storage.ErrInvalidInput, metric)
	}
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: resolution %q", storage.ErrInvalidInput, resolution)
	}

	var table domain.CorrelationTable
	if err := m.cache.Read(CorrelationLabel(metric, resolution), &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// GetBucketedSeries recomputes the joined, normalized frame for an
// ad hoc account filter from the cached source tables. Filters are
// not enumerable up front, so this is the one read that computes
// instead of loading a precomputed artifact.
func (m *Models) GetBucketedSeries(resolution domain.Resolution, accountIDs []string) (*domain.Frame, error) {
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: resolution %q", storage.ErrInvalidInput, resolution)
	}

	var posts []*domain.ScoredPost
	if err := m.cache.Read(LabelDataTweets, &posts); err != nil {
		return nil, err
	}

	var bars []domain.PriceBar
	if resolution == domain.ResolutionHourly {
		var hourly []*domain.HourlyBar
		if err := m.cache.Read(LabelBTCHourly, &hourly); err != nil {
			return nil, err
		}
		bars = aggregation.HourlyPriceBars(hourly)
	} else {
		var daily []*domain.DailyBar
		if err := m.cache.Read(LabelBTCDaily, &daily); err != nil {
			return nil, err
		}
		bars = aggregation.DailyPriceBars(daily)
	}

	return aggregation.BuildFrame(posts, bars, resolution, accountIDs), nil
}
