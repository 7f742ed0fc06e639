package aggregation

import "btc-sentiment-lab/internal/domain"

// DailyPriceBars converts daily bars to the resolution-neutral join
// view. Volume carries the daily trade volume.
func DailyPriceBars(bars []*domain.DailyBar) []domain.PriceBar {
	out := make([]domain.PriceBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, domain.PriceBar{
			PeriodKey: b.Date.UTC().Format(dayKeyFormat),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return out
}

// HourlyPriceBars converts hourly bars to the join view. Volume
// carries the quote-currency volume.
func HourlyPriceBars(bars []*domain.HourlyBar) []domain.PriceBar {
	out := make([]domain.PriceBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, domain.PriceBar{
			PeriodKey: b.Timestamp.UTC().Format(hourKeyFormat),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.VolumeTo,
		})
	}
	return out
}

// BuildFrame is the pure frame computation: filter posts to the
// accounts' conversations, bucket, join against the bars and
// normalize. It backs both the Engine and cache-fed read models.
func BuildFrame(posts []*domain.ScoredPost, bars []domain.PriceBar, resolution domain.Resolution, accountIDs []string) *domain.Frame {
	filtered := filterByAccounts(posts, accountIDs)
	frame := join(bucketize(filtered, resolution), bars, resolution)
	normalizeFrame(frame)
	return frame
}
