// Package aggregation buckets scored posts into time periods, joins
// them against price bars and derives correlation tables.
package aggregation

import (
	"sort"
	"time"

	"btc-sentiment-lab/internal/domain"
)

// Period key layouts. Lexicographic order equals chronological order
// for both, so sorted keys line up with sorted timestamps.
const (
	dayKeyFormat  = "06-01-02"
	hourKeyFormat = "06-01-02-15"
)

// PeriodKey truncates a timestamp to its bucket key in UTC.
func PeriodKey(t time.Time, resolution domain.Resolution) string {
	if resolution == domain.ResolutionHourly {
		return t.UTC().Format(hourKeyFormat)
	}
	return t.UTC().Format(dayKeyFormat)
}

// filterByAccounts keeps the posts belonging to any conversation the
// given accounts took part in: first collect the conversation ids of
// the accounts' own posts, then keep every post in those
// conversations, replies from other accounts included. A nil or empty
// filter keeps everything.
func filterByAccounts(posts []*domain.ScoredPost, accountIDs []string) []*domain.ScoredPost {
	if len(accountIDs) == 0 {
		return posts
	}
	selected := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		selected[id] = true
	}
	conversations := make(map[string]bool)
	for _, p := range posts {
		if selected[p.AuthorID] {
			conversations[p.ConversationID] = true
		}
	}

	filtered := make([]*domain.ScoredPost, 0, len(posts))
	for _, p := range posts {
		if conversations[p.ConversationID] {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// bucketize groups posts by period key and computes the per-bucket
// sentiment means and post count, ascending by key.
func bucketize(posts []*domain.ScoredPost, resolution domain.Resolution) []domain.TimeBucketAggregate {
	type sums struct {
		vader, polarity, subjectivity float64
		count                         int
	}
	byKey := make(map[string]*sums)
	for _, p := range posts {
		key := PeriodKey(p.CreatedAt, resolution)
		s := byKey[key]
		if s == nil {
			s = &sums{}
			byKey[key] = s
		}
		s.vader += p.VaderCompound
		s.polarity += p.Polarity
		s.subjectivity += p.Subjectivity
		s.count++
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]domain.TimeBucketAggregate, 0, len(keys))
	for _, k := range keys {
		s := byKey[k]
		n := float64(s.count)
		buckets = append(buckets, domain.TimeBucketAggregate{
			PeriodKey:        k,
			AvgVaderCompound: s.vader / n,
			AvgPolarity:      s.polarity / n,
			AvgSubjectivity:  s.subjectivity / n,
			PostCount:        s.count,
		})
	}
	return buckets
}

// join inner-joins buckets against price bars on period key. Buckets
// without a bar (typically the newest, not-yet-priced period) drop out.
func join(buckets []domain.TimeBucketAggregate, bars []domain.PriceBar, resolution domain.Resolution) *domain.Frame {
	byKey := make(map[string]domain.PriceBar, len(bars))
	for _, b := range bars {
		byKey[b.PeriodKey] = b
	}

	frame := &domain.Frame{Resolution: resolution}
	for _, bucket := range buckets {
		bar, ok := byKey[bucket.PeriodKey]
		if !ok {
			continue
		}
		frame.Rows = append(frame.Rows, domain.JoinedRow{
			PeriodKey:        bucket.PeriodKey,
			Open:             bar.Open,
			High:             bar.High,
			Low:              bar.Low,
			Close:            bar.Close,
			Volume:           bar.Volume,
			AvgVaderCompound: bucket.AvgVaderCompound,
			AvgPolarity:      bucket.AvgPolarity,
			AvgSubjectivity:  bucket.AvgSubjectivity,
			PostCount:        bucket.PostCount,
		})
	}
	return frame
}
