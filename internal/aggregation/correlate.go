package aggregation

import (
	"math"

	"btc-sentiment-lab/internal/domain"
)

// pearson computes the Pearson correlation coefficient of two equal
// length series. Returns NaN for empty input or a zero-variance
// series, matching the EmptyAggregate convention: undefined, not an
// error.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if len(xs) == 0 || len(xs) != len(ys) {
		return math.NaN()
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// metricValue reads the chosen sentiment mean from a joined row.
func metricValue(row *domain.JoinedRow, metric domain.SentimentMetric) float64 {
	switch metric {
	case domain.MetricPolarity:
		return row.AvgPolarity
	case domain.MetricSubjectivity:
		return row.AvgSubjectivity
	default:
		return row.AvgVaderCompound
	}
}

// correlationRow derives one account's table row from its joined frame.
func correlationRow(frame *domain.Frame, metric domain.SentimentMetric, entry domain.RosterEntry) domain.CorrelationRow {
	n := len(frame.Rows)
	sentiments := make([]float64, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	var totalPosts int

	for i := range frame.Rows {
		row := &frame.Rows[i]
		sentiments[i] = metricValue(row, metric)
		opens[i] = row.Open
		highs[i] = row.High
		lows[i] = row.Low
		closes[i] = row.Close
		totalPosts += row.PostCount
	}

	avgPosts := math.NaN()
	if n > 0 {
		avgPosts = float64(totalPosts) / float64(n)
	}

	return domain.CorrelationRow{
		AccountID:         entry.AccountID,
		AccountLabel:      entry.Handle,
		CorrVsClose:       pearson(closes, sentiments),
		CorrVsOpen:        pearson(opens, sentiments),
		CorrVsHigh:        pearson(highs, sentiments),
		CorrVsLow:         pearson(lows, sentiments),
		TotalPostCount:    totalPosts,
		AvgPostsPerPeriod: avgPosts,
	}
}
