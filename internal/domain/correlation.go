package domain

import (
	"math"
	"sort"
)

// CorrelationRow is one tracked account's sentiment/price correlations.
type CorrelationRow struct {
	AccountID         string
	AccountLabel      string
	CorrVsClose       float64
	CorrVsOpen        float64
	CorrVsHigh        float64
	CorrVsLow         float64
	TotalPostCount    int
	AvgPostsPerPeriod float64
}

// CorrelationTable is an ordered sequence of CorrelationRow, one per
// tracked account, sorted descending by CorrVsClose. NaN correlations
// (accounts with no joinable buckets) sort last. Ties keep roster order.
type CorrelationTable struct {
	Metric     SentimentMetric
	Resolution Resolution
	Rows       []CorrelationRow
}

// Sort orders rows descending by CorrVsClose with a stable tie-break on
// the existing (roster) order. The table is always fully re-sorted.
func (t *CorrelationTable) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i].CorrVsClose, t.Rows[j].CorrVsClose
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a > b
	})
}
