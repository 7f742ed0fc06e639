package domain

// SentimentMetric selects which averaged sentiment column a correlation
// table is built against.
type SentimentMetric string

const (
	MetricVaderCompound SentimentMetric = "avg_vader_compound"
	MetricPolarity      SentimentMetric = "avg_tb_polarity"
	MetricSubjectivity  SentimentMetric = "avg_tb_subjectivity"
)

// SentimentMetrics lists all supported metrics in serving order.
var SentimentMetrics = []SentimentMetric{
	MetricVaderCompound,
	MetricSubjectivity,
	MetricPolarity,
}

// Valid reports whether the metric is one of the supported values.
func (m SentimentMetric) Valid() bool {
	switch m {
	case MetricVaderCompound, MetricPolarity, MetricSubjectivity:
		return true
	}
	return false
}

// TimeBucketAggregate holds the per-period sentiment means and post count
// for one bucket. Ephemeral: computed on demand, never stored raw.
type TimeBucketAggregate struct {
	PeriodKey        string
	AvgVaderCompound float64
	AvgPolarity      float64
	AvgSubjectivity  float64
	PostCount        int
}

// JoinedRow is one period of the bucketed sentiment series joined with
// its price bar, plus the min-max normalized columns.
type JoinedRow struct {
	PeriodKey string

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	AvgVaderCompound float64
	AvgPolarity      float64
	AvgSubjectivity  float64
	PostCount        int

	OpenNorm             float64
	HighNorm             float64
	LowNorm              float64
	CloseNorm            float64
	VolumeNorm           float64
	AvgVaderCompoundNorm float64
	AvgPolarityNorm      float64
	AvgSubjectivityNorm  float64
	PostCountNorm        float64
}

// Frame is an ordered joined series, ascending by period key.
type Frame struct {
	Resolution Resolution
	Rows       []JoinedRow
}

// BucketArchiveRow is one refresh-time joined row persisted to the
// analytics archive, tagged with the account filter that produced it.
type BucketArchiveRow struct {
	AccountLabel string // roster handle, or "all"
	Resolution   string
	PeriodKey    string

	Open             float64
	High             float64
	Low              float64
	Close            float64
	Volume           float64
	AvgVaderCompound float64
	AvgPolarity      float64
	AvgSubjectivity  float64
	PostCount        int
}
