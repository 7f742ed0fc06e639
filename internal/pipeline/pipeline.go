package pipeline

import (
	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/sentiment"
)

// namedStage pairs a stage with its metric label.
type namedStage struct {
	name string
	fn   Stage
}

// Pipeline is the fixed ordered chain. A record dropped by one stage
// is never re-admitted by a later one.
type Pipeline struct {
	stages  []namedStage
	scorer  *sentiment.Scorer
	metrics *observability.Metrics
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineMetrics attaches Prometheus metrics.
func WithPipelineMetrics(m *observability.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates the standard chain with the default scorer.
func New(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		stages: []namedStage{
			{"strip_patterns", StripPatterns},
			{"spam_filter_1", SpamFilter1},
			{"stitch_replies", StitchReplies},
			{"demojize", Demojize},
			{"spam_filter_2", SpamFilter2},
			{"normalize_lexicon", NormalizeLexicon},
			{"spam_filter_3", SpamFilter3},
		},
		scorer: sentiment.NewScorer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Normalize runs the batch through every stage and scores the
// survivors. Identical batches with the same static tables always
// produce identical output.
func (p *Pipeline) Normalize(posts []*domain.RawPost) []*domain.CleanedPost {
	records := newRecords(posts)
	for _, stage := range p.stages {
		before := len(records)
		records = stage.fn(records)
		if p.metrics != nil && before > len(records) {
			p.metrics.PostsDropped.WithLabelValues(stage.name).Add(float64(before - len(records)))
		}
	}

	cleaned := make([]*domain.CleanedPost, 0, len(records))
	for _, r := range records {
		scores := p.scorer.Score(r.Text)
		cleaned = append(cleaned, &domain.CleanedPost{
			PostID:         r.PostID,
			NormalizedText: r.Text,
			VaderCompound:  scores.Compound,
			Polarity:       scores.Polarity,
			Subjectivity:   scores.Subjectivity,
		})
	}
	return cleaned
}
