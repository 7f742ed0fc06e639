package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/storage"
)

// Processor is the batch runner: it loads raw posts created since a
// cutoff, normalizes them and persists the cleaned output. Re-running
// over an overlapping cutoff is safe because cleaned posts insert
// with conflicts ignored.
type Processor struct {
	pipe    *Pipeline
	raw     storage.RawPostStore
	cleaned storage.CleanedPostStore
	logger  *log.Logger
	metrics *observability.Metrics
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger overrides the default logger.
func WithProcessorLogger(logger *log.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// WithProcessorMetrics attaches Prometheus metrics.
func WithProcessorMetrics(m *observability.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// NewProcessor creates a Processor around an existing Pipeline.
func NewProcessor(pipe *Pipeline, raw storage.RawPostStore, cleaned storage.CleanedPostStore, opts ...ProcessorOption) *Processor {
	p := &Processor{
		pipe:    pipe,
		raw:     raw,
		cleaned: cleaned,
		logger:  log.New(os.Stdout, "[pipeline] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one batch and returns how many cleaned posts were
// written.
func (p *Processor) Run(ctx context.Context, since time.Time) (int, error) {
	posts, err := p.raw.GetCreatedSince(ctx, since)
	if err != nil {
		p.observeRun("error")
		return 0, fmt.Errorf("loading raw posts: %w", err)
	}
	if p.metrics != nil {
		p.metrics.PipelineBatchSize.Observe(float64(len(posts)))
	}
	if len(posts) == 0 {
		p.logger.Printf("no raw posts since %s", since.Format(time.RFC3339))
		p.observeRun("success")
		return 0, nil
	}

	cleaned := p.pipe.Normalize(posts)
	if len(cleaned) > 0 {
		if err := p.cleaned.InsertBulk(ctx, cleaned); err != nil {
			p.observeRun("error")
			return 0, fmt.Errorf("storing cleaned posts: %w", err)
		}
	}

	if p.metrics != nil {
		p.metrics.CleanedPostsStored.Add(float64(len(cleaned)))
	}
	p.observeRun("success")
	p.logger.Printf("normalized %d of %d raw posts", len(cleaned), len(posts))
	return len(cleaned), nil
}

func (p *Processor) observeRun(status string) {
	if p.metrics != nil {
		p.metrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	}
}
