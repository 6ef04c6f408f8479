package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/linkcrawl/internal/crawler"
)

// SeedStep loads the starting links of the run into its engine.
type SeedStep struct {
	loader crawler.SeedLoader
	logger *slog.Logger
}

// SeedStepOption configures a SeedStep.
type SeedStepOption func(*SeedStep)

// WithSeedLogger sets a custom logger for the seed step.
func WithSeedLogger(logger *slog.Logger) SeedStepOption {
	return func(s *SeedStep) {
		s.logger = logger
	}
}

// NewSeedStep creates a seed step reading from loader.
func NewSeedStep(loader crawler.SeedLoader, opts ...SeedStepOption) *SeedStep {
	s := &SeedStep{
		loader: loader,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SeedStep) Name() string {
	return "seed"
}

// Do loads the seeds. A load failure leaves the frontier empty.
func (s *SeedStep) Do(ctx context.Context, run *Run) error {
	n, err := run.Engine.LoadSeeds(ctx, s.loader, run.Source)
	if err != nil {
		return err
	}

	s.logger.Info("seeds loaded",
		"source", run.Source,
		"count", n,
	)
	return nil
}

// CrawlStep drains the engine's frontier.
type CrawlStep struct {
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step.
func NewCrawlStep(opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do runs the crawl loop. Only cancellation produces an error.
func (s *CrawlStep) Do(ctx context.Context, run *Run) error {
	if err := run.Engine.Run(ctx); err != nil {
		return err
	}

	stats := run.Engine.Stats()
	s.logger.Info("crawl finished",
		"source", run.Source,
		"total", stats.Total(),
		"successes", stats.Successes(),
		"failures", stats.Failures(),
		"elapsed", stats.Elapsed(),
	)
	return nil
}

// DefaultPipeline creates the standard seed-then-crawl pipeline.
// It continues past a failed seed load so the run is still reported.
func DefaultPipeline(loader crawler.SeedLoader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := New(
		WithLogger(logger),
		WithContinueOnError(true),
	)
	p.AddSteps(
		NewSeedStep(loader, WithSeedLogger(logger)),
		NewCrawlStep(WithCrawlLogger(logger)),
	)
	return p
}
