package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/linkcrawl/internal/crawler"
	"github.com/nao1215/linkcrawl/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when WithConcurrency is not given.
const DefaultConcurrency = 4

// BatchRunner crawls several seed sources concurrently, one fresh engine and
// pipeline per source.
type BatchRunner struct {
	// pipelineFactory creates a new pipeline for each crawl.
	pipelineFactory func() *Pipeline

	// engineFactory creates a new engine for each crawl, so no frontier
	// or visited set is ever shared.
	engineFactory func() *crawler.Engine

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	logger *slog.Logger

	now func() time.Time
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchRunner creates a new BatchRunner.
func NewBatchRunner(pipelineFactory func() *Pipeline, engineFactory func() *crawler.Engine, opts ...BatchOption) *BatchRunner {
	br := &BatchRunner{
		pipelineFactory: pipelineFactory,
		engineFactory:   engineFactory,
		concurrency:     DefaultConcurrency,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(br)
	}

	if br.logger == nil {
		br.logger = slog.Default()
	}

	return br
}

// Run crawls every source and returns one report per source, in input order.
//
// Sources never started because ctx was cancelled get an empty report marked
// as cancelled. The error is ctx.Err() after cancellation and nil otherwise;
// individual crawl failures are only visible in their reports.
func (br *BatchRunner) Run(ctx context.Context, sources []string) ([]*model.RunReport, error) {
	reports := make([]*model.RunReport, len(sources))

	// Each goroutine writes only its own index.
	err := br.RunWithCallback(ctx, sources, func(report *model.RunReport, index int) {
		reports[index] = report
	})

	return reports, err
}

// RunWithCallback crawls every source and calls callback as each crawl
// completes. The callback runs on the crawl's goroutine, so it must be
// safe for concurrent use.
func (br *BatchRunner) RunWithCallback(
	ctx context.Context,
	sources []string,
	callback func(report *model.RunReport, index int),
) error {
	br.logger.Info("starting batch crawl",
		"total_sources", len(sources),
		"concurrency", br.concurrency,
	)

	startTime := br.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(br.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				report := model.NewRunReport(source, br.now())
				report.Cancelled = true
				callback(report, i)
				return gctx.Err()
			default:
			}

			br.logger.Info("crawling seed source",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)

			run := NewRun(source, br.engineFactory())
			if err := br.pipelineFactory().Execute(gctx, run); err != nil {
				br.logger.Warn("crawl ended early",
					"source", source,
					"error", err,
				)
			}

			callback(run.Report, i)

			// Never fail the group; siblings keep running.
			return nil
		})
	}

	err := g.Wait()

	br.logger.Info("batch crawl complete",
		"total_sources", len(sources),
		"elapsed", br.now().Sub(startTime),
	)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
