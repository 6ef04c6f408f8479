package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/linkcrawl/internal/crawler"
	"github.com/nao1215/linkcrawl/internal/model"
)

// Run is the state shared by the steps of one crawl.
type Run struct {
	// Source is the seed source this crawl starts from.
	Source string

	// Engine owns the frontier, visited set and statistics.
	Engine *crawler.Engine

	// Report is filled in by Pipeline.Execute once the steps are done.
	Report *model.RunReport

	// Err is the first step error, if any.
	Err error
}

// NewRun creates a Run for source backed by engine.
func NewRun(source string, engine *crawler.Engine) *Run {
	return &Run{Source: source, Engine: engine}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each working on the same Run.
type Step interface {
	// Do executes the pipeline step. Returns an error if the step failed;
	// whether later steps still run is up to the pipeline.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. A seed source that cannot be loaded still
// produces a (no-op) crawl and a report this way.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence and then builds run.Report.
//
// Cancellation is checked before each step; a step that is already running
// handles ctx itself. Returns ctx.Err() when cancelled, the first step error
// when continueOnError is false, and nil otherwise.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	cancelled := false
	defer func() {
		run.Report = run.Engine.Report(run.Source)
		if cancelled {
			run.Report.Cancelled = true
		}
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"source", run.Source,
				"reason", ctx.Err(),
			)
			cancelled = true
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"source", run.Source,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"source", run.Source,
				"error", err,
			)

			if run.Err == nil {
				run.Err = err
			}

			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"source", run.Source,
		)
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
