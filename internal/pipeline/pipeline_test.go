package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/linkcrawl/internal/crawler"
	applog "github.com/nao1215/linkcrawl/internal/log"
)

// siteGraph is a tiny link graph served by graphFetcher.
var siteGraph = map[string][]string{
	"http://a.test/":      {"/page", "http://b.test/"},
	"http://a.test/page":  {"/"},
	"http://b.test/":      {"/other"},
	"http://b.test/other": {},
}

func graphFetcher() crawler.Fetcher {
	return crawler.FetcherFunc(func(_ context.Context, pageURL string) ([]string, error) {
		hrefs, ok := siteGraph[pageURL]
		if !ok {
			return nil, &crawler.StatusError{URL: pageURL, StatusCode: 404}
		}
		return hrefs, nil
	})
}

// mapSeedLoader serves seed lists by source name.
type mapSeedLoader map[string][]string

func (m mapSeedLoader) Load(_ context.Context, source string) ([]string, error) {
	links, ok := m[source]
	if !ok {
		return nil, &crawler.SeedLoadError{Source: source, Err: errors.New("unknown source")}
	}
	return links, nil
}

func newEngine() *crawler.Engine {
	return crawler.NewEngine(graphFetcher())
}

// recordingStep records its execution and optionally fails.
type recordingStep struct {
	name string
	err  error

	mu    *sync.Mutex
	order *[]string
}

func (s recordingStep) Name() string { return s.name }

func (s recordingStep) Do(_ context.Context, _ *Run) error {
	s.mu.Lock()
	*s.order = append(*s.order, s.name)
	s.mu.Unlock()
	return s.err
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order and builds the report", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var order []string
		p := New(WithLogger(applog.Discard()))
		p.AddStep(recordingStep{name: "first", mu: &mu, order: &order})
		p.AddStep(recordingStep{name: "second", mu: &mu, order: &order})

		run := NewRun("seeds.json", newEngine())
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(order, []string{"first", "second"}) {
			t.Errorf("expected [first second], got %v", order)
		}
		if run.Report == nil || run.Report.SeedSource != "seeds.json" {
			t.Errorf("expected report for seeds.json, got %+v", run.Report)
		}
		if p.StepCount() != 2 || !slices.Equal(p.StepNames(), []string{"first", "second"}) {
			t.Errorf("unexpected steps: %v", p.StepNames())
		}
	})

	t.Run("stops on error by default", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var order []string
		boom := errors.New("boom")
		p := New(WithLogger(applog.Discard()))
		p.AddSteps(
			recordingStep{name: "fails", err: boom, mu: &mu, order: &order},
			recordingStep{name: "skipped", mu: &mu, order: &order},
		)

		run := NewRun("seeds.json", newEngine())
		if err := p.Execute(context.Background(), run); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if !slices.Equal(order, []string{"fails"}) {
			t.Errorf("expected only the failing step, got %v", order)
		}
		if !errors.Is(run.Err, boom) || run.Report == nil {
			t.Error("expected error and report to be recorded")
		}
	})

	t.Run("continue on error", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var order []string
		p := New(WithLogger(applog.Discard()), WithContinueOnError(true))
		p.AddSteps(
			recordingStep{name: "fails", err: errors.New("boom"), mu: &mu, order: &order},
			recordingStep{name: "runs", mu: &mu, order: &order},
		)

		if err := p.Execute(context.Background(), NewRun("seeds.json", newEngine())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(order, []string{"fails", "runs"}) {
			t.Errorf("expected both steps, got %v", order)
		}
	})

	t.Run("cancelled context marks the report", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run := NewRun("seeds.json", newEngine())
		err := DefaultPipeline(mapSeedLoader{}, applog.Discard()).Execute(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !run.Report.Cancelled {
			t.Error("expected report to be marked cancelled")
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("seeds and crawls", func(t *testing.T) {
		t.Parallel()

		loader := mapSeedLoader{"site.json": {"http://a.test/", "http://a.test/", "http://missing.test/"}}
		p := DefaultPipeline(loader, applog.Discard())
		if !slices.Equal(p.StepNames(), []string{"seed", "crawl"}) {
			t.Fatalf("unexpected steps: %v", p.StepNames())
		}

		run := NewRun("site.json", newEngine())
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		r := run.Report
		if r.SeedCount != 2 {
			t.Errorf("expected 2 seeds, got %d", r.SeedCount)
		}
		// a/, missing, a/page, b/, b/other
		if r.Total != 5 || r.Successes != 4 || r.Failures != 1 {
			t.Errorf("unexpected counts: total=%d successes=%d failures=%d", r.Total, r.Successes, r.Failures)
		}
	})

	t.Run("seed failure still reports", func(t *testing.T) {
		t.Parallel()

		run := NewRun("unknown.json", newEngine())
		if err := DefaultPipeline(mapSeedLoader{}, applog.Discard()).Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(run.Err, crawler.ErrSeedLoad) {
			t.Errorf("expected ErrSeedLoad, got %v", run.Err)
		}
		if run.Report.Total != 0 || !strings.Contains(run.Report.SeedError, "unknown source") {
			t.Errorf("unexpected report: %+v", run.Report)
		}
	})
}
