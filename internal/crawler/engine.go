package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	applog "github.com/nao1215/linkcrawl/internal/log"
	"github.com/nao1215/linkcrawl/internal/model"
)

// Engine runs one breadth-first crawl.
//
// All state is owned by the Engine, so independent crawls can run side by
// side with separate engines. A single Engine is not safe for concurrent use.
type Engine struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time

	frontier *Frontier

	// visited holds every URL ever dequeued. visitOrder keeps the same
	// URLs in the order they were fetched.
	visited    map[string]struct{}
	visitOrder []string

	stats    *Stats
	failures []model.FailedVisit

	seedCount int
	seedErr   error
	startedAt time.Time
	cancelled bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine with an empty frontier.
func NewEngine(fetcher Fetcher, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:    fetcher,
		logger:     applog.Discard(),
		now:        time.Now,
		frontier:   NewFrontier(),
		visited:    make(map[string]struct{}),
		visitOrder: make([]string, 0),
		stats:      &Stats{},
		failures:   make([]model.FailedVisit, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadSeeds loads seeds from source and enqueues them in order.
//
// A load failure leaves the frontier untouched and is logged; the error is
// returned so callers can report it, but the engine remains runnable and a
// subsequent Run is simply a no-op crawl.
func (e *Engine) LoadSeeds(ctx context.Context, loader SeedLoader, source string) (int, error) {
	links, err := loader.Load(ctx, source)
	if err != nil {
		e.seedErr = err
		e.logger.Error("failed to load starting links", "source", source, "error", err)
		return 0, err
	}

	added := e.Seed(links...)
	for _, link := range e.frontier.Items() {
		e.logger.Debug("starting link", "url", link)
	}
	return added, nil
}

// Seed enqueues urls directly and returns how many were new.
func (e *Engine) Seed(urls ...string) int {
	added := 0
	for _, u := range urls {
		if e.IsVisited(u) {
			continue
		}
		if e.frontier.Enqueue(u) {
			added++
		}
	}
	e.seedCount += added
	return added
}

// Run drains the frontier, visiting each URL once.
//
// A failed visit is counted and logged but never stops the loop. Run only
// returns early, with ctx.Err(), when ctx is cancelled; the elapsed time is
// recorded either way.
func (e *Engine) Run(ctx context.Context) error {
	e.startedAt = e.now()
	defer func() {
		e.stats.SetElapsed(e.now().Sub(e.startedAt))
	}()

	for !e.frontier.IsEmpty() {
		if err := ctx.Err(); err != nil {
			e.cancelled = true
			e.logger.Warn("crawl cancelled", "pending", e.frontier.Len(), "error", err)
			return err
		}

		link, err := e.frontier.Dequeue()
		if err != nil {
			// Unreachable while the loop condition holds.
			return nil
		}

		if e.IsVisited(link) {
			e.logger.Log(ctx, applog.LevelTrace, "skipping already visited link", "url", link)
			continue
		}
		e.MarkVisited(link)

		e.visit(ctx, link)
	}

	return nil
}

// visit fetches one page and folds its links into the frontier.
func (e *Engine) visit(ctx context.Context, link string) {
	hrefs, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		e.recordFailure(link, err)
		return
	}

	e.logger.Debug("successfully crawled link", "url", link, "links", len(hrefs))
	e.stats.Record(true)
	e.AddPageLinks(link, hrefs)
}

func (e *Engine) recordFailure(link string, err error) {
	e.stats.Record(false)

	failure := model.FailedVisit{URL: link, Error: err.Error()}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		failure.StatusCode = statusErr.StatusCode
		e.logger.Debug("failed to crawl link, skipping and continuing",
			"url", link,
			"status", statusErr.StatusCode,
		)
	} else {
		e.logger.Warn("failed to crawl link, skipping and continuing",
			"url", link,
			"error", err,
		)
	}

	e.failures = append(e.failures, failure)
}

// AddPageLinks resolves hrefs found on pageURL and enqueues every result that
// is neither pending nor visited. Links that cannot be resolved are dropped.
// It returns the number of links added.
func (e *Engine) AddPageLinks(pageURL string, hrefs []string) int {
	added := 0
	for _, href := range hrefs {
		link, err := Resolve(pageURL, href)
		if err != nil {
			e.logger.Error("unable to create absolute URL", "page", pageURL, "href", href, "error", err)
			continue
		}
		if e.frontier.Contains(link) || e.IsVisited(link) {
			continue
		}
		e.logger.Log(context.Background(), applog.LevelTrace, "adding link to queue", "url", link)
		e.frontier.Enqueue(link)
		added++
	}
	return added
}

// MarkVisited records url as visited. A visited URL is never enqueued again.
func (e *Engine) MarkVisited(url string) {
	if _, ok := e.visited[url]; ok {
		return
	}
	e.visited[url] = struct{}{}
	e.visitOrder = append(e.visitOrder, url)
}

// IsVisited reports whether url has been visited.
func (e *Engine) IsVisited(url string) bool {
	_, ok := e.visited[url]
	return ok
}

// VisitedCount returns the size of the visited set.
func (e *Engine) VisitedCount() int {
	return len(e.visited)
}

// Visited returns visited URLs in visit order.
func (e *Engine) Visited() []string {
	out := make([]string, len(e.visitOrder))
	copy(out, e.visitOrder)
	return out
}

// Frontier exposes the pending queue.
func (e *Engine) Frontier() *Frontier {
	return e.frontier
}

// Stats returns the run statistics.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// FailedVisits returns a copy of the recorded failures.
func (e *Engine) FailedVisits() []model.FailedVisit {
	out := make([]model.FailedVisit, len(e.failures))
	copy(out, e.failures)
	return out
}

// Report summarizes the run for the given seed source.
func (e *Engine) Report(source string) *model.RunReport {
	started := e.startedAt
	if started.IsZero() {
		started = e.now()
	}

	r := model.NewRunReport(source, started)
	r.SeedCount = e.seedCount
	if e.seedErr != nil {
		r.SeedError = e.seedErr.Error()
	}
	r.Total = e.stats.Total()
	r.Successes = e.stats.Successes()
	r.Failures = e.stats.Failures()
	r.ElapsedMillis = e.stats.ElapsedMillis()
	r.Visited = e.Visited()
	r.FailedVisits = e.FailedVisits()
	r.Pending = e.frontier.Len()
	r.Cancelled = e.cancelled
	return r
}
