// Package crawler implements a breadth-first link crawler.
//
// # Architecture
//
// The Engine owns all crawl state for a single run:
//
//   - Frontier: FIFO queue of pending URLs with O(1) membership checks
//   - visited set: URLs already dequeued, whether the visit succeeded or not
//   - Stats: success, failure and elapsed time counters
//
// Fetching a page and loading seeds are collaborator capabilities expressed
// as the Fetcher and SeedLoader interfaces. HTTPFetcher and JSONSeedLoader
// are the production implementations; tests supply in-memory fakes.
//
// # Link resolution
//
// Resolve intentionally performs a naive concatenation of the base URL's
// scheme and host with the raw href. It does not implement RFC 3986
// relative reference resolution, so hrefs without a leading slash, query-only
// or fragment-only hrefs and ".." segments produce URLs that usually fail to
// fetch later.
//
// # Usage
//
//	engine := crawler.NewEngine(fetcher, crawler.WithLogger(logger))
//	if _, err := engine.LoadSeeds(ctx, crawler.NewJSONSeedLoader(client), source); err != nil {
//		// the run proceeds with an empty frontier
//	}
//	_ = engine.Run(ctx)
//	fmt.Println(engine.Stats())
package crawler
