// Package pipeline runs crawls as a sequence of steps and batches
// independent crawls together.
//
// A single crawl is a Pipeline of Steps sharing one Run: the seed step loads
// the starting links into the Run's engine, then the crawl step drains the
// frontier. Once the steps finish the pipeline builds the run report, so a
// report exists even when a step fails or the context is cancelled.
//
// BatchRunner executes one pipeline per seed source with bounded concurrency
// using errgroup. Each crawl stays single-threaded; only separate crawls run
// side by side, and one crawl failing never stops its siblings.
package pipeline
