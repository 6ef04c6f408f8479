// Package main provides the entry point for the linkcrawl CLI.
//
// linkcrawl performs a breadth-first crawl starting from a JSON list of seed
// links, following every a[href] it finds until no unvisited link remains,
// and reports how many requests succeeded and failed.
//
// Usage:
//
//	linkcrawl crawl [seed-source...]
//	linkcrawl history [seed-source]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
