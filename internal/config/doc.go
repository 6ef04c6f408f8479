// Package config provides configuration structures and utilities for linkcrawl.
// It defines the crawl options populated from CLI flags, the optional YAML
// configuration file with seed sources and per-host request headers, and the
// XDG directories used for the run history database.
package config
