// Package log builds the slog loggers used by linkcrawl.
//
// Loggers are wrapped in a RedactingHandler so that request headers configured
// for a host (cookies, authorization) and credentials embedded in URLs never
// reach log output, even in verbose mode.
//
// LevelTrace sits below slog.LevelDebug and is used for per-link messages
// that are too noisy for normal debugging.
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Info("fetching", "url", "http://user:pw@example.com/") // password masked
package log
