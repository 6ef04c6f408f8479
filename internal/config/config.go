package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultSeedSource is the seed document crawled when neither the command
	// line nor the configuration file names one.
	DefaultSeedSource = "https://raw.githubusercontent.com/OnAssignment/compass-interview/master/data.json"

	// DefaultTimeout bounds each HTTP request, including the seed download.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of seed sources crawled at the same time.
	// Each crawl is still sequential internally.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "linkcrawl"

	// DefaultUserAgent identifies linkcrawl in HTTP requests.
	DefaultUserAgent = "linkcrawl/1.0 (+https://github.com/nao1215/linkcrawl)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for a crawl invocation.
// It is populated from CLI flags and passed down explicitly rather than
// kept in global state.
type Config struct {
	// SeedSources lists the seed documents to crawl, one crawl per entry.
	// Each entry is an http(s) URL or a local file path.
	SeedSources []string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with page requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to parse.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// ProxyAddress routes all traffic through a SOCKS5 proxy in "host:port"
	// format. Empty means direct connections.
	ProxyAddress string

	// BatchSize is the number of seed sources crawled concurrently.
	BatchSize int

	// Verbose enables debug logging. Trace additionally enables the
	// per-link queue messages.
	Verbose bool
	Trace   bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .linkcrawl is searched in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// File holds the loaded configuration file, or nil when none was found.
	File *File

	// JSONReport and MarkdownReport select the report format. They are
	// mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the run history database.
	// Defaults to the XDG data directory (~/.local/share/linkcrawl on Linux).
	DBDir string

	// SaveHistory stores each finished run in the history database.
	SaveHistory bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
		SaveHistory: true,
	}
}

// ResolveSeedSources picks the seed sources for a run: explicit arguments
// first, then the configuration file's seeds, then DefaultSeedSource.
func ResolveSeedSources(args []string, file *File) []string {
	if len(args) > 0 {
		return append([]string(nil), args...)
	}
	if file != nil && len(file.Seeds) > 0 {
		return append([]string(nil), file.Seeds...)
	}
	return []string{DefaultSeedSource}
}

// XDGDataDir returns the XDG data directory for linkcrawl.
// On Linux: ~/.local/share/linkcrawl
// On macOS: ~/Library/Application Support/linkcrawl
// On Windows: %LOCALAPPDATA%\linkcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.SeedSources) == 0 {
		return ErrNoSeedSource
	}
	for _, s := range c.SeedSources {
		if s == "" {
			return ErrEmptySeedSource
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.SaveHistory && c.DBDir == "" {
		return ErrNoHistoryDir
	}

	return nil
}
