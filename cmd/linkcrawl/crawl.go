package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/linkcrawl/internal/config"
	"github.com/nao1215/linkcrawl/internal/crawler"
	"github.com/nao1215/linkcrawl/internal/database"
	applog "github.com/nao1215/linkcrawl/internal/log"
	"github.com/nao1215/linkcrawl/internal/model"
	"github.com/nao1215/linkcrawl/internal/pipeline"
	"github.com/nao1215/linkcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-source...]",
		Short: "Crawl every link reachable from a seed document",
		Long: `Crawl loads the starting links from each seed source and visits every
reachable page breadth-first. A seed source is an http(s) URL or a local file
holding {"links": ["...", ...]}.

Each link is visited at most once per crawl. Relative links are made absolute
by joining the page's scheme and host with the link text as written.
Failed requests are counted and the crawl continues.

Without arguments the seeds listed in the configuration file are used, and
without those the public sample document:
  ` + config.DefaultSeedSource + `

Examples:
  # Crawl the default seed document
  linkcrawl crawl

  # Crawl from a local seed file
  linkcrawl crawl ./seeds.json

  # Crawl two seed sources side by side and print Markdown
  linkcrawl crawl --markdown a.json https://example.com/seeds.json

  # Route every request through a SOCKS5 proxy
  linkcrawl crawl --proxy 127.0.0.1:9050 ./seeds.json`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of response bytes parsed per page")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (host:port) for all requests")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seed sources crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkcrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not save the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getBoolFlag reads a flag defined on the command or inherited from root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit --config must exist; the implicit search may find nothing.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.File = &config.File{
			Hosts: make(map[string]config.HostConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.Trace = getBoolFlag(cmd, "trace")

	cfg.SeedSources = config.ResolveSeedSources(args, cfg.File)

	return cfg, nil
}

// setupLogger creates the redacting structured logger for cfg's verbosity.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return applog.NewLogger(w, applog.Options{
		Verbose: cfg.Verbose,
		Trace:   cfg.Trace,
	})
}

// runCrawl crawls every seed source in cfg, writing reports to stdout (or the
// report file) and progress to stderr.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting crawl",
		"seedSources", cfg.SeedSources,
		"batchSize", cfg.BatchSize,
		"proxy", cfg.ProxyAddress != "",
		"saveHistory", cfg.SaveHistory,
	)

	client, err := crawler.NewHTTPClient(cfg.Timeout, cfg.ProxyAddress)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	var db *database.HistoryDB
	if cfg.SaveHistory {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	writer, closeWriter, err := newReportWriter(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeWriter()

	fetcher := crawler.NewHTTPFetcher(client,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithHeaderProvider(cfg.File),
	)
	loader := crawler.NewJSONSeedLoader(client)

	runner := pipeline.NewBatchRunner(
		func() *pipeline.Pipeline { return pipeline.DefaultPipeline(loader, logger) },
		func() *crawler.Engine { return crawler.NewEngine(fetcher, crawler.WithLogger(logger)) },
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	total := len(cfg.SeedSources)

	// Reports arrive from concurrent crawls; output and saving are serialized.
	var mu sync.Mutex
	err = runner.RunWithCallback(ctx, cfg.SeedSources, func(r *model.RunReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(stderr, "[%d/%d] Crawl completed: %s\n", index+1, total, r.SeedSource)

		// The history ID is shown in reports, so save first.
		if !r.Cancelled || r.Total > 0 {
			if err := saveRun(ctx, db, r, logger); err != nil {
				logger.Error("failed to save crawl run", "source", r.SeedSource, "error", err)
			}
		}

		if _, err := writer.Write(r); err != nil {
			logger.Error("report failed", "source", r.SeedSource, "error", err)
		}
	})

	if total > 1 {
		fmt.Fprintf(stderr, "\nBatch crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	}

	if errors.Is(err, context.Canceled) {
		return errors.New("crawl interrupted")
	}
	return err
}

// newReportWriter picks the report format. When a report file is set the
// chosen format goes to the file and a plain text summary still goes to stdout.
func newReportWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return formatWriter(cfg, stdout), func() {}, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// 0600: reports list every URL crawled.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := report.NewMultiWriter(
		formatWriter(cfg, f),
		report.NewSimpleWriter(stdout),
	)
	return w, func() { _ = f.Close() }, nil
}

// formatWriter returns the Writer for the configured format.
func formatWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// saveRun stores the report in the history database.
// If db is nil, this function is a no-op.
func saveRun(ctx context.Context, db *database.HistoryDB, r *model.RunReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// Saving must survive an interrupt that ended the crawl.
	id, err := db.SaveRun(context.WithoutCancel(ctx), r)
	if err != nil {
		return err
	}

	logger.Info("crawl run saved to database", "source", r.SeedSource, "id", id)
	return nil
}
