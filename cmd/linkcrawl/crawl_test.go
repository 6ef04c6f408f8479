package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/linkcrawl/internal/config"
	"github.com/nao1215/linkcrawl/internal/database"
	applog "github.com/nao1215/linkcrawl/internal/log"
	"github.com/nao1215/linkcrawl/internal/report"
	"github.com/spf13/cobra"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [seed-source...]" {
			t.Errorf("expected use 'crawl [seed-source...]', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if !strings.Contains(cmd.Long, config.DefaultSeedSource) {
			t.Error("expected long description to name the default seed source")
		}
	})

	flags := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "timeout", shorthand: "t", defValue: config.DefaultTimeout.String()},
		{name: "user-agent", shorthand: "u", defValue: config.DefaultUserAgent},
		{name: "max-body-size", defValue: fmt.Sprint(config.DefaultMaxBodySize)},
		{name: "proxy", shorthand: "x", defValue: ""},
		{name: "batch", shorthand: "b", defValue: fmt.Sprint(config.DefaultBatchSize)},
		{name: "config", shorthand: "c", defValue: ""},
		{name: "json", shorthand: "j", defValue: "false"},
		{name: "markdown", shorthand: "m", defValue: "false"},
		{name: "output", shorthand: "o", defValue: ""},
		{name: "no-history", defValue: "false"},
		{name: "db-dir", defValue: config.XDGDataDir()},
	}
	for _, tt := range flags {
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// writeConfigFile writes content to a temporary YAML file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "linkcrawl.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// parseCrawlCmd returns the crawl subcommand of a fresh root with args parsed.
func parseCrawlCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	root := NewRootCmd()
	cmd, _, err := root.Find([]string{"crawl"})
	if err != nil {
		t.Fatalf("crawl command not found: %v", err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults with empty config file", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, "")

		cmd := parseCrawlCmd(t, "--config", path)
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.SeedSources) != 1 || cfg.SeedSources[0] != config.DefaultSeedSource {
			t.Errorf("expected default seed source, got %v", cfg.SeedSources)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("expected timeout %v, got %v", config.DefaultTimeout, cfg.Timeout)
		}
		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected batch size %d, got %d", config.DefaultBatchSize, cfg.BatchSize)
		}
		if !cfg.SaveHistory {
			t.Error("expected history to be saved by default")
		}
		if cfg.Verbose || cfg.Trace {
			t.Error("expected quiet logging by default")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, "")
		dbDir := t.TempDir()

		cmd := parseCrawlCmd(t,
			"--config", path,
			"-t", "5s",
			"-u", "test-agent",
			"--max-body-size", "1024",
			"-x", "127.0.0.1:9050",
			"-b", "2",
			"-j",
			"-o", "out/report.json",
			"--no-history",
			"--db-dir", dbDir,
			"--verbose",
			"--trace",
		)
		cfg, err := buildConfig(cmd, []string{"a.json", "b.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", cfg.Timeout)
		}
		if cfg.UserAgent != "test-agent" {
			t.Errorf("expected user agent 'test-agent', got %q", cfg.UserAgent)
		}
		if cfg.MaxBodySize != 1024 {
			t.Errorf("expected max body size 1024, got %d", cfg.MaxBodySize)
		}
		if cfg.ProxyAddress != "127.0.0.1:9050" {
			t.Errorf("expected proxy address, got %q", cfg.ProxyAddress)
		}
		if cfg.BatchSize != 2 {
			t.Errorf("expected batch size 2, got %d", cfg.BatchSize)
		}
		if !cfg.JSONReport || cfg.MarkdownReport {
			t.Error("expected JSON report only")
		}
		if cfg.ReportFile != "out/report.json" {
			t.Errorf("expected report file, got %q", cfg.ReportFile)
		}
		if cfg.SaveHistory {
			t.Error("expected --no-history to disable saving")
		}
		if cfg.DBDir != dbDir {
			t.Errorf("expected db dir %q, got %q", dbDir, cfg.DBDir)
		}
		if !cfg.Verbose || !cfg.Trace {
			t.Error("expected verbose and trace from root flags")
		}
		if len(cfg.SeedSources) != 2 || cfg.SeedSources[0] != "a.json" || cfg.SeedSources[1] != "b.json" {
			t.Errorf("expected seed sources from args, got %v", cfg.SeedSources)
		}
	})

	t.Run("seeds from config file", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, "seeds:\n  - ./one.json\n  - https://example.com/seeds.json\n")

		cmd := parseCrawlCmd(t, "--config", path)
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.SeedSources) != 2 || cfg.SeedSources[0] != "./one.json" {
			t.Errorf("expected seeds from config file, got %v", cfg.SeedSources)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()
		missing := filepath.Join(t.TempDir(), "missing.yaml")

		cmd := parseCrawlCmd(t, "--config", missing)
		_, err := buildConfig(cmd, nil)
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected 'configuration file not found' error, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, "seeds: [unterminated\n")

		cmd := parseCrawlCmd(t, "--config", path)
		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

func TestRunCrawlCmdRejectsConflictingFormats(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "")

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"crawl", "--config", path, "--json", "--markdown", "--no-history", "seeds.json"})

	err := root.Execute()
	if !errors.Is(err, config.ErrConflictingReportFormats) {
		t.Errorf("expected ErrConflictingReportFormats, got %v", err)
	}
}

// cookieRecorder remembers the Cookie header of every request.
type cookieRecorder struct {
	mu      sync.Mutex
	cookies []string
}

func (c *cookieRecorder) record(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = append(c.cookies, r.Header.Get("Cookie"))
}

func (c *cookieRecorder) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.cookies...)
}

// newSiteServer serves a seed document at /seeds.json and a small site:
// / links to /a and /b, /a links back to / and to a missing page.
func newSiteServer(t *testing.T, rec *cookieRecorder) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/":  `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`,
		"/a": `<html><body><a href="/">home</a><a href="/missing">gone</a></body></html>`,
		"/b": `<html><body>leaf</body></html>`,
	}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/seeds.json" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"links": [%q, %q]}`, srv.URL+"/", srv.URL+"/")
			return
		}
		if rec != nil {
			rec.record(r)
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestConfig returns a config crawling source with history in a temp dir.
func newTestConfig(t *testing.T, source string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.SeedSources = []string{source}
	cfg.Timeout = 5 * time.Second
	cfg.DBDir = t.TempDir()
	cfg.File = &config.File{Hosts: make(map[string]config.HostConfig)}
	return cfg
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("crawls site and saves history", func(t *testing.T) {
		t.Parallel()
		rec := &cookieRecorder{}
		srv := newSiteServer(t, rec)

		cfg := newTestConfig(t, srv.URL+"/seeds.json")
		cfg.File.Defaults.Cookie = "session=abc"

		var stdout, stderr bytes.Buffer
		if err := runCrawl(context.Background(), cfg, applog.Discard(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := stdout.String()
		for _, want := range []string{
			"Total number of requests performed:  4",
			"Total number of successful requests: 3",
			"Total number of failed requests:     1",
			"[HTTP 404] 1",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if !strings.Contains(stderr.String(), "[1/1] Crawl completed") {
			t.Errorf("expected progress on stderr, got %q", stderr.String())
		}

		for _, c := range rec.all() {
			if c != "session=abc" {
				t.Errorf("expected cookie 'session=abc' on every page request, got %q", c)
			}
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 saved run, got %d", len(runs))
		}
		if runs[0].Total != 4 || runs[0].Failures != 1 {
			t.Errorf("expected saved totals 4/1, got %d/%d", runs[0].Total, runs[0].Failures)
		}
	})

	t.Run("writes JSON report file without history", func(t *testing.T) {
		t.Parallel()
		srv := newSiteServer(t, nil)

		cfg := newTestConfig(t, srv.URL+"/seeds.json")
		cfg.SaveHistory = false
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "run.json")

		var stdout, stderr bytes.Buffer
		if err := runCrawl(context.Background(), cfg, applog.Discard(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}
		var got report.JSONReport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON report: %v", err)
		}
		if got.Version == "" {
			t.Error("expected version in JSON report")
		}
		if got.Report == nil || got.Report.Total != 4 || got.Report.SeedCount != 1 {
			t.Errorf("unexpected report: %+v", got.Report)
		}
		if got.Report != nil && got.Report.ID != 0 {
			t.Errorf("expected unsaved report, got ID %d", got.Report.ID)
		}

		if !strings.Contains(stdout.String(), "LINKCRAWL REPORT") {
			t.Errorf("expected text summary on stdout, got %q", stdout.String())
		}

		if _, err := os.Stat(filepath.Join(cfg.DBDir, database.DBFileName)); !os.IsNotExist(err) {
			t.Error("expected no history database with saving disabled")
		}
	})

	t.Run("unreadable seed source is reported", func(t *testing.T) {
		t.Parallel()
		cfg := newTestConfig(t, filepath.Join(t.TempDir(), "missing.json"))
		cfg.SaveHistory = false

		var stdout, stderr bytes.Buffer
		if err := runCrawl(context.Background(), cfg, applog.Discard(), &stdout, &stderr); err != nil {
			t.Fatalf("seed failures should not fail the command: %v", err)
		}
		if !strings.Contains(stdout.String(), "SEED ERROR") {
			t.Errorf("expected seed error in report, got:\n%s", stdout.String())
		}
		if !strings.Contains(stdout.String(), "Total number of requests performed:  0") {
			t.Errorf("expected zero requests, got:\n%s", stdout.String())
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()
		cfg := newTestConfig(t, "seeds.json")
		cfg.ProxyAddress = "not a proxy"

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, applog.Discard(), &stdout, &stderr)
		if err == nil {
			t.Fatal("expected error for invalid proxy address")
		}
	})
}
