package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/linkcrawl/internal/config"
	"github.com/nao1215/linkcrawl/internal/database"
	"github.com/nao1215/linkcrawl/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-source]",
		Short: "Show previous crawl runs",
		Long: `History lists crawl runs saved by 'linkcrawl crawl', newest first.

With a seed source only runs of that source are listed. With --id the full
report of one run is printed, including every visited and failed link.

Examples:
  # List the most recent runs
  linkcrawl history

  # List runs of one seed source
  linkcrawl history ./seeds.json

  # Show one run as Markdown
  linkcrawl history --id 3 --markdown

  # List every seed source ever crawled
  linkcrawl history --list-sources`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sources", "L", false,
		"List all crawled seed sources in the database")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the full report of the run with this ID")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for all)")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSources, err := cmd.Flags().GetBool("list-sources")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate before opening the database.
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}
	if limit < 0 {
		return fmt.Errorf("invalid limit: %d", limit)
	}

	out := cmd.OutOrStdout()

	if _, err := os.Stat(filepath.Join(dbDir, database.DBFileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if listSources {
		return listCrawledSources(ctx, db, out)
	}

	writer := historyWriter(out, jsonOutput, markdownOutput)

	if runID != 0 {
		run, err := db.GetRun(ctx, runID)
		if err != nil {
			if errors.Is(err, database.ErrRunNotFound) {
				return fmt.Errorf("no crawl run with ID %d (use 'linkcrawl history' to see available IDs)", runID)
			}
			return fmt.Errorf("failed to get crawl run: %w", err)
		}
		_, err = writer.Write(run)
		return err
	}

	var source string
	if len(args) > 0 {
		source = args[0]
	}

	runs, err := db.ListRuns(ctx, source, limit)
	if err != nil {
		return fmt.Errorf("failed to list crawl runs: %w", err)
	}
	_, err = writer.WriteRuns(runs)
	return err
}

// historyWriter returns the Writer for the requested output format.
func historyWriter(out io.Writer, jsonOutput, markdownOutput bool) report.Writer {
	switch {
	case jsonOutput:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(true))
	}
}

// listCrawledSources prints every seed source with at least one saved run.
func listCrawledSources(ctx context.Context, db *database.HistoryDB, out io.Writer) error {
	sources, err := db.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seed sources: %w", err)
	}

	if len(sources) == 0 {
		fmt.Fprintln(out, "No crawled seed sources found in database.")
		return nil
	}

	fmt.Fprintf(out, "Crawled seed sources (%d):\n", len(sources))
	for _, s := range sources {
		fmt.Fprintf(out, "  %s\n", s)
	}
	return nil
}
