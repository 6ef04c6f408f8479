package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nao1215/linkcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Output is plain ASCII so it can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose adds the list of visited URLs.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with every visited URL.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStats(&sb, report)
	w.writeFailures(&sb, report)
	w.writeVisited(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteRuns outputs one line per run.
func (w *SimpleWriter) WriteRuns(reports []*model.RunReport) (int, error) {
	var sb strings.Builder

	if len(reports) == 0 {
		sb.WriteString("No crawl runs recorded.\n")
		return io.WriteString(w.output, sb.String())
	}

	sb.WriteString(fmt.Sprintf("%-6s  %-23s  %8s  %8s  %8s  %8s  %s\n",
		"ID", "STARTED", "TOTAL", "OK", "FAILED", "SECONDS", "SEED SOURCE"))
	for _, r := range reports {
		sb.WriteString(fmt.Sprintf("%-6d  %-23s  %8d  %8d  %8d  %8d  %s\n",
			r.ID,
			r.StartedAt.Format(timeLayout),
			r.Total,
			r.Successes,
			r.Failures,
			r.ElapsedSeconds(),
			r.SeedSource,
		))
	}

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         LINKCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed Source:    %s\n", report.SeedSource))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", report.StartedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Seeds:          %d\n", report.SeedCount))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", runStatus(report)))
	if report.Cancelled {
		sb.WriteString(fmt.Sprintf("Pending:        %d\n", report.Pending))
	}

	sb.WriteString("\n")
}

// writeStats writes the statistics block.
func (w *SimpleWriter) writeStats(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(report.StatsSummary())
	sb.WriteString("\n\n")
}

// writeFailures lists failed visits, grouped by status code.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.RunReport) {
	if len(report.FailedVisits) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED VISITS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.FailedVisits) == 0 {
		sb.WriteString("  No failed visits\n\n")
		return
	}

	counts := report.StatusCodeCounts()
	codes := make([]int, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		sb.WriteString(fmt.Sprintf("  [%s] %d\n", statusLabel(code), counts[code]))
	}
	sb.WriteString("\n")

	for _, f := range report.FailedVisits {
		sb.WriteString(fmt.Sprintf("  [-] %s\n", f.URL))
		sb.WriteString(fmt.Sprintf("      %s\n", f.Error))
	}
	sb.WriteString("\n")
}

// writeVisited lists visited URLs in verbose mode.
func (w *SimpleWriter) writeVisited(sb *strings.Builder, report *model.RunReport) {
	if !w.verbose {
		return
	}
	if len(report.Visited) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VISITED LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Visited) == 0 {
		sb.WriteString("  No links visited\n")
	}
	for _, u := range report.Visited {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", u))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by linkcrawl\n")
	sb.WriteString("https://github.com/nao1215/linkcrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// statusLabel names a failure bucket.
func statusLabel(code int) string {
	if code == 0 {
		return "network/other"
	}
	return fmt.Sprintf("HTTP %d", code)
}
