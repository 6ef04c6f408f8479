package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/linkcrawl/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown using the
// nao1215/markdown builder: tables, alerts and a mermaid pie chart.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStats(md, report)
	w.writeFailures(md, report)
	w.writeVisited(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteRuns outputs a table of runs.
func (w *MarkdownWriter) WriteRuns(reports []*model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("linkcrawl History")
	md.PlainText("")

	if len(reports) == 0 {
		md.Note("No crawl runs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Format(timeLayout),
			"`" + r.SeedSource + "`",
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Successes),
			strconv.Itoa(r.Failures),
			strconv.FormatInt(r.ElapsedSeconds(), 10),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Seed Source", "Total", "Successes", "Failures", "Seconds"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("linkcrawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Seed Source", "`" + report.SeedSource + "`"},
		{"Started", report.StartedAt.Format(timeLayout)},
		{"Seeds", strconv.Itoa(report.SeedCount)},
		{"Status", w.getStatusText(report)},
	}
	if report.Cancelled {
		rows = append(rows, []string{"Pending", strconv.Itoa(report.Pending)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	if report.SeedError != "" {
		return "❌ Seed error - " + report.SeedError
	}
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	return "✅ Complete"
}

// writeStats writes the statistics table, chart and alert.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Crawl Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Requests performed", strconv.Itoa(report.Total)},
			{"Successful requests", strconv.Itoa(report.Successes)},
			{"Failed requests", strconv.Itoa(report.Failures)},
			{"Success rate", strconv.FormatFloat(report.SuccessRate()*100, 'f', 1, 64) + "%"},
			{"Elapsed (seconds)", strconv.FormatInt(report.ElapsedSeconds(), 10)},
		},
	})
	md.PlainText("")

	if report.Total > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of successes against failures.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Request Outcomes"),
		piechart.WithShowData(true),
	)

	if report.Successes > 0 {
		chart.LabelAndIntValue("Successful", uint64(report.Successes)) //nolint:gosec // counters are never negative
	}
	if report.Failures > 0 {
		chart.LabelAndIntValue("Failed", uint64(report.Failures)) //nolint:gosec // counters are never negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching how the run went.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.SeedError != "":
		md.Cautionf("The seed source could not be loaded: %s", report.SeedError)
	case report.Cancelled:
		md.Warningf("The crawl was cancelled with %d link(s) still queued.", report.Pending)
	case report.Failures > 0:
		md.Importantf("%d of %d request(s) failed.", report.Failures, report.Total)
	case report.Total == 0:
		md.Note("No links were crawled.")
	default:
		md.Tip("Every request succeeded.")
	}
	md.PlainText("")
}

// writeFailures writes the failed visits with a per status breakdown.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Failed Visits")
	md.PlainText("")

	if len(report.FailedVisits) == 0 {
		md.PlainText("No failed visits.")
		md.PlainText("")
		return
	}

	counts := report.StatusCodeCounts()
	codes := make([]int, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	countRows := make([][]string, len(codes))
	for i, code := range codes {
		countRows[i] = []string{statusLabel(code), strconv.Itoa(counts[code])}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   countRows,
	})
	md.PlainText("")

	rows := make([][]string, len(report.FailedVisits))
	for i, f := range report.FailedVisits {
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		rows[i] = []string{
			"`" + truncateString(f.URL, 80) + "`",
			status,
			truncateString(f.Error, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeVisited writes the visited links inside a collapsible block.
func (w *MarkdownWriter) writeVisited(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Visited) == 0 {
		return
	}

	md.H2("Visited Links")
	md.PlainText("")

	list := markdown.NewMarkdown(io.Discard)
	list.BulletList(report.Visited...)
	md.Details(strconv.Itoa(len(report.Visited))+" link(s) in visit order", list.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [linkcrawl](https://github.com/nao1215/linkcrawl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
