package report

import (
	"io"

	"github.com/nao1215/linkcrawl/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a single crawl run.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)

	// WriteRuns outputs a short listing of several runs, newest first
	// as given. Used by the history command.
	WriteRuns(reports []*model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
//
// It exists because Writer writes reports rather than raw bytes, so
// io.MultiWriter does not fit.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteRuns outputs the listing to all configured Writers.
func (m *MultiWriter) WriteRuns(reports []*model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRuns(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// runStatus summarizes how a run ended.
func runStatus(report *model.RunReport) string {
	switch {
	case report.SeedError != "":
		return "SEED ERROR - " + report.SeedError
	case report.Cancelled:
		return "CANCELLED (partial results)"
	default:
		return "Complete"
	}
}

// timeLayout is used for every timestamp in text and Markdown output.
const timeLayout = "2006-01-02 15:04:05 MST"
