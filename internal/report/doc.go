// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a mermaid chart
//
// Report data lives in the model package; this package only renders it.
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
