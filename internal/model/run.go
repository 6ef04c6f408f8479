package model

import (
	"fmt"
	"time"
)

// RunReport is the outcome of one crawl run over a single seed source.
//
// Counters follow the crawl statistics: Total always equals
// Successes + Failures.
type RunReport struct {
	// ID is the history database identifier. Zero until the report is saved.
	ID int64 `json:"id,omitempty"`

	// SeedSource is the URL or file path the seeds were loaded from.
	SeedSource string `json:"seed_source"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// SeedCount is the number of distinct seeds placed in the frontier.
	SeedCount int `json:"seed_count"`

	// SeedError is set when the seed source could not be loaded.
	// The run still happens, with an empty frontier.
	SeedError string `json:"seed_error,omitempty"`

	Total     int `json:"total"`
	Successes int `json:"successes"`
	Failures  int `json:"failures"`

	// ElapsedMillis is the wall time of the crawl loop.
	ElapsedMillis int64 `json:"elapsed_ms"`

	// Visited lists every URL dequeued and fetched, in visit order.
	Visited []string `json:"visited"`

	// FailedVisits describes each failed visit.
	FailedVisits []FailedVisit `json:"failed_visits,omitempty"`

	// Pending is the frontier size when the run stopped.
	// Non-zero only when the run was cancelled.
	Pending int `json:"pending,omitempty"`

	// Cancelled is true when the run stopped before the frontier was exhausted.
	Cancelled bool `json:"cancelled,omitempty"`
}

// FailedVisit records a page that could not be fetched or parsed.
type FailedVisit struct {
	URL string `json:"url"`

	// StatusCode is the HTTP status, or zero when the failure had none.
	StatusCode int `json:"status_code,omitempty"`

	Error string `json:"error"`
}

// NewRunReport creates an empty report for source.
func NewRunReport(source string, startedAt time.Time) *RunReport {
	return &RunReport{
		SeedSource:   source,
		StartedAt:    startedAt,
		Visited:      make([]string, 0),
		FailedVisits: make([]FailedVisit, 0),
	}
}

// ElapsedSeconds returns the elapsed time in whole seconds, truncated.
func (r *RunReport) ElapsedSeconds() int64 {
	return r.ElapsedMillis / 1000
}

// SuccessRate returns the fraction of visits that succeeded, or 0 for an empty run.
func (r *RunReport) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Total)
}

// StatusCodeCounts groups failed visits by status code.
// Failures without a status code are counted under 0.
func (r *RunReport) StatusCodeCounts() map[int]int {
	counts := make(map[int]int)
	for _, f := range r.FailedVisits {
		counts[f.StatusCode]++
	}
	return counts
}

// StatsSummary renders the counters as the four-line block printed at the
// end of a crawl.
func (r *RunReport) StatsSummary() string {
	return FormatStats(r.Total, r.Successes, r.Failures, r.ElapsedMillis)
}

// FormatStats renders crawl counters as a four-line block. Elapsed time is
// shown in whole seconds, truncated.
func FormatStats(total, successes, failures int, elapsedMillis int64) string {
	return fmt.Sprintf("\n"+
		"  Total number of requests performed:  %d\n"+
		"  Total number of successful requests: %d\n"+
		"  Total number of failed requests:     %d\n"+
		"  Elapsed time for crawl (seconds):    %d",
		total, successes, failures, elapsedMillis/1000)
}
