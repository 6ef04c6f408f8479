package crawler

import (
	"time"

	"github.com/nao1215/linkcrawl/internal/model"
)

// Stats accumulates the outcome of every visit in a crawl run.
// The total is never stored separately, so it always equals
// successes plus failures.
type Stats struct {
	successes int
	failures  int
	elapsed   time.Duration
}

// Record counts one visit.
func (s *Stats) Record(success bool) {
	if success {
		s.successes++
		return
	}
	s.failures++
}

// Successes returns the number of successful visits.
func (s *Stats) Successes() int {
	return s.successes
}

// Failures returns the number of failed visits.
func (s *Stats) Failures() int {
	return s.failures
}

// Total returns the number of visits attempted.
func (s *Stats) Total() int {
	return s.successes + s.failures
}

// SetElapsed records the wall time of the finished run.
func (s *Stats) SetElapsed(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.elapsed = d
}

// Elapsed returns the recorded wall time.
func (s *Stats) Elapsed() time.Duration {
	return s.elapsed
}

// ElapsedMillis returns the recorded wall time in milliseconds.
func (s *Stats) ElapsedMillis() int64 {
	return s.elapsed.Milliseconds()
}

// String renders the stats block printed at the end of a crawl.
func (s *Stats) String() string {
	return model.FormatStats(s.Total(), s.successes, s.failures, s.ElapsedMillis())
}
