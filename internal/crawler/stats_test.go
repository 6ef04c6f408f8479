package crawler

import (
	"strings"
	"testing"
	"time"
)

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("total is successes plus failures", func(t *testing.T) {
		t.Parallel()

		var s Stats
		s.Record(true)
		s.Record(true)
		s.Record(false)

		if s.Successes() != 2 {
			t.Errorf("expected 2 successes, got %d", s.Successes())
		}
		if s.Failures() != 1 {
			t.Errorf("expected 1 failure, got %d", s.Failures())
		}
		if s.Total() != 3 {
			t.Errorf("expected total 3, got %d", s.Total())
		}
	})

	t.Run("negative elapsed is clamped", func(t *testing.T) {
		t.Parallel()

		var s Stats
		s.SetElapsed(-time.Second)
		if s.ElapsedMillis() != 0 {
			t.Errorf("expected 0ms, got %d", s.ElapsedMillis())
		}
	})

	t.Run("string renders whole seconds", func(t *testing.T) {
		t.Parallel()

		var s Stats
		s.Record(true)
		s.Record(false)
		s.SetElapsed(2999 * time.Millisecond)

		out := s.String()
		for _, want := range []string{
			"  Total number of requests performed:  2\n",
			"  Total number of successful requests: 1\n",
			"  Total number of failed requests:     1\n",
			"  Elapsed time for crawl (seconds):    2",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})
}
