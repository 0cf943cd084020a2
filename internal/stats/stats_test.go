package stats

import (
	"strings"
	"testing"
)

func TestIncrementAndAdd(t *testing.T) {
	s := New()
	s.Increment(EntriesProcessed)
	s.Increment(EntriesProcessed)
	s.Add(MillisWaiting, 7)
	s.Add(MillisWaiting, -3) // ignored

	if got := s.Get(EntriesProcessed); got != 2 {
		t.Fatalf("EntriesProcessed = %d, want 2", got)
	}
	if got := s.Get(MillisWaiting); got != 7 {
		t.Fatalf("MillisWaiting = %d, want 7", got)
	}
	if got := s.Get(RequestsFailed); got != 0 {
		t.Fatalf("untouched counter should be zero, got %d", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Increment(RequestsTotal)

	snap := s.Snapshot()
	snap[RequestsTotal] = 99

	if got := s.Get(RequestsTotal); got != 1 {
		t.Fatalf("mutating snapshot leaked into stats: %d", got)
	}
}

func TestSummaryListsEveryCounter(t *testing.T) {
	s := New()
	s.Add(EntriesProcessed, 12)
	s.Add(MatchedByCache, 4)

	out := s.Summary()
	for _, want := range []string{"anitransfer summary", "processed", "matched via cache", "12", "4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
