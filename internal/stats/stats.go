package stats

import "sync"

// Counter identifies one monotonically increasing statistic.
type Counter string

const (
	EntriesProcessed     Counter = "entries_processed"
	EntriesUnmatched     Counter = "entries_unmatched"
	EntriesUnsupported   Counter = "entries_unsupported"
	EntriesAddedManually Counter = "entries_added_manually"
	MatchedBySearch      Counter = "entries_matched_using_search"
	MatchedByCache       Counter = "entries_matched_using_cache"
	MatchedByBlacklist   Counter = "entries_matched_using_blacklist"
	MatchedManually      Counter = "entries_matched_manually"
	RequestsTotal        Counter = "api_requests_total"
	RequestsCached       Counter = "api_requests_cached"
	RequestsFailed       Counter = "api_requests_failed"
	MillisWaiting        Counter = "milliseconds_spent_waiting"
)

// Stats aggregates process-lifetime counters. Counters only ever increase;
// the aggregate is an observability sink, never a decision input.
type Stats struct {
	mu       sync.Mutex
	counters map[Counter]int64
}

// New returns an empty statistics aggregate.
func New() *Stats {
	return &Stats{counters: make(map[Counter]int64)}
}

// Increment raises the named counter by one.
func (s *Stats) Increment(counter Counter) {
	s.Add(counter, 1)
}

// Add raises the named counter by the given amount. Negative amounts are ignored.
func (s *Stats) Add(counter Counter, amount int64) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter] += amount
}

// Get returns the current value of a counter.
func (s *Stats) Get(counter Counter) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[counter]
}

// Snapshot returns a copy of all counters with a non-zero value.
func (s *Stats) Snapshot() map[Counter]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Counter]int64, len(s.counters))
	for counter, value := range s.counters {
		out[counter] = value
	}
	return out
}
