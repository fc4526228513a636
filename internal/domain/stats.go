package domain

import "sync/atomic"

// Stats aggregates process-wide acquisition counters. Counters are
// monotonically incremented and never reset. Increments are atomic so
// the aggregator needs no change if independent items ever run on
// separate goroutines.
//
// Invariants after every completed item:
//
//	Attempted == Successful + Failed
//	DiscoveriesUsed <= Attempted
type Stats struct {
	attempted       atomic.Int64
	successful      atomic.Int64
	failed          atomic.Int64
	discoveriesUsed atomic.Int64
}

// NewStats creates a zeroed aggregator.
func NewStats() *Stats {
	return &Stats{}
}

// RecordAttempted counts an item entering acquisition.
func (s *Stats) RecordAttempted() { s.attempted.Add(1) }

// RecordSuccessful counts an item reaching the Succeeded state.
func (s *Stats) RecordSuccessful() { s.successful.Add(1) }

// RecordFailed counts an item reaching the Exhausted state.
func (s *Stats) RecordFailed() { s.failed.Add(1) }

// RecordDiscoveryUsed counts an item whose discovery phase yielded at
// least one probe-reachable source.
func (s *Stats) RecordDiscoveryUsed() { s.discoveriesUsed.Add(1) }

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Attempted       int64 `json:"attempted"`
	Successful      int64 `json:"successful"`
	Failed          int64 `json:"failed"`
	DiscoveriesUsed int64 `json:"discoveries_used"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Attempted:       s.attempted.Load(),
		Successful:      s.successful.Load(),
		Failed:          s.failed.Load(),
		DiscoveriesUsed: s.discoveriesUsed.Load(),
	}
}
