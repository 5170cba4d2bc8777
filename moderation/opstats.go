package moderation

import (
	"sync"
	"time"
)

// OpStats accumulates operation counts and cumulative duration for the
// periodic stats report. It is injected into the stores rather than shared
// as package state, and a snapshot resets the accumulator so each reporting
// interval starts from zero.
type OpStats struct {
	mu      sync.Mutex
	count   int64
	elapsed time.Duration
}

func (s *OpStats) Record(d time.Duration) {
	s.mu.Lock()
	s.count++
	s.elapsed += d
	s.mu.Unlock()
}

// Snapshot returns the accumulated count and duration and resets both.
func (s *OpStats) Snapshot() (int64, time.Duration) {
	s.mu.Lock()
	count, elapsed := s.count, s.elapsed
	s.count, s.elapsed = 0, 0
	s.mu.Unlock()
	return count, elapsed
}
