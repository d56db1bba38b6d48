package convert

import (
	"sync"
)

// Stats counts the outcome of the conversions run by a Converter. It is safe
// for concurrent use.
type Stats struct {
	mu sync.Mutex

	converted uint64
	failed    uint64
	chunks    uint64
}

// StatsSnapshot is a copy of the counters of Stats at one point in time.
type StatsSnapshot struct {
	// Converted is the number of files converted successfully.
	Converted uint64
	// Failed is the number of files that could not be converted.
	Failed uint64
	// Chunks is the number of chunks transferred between regions.
	Chunks uint64
}

func (s *Stats) succeed(chunks int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.converted++
	s.chunks += uint64(chunks)
	s.mu.Unlock()
}

func (s *Stats) fail() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{Converted: s.converted, Failed: s.failed, Chunks: s.chunks}
}
