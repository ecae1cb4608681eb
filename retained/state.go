// Package retained holds the few counters that must survive the memory wipe
// of a deep-sleep cycle, and the codec that guards them with a magic value
// and a CRC so uninitialised memory is never mistaken for state.
package retained

import "time"

// ThrottleEntry is the dedup record for one error kind.
type ThrottleEntry struct {
	Kind       string
	LastReport int64 // unix seconds
	Suppressed uint32
}

// Last returns LastReport as a time.
func (e ThrottleEntry) Last() time.Time { return time.Unix(e.LastReport, 0).UTC() }

// State is the retained subset of logging state. It is a cache over the
// medium: the engine re-derives ErrorRows and Throttle from the files when
// Valid is false, Truncated is true, or the periodic re-validation is due.
type State struct {
	Unflushed uint16 // data rows appended since the last explicit flush
	Cycles    uint16 // wake cycles since first boot; wraps
	ErrorRows uint32 // rows in the active error file
	Throttle  []ThrottleEntry

	// Set by Load, not persisted as-is.
	Valid     bool // integrity check passed and the counters were reconciled
	Truncated bool // Throttle is incomplete and must be rebuilt from the medium
	// Stale marks counters that were never checked against the medium,
	// because the cycle that started from an invalid image could not mount
	// it. A stale image loads with Valid=false.
	Stale bool
}

// Entry returns the throttle entry for kind.
func (s *State) Entry(kind string) (*ThrottleEntry, bool) {
	for i := range s.Throttle {
		if s.Throttle[i].Kind == kind {
			return &s.Throttle[i], true
		}
	}
	return nil, false
}

// Upsert returns the entry for kind, creating it if needed. When the table
// already holds limit entries the least recently reported one is replaced.
func (s *State) Upsert(kind string, limit int) *ThrottleEntry {
	if e, ok := s.Entry(kind); ok {
		return e
	}
	if limit > 0 && len(s.Throttle) >= limit {
		i := s.oldest()
		s.Throttle[i] = ThrottleEntry{Kind: kind}
		return &s.Throttle[i]
	}
	s.Throttle = append(s.Throttle, ThrottleEntry{Kind: kind})
	return &s.Throttle[len(s.Throttle)-1]
}

func (s *State) oldest() int {
	idx := 0
	for i := range s.Throttle {
		if s.Throttle[i].LastReport < s.Throttle[idx].LastReport {
			idx = i
		}
	}
	return idx
}
