// Package relay holds the in-memory core of the agent relay: the transcript
// log, the audio command mailbox, the bot lifecycle tracker, and the service
// that composes them behind the HTTP layer. All state is process-lifetime;
// nothing here survives a restart by design.
package relay

import (
	"sort"
	"sync"
)

// DefaultTranscriptMaxLines is the per-bot retention bound.
const DefaultTranscriptMaxLines = 20

// TranscriptLine is a single attributed utterance. Immutable once created.
type TranscriptLine struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// TranscriptStore keeps a bounded, ordered transcript log per bot id.
// A single store-wide mutex guards every operation, including the copy made
// for return, so a concurrent Append during Snapshot can never produce a
// torn or duplicated view. Entries are small (at most maxLines lines), so
// coarse locking is fine.
type TranscriptStore struct {
	mu       sync.Mutex
	lines    map[string][]TranscriptLine
	maxLines int
}

// NewTranscriptStore creates a store retaining at most maxLines lines per
// bot. Values < 1 fall back to DefaultTranscriptMaxLines.
func NewTranscriptStore(maxLines int) *TranscriptStore {
	if maxLines < 1 {
		maxLines = DefaultTranscriptMaxLines
	}
	return &TranscriptStore{
		lines:    make(map[string][]TranscriptLine),
		maxLines: maxLines,
	}
}

// Append adds a line to the end of botID's transcript, creating the entry on
// first use and dropping the oldest lines once the bound is exceeded.
func (s *TranscriptStore) Append(botID string, line TranscriptLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := append(s.lines[botID], line)
	if n := len(ls) - s.maxLines; n > 0 {
		ls = append(ls[:0], ls[n:]...)
	}
	s.lines[botID] = ls
}

// Snapshot returns a copy of botID's transcript in arrival order. Unknown
// ids yield an empty (non-nil) slice so handlers can encode it directly.
func (s *TranscriptStore) Snapshot(botID string) []TranscriptLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := s.lines[botID]
	out := make([]TranscriptLine, len(ls))
	copy(out, ls)
	return out
}

// Len returns the number of lines currently held for botID.
func (s *TranscriptStore) Len(botID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines[botID])
}

// Bots returns the tracked bot ids in sorted order. Sorting keeps placeholder
// resolution deterministic; no recency ordering is maintained.
func (s *TranscriptStore) Bots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.lines))
	for id := range s.lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Counts returns a line count per tracked bot id.
func (s *TranscriptStore) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.lines))
	for id, ls := range s.lines {
		out[id] = len(ls)
	}
	return out
}

// Evict removes botID's transcript entirely. Idempotent.
func (s *TranscriptStore) Evict(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, botID)
}

// EvictAllExcept removes every entry whose key differs from keepID.
func (s *TranscriptStore) EvictAllExcept(keepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.lines {
		if id != keepID {
			delete(s.lines, id)
		}
	}
}
