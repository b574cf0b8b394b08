package relay

import (
	"sort"
	"sync"
)

// DefaultPlayDebounceSeconds suppresses repeated play commands fired inside
// this window while a prior play is still undelivered.
const DefaultPlayDebounceSeconds = 5.0

// Audio command kinds understood by the overlay.
const (
	CommandPlay = "play"
	CommandStop = "stop"
)

// AudioCommand is the public shape handed to the overlay on retrieval.
// AudioFile is set only for play commands.
type AudioCommand struct {
	Command   string  `json:"command"`
	AudioFile string  `json:"audio_file,omitempty"`
	Timestamp float64 `json:"timestamp"`
}

// audioSlot is the internal single-slot record. served flips false→true
// exactly once, on first successful Take, and never reverts.
type audioSlot struct {
	AudioCommand
	served bool
}

// AudioCommandStore is a single-slot command mailbox per bot id with
// at-most-once delivery. A new command unconditionally replaces the prior
// one; there is no queue, because the overlay only ever wants the latest
// intent and replaying a stale play after an operator stop would be worse
// than dropping it. Guarded by one store-wide mutex, independent from the
// transcript store's lock.
type AudioCommandStore struct {
	mu       sync.Mutex
	slots    map[string]*audioSlot
	debounce float64
}

// NewAudioCommandStore creates a store with the given play-debounce window
// in seconds. Values <= 0 fall back to DefaultPlayDebounceSeconds.
func NewAudioCommandStore(debounceSeconds float64) *AudioCommandStore {
	if debounceSeconds <= 0 {
		debounceSeconds = DefaultPlayDebounceSeconds
	}
	return &AudioCommandStore{
		slots:    make(map[string]*audioSlot),
		debounce: debounceSeconds,
	}
}

// SetPlay replaces botID's slot with a play command for audioFile. The call
// is rejected (false, store unchanged) when an existing play command is
// still unserved and younger than the debounce window; a served prior play
// never debounces a new one.
func (s *AudioCommandStore) SetPlay(botID, audioFile string, now float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.slots[botID]; ok && prev.Command == CommandPlay && !prev.served && now-prev.Timestamp < s.debounce {
		return false
	}
	s.slots[botID] = &audioSlot{AudioCommand: AudioCommand{
		Command:   CommandPlay,
		AudioFile: audioFile,
		Timestamp: now,
	}}
	return true
}

// SetStop unconditionally replaces botID's slot with a stop command. Stop is
// a corrective action and must always be deliverable immediately.
func (s *AudioCommandStore) SetStop(botID string, now float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[botID] = &audioSlot{AudioCommand: AudioCommand{
		Command:   CommandStop,
		Timestamp: now,
	}}
}

// Take returns botID's pending command and marks it served. Subsequent calls
// return false until a new SetPlay/SetStop replaces the slot.
func (s *AudioCommandStore) Take(botID string) (AudioCommand, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[botID]
	if !ok || slot.served {
		return AudioCommand{}, false
	}
	slot.served = true
	return slot.AudioCommand, true
}

// Bots returns the tracked bot ids in sorted order.
func (s *AudioCommandStore) Bots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Evict removes botID's slot. Idempotent.
func (s *AudioCommandStore) Evict(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, botID)
}

// EvictAllExcept removes every slot whose key differs from keepID.
func (s *AudioCommandStore) EvictAllExcept(keepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.slots {
		if id != keepID {
			delete(s.slots, id)
		}
	}
}
