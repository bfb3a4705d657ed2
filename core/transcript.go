package orchestration

import (
	"sync"
	"time"
)

// transcript is the append-only conversation record. Entries are only ever
// appended; snapshots are copies so receivers can hold them across turns.
type transcript struct {
	mu      sync.RWMutex
	entries []TranscriptEntry
}

func (t *transcript) append(role Role, text string) TranscriptEntry {
	entry := TranscriptEntry{Role: role, Text: text, At: time.Now()}

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()

	return entry
}

func (t *transcript) snapshot() []TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]TranscriptEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// restore seeds the transcript with prior entries, but only while it is still
// empty so a slow history fetch cannot displace live turns.
func (t *transcript) restore(entries []TranscriptEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) > 0 {
		return false
	}
	t.entries = append([]TranscriptEntry(nil), entries...)
	return true
}
