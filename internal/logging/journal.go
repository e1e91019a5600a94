package logging

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"
)

// JournalKey is the store key the journal persists under.
const JournalKey = "familyTreeLogs"

// DefaultJournalSize is how many entries the journal keeps.
const DefaultJournalSize = 1000

// Store is the subset of the key-value store the journal needs.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Entry is one journal record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
}

// Journal is a bounded ring of recent log entries that survives restarts.
// Each append rewrites the persisted copy; once full, the oldest entry is
// dropped.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	store   Store
	lastErr error
}

// NewJournal creates a journal holding at most size entries. store may be nil
// for a memory-only journal.
func NewJournal(store Store, size int) *Journal {
	if size <= 0 {
		size = DefaultJournalSize
	}
	return &Journal{max: size, store: store}
}

// Load replaces the in-memory entries with the persisted ones.
// A missing key leaves the journal empty.
func (j *Journal) Load() error {
	if j.store == nil {
		return nil
	}
	data, err := j.store.Get(JournalKey)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if data == nil {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode journal: %w", err)
	}
	if len(entries) > j.max {
		entries = entries[len(entries)-j.max:]
	}

	j.mu.Lock()
	j.entries = entries
	j.mu.Unlock()
	return nil
}

// Append adds e, evicting the oldest entry when full. Persistence failures
// are kept for Err and never returned; logging must not fail the caller.
func (j *Journal) Append(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, e)
	if over := len(j.entries) - j.max; over > 0 {
		j.entries = slices.Delete(j.entries, 0, over)
	}
	j.persist()
}

func (j *Journal) persist() {
	if j.store == nil {
		return
	}
	data, err := json.Marshal(j.entries)
	if err == nil {
		err = j.store.Put(JournalKey, data)
	}
	j.lastErr = err
}

// Entries returns a copy of the journal, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

// Len is the number of entries held.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Export renders the journal as indented JSON.
func (j *Journal) Export() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries := j.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode journal: %w", err)
	}
	return data, nil
}

// Clear empties the journal and removes the persisted copy.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = nil
	if j.store == nil {
		return nil
	}
	if err := j.store.Delete(JournalKey); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	return nil
}

// Err reports the last persistence failure, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}
