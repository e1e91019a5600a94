package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal Store for journal tests.
type memStore struct {
	data    map[string][]byte
	failPut bool
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(key string) ([]byte, error) { return m.data[key], nil }

func (m *memStore) Put(key string, value []byte) error {
	if m.failPut {
		return errors.New("quota exceeded")
	}
	m.data[key] = append([]byte{}, value...)
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

// =============================================================================
// Level Tests
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

// =============================================================================
// Journal Tests
// =============================================================================

func TestJournalRingEvictsOldest(t *testing.T) {
	j := NewJournal(nil, 3)
	for i := 0; i < 5; i++ {
		j.Append(Entry{Message: fmt.Sprint(i)})
	}

	entries := j.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "2", entries[0].Message)
	assert.Equal(t, "4", entries[2].Message)
}

func TestJournalDefaultSize(t *testing.T) {
	j := NewJournal(nil, 0)
	for i := 0; i < DefaultJournalSize+10; i++ {
		j.Append(Entry{Message: "x"})
	}
	assert.Equal(t, DefaultJournalSize, j.Len())
}

func TestJournalPersistsAndLoads(t *testing.T) {
	store := newMemStore()
	j := NewJournal(store, 10)
	j.Append(Entry{Level: "INFO", Category: "FamilyTree", Message: "Person created", Data: map[string]any{"id": "person_1"}})
	require.Contains(t, store.data, JournalKey)

	reloaded := NewJournal(store, 10)
	require.NoError(t, reloaded.Load())
	entries := reloaded.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "FamilyTree", entries[0].Category)
	assert.Equal(t, "person_1", entries[0].Data["id"])
}

func TestJournalLoadsBrowserTimestamps(t *testing.T) {
	store := newMemStore()
	store.data[JournalKey] = []byte(`[
		{"timestamp":"2024-03-01T10:00:00.000Z","level":"INFO","category":"App","message":"started","data":null}
	]`)

	j := NewJournal(store, 10)
	require.NoError(t, j.Load())
	entries := j.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), entries[0].Timestamp.UTC())
	assert.Nil(t, entries[0].Data)
}

func TestJournalLoadTrimsToSize(t *testing.T) {
	store := newMemStore()
	big := NewJournal(store, 10)
	for i := 0; i < 10; i++ {
		big.Append(Entry{Message: fmt.Sprint(i)})
	}

	small := NewJournal(store, 4)
	require.NoError(t, small.Load())
	entries := small.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "6", entries[0].Message)
}

func TestJournalLoadMalformed(t *testing.T) {
	store := newMemStore()
	store.data[JournalKey] = []byte(`{not json`)
	assert.Error(t, NewJournal(store, 10).Load())
}

func TestJournalPersistFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	store.failPut = true
	j := NewJournal(store, 10)

	j.Append(Entry{Message: "kept in memory"})
	assert.Equal(t, 1, j.Len())
	assert.Error(t, j.Err())
}

func TestJournalExportAndClear(t *testing.T) {
	store := newMemStore()
	j := NewJournal(store, 10)

	out, err := j.Export()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	j.Append(Entry{Level: "WARN", Message: "careful"})
	out, err = j.Export()
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  {")

	var decoded []Entry
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "careful", decoded[0].Message)

	require.NoError(t, j.Clear())
	assert.Zero(t, j.Len())
	assert.NotContains(t, store.data, JournalKey)
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNewWritesToStderrAndJournal(t *testing.T) {
	var buf bytes.Buffer
	j := NewJournal(nil, 10)
	logger := New(Config{Level: "info", Output: &buf}, j)

	log := logger.With("component", "FamilyTree")
	log.Debug("hidden")
	log.Info("Person created", "id", "person_1", "x", 100.0)
	log.Error("Save failed", "error", errors.New("boom"))

	assert.Contains(t, buf.String(), "Person created")
	assert.NotContains(t, buf.String(), "hidden")

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "FamilyTree", entries[0].Category)
	assert.Equal(t, "person_1", entries[0].Data["id"])
	assert.Equal(t, 100.0, entries[0].Data["x"])
	assert.NotContains(t, entries[0].Data, "component")
	assert.Equal(t, "ERROR", entries[1].Level)
	assert.Equal(t, "boom", entries[1].Data["error"])
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	New(Config{JSON: true, Output: &buf}, nil).Info("hello", "k", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
}

func TestQuietJournalOnly(t *testing.T) {
	j := NewJournal(nil, 10)
	New(Config{Quiet: true}, j).Warn("only here")
	assert.Equal(t, 1, j.Len())

	// Quiet without a journal is a discard logger.
	New(Config{Quiet: true}, nil).Info("nowhere")
}

func TestJournalHandlerGroups(t *testing.T) {
	j := NewJournal(nil, 10)
	logger := slog.New(NewJournalHandler(j, slog.LevelDebug))

	logger.WithGroup("drag").Info("moved", "id", "person_2")
	logger.Info("nested", slog.Group("pos", "x", 1, "y", 2))

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "person_2", entries[0].Data["drag.id"])
	assert.Equal(t, int64(1), entries[1].Data["pos.x"])
	assert.Equal(t, int64(2), entries[1].Data["pos.y"])
}
