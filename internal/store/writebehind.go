package store

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
)

// WriteBehind serves reads and writes from memory and copies writes to a
// backend from a background goroutine. Repeated writes to one key between
// two flushes reach the backend once, with the newest value.
//
// The browser build needs it: IndexedDB answers through the JS event loop,
// so a JS callback must never wait on it. Preload everything the session
// reads before handing the store to it.
type WriteBehind struct {
	backend KV
	log     *slog.Logger

	mu      sync.Mutex
	cache   map[string]cached
	dirty   map[string]bool
	busy    bool
	closed  bool
	failing bool
	lastErr error
	passes  int
	idle    *sync.Cond

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

type cached struct {
	value   []byte
	deleted bool
}

// NewWriteBehind starts the writer goroutine. Close stops it.
func NewWriteBehind(backend KV, logger *slog.Logger) *WriteBehind {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &WriteBehind{
		backend: backend,
		log:     logger.With("component", "WriteBehind"),
		cache:   make(map[string]cached),
		dirty:   make(map[string]bool),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	w.idle = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

// Preload copies every backend key starting with prefix into memory.
func (w *WriteBehind) Preload(prefix string) error {
	keys, err := w.backend.Keys(prefix)
	if err != nil {
		return fmt.Errorf("failed to preload: %w", err)
	}
	for _, key := range keys {
		value, err := w.backend.Get(key)
		if err != nil {
			return fmt.Errorf("failed to preload %q: %w", key, err)
		}
		w.mu.Lock()
		if _, ok := w.cache[key]; !ok {
			w.cache[key] = cached{value: value, deleted: value == nil}
		}
		w.mu.Unlock()
	}
	return nil
}

func (w *WriteBehind) Get(key string) ([]byte, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if c, ok := w.cache[key]; ok {
		w.mu.Unlock()
		if c.deleted {
			return nil, nil
		}
		return slices.Clone(c.value), nil
	}
	w.mu.Unlock()

	value, err := w.backend.Get(key)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if _, ok := w.cache[key]; !ok {
		w.cache[key] = cached{value: value, deleted: value == nil}
	}
	w.mu.Unlock()
	return slices.Clone(value), nil
}

func (w *WriteBehind) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return w.set(key, cached{value: slices.Clone(value)})
}

func (w *WriteBehind) Delete(key string) error {
	return w.set(key, cached{deleted: true})
}

func (w *WriteBehind) set(key string, c cached) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.cache[key] = c
	w.dirty[key] = true
	w.mu.Unlock()

	w.kick()
	return nil
}

func (w *WriteBehind) kick() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Keys merges the backend's keys with pending writes.
func (w *WriteBehind) Keys(prefix string) ([]string, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	w.mu.Unlock()

	stored, err := w.backend.Keys(prefix)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	set := make(map[string]bool, len(stored))
	for _, k := range stored {
		set[k] = true
	}
	for k, c := range w.cache {
		if strings.HasPrefix(k, prefix) {
			set[k] = !c.deleted
		}
	}
	var keys []string
	for k, ok := range set {
		if ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Flush blocks until every write so far has reached the backend. Writes
// that failed earlier are retried once; if that pass fails too, Flush
// returns its error and the writes stay queued.
func (w *WriteBehind) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for !w.closed && (len(w.dirty) > 0 || w.busy) {
		if w.busy {
			w.idle.Wait()
			continue
		}
		w.kick()
		start := w.passes
		for w.passes == start && !w.closed {
			w.idle.Wait()
		}
		if w.failing {
			return w.lastErr
		}
	}
	if w.failing {
		return w.lastErr
	}
	return nil
}

// Err reports the last backend write failure, even if a later retry
// succeeded.
func (w *WriteBehind) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Close writes what is pending, stops the writer and closes the backend.
func (w *WriteBehind) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	<-w.stopped
	return w.backend.Close()
}

// =============================================================================
// Writer
// =============================================================================

func (w *WriteBehind) loop() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.flushOnce()
		case <-w.done:
			w.flushOnce()
			return
		}
	}
}

func (w *WriteBehind) flushOnce() {
	w.mu.Lock()
	batch := make(map[string]cached, len(w.dirty))
	for k := range w.dirty {
		batch[k] = w.cache[k]
	}
	w.dirty = make(map[string]bool)
	w.busy = true
	w.mu.Unlock()

	var (
		failed     error
		failedKeys []string
	)
	for _, key := range slices.Sorted(maps.Keys(batch)) {
		c := batch[key]
		var err error
		if c.deleted {
			err = w.backend.Delete(key)
		} else {
			err = w.backend.Put(key, c.value)
		}
		if err != nil {
			failed = err
			failedKeys = append(failedKeys, key)
		}
	}

	w.mu.Lock()
	w.busy = false
	w.passes++
	// Failed keys are retried by the next pass. A key written again in the
	// meantime is already dirty with its newer value.
	for _, key := range failedKeys {
		w.dirty[key] = true
	}
	// Log only the first failure of a streak: the log journal may itself be
	// stored here, and logging every failure would feed the loop.
	report := failed != nil && !w.failing
	w.failing = failed != nil
	if failed != nil {
		w.lastErr = failed
	}
	w.idle.Broadcast()
	w.mu.Unlock()

	if report {
		w.log.Error("Write failed", "error", failed)
	}
}
