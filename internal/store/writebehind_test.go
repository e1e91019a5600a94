package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedKV blocks backend writes until the gate is opened and counts them.
type gatedKV struct {
	*MemStore
	gate chan struct{}

	mu     sync.Mutex
	writes map[string]int
	fail   error
}

func newGatedKV() *gatedKV {
	return &gatedKV{MemStore: NewMemStore(), gate: make(chan struct{}), writes: make(map[string]int)}
}

func (g *gatedKV) Put(key string, value []byte) error {
	<-g.gate
	g.mu.Lock()
	g.writes[key]++
	fail := g.fail
	g.mu.Unlock()
	if fail != nil {
		return fail
	}
	return g.MemStore.Put(key, value)
}

func (g *gatedKV) count(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes[key]
}

func TestWriteBehindReadsOwnWrites(t *testing.T) {
	backend := newGatedKV()
	w := NewWriteBehind(backend, nil)

	require.NoError(t, w.Put("a", []byte("1")))

	got, err := w.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got, "reads never wait for the backend")

	stored, err := backend.MemStore.Get("a")
	require.NoError(t, err)
	assert.Nil(t, stored)

	close(backend.gate)
	require.NoError(t, w.Flush())
	stored, err = backend.MemStore.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), stored)
	require.NoError(t, w.Close())
}

func TestWriteBehindCoalesces(t *testing.T) {
	backend := newGatedKV()
	w := NewWriteBehind(backend, nil)
	defer w.Close()

	// The first write may already be in flight; the rest pile up behind it.
	for i := range 50 {
		require.NoError(t, w.Put("journal", []byte{byte(i)}))
	}
	close(backend.gate)
	require.NoError(t, w.Flush())

	assert.LessOrEqual(t, backend.count("journal"), 2)
	stored, err := backend.MemStore.Get("journal")
	require.NoError(t, err)
	assert.Equal(t, []byte{49}, stored)
}

func TestWriteBehindDeleteAndKeys(t *testing.T) {
	backend := NewMemStore()
	require.NoError(t, backend.Put("k/old", []byte("x")))
	require.NoError(t, backend.Put("k/gone", []byte("y")))
	w := NewWriteBehind(backend, nil)
	defer w.Close()

	require.NoError(t, w.Put("k/new", []byte("z")))
	require.NoError(t, w.Delete("k/gone"))
	require.NoError(t, w.Put("other", []byte("o")))

	keys, err := w.Keys("k/")
	require.NoError(t, err)
	assert.Equal(t, []string{"k/new", "k/old"}, keys)

	got, err := w.Get("k/gone")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, w.Flush())
	keys, err = backend.Keys("k/")
	require.NoError(t, err)
	assert.Equal(t, []string{"k/new", "k/old"}, keys)
}

func TestWriteBehindPreload(t *testing.T) {
	backend := NewMemStore()
	require.NoError(t, backend.Put("familyTreeData", []byte("{}")))
	w := NewWriteBehind(backend, nil)
	defer w.Close()

	require.NoError(t, w.Preload(""))
	require.NoError(t, backend.Put("familyTreeData", []byte("changed behind our back")))

	got, err := w.Get("familyTreeData")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got, "preloaded values are served from memory")

	missing, err := w.Get("absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWriteBehindCloseFlushes(t *testing.T) {
	backend := newGatedKV()
	w := NewWriteBehind(backend, nil)

	require.NoError(t, w.Put("a", []byte("1")))
	close(backend.gate)
	require.NoError(t, w.Close())
	assert.Equal(t, 1, backend.count("a"))

	assert.ErrorIs(t, w.Put("b", nil), ErrClosed)
	_, err := w.Get("a")
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, w.Close(), "second close is a no-op")

	_, err = backend.MemStore.Get("a")
	assert.ErrorIs(t, err, ErrClosed, "closing the wrapper closes the backend")
}

func TestWriteBehindReportsBackendErrors(t *testing.T) {
	backend := newGatedKV()
	backend.fail = errors.New("quota exceeded")
	close(backend.gate)
	w := NewWriteBehind(backend, nil)
	defer w.Close()

	require.NoError(t, w.Put("a", []byte("1")), "writes are accepted before they fail")
	assert.EqualError(t, w.Flush(), "quota exceeded")
	assert.EqualError(t, w.Err(), "quota exceeded")

	got, err := w.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}

func (g *gatedKV) setFail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}

func TestWriteBehindRetriesFailedWrites(t *testing.T) {
	backend := newGatedKV()
	backend.fail = errors.New("quota exceeded")
	close(backend.gate)
	w := NewWriteBehind(backend, nil)
	defer w.Close()

	require.NoError(t, w.Put("a", []byte("1")))
	require.Error(t, w.Flush())

	backend.setFail(nil)
	require.NoError(t, w.Put("b", []byte("2")))
	require.NoError(t, w.Flush())

	stored, err := backend.MemStore.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), stored, "the failed write rides along with the next one")
	stored, err = backend.MemStore.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), stored)
	assert.GreaterOrEqual(t, backend.count("a"), 2)
	assert.EqualError(t, w.Err(), "quota exceeded", "Err keeps the last failure")
}

func TestWriteBehindFlushRetriesOnItsOwn(t *testing.T) {
	backend := newGatedKV()
	backend.fail = errors.New("quota exceeded")
	close(backend.gate)
	w := NewWriteBehind(backend, nil)
	defer w.Close()

	require.NoError(t, w.Put("a", []byte("1")))
	require.NoError(t, w.Delete("gone"))
	assert.EqualError(t, w.Flush(), "quota exceeded")
	assert.EqualError(t, w.Flush(), "quota exceeded", "still failing, still queued")

	backend.setFail(nil)
	require.NoError(t, w.Flush())
	stored, err := backend.MemStore.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), stored)
}

func TestWriteBehindNewerWriteWinsOverRetry(t *testing.T) {
	backend := newGatedKV()
	backend.fail = errors.New("quota exceeded")
	close(backend.gate)
	w := NewWriteBehind(backend, nil)
	defer w.Close()

	require.NoError(t, w.Put("a", []byte("old")))
	require.Error(t, w.Flush())

	backend.setFail(nil)
	require.NoError(t, w.Put("a", []byte("new")))
	require.NoError(t, w.Flush())

	stored, err := backend.MemStore.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), stored)
}

func TestWriteBehindSatisfiesKV(t *testing.T) {
	var _ KV = (*WriteBehind)(nil)

	w := NewWriteBehind(NewMemStore(), nil)
	defer w.Close()
	require.NoError(t, w.Put("x", nil))
	got, err := w.Get("x")
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}
