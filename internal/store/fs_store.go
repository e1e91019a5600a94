package store

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/hack-pad/hackpadfs"
)

// ErrInvalidKey is returned for keys that do not name a file of their own.
var ErrInvalidKey = errors.New("invalid key")

// FSStore keeps one file per key inside a directory of a hackpadfs
// filesystem. In the browser the filesystem is IndexedDB; tests use mem.
type FSStore struct {
	mu     sync.RWMutex
	fs     hackpadfs.FS
	dir    string
	closed bool
}

// NewFSStore creates dir if needed and returns a store rooted there.
func NewFSStore(fsys hackpadfs.FS, dir string) (*FSStore, error) {
	if err := hackpadfs.MkdirAll(fsys, dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &FSStore{fs: fsys, dir: dir}, nil
}

// file maps a key to a single path element. PathEscape leaves "." and ".."
// alone and "" would name the directory, so those are refused.
func (s *FSStore) file(key string) (string, error) {
	switch key {
	case "", ".", "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Join(s.dir, url.PathEscape(key)), nil
}

func (s *FSStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	name, err := s.file(key)
	if err != nil {
		return nil, err
	}
	data, err := hackpadfs.ReadFile(s.fs, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (s *FSStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	name, err := s.file(key)
	if err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(s.fs, name, value, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *FSStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	name, err := s.file(key)
	if err != nil {
		return err
	}
	err = hackpadfs.Remove(s.fs, name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *FSStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	entries, err := hackpadfs.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		k, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Close marks the store closed. The filesystem itself is owned by the caller.
func (s *FSStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
