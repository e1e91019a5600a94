// Package namesearch finds persons by approximate name. Names are embedded as
// hashed character trigrams and kept in an HNSW graph, so typos and partial
// names still land near the right person.
package namesearch

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	"github.com/hack-pad/hackpadfs"
	kvector "github.com/kshard/vector"

	"github.com/kittclouds/kinship/pkg/family"
)

// Dim is the embedding width.
const Dim = 256

// DefaultPath is where the index is stored inside its filesystem.
const DefaultPath = "namesearch.idx"

// ErrDimension is returned when a persisted index was built with another Dim.
var ErrDimension = errors.New("namesearch: dimension mismatch")

// Index maps names to person ids.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.HNSW[vector.VF32]
	ids   []string // key-1 -> person id
	fs    hackpadfs.FS
	path  string
}

// snapshot is the gob payload written by Save.
type snapshot struct {
	Nodes hnsw.Nodes[vector.VF32]
	IDs   []string
}

func newGraph() *hnsw.HNSW[vector.VF32] {
	return hnsw.New[vector.VF32](vector.SurfaceVF32(kvector.Cosine()))
}

// Open returns the index stored at path, or an empty one when nothing has
// been saved yet. fsys may be nil for a memory-only index.
func Open(fsys hackpadfs.FS, path string) (*Index, error) {
	idx := &Index{graph: newGraph(), fs: fsys, path: path}
	if fsys == nil {
		return idx, nil
	}
	if err := idx.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return idx, nil
}

// Rebuild replaces the index contents with persons. Persons without a name
// are skipped.
func (x *Index) Rebuild(persons []*family.Person) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.graph = newGraph()
	x.ids = x.ids[:0]
	for _, p := range persons {
		vec, ok := Embed(p.FullName())
		if !ok {
			continue
		}
		x.ids = append(x.ids, p.ID())
		x.graph.Insert(vector.VF32{Key: uint32(len(x.ids)), Vec: vec})
	}
}

// Len is the number of indexed persons.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

// Search returns up to k person ids, closest name first.
func (x *Index) Search(query string, k int) []string {
	vec, ok := Embed(query)
	if !ok || k <= 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.ids) == 0 {
		return nil
	}
	ef := max(k*2, 100)

	hits := x.graph.Search(vector.VF32{Vec: vec}, k, ef)
	out := make([]string, 0, len(hits))
	seen := make(map[uint32]bool, len(hits))
	for _, h := range hits {
		if h.Key == 0 || int(h.Key) > len(x.ids) || seen[h.Key] {
			continue
		}
		seen[h.Key] = true
		out = append(out, x.ids[h.Key-1])
	}
	return out
}

// Save writes the index to its filesystem.
func (x *Index) Save() error {
	if x.fs == nil {
		return nil
	}

	x.mu.RLock()
	snap := snapshot{Nodes: x.graph.Nodes(), IDs: x.ids}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(snap)
	x.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode name index: %w", err)
	}

	if err := hackpadfs.WriteFullFile(x.fs, x.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write name index: %w", err)
	}
	return nil
}

// Load replaces the index with what Save last wrote.
func (x *Index) Load() error {
	content, err := hackpadfs.ReadFile(x.fs, x.path)
	if err != nil {
		return err
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(content)).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode name index: %w", err)
	}

	graph := hnsw.FromNodes[vector.VF32](vector.SurfaceVF32(kvector.Cosine()), snap.Nodes)
	if graph.Size() > 0 && len(graph.Head().Vec) != Dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimension, Dim, len(graph.Head().Vec))
	}

	x.mu.Lock()
	x.graph = graph
	x.ids = snap.IDs
	x.mu.Unlock()
	return nil
}

// Embed maps s to a unit vector of hashed trigram counts. ok is false when s
// has no letters or digits.
func Embed(s string) (vec []float32, ok bool) {
	norm := normalize(s)
	if norm == "" {
		return nil, false
	}

	vec = make([]float32, Dim)
	runes := []rune(" " + norm + " ")
	h := fnv.New32a()
	for i := 0; i+3 <= len(runes); i++ {
		h.Reset()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%Dim]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	n := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= n
	}
	return vec, true
}

// normalize lowercases s and collapses everything that is not a letter or
// digit into single spaces.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
