package family

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Snapshot is the persisted form of a whole tree. Positions are world space;
// pan and zoom are never part of it.
type Snapshot struct {
	NextID  int            `json:"nextId"`
	Persons []PersonRecord `json:"persons"`
}

// PersonRecord is one person inside a Snapshot.
// Optional values encode as null when absent.
type PersonRecord struct {
	ID        string       `json:"id"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Gender    string       `json:"gender"`
	Birthday  *string      `json:"birthday"`
	Deathday  *string      `json:"deathday"`
	Photo     *string      `json:"photo"`
	Info      string       `json:"info"`
	Files     []Attachment `json:"files"`
	DataLink  string       `json:"dataLink"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Mother    *string      `json:"mother"`
	Father    *string      `json:"father"`
	Children  []string     `json:"children"`
	Spouses   []string     `json:"spouses"`

	// Parents is the pre mother/father layout. Read only.
	Parents []string `json:"parents,omitempty"`
}

// rawSnapshot distinguishes a missing persons array from an empty one.
type rawSnapshot struct {
	NextID  int             `json:"nextId"`
	Persons *[]PersonRecord `json:"persons"`
}

// Record returns the persisted form of one person.
func (t *Tree) Record(id string) (PersonRecord, bool) {
	p, ok := t.persons[id]
	if !ok {
		return PersonRecord{}, false
	}
	return recordOf(p), true
}

// Export captures the whole graph.
func (t *Tree) Export() Snapshot {
	s := Snapshot{
		NextID:  t.nextID,
		Persons: make([]PersonRecord, 0, len(t.order)),
	}
	for _, p := range t.Persons() {
		s.Persons = append(s.Persons, recordOf(p))
	}
	t.log.Info("Exported snapshot", "personCount", len(s.Persons))
	return s
}

// ExportJSON renders Export as indented JSON.
func (t *Tree) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(t.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Import replaces the whole graph with s. On error the tree is unchanged.
func (t *Tree) Import(s Snapshot) error {
	persons, order, err := buildPersons(s.Persons)
	if err != nil {
		t.log.Error("Failed to import snapshot", "error", err)
		return err
	}

	t.persons = persons
	t.order = order
	t.nextID = nextIDFor(s.NextID, order)

	t.log.Info("Imported snapshot", "personCount", len(order))
	return nil
}

// ImportJSON decodes and imports a snapshot document.
func (t *Tree) ImportJSON(data []byte) error {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		t.log.Error("Failed to import snapshot", "error", err)
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if raw.Persons == nil {
		t.log.Error("Failed to import snapshot", "error", "missing persons")
		return fmt.Errorf("%w: missing persons", ErrMalformedSnapshot)
	}
	return t.Import(Snapshot{NextID: raw.NextID, Persons: *raw.Persons})
}

func buildPersons(records []PersonRecord) (map[string]*Person, []string, error) {
	persons := make(map[string]*Person, len(records))
	order := make([]string, 0, len(records))

	for i, rec := range records {
		if rec.ID == "" {
			return nil, nil, fmt.Errorf("%w: person %d has no id", ErrMalformedSnapshot, i)
		}
		if _, dup := persons[rec.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedSnapshot, rec.ID)
		}
		persons[rec.ID] = personOf(rec)
		order = append(order, rec.ID)
	}
	return persons, order, nil
}

func personOf(rec PersonRecord) *Person {
	p := newPerson(rec.ID, rec.FirstName, rec.LastName, ParseGender(rec.Gender))
	p.Birthday = deref(rec.Birthday)
	p.Deathday = deref(rec.Deathday)
	p.Photo = deref(rec.Photo)
	p.Info = rec.Info
	p.DataLink = rec.DataLink
	p.Files = slices.Clone(rec.Files)
	p.X = rec.X
	p.Y = rec.Y
	p.mother = deref(rec.Mother)
	p.father = deref(rec.Father)
	p.children = slices.Clone(rec.Children)
	p.spouses = slices.Clone(rec.Spouses)

	if len(rec.Parents) > 0 && p.mother == "" && p.father == "" {
		p.mother = rec.Parents[0]
		if len(rec.Parents) > 1 {
			p.father = rec.Parents[1]
		}
	}
	return p
}

func recordOf(p *Person) PersonRecord {
	files := p.Files
	if files == nil {
		files = []Attachment{}
	}
	children := p.Children()
	if children == nil {
		children = []string{}
	}
	spouses := p.Spouses()
	if spouses == nil {
		spouses = []string{}
	}
	return PersonRecord{
		ID:        p.id,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    string(p.Gender),
		Birthday:  ref(p.Birthday),
		Deathday:  ref(p.Deathday),
		Photo:     ref(p.Photo),
		Info:      p.Info,
		Files:     slices.Clone(files),
		DataLink:  p.DataLink,
		X:         p.X,
		Y:         p.Y,
		Mother:    ref(p.mother),
		Father:    ref(p.father),
		Children:  children,
		Spouses:   spouses,
	}
}

// nextIDFor keeps the counter ahead of every numeric id already in use.
func nextIDFor(declared int, ids []string) int {
	next := max(declared, 1)
	for _, id := range ids {
		n, ok := strings.CutPrefix(id, idPrefix)
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(n); err == nil && v >= next {
			next = v + 1
		}
	}
	return next
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
