package family

import (
	"io"
	"log/slog"
	"slices"
	"strconv"
)

// idPrefix is prepended to the counter to form person ids.
const idPrefix = "person_"

// Tree is the graph store. It owns every Person, allocates identifiers and
// is the only writer of relationship fields.
//
// Operations that name a missing person log and do nothing; a half-built
// graph during interactive editing is normal. Callers that need a hard
// failure check Person first.
//
// Tree is not safe for concurrent use.
type Tree struct {
	persons map[string]*Person
	order   []string
	nextID  int
	log     *slog.Logger
}

// NewTree creates an empty store. A nil logger discards output.
func NewTree(logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := &Tree{
		persons: make(map[string]*Person),
		nextID:  1,
		log:     logger.With("component", "FamilyTree"),
	}
	t.log.Info("Initialized")
	return t
}

// CreatePerson allocates an id and inserts a person at the default position.
func (t *Tree) CreatePerson(firstName, lastName string, gender Gender) *Person {
	id := idPrefix + strconv.Itoa(t.nextID)
	t.nextID++

	p := newPerson(id, firstName, lastName, gender)
	t.persons[id] = p
	t.order = append(t.order, id)

	t.log.Info("Person created", "id", id, "firstName", firstName, "lastName", lastName, "gender", string(p.Gender))
	return p
}

// Person looks up a person by id.
func (t *Tree) Person(id string) (*Person, bool) {
	p, ok := t.persons[id]
	return p, ok
}

// Persons returns all persons in insertion order.
func (t *Tree) Persons() []*Person {
	out := make([]*Person, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.persons[id])
	}
	return out
}

// Len is the number of persons.
func (t *Tree) Len() int { return len(t.persons) }

// NextID is the counter value the next CreatePerson will use.
func (t *Tree) NextID() int { return t.nextID }

// DeletePerson removes a person and every reference to it.
func (t *Tree) DeletePerson(id string) {
	p, ok := t.persons[id]
	if !ok {
		t.log.Warn("Person not found for deletion", "id", id)
		return
	}

	for _, parentID := range p.Parents() {
		if parent, ok := t.persons[parentID]; ok {
			parent.removeChild(id)
		}
	}
	for _, childID := range p.children {
		if child, ok := t.persons[childID]; ok {
			child.removeParent(id)
		}
	}
	for _, spouseID := range p.spouses {
		if spouse, ok := t.persons[spouseID]; ok {
			spouse.removeSpouse(id)
		}
	}

	delete(t.persons, id)
	t.order = slices.DeleteFunc(t.order, func(o string) bool { return o == id })

	// Imported snapshots may carry one-sided links the targeted cleanup
	// above cannot see.
	for _, other := range t.persons {
		if other.references(id) {
			other.removeParent(id)
			other.removeChild(id)
			other.removeSpouse(id)
		}
	}

	t.log.Info("Person deleted", "id", id)
}

// AddParentChild records parentID as a parent of childID. A female parent
// takes the mother slot, anyone else the father slot. An occupied slot is
// overwritten; the previous parent loses the child.
func (t *Tree) AddParentChild(parentID, childID string) {
	parent, child, ok := t.pair(parentID, childID)
	if !ok {
		t.log.Error("Invalid parent-child relationship", "parentId", parentID, "childId", childID)
		return
	}

	if parent.Gender == GenderFemale {
		t.assignMother(parent, child)
	} else {
		t.assignFather(parent, child)
	}
	t.log.Info("Parent-child relationship added", "parentId", parentID, "childId", childID)
}

// SetMother writes the mother slot of childID regardless of gender.
func (t *Tree) SetMother(childID, motherID string) {
	mother, child, ok := t.pair(motherID, childID)
	if !ok {
		t.log.Error("Invalid mother assignment", "motherId", motherID, "childId", childID)
		return
	}
	t.assignMother(mother, child)
	t.log.Info("Mother set", "motherId", motherID, "childId", childID)
}

// SetFather writes the father slot of childID regardless of gender.
func (t *Tree) SetFather(childID, fatherID string) {
	father, child, ok := t.pair(fatherID, childID)
	if !ok {
		t.log.Error("Invalid father assignment", "fatherId", fatherID, "childId", childID)
		return
	}
	t.assignFather(father, child)
	t.log.Info("Father set", "fatherId", fatherID, "childId", childID)
}

// RemoveParentChild clears parentID from whichever slot of childID holds it.
func (t *Tree) RemoveParentChild(parentID, childID string) {
	if child, ok := t.persons[childID]; ok {
		child.removeParent(parentID)
	}
	if parent, ok := t.persons[parentID]; ok {
		parent.removeChild(childID)
	}
	t.log.Info("Parent-child relationship removed", "parentId", parentID, "childId", childID)
}

func (t *Tree) assignMother(mother, child *Person) {
	if prev := child.mother; prev != "" && prev != mother.id {
		t.log.Warn("Overwriting mother", "childId", child.id, "previous", prev, "mother", mother.id)
		if child.father != prev {
			t.detachChild(prev, child.id)
		}
	}
	if child.father == mother.id {
		child.father = ""
	}
	child.mother = mother.id
	mother.addChild(child.id)
}

func (t *Tree) assignFather(father, child *Person) {
	if prev := child.father; prev != "" && prev != father.id {
		t.log.Warn("Overwriting father", "childId", child.id, "previous", prev, "father", father.id)
		if child.mother != prev {
			t.detachChild(prev, child.id)
		}
	}
	if child.mother == father.id {
		child.mother = ""
	}
	child.father = father.id
	father.addChild(child.id)
}

func (t *Tree) detachChild(prevID, childID string) {
	if prev, ok := t.persons[prevID]; ok {
		prev.removeChild(childID)
	}
}

// AddSpouse links a and b symmetrically. Linking an existing pair is a no-op.
func (t *Tree) AddSpouse(aID, bID string) {
	a, b, ok := t.pair(aID, bID)
	if !ok {
		t.log.Error("Invalid spouse relationship", "spouse1Id", aID, "spouse2Id", bID)
		return
	}
	addedA := a.addSpouse(bID)
	addedB := b.addSpouse(aID)
	if !addedA && !addedB {
		return
	}
	t.log.Info("Spouse relationship added", "spouse1Id", aID, "spouse2Id", bID)
}

// RemoveSpouse unlinks a and b on whichever side exists.
func (t *Tree) RemoveSpouse(aID, bID string) {
	if a, ok := t.persons[aID]; ok {
		a.removeSpouse(bID)
	}
	if b, ok := t.persons[bID]; ok {
		b.removeSpouse(aID)
	}
	t.log.Info("Spouse relationship removed", "spouse1Id", aID, "spouse2Id", bID)
}

// MovePerson sets a world-space position.
func (t *Tree) MovePerson(id string, x, y float64) {
	p, ok := t.persons[id]
	if !ok {
		t.log.Warn("Person not found for move", "id", id)
		return
	}
	p.X, p.Y = x, y
}

// AddFile appends an attachment.
func (t *Tree) AddFile(id string, file Attachment) {
	p, ok := t.persons[id]
	if !ok {
		t.log.Warn("Person not found for file", "id", id)
		return
	}
	p.Files = append(p.Files, file)
	t.log.Info("Added file", "id", id, "fileName", file.Name)
}

// RemoveFile drops the attachment at index; out of range is ignored.
func (t *Tree) RemoveFile(id string, index int) {
	p, ok := t.persons[id]
	if !ok || index < 0 || index >= len(p.Files) {
		return
	}
	name := p.Files[index].Name
	p.Files = slices.Delete(p.Files, index, index+1)
	t.log.Info("Removed file", "id", id, "fileName", name)
}

// Clear drops every person and resets the id counter.
func (t *Tree) Clear() {
	t.persons = make(map[string]*Person)
	t.order = nil
	t.nextID = 1
	t.log.Info("Cleared all data")
}

func (t *Tree) pair(aID, bID string) (*Person, *Person, bool) {
	if aID == bID {
		return nil, nil, false
	}
	a, okA := t.persons[aID]
	b, okB := t.persons[bID]
	return a, b, okA && okB
}
