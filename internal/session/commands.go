package session

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/focus"
)

// Relation is a pending relationship-pick mode.
type Relation int

const (
	RelationNone Relation = iota
	RelationChild
	RelationParent
	RelationSpouse
)

func (r Relation) String() string {
	switch r {
	case RelationChild:
		return "child"
	case RelationParent:
		return "parent"
	case RelationSpouse:
		return "spouse"
	default:
		return "none"
	}
}

// ParseRelation maps "child", "parent" and "spouse" to a Relation.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "child":
		return RelationChild, nil
	case "parent":
		return RelationParent, nil
	case "spouse":
		return RelationSpouse, nil
	}
	return RelationNone, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Offsets of relatives created next to the selected person, in world units.
const (
	childOffsetX  = 200.0
	childOffsetY  = 150.0
	fatherOffsetX = -250.0
	motherOffsetX = 50.0
	parentOffsetY = -150.0
	besideOffsetX = 200.0

	// New persons from the edit form land at a random spot in
	// [randomOrigin, randomOrigin+randomSpread).
	randomOrigin = 100.0
	randomSpread = 300.0
)

// =============================================================================
// Focus
// =============================================================================

// StartFocusPick arms focus-pick mode: the next press on a person focuses it.
func (s *Session) StartFocusPick() {
	s.focusPick = true
	s.log.Info("Focus mode activated")
}

// CancelFocusPick leaves focus-pick mode without changing the view.
func (s *Session) CancelFocusPick() {
	s.focusPick = false
	s.log.Info("Focus mode deactivated")
}

// Focus restricts the canvas to id and its direct relatives and centres the
// result.
func (s *Session) Focus(id string) error {
	view := focus.Compute(s.tree, id)
	if view == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	s.view = view
	s.focusPick = false
	p, _ := s.tree.Person(id)
	s.log.Info("Focus on person", "id", id, "name", p.FullName(), "visible", view.Len())
	s.CenterView()
	return nil
}

// Unfocus shows every person again.
func (s *Session) Unfocus() {
	s.view = nil
	s.log.Info("Unfocus - showing all persons")
	s.requestRedraw()
}

// =============================================================================
// Relationships
// =============================================================================

// StartRelationship arms a relationship pick from the selected person. The
// next Click on another person completes it.
func (s *Session) StartRelationship(mode Relation) error {
	if mode == RelationNone || mode > RelationSpouse {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	if s.selected == "" {
		return ErrNoSelection
	}
	s.relMode, s.relSource = mode, s.selected
	s.log.Info("Relationship mode started", "mode", mode.String(), "source", s.selected)
	return nil
}

// CancelRelationship drops a pending relationship pick.
func (s *Session) CancelRelationship() {
	s.relMode, s.relSource = RelationNone, ""
}

// Link records a relationship between source and target. For RelationChild
// target becomes a child of source; for RelationParent target becomes a
// parent of source.
func (s *Session) Link(mode Relation, source, target string) error {
	if err := s.checkPair(source, target); err != nil {
		return err
	}
	switch mode {
	case RelationChild:
		s.tree.AddParentChild(source, target)
	case RelationParent:
		s.tree.AddParentChild(target, source)
	case RelationSpouse:
		s.tree.AddSpouse(source, target)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	s.log.Info("Relationship added", "mode", mode.String(), "source", source, "target", target)
	s.changed()
	return nil
}

// Unlink removes a relationship recorded by Link.
func (s *Session) Unlink(mode Relation, source, target string) error {
	if err := s.checkPair(source, target); err != nil {
		return err
	}
	switch mode {
	case RelationChild:
		s.tree.RemoveParentChild(source, target)
	case RelationParent:
		s.tree.RemoveParentChild(target, source)
	case RelationSpouse:
		s.tree.RemoveSpouse(source, target)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	s.log.Info("Relationship removed", "mode", mode.String(), "source", source, "target", target)
	s.changed()
	return nil
}

func (s *Session) checkPair(source, target string) error {
	if source == target {
		return ErrSelfRelation
	}
	for _, id := range []string{source, target} {
		if _, ok := s.tree.Person(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
		}
	}
	return nil
}

// =============================================================================
// Relatives of the selected person
// =============================================================================

// AddChild creates a child of the selected person below and to the right.
func (s *Session) AddChild(first, last string, gender family.Gender) (*family.Person, error) {
	parent, err := s.selectedPerson()
	if err != nil {
		return nil, err
	}
	child := s.tree.CreatePerson(first, last, gender)
	s.tree.MovePerson(child.ID(), parent.X+childOffsetX, parent.Y+childOffsetY)
	s.tree.AddParentChild(parent.ID(), child.ID())

	s.log.Info("Child created", "parentId", parent.ID(), "childId", child.ID())
	s.changed()
	return child, nil
}

// AddParents creates a father and a mother above the selected person and
// marries them. It refuses when both parents are already recorded.
func (s *Session) AddParents(fatherFirst, fatherLast, motherFirst, motherLast string) (father, mother *family.Person, err error) {
	child, err := s.selectedPerson()
	if err != nil {
		return nil, nil, err
	}
	if child.Mother() != "" && child.Father() != "" {
		s.log.Error("Cannot add parents - child already has both", "childId", child.ID())
		return nil, nil, ErrHasBothParents
	}

	father = s.tree.CreatePerson(fatherFirst, fatherLast, family.GenderMale)
	s.tree.MovePerson(father.ID(), child.X+fatherOffsetX, child.Y+parentOffsetY)
	mother = s.tree.CreatePerson(motherFirst, motherLast, family.GenderFemale)
	s.tree.MovePerson(mother.ID(), child.X+motherOffsetX, child.Y+parentOffsetY)

	s.tree.AddSpouse(mother.ID(), father.ID())
	s.tree.SetMother(child.ID(), mother.ID())
	s.tree.SetFather(child.ID(), father.ID())

	s.log.Info("Parents created", "childId", child.ID(), "motherId", mother.ID(), "fatherId", father.ID())
	s.changed()
	return father, mother, nil
}

// AddSibling creates a brother or sister of the selected person sharing
// whichever parents it has.
func (s *Session) AddSibling(first, last string, gender family.Gender) (*family.Person, error) {
	person, err := s.selectedPerson()
	if err != nil {
		return nil, err
	}
	if person.Mother() == "" && person.Father() == "" {
		s.log.Error("Cannot add sibling - person has no parents", "id", person.ID())
		return nil, ErrNoParents
	}

	sibling := s.tree.CreatePerson(first, last, gender)
	s.tree.MovePerson(sibling.ID(), person.X+besideOffsetX, person.Y)
	if m := person.Mother(); m != "" {
		s.tree.SetMother(sibling.ID(), m)
	}
	if f := person.Father(); f != "" {
		s.tree.SetFather(sibling.ID(), f)
	}

	s.log.Info("Sibling created", "siblingId", person.ID(), "newId", sibling.ID(), "gender", string(sibling.Gender))
	s.changed()
	return sibling, nil
}

// AddSpouse creates a partner beside the selected person. Partners are
// created with the default gender; the edit form changes it.
func (s *Session) AddSpouse(first, last string) (*family.Person, error) {
	person, err := s.selectedPerson()
	if err != nil {
		return nil, err
	}
	spouse := s.tree.CreatePerson(first, last, family.GenderMale)
	s.tree.MovePerson(spouse.ID(), person.X+besideOffsetX, person.Y)
	s.tree.AddSpouse(person.ID(), spouse.ID())

	s.log.Info("Spouse created", "person1Id", person.ID(), "person2Id", spouse.ID())
	s.changed()
	return spouse, nil
}

func (s *Session) selectedPerson() (*family.Person, error) {
	if s.selected == "" {
		return nil, ErrNoSelection
	}
	p, ok := s.tree.Person(s.selected)
	if !ok {
		s.selected = ""
		return nil, ErrNoSelection
	}
	return p, nil
}

// =============================================================================
// Editing
// =============================================================================

// PersonInput carries the fields of the edit form.
type PersonInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	Birthday  string `json:"birthday"`
	Deathday  string `json:"deathday"`
	Info      string `json:"info"`
	DataLink  string `json:"dataLink"`
	// Photo replaces the photo when non-nil; an empty string removes it.
	Photo *string `json:"photo,omitempty"`
}

// SavePerson updates id with in, or creates a new person at a random spot
// when id is empty.
func (s *Session) SavePerson(id string, in PersonInput) (*family.Person, error) {
	if in.Photo != nil && *in.Photo != "" {
		if _, _, err := family.ParseDataURL(*in.Photo); err != nil {
			return nil, fmt.Errorf("failed to set photo: %w", err)
		}
	}
	gender := family.ParseGender(in.Gender)

	var p *family.Person
	if id == "" {
		p = s.tree.CreatePerson(in.FirstName, in.LastName, gender)
		s.tree.MovePerson(p.ID(),
			randomOrigin+rand.Float64()*randomSpread,
			randomOrigin+rand.Float64()*randomSpread)
	} else {
		var ok bool
		if p, ok = s.tree.Person(id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPerson, id)
		}
		p.FirstName, p.LastName, p.Gender = in.FirstName, in.LastName, gender
	}

	p.Birthday = in.Birthday
	p.Deathday = in.Deathday
	p.Info = in.Info
	p.DataLink = in.DataLink
	if in.Photo != nil {
		p.Photo = *in.Photo
	}

	s.log.Info("Person saved", "id", p.ID())
	s.changed()
	return p, nil
}

// AddFile attaches a file to id.
func (s *Session) AddFile(id string, file family.Attachment) error {
	if _, ok := s.tree.Person(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	if _, _, err := family.ParseDataURL(file.Data); err != nil {
		return fmt.Errorf("failed to add file: %w", err)
	}
	s.tree.AddFile(id, file)
	s.changed()
	return nil
}

// RemoveFile drops the attachment at index from id.
func (s *Session) RemoveFile(id string, index int) error {
	if _, ok := s.tree.Person(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	s.tree.RemoveFile(id, index)
	s.changed()
	return nil
}

// DeleteSelected deletes the selected person.
func (s *Session) DeleteSelected() error {
	if s.selected == "" {
		return ErrNoSelection
	}
	return s.Delete(s.selected)
}

// Delete removes id and every relationship that names it.
func (s *Session) Delete(id string) error {
	if _, ok := s.tree.Person(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	if s.gesture.Person() == id {
		s.gesture.Abandon()
	}
	s.tree.DeletePerson(id)
	if s.selected == id {
		s.selected = ""
	}
	if s.relSource == id {
		s.CancelRelationship()
	}
	s.changed()
	return nil
}

// =============================================================================
// Layout and view
// =============================================================================

// AutoLayout aligns every couple on one row: of two spouses, the one with
// the greater id takes the other's y.
func (s *Session) AutoLayout() {
	persons := s.tree.Persons()
	if len(persons) == 0 {
		return
	}
	s.log.Info("Auto layout started")
	for _, p := range persons {
		for _, spouseID := range p.Spouses() {
			spouse, ok := s.tree.Person(spouseID)
			if ok && p.ID() < spouseID {
				s.tree.MovePerson(spouseID, spouse.X, p.Y)
			}
		}
	}
	s.changed()
	s.log.Info("Auto layout completed")
}

// CenterView pans so the visible persons sit in the middle of the canvas.
func (s *Session) CenterView() {
	bounds, ok := s.metrics.Bounds(s.Visible())
	if !ok {
		return
	}
	s.transform.CenterOn(bounds, s.width, s.height)
	s.requestRedraw()
}

// =============================================================================
// Import / export
// =============================================================================

// Import replaces the tree with a snapshot. On failure nothing changes. On
// success any gesture, selection, focus and pending mode is dropped.
func (s *Session) Import(data []byte) error {
	if err := s.tree.ImportJSON(data); err != nil {
		s.log.Error("Import failed", "error", err)
		return fmt.Errorf("failed to import: %w", err)
	}
	s.gesture.Abandon()
	s.selected = ""
	s.view = nil
	s.focusPick = false
	s.CancelRelationship()

	s.log.Info("Data imported", "persons", s.tree.Len())
	s.changed()
	s.CenterView()
	return nil
}

// Export serialises the tree.
func (s *Session) Export() ([]byte, error) {
	data, err := s.tree.ExportJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export: %w", err)
	}
	s.log.Info("Data exported", "persons", s.tree.Len())
	return data, nil
}
