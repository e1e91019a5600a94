// Package family is the genealogical graph: persons and the store that owns
// them. Relationships are held as identifiers, never as pointers, and every
// relationship write goes through Tree so both sides stay consistent.
package family

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Gender is a rendering tag. It picks the mother/father slot in
// AddParentChild and the node colour, nothing else.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender maps anything other than "female" to male.
func ParseGender(s string) Gender {
	if Gender(strings.ToLower(strings.TrimSpace(s))) == GenderFemale {
		return GenderFemale
	}
	return GenderMale
}

// Default position for newly created persons, in world space.
const (
	DefaultX = 100.0
	DefaultY = 100.0
)

// Person is one node of the family graph.
// Attribute fields are exported; relationship fields are owned by Tree.
type Person struct {
	id string

	FirstName string
	LastName  string
	Gender    Gender
	Birthday  string // empty when unknown
	Deathday  string // empty when unknown
	Photo     string // data URL, empty when none
	Info      string
	DataLink  string
	Files     []Attachment

	X float64
	Y float64

	mother   string
	father   string
	children []string
	spouses  []string
}

func newPerson(id, first, last string, g Gender) *Person {
	if g == "" {
		g = GenderMale
	}
	return &Person{
		id:        id,
		FirstName: first,
		LastName:  last,
		Gender:    g,
		X:         DefaultX,
		Y:         DefaultY,
	}
}

// ID returns the store-assigned identifier.
func (p *Person) ID() string { return p.id }

// Mother returns the mother's id, or "" when none is recorded.
func (p *Person) Mother() string { return p.mother }

// Father returns the father's id, or "" when none is recorded.
func (p *Person) Father() string { return p.father }

// Children returns a copy of the child id set.
func (p *Person) Children() []string { return slices.Clone(p.children) }

// Spouses returns a copy of the spouse id set.
func (p *Person) Spouses() []string { return slices.Clone(p.spouses) }

// Parents lists the recorded parents, mother first.
func (p *Person) Parents() []string {
	var out []string
	if p.mother != "" {
		out = append(out, p.mother)
	}
	if p.father != "" {
		out = append(out, p.father)
	}
	return out
}

// HasChild reports whether id is in the child set.
func (p *Person) HasChild(id string) bool { return slices.Contains(p.children, id) }

// HasSpouse reports whether id is in the spouse set.
func (p *Person) HasSpouse(id string) bool { return slices.Contains(p.spouses, id) }

// FullName is "First Last".
func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Initials is the first rune of each name part.
func (p *Person) Initials() string {
	return firstRune(p.FirstName) + firstRune(p.LastName)
}

// DateLabel renders "birth - death", "birth" or "" when no birth date is known.
func (p *Person) DateLabel() string {
	if p.Birthday == "" {
		return ""
	}
	if p.Deathday != "" {
		return p.Birthday + " - " + p.Deathday
	}
	return p.Birthday
}

func firstRune(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// set helpers; callers are Tree methods only

func (p *Person) addChild(id string) bool {
	if slices.Contains(p.children, id) {
		return false
	}
	p.children = append(p.children, id)
	return true
}

func (p *Person) removeChild(id string) {
	p.children = slices.DeleteFunc(p.children, func(c string) bool { return c == id })
}

func (p *Person) addSpouse(id string) bool {
	if slices.Contains(p.spouses, id) {
		return false
	}
	p.spouses = append(p.spouses, id)
	return true
}

func (p *Person) removeSpouse(id string) {
	p.spouses = slices.DeleteFunc(p.spouses, func(s string) bool { return s == id })
}

func (p *Person) removeParent(id string) {
	if p.mother == id {
		p.mother = ""
	}
	if p.father == id {
		p.father = ""
	}
}

// references reports whether any relationship field of p names id.
func (p *Person) references(id string) bool {
	return p.mother == id || p.father == id ||
		slices.Contains(p.children, id) || slices.Contains(p.spouses, id)
}
