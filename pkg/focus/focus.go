// Package focus computes the set of persons shown when the view is focused
// on one person.
package focus

import (
	"github.com/kittclouds/kinship/pkg/family"
)

// Graph resolves identifiers; *family.Tree satisfies it.
type Graph interface {
	Person(id string) (*family.Person, bool)
}

// View is the visibility set rooted at one person. IDs keep discovery order.
type View struct {
	root    string
	ids     []string
	members map[string]struct{}
}

// Compute builds the view for rootID:
//
//   - the root
//   - every ancestor, mother branch before father branch
//   - the root's spouses and children
//   - when both parents are recorded, every child of the mother
//
// Siblings come from the mother only; father-only half siblings are not
// included. Ancestor recursion keeps a visited set so a corrupted graph with
// a parent cycle terminates. Compute returns nil when rootID is unknown.
func Compute(g Graph, rootID string) *View {
	root, ok := g.Person(rootID)
	if !ok {
		return nil
	}

	v := &View{root: rootID, members: make(map[string]struct{})}
	v.add(rootID)

	visited := map[string]bool{rootID: true}
	var ancestors func(id string)
	ancestors = func(id string) {
		p, ok := g.Person(id)
		if !ok {
			return
		}
		for _, parentID := range []string{p.Mother(), p.Father()} {
			if parentID == "" {
				continue
			}
			v.add(parentID)
			if visited[parentID] {
				continue
			}
			visited[parentID] = true
			ancestors(parentID)
		}
	}
	ancestors(rootID)

	for _, id := range root.Spouses() {
		v.add(id)
	}
	for _, id := range root.Children() {
		v.add(id)
	}

	if root.Mother() != "" && root.Father() != "" {
		if mother, ok := g.Person(root.Mother()); ok {
			for _, id := range mother.Children() {
				v.add(id)
			}
		}
	}
	return v
}

func (v *View) add(id string) {
	if _, ok := v.members[id]; ok {
		return
	}
	v.members[id] = struct{}{}
	v.ids = append(v.ids, id)
}

// Root is the person the view was computed for.
func (v *View) Root() string { return v.root }

// Contains reports whether id is visible. A nil view contains everyone.
func (v *View) Contains(id string) bool {
	if v == nil {
		return true
	}
	_, ok := v.members[id]
	return ok
}

// IDs lists the visible ids in discovery order.
func (v *View) IDs() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.ids...)
}

// Len is the number of visible ids.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.ids)
}

// Filter keeps the persons in the view, preserving their order.
// A nil view returns persons unchanged.
func (v *View) Filter(persons []*family.Person) []*family.Person {
	if v == nil {
		return persons
	}
	out := make([]*family.Person, 0, len(v.ids))
	for _, p := range persons {
		if v.Contains(p.ID()) {
			out = append(out, p)
		}
	}
	return out
}
