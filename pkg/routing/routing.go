// Package routing derives orthogonal connector geometry from person
// positions and relationships. It holds no state: the same input always
// yields the same Plan.
package routing

import (
	"math"

	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/geom"
)

const (
	// AlignTolerance is the vertical distance under which spouses are joined
	// by a single straight line.
	AlignTolerance = 10.0
	// StemDrop is how far a family bus hangs below the parents' midpoint.
	StemDrop = 60.0
)

// AnchorFunc returns the point where connectors attach to a person.
type AnchorFunc func(*family.Person) geom.Point

// Kind distinguishes connector styles.
type Kind int

const (
	KindSpouse Kind = iota
	KindParent
)

// Link is a connector between two persons drawn as one polyline.
type Link struct {
	Kind Kind
	A, B string
	Path []geom.Point
}

// Segments flattens the link path.
func (l Link) Segments() []geom.Segment { return geom.Polyline(l.Path...) }

// Bus is the shared connector of all visible children of one couple.
type Bus struct {
	Mother, Father string
	Children       []string
	Stem           geom.Segment
	Rail           geom.Segment
	Drops          []geom.Segment
}

// Segments returns stem, rail and drops in drawing order.
func (b Bus) Segments() []geom.Segment {
	out := make([]geom.Segment, 0, 2+len(b.Drops))
	out = append(out, b.Stem, b.Rail)
	return append(out, b.Drops...)
}

// Plan is the full connector geometry for one render pass.
type Plan struct {
	Spouses []Link
	Parents []Link
	Buses   []Bus
}

// Segments flattens the plan: spouse links, single-parent links, then buses.
func (p Plan) Segments() []geom.Segment {
	var out []geom.Segment
	for _, l := range p.Spouses {
		out = append(out, l.Segments()...)
	}
	for _, l := range p.Parents {
		out = append(out, l.Segments()...)
	}
	for _, b := range p.Buses {
		out = append(out, b.Segments()...)
	}
	return out
}

// pairKey normalises an unordered pair of ids.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Route computes connectors among visible. Both ends of every connector are
// in visible. A child with both parents recorded joins its couple's bus when
// both are visible; when only one is visible it gets a single-parent link.
func Route(visible []*family.Person, anchor AnchorFunc) Plan {
	shown := make(map[string]*family.Person, len(visible))
	for _, p := range visible {
		shown[p.ID()] = p
	}

	var plan Plan
	drawn := make(map[string]bool)
	for _, p := range visible {
		for _, sid := range p.Spouses() {
			spouse, ok := shown[sid]
			if !ok {
				continue
			}
			key := pairKey(p.ID(), sid)
			if drawn[key] {
				continue
			}
			drawn[key] = true
			plan.Spouses = append(plan.Spouses, Link{
				Kind: KindSpouse,
				A:    p.ID(),
				B:    sid,
				Path: spousePath(anchor(p), anchor(spouse)),
			})
		}
	}

	type group struct {
		mother, father *family.Person
		children       []*family.Person
	}
	groups := make(map[string]*group)
	var order []string

	for _, child := range visible {
		mother := shown[child.Mother()]
		father := shown[child.Father()]
		switch {
		case mother != nil && father != nil:
			key := pairKey(mother.ID(), father.ID())
			grp, ok := groups[key]
			if !ok {
				grp = &group{mother: mother, father: father}
				groups[key] = grp
				order = append(order, key)
			}
			grp.children = append(grp.children, child)
		case mother != nil:
			plan.Parents = append(plan.Parents, parentLink(mother, child, anchor))
		case father != nil:
			plan.Parents = append(plan.Parents, parentLink(father, child, anchor))
		}
	}

	for _, key := range order {
		grp := groups[key]
		plan.Buses = append(plan.Buses, familyBus(grp.mother, grp.father, grp.children, anchor))
	}
	return plan
}

func spousePath(a, b geom.Point) []geom.Point {
	if math.Abs(a.Y-b.Y) < AlignTolerance {
		return []geom.Point{a, b}
	}
	midX := (a.X + b.X) / 2
	return []geom.Point{a, geom.Pt(midX, a.Y), geom.Pt(midX, b.Y), b}
}

func parentLink(parent, child *family.Person, anchor AnchorFunc) Link {
	p, c := anchor(parent), anchor(child)
	midY := p.Y + (c.Y-p.Y)/2
	return Link{
		Kind: KindParent,
		A:    parent.ID(),
		B:    child.ID(),
		Path: []geom.Point{p, geom.Pt(p.X, midY), geom.Pt(c.X, midY), c},
	}
}

func familyBus(mother, father *family.Person, children []*family.Person, anchor AnchorFunc) Bus {
	top := geom.Midpoint(anchor(mother), anchor(father))
	depth := top.Y + StemDrop

	b := Bus{
		Mother: mother.ID(),
		Father: father.ID(),
		Stem:   geom.Seg(top, geom.Pt(top.X, depth)),
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, child := range children {
		c := anchor(child)
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
		b.Children = append(b.Children, child.ID())
		b.Drops = append(b.Drops, geom.Seg(geom.Pt(c.X, depth), c))
	}
	b.Rail = geom.Seg(geom.Pt(minX, depth), geom.Pt(maxX, depth))
	return b
}
