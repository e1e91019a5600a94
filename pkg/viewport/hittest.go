package viewport

import (
	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/layout"
)

// PersonAt returns the first person, in the given order, whose box contains
// the world point. There is no z-order beyond that.
func PersonAt(persons []*family.Person, m layout.Metrics, world geom.Point) *family.Person {
	for _, p := range persons {
		if m.Box(p).Contains(world) {
			return p
		}
	}
	return nil
}

// PersonAtScreen converts a screen point with t and hit-tests it.
func PersonAtScreen(persons []*family.Person, m layout.Metrics, t Transform, screen geom.Point) *family.Person {
	return PersonAt(persons, m, t.ScreenToWorld(screen))
}
