// Package layout sizes person nodes in world space.
package layout

import (
	"math"

	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/geom"
)

// Font identifies the two text styles drawn inside a node.
type Font int

const (
	NameFont Font = iota // bold 14px
	DateFont             // regular 11px
)

// Measurer returns the rendered width of text in world units.
type Measurer interface {
	MeasureText(text string, font Font) float64
}

// Metrics describes node boxes.
type Metrics struct {
	BaseWidth  float64
	BaseHeight float64
	// TextInset is the horizontal room taken by the avatar and padding.
	TextInset float64
	// Measurer may be nil, in which case every box has BaseWidth.
	Measurer Measurer
}

// DefaultMetrics are 150x80 boxes with a 90px avatar inset.
func DefaultMetrics() Metrics {
	return Metrics{
		BaseWidth:  150,
		BaseHeight: 80,
		TextInset:  90,
	}
}

// Width is the rendered box width, widened to fit the name and date text.
func (m Metrics) Width(p *family.Person) float64 {
	if m.Measurer == nil {
		return m.BaseWidth
	}
	text := m.Measurer.MeasureText(p.FullName(), NameFont)
	if dates := p.DateLabel(); dates != "" {
		text = math.Max(text, m.Measurer.MeasureText(dates, DateFont))
	}
	return math.Max(m.BaseWidth, text+m.TextInset)
}

// Box is the hit and draw rectangle of p, anchored at its position.
func (m Metrics) Box(p *family.Person) geom.Rect {
	return geom.Rect{X: p.X, Y: p.Y, W: m.Width(p), H: m.BaseHeight}
}

// Anchor is where connectors attach: the centre of the base box. It does
// not move when the box widens for long names.
func (m Metrics) Anchor(p *family.Person) geom.Point {
	return geom.Point{X: p.X + m.BaseWidth/2, Y: p.Y + m.BaseHeight/2}
}

// Bounds is the union of the base boxes of persons. ok is false when
// persons is empty.
func (m Metrics) Bounds(persons []*family.Person) (r geom.Rect, ok bool) {
	for i, p := range persons {
		box := geom.Rect{X: p.X, Y: p.Y, W: m.BaseWidth, H: m.BaseHeight}
		if i == 0 {
			r = box
			continue
		}
		r = r.Union(box)
	}
	return r, len(persons) > 0
}
