// Package scene turns the graph into a flat list of drawing primitives.
// Painters (canvas, SVG) consume a Scene and never look at the graph.
package scene

import (
	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/focus"
	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/layout"
	"github.com/kittclouds/kinship/pkg/routing"
	"github.com/kittclouds/kinship/pkg/viewport"
)

// Style holds colours and stroke widths.
type Style struct {
	SpouseColor     string  `yaml:"spouse_color" validate:"required"`
	SpouseWidth     float64 `yaml:"spouse_width" validate:"gt=0"`
	ParentColor     string  `yaml:"parent_color" validate:"required"`
	ParentWidth     float64 `yaml:"parent_width" validate:"gt=0"`
	FemaleStroke    string  `yaml:"female_stroke" validate:"required"`
	MaleStroke      string  `yaml:"male_stroke" validate:"required"`
	NodeStrokeWidth float64 `yaml:"node_stroke_width" validate:"gt=0"`
	NodeFill        string  `yaml:"node_fill" validate:"required"`
	AvatarFill      string  `yaml:"avatar_fill" validate:"required"`
	NameColor       string  `yaml:"name_color" validate:"required"`
	DateColor       string  `yaml:"date_color" validate:"required"`
	CornerRadius    float64 `yaml:"corner_radius" validate:"gte=0"`
}

// DefaultStyle is the stock palette.
func DefaultStyle() Style {
	return Style{
		SpouseColor:     "#ff6b6b",
		SpouseWidth:     3,
		ParentColor:     "#667eea",
		ParentWidth:     2,
		FemaleStroke:    "#ff69b4",
		MaleStroke:      "#4a90e2",
		NodeStrokeWidth: 3,
		NodeFill:        "white",
		AvatarFill:      "#667eea",
		NameColor:       "#333",
		DateColor:       "#666",
		CornerRadius:    10,
	}
}

// Avatar placement relative to the node's top-left corner.
const (
	AvatarOffsetX = 30.0
	AvatarOffsetY = 40.0
	AvatarRadius  = 25.0
	TextOffsetX   = 65.0
	NameOffsetY   = 30.0
	DateOffsetY   = 50.0
)

// Line is one connector polyline in world space.
type Line struct {
	Kind   routing.Kind
	Points []geom.Point
	Color  string
	Width  float64
}

// Node is one person box in world space.
type Node struct {
	ID       string
	Box      geom.Rect
	Name     string
	Dates    string
	Initials string
	Gender   family.Gender
	Photo    string
	Stroke   string
}

// AvatarCenter is the centre of the avatar circle.
func (n Node) AvatarCenter() geom.Point {
	return geom.Pt(n.Box.X+AvatarOffsetX, n.Box.Y+AvatarOffsetY)
}

// NameAt is the left baseline of the name.
func (n Node) NameAt() geom.Point {
	return geom.Pt(n.Box.X+TextOffsetX, n.Box.Y+NameOffsetY)
}

// DatesAt is the left baseline of the date label.
func (n Node) DatesAt() geom.Point {
	return geom.Pt(n.Box.X+TextOffsetX, n.Box.Y+DateOffsetY)
}

// Scene is everything a painter needs for one frame. Lines are drawn before
// Nodes so boxes are never hidden behind connectors.
type Scene struct {
	Transform viewport.Transform
	Style     Style
	Lines     []Line
	Nodes     []Node
}

// Source lists persons in draw order; *family.Tree satisfies it.
type Source interface {
	Persons() []*family.Person
}

// Build renders the graph into a Scene. A nil view draws everyone.
// Build never mutates the graph, so repeated calls give equal scenes.
func Build(src Source, view *focus.View, m layout.Metrics, t viewport.Transform, st Style) Scene {
	visible := view.Filter(src.Persons())

	s := Scene{Transform: t, Style: st}
	plan := routing.Route(visible, m.Anchor)

	for _, l := range plan.Spouses {
		s.Lines = append(s.Lines, Line{Kind: routing.KindSpouse, Points: l.Path, Color: st.SpouseColor, Width: st.SpouseWidth})
	}
	for _, l := range plan.Parents {
		s.Lines = append(s.Lines, Line{Kind: routing.KindParent, Points: l.Path, Color: st.ParentColor, Width: st.ParentWidth})
	}
	for _, b := range plan.Buses {
		for _, seg := range b.Segments() {
			s.Lines = append(s.Lines, Line{
				Kind:   routing.KindParent,
				Points: []geom.Point{seg.A, seg.B},
				Color:  st.ParentColor,
				Width:  st.ParentWidth,
			})
		}
	}

	for _, p := range visible {
		stroke := st.MaleStroke
		if p.Gender == family.GenderFemale {
			stroke = st.FemaleStroke
		}
		s.Nodes = append(s.Nodes, Node{
			ID:       p.ID(),
			Box:      m.Box(p),
			Name:     p.FullName(),
			Dates:    p.DateLabel(),
			Initials: p.Initials(),
			Gender:   p.Gender,
			Photo:    p.Photo,
			Stroke:   stroke,
		})
	}
	return s
}
