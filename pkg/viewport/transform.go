// Package viewport maps between screen and world space and resolves pointer
// input to persons.
//
//	screen = world*scale + offset
//	world  = (screen - offset) / scale
package viewport

import (
	"math"

	"github.com/kittclouds/kinship/pkg/geom"
)

// Zoom limits and per-notch wheel factors.
const (
	MinScale = 0.1
	MaxScale = 3.0

	WheelOutFactor = 0.9
	WheelInFactor  = 1.1
)

// Transform is the pan offset and uniform scale of the view.
type Transform struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
}

// Identity is no pan and scale 1.
func Identity() Transform {
	return Transform{Scale: 1}
}

// ClampScale bounds s to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}

// Offset returns the pan offset as a point.
func (t Transform) Offset() geom.Point {
	return geom.Point{X: t.OffsetX, Y: t.OffsetY}
}

// WorldToScreen converts a world point to screen pixels.
func (t Transform) WorldToScreen(p geom.Point) geom.Point {
	return geom.Point{
		X: p.X*t.Scale + t.OffsetX,
		Y: p.Y*t.Scale + t.OffsetY,
	}
}

// ScreenToWorld converts a screen point to world space.
func (t Transform) ScreenToWorld(s geom.Point) geom.Point {
	return geom.Point{
		X: (s.X - t.OffsetX) / t.Scale,
		Y: (s.Y - t.OffsetY) / t.Scale,
	}
}

// ZoomBy multiplies the scale by f and clamps it.
func (t *Transform) ZoomBy(f float64) {
	t.Scale = ClampScale(t.Scale * f)
}

// Wheel applies one wheel notch: positive deltaY zooms out.
func (t *Transform) Wheel(deltaY float64) {
	if deltaY > 0 {
		t.ZoomBy(WheelOutFactor)
		return
	}
	t.ZoomBy(WheelInFactor)
}

// Pinch zooms by the ratio of the current to the previous two-finger
// distance. A non-positive previous distance is ignored.
func (t *Transform) Pinch(prevDist, curDist float64) {
	if prevDist <= 0 {
		return
	}
	t.ZoomBy(curDist / prevDist)
}

// PanTo sets the offset directly.
func (t *Transform) PanTo(x, y float64) {
	t.OffsetX, t.OffsetY = x, y
}

// CenterOn pans so the centre of bounds lands in the middle of a
// viewW x viewH surface. Scale is unchanged.
func (t *Transform) CenterOn(bounds geom.Rect, viewW, viewH float64) {
	c := bounds.Center()
	t.OffsetX = viewW/2 - c.X*t.Scale
	t.OffsetY = viewH/2 - c.Y*t.Scale
}
