package viewport

import (
	"time"

	"github.com/kittclouds/kinship/pkg/geom"
)

// TapThreshold is the longest touch on a person that still counts as a tap.
const TapThreshold = 300 * time.Millisecond

// Mode is the gesture in progress.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeDragging
	ModePinching
)

func (m Mode) String() string {
	switch m {
	case ModePanning:
		return "panning"
	case ModeDragging:
		return "dragging"
	case ModePinching:
		return "pinching"
	default:
		return "idle"
	}
}

// StepKind says what a pointer move should change.
type StepKind int

const (
	StepNone StepKind = iota
	StepMovePerson
	StepPan
)

// Step is the outcome of a pointer move. For StepMovePerson, Pos is the new
// world position of Person; for StepPan, Pos is the new pan offset.
type Step struct {
	Kind   StepKind
	Person string
	Pos    geom.Point
}

// Release is the outcome of ending a gesture.
type Release struct {
	Mode    Mode
	Person  string
	Moved   bool
	Tap     bool // short stationary touch on a person
	Dragged bool // a person was moved and should be persisted
}

// Gesture tracks one pointer gesture. It never writes to the graph or the
// transform itself; callers apply the returned Step.
type Gesture struct {
	mode      Mode
	person    string
	grab      geom.Point
	moved     bool
	pinchDist float64
	downAt    time.Time
}

// Mode returns the gesture in progress.
func (g *Gesture) Mode() Mode { return g.mode }

// Person returns the id of the person being dragged, if any.
func (g *Gesture) Person() string { return g.person }

// BeginDrag starts moving a person. The grab offset keeps the pointer at the
// same spot inside the box for the whole drag.
func (g *Gesture) BeginDrag(personID string, pointerWorld, personPos geom.Point, now time.Time) {
	*g = Gesture{
		mode:   ModeDragging,
		person: personID,
		grab:   pointerWorld.Sub(personPos),
		downAt: now,
	}
}

// BeginPan starts panning the canvas.
func (g *Gesture) BeginPan(pointerScreen geom.Point, t Transform, now time.Time) {
	*g = Gesture{
		mode:   ModePanning,
		grab:   pointerScreen.Sub(t.Offset()),
		downAt: now,
	}
}

// Move maps a pointer move to a Step.
func (g *Gesture) Move(pointerScreen geom.Point, t Transform) Step {
	switch g.mode {
	case ModeDragging:
		g.moved = true
		world := t.ScreenToWorld(pointerScreen)
		return Step{Kind: StepMovePerson, Person: g.person, Pos: world.Sub(g.grab)}
	case ModePanning:
		g.moved = true
		return Step{Kind: StepPan, Pos: pointerScreen.Sub(g.grab)}
	default:
		return Step{}
	}
}

// BeginPinch switches to a two-finger zoom, cancelling any drag or pan.
func (g *Gesture) BeginPinch(a, b geom.Point) {
	*g = Gesture{
		mode:      ModePinching,
		pinchDist: geom.Dist(a, b),
	}
}

// PinchMove zooms t by the change in finger distance.
func (g *Gesture) PinchMove(a, b geom.Point, t *Transform) bool {
	if g.mode != ModePinching {
		return false
	}
	d := geom.Dist(a, b)
	if g.pinchDist > 0 {
		t.Pinch(g.pinchDist, d)
	}
	g.pinchDist = d
	return true
}

// End finishes the gesture. touch enables tap detection.
func (g *Gesture) End(now time.Time, touch bool) Release {
	r := Release{
		Mode:    g.mode,
		Person:  g.person,
		Moved:   g.moved,
		Dragged: g.mode == ModeDragging,
	}
	if touch && g.mode == ModeDragging && !g.moved && now.Sub(g.downAt) < TapThreshold {
		r.Tap = true
	}
	*g = Gesture{}
	return r
}

// Abandon drops the gesture without a release, e.g. after the graph was
// replaced underneath it.
func (g *Gesture) Abandon() {
	*g = Gesture{}
}
