package session

import (
	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/viewport"
)

// Effect tells the host about UI it has to show. Redraws go through
// Options.Redraw instead.
type Effect struct {
	// Menu asks for the context menu for Menu.PersonID at Menu.At.
	Menu *Menu `json:"menu,omitempty"`
	// HideMenu asks to close an open context menu.
	HideMenu bool `json:"hideMenu,omitempty"`
	// Info asks to open the read-only detail view of a person.
	Info string `json:"info,omitempty"`
}

// Menu is a context menu request in screen coordinates.
type Menu struct {
	PersonID string     `json:"personId"`
	At       geom.Point `json:"at"`
}

// PrimaryButton is the only mouse button that starts a gesture.
const PrimaryButton = 0

// =============================================================================
// Mouse
// =============================================================================

// PointerDown starts a drag on a person or a pan on empty canvas. While a
// focus pick is pending, pressing on a person focuses it instead.
func (s *Session) PointerDown(screen geom.Point, button int) Effect {
	if button != PrimaryButton {
		return Effect{}
	}
	p := s.personAt(screen)

	if p != nil && s.focusPick {
		s.focusPicked(p.ID())
		return Effect{}
	}

	s.begin(screen, p)
	return Effect{}
}

// PointerMove drags the grabbed person or pans the canvas.
func (s *Session) PointerMove(screen geom.Point) Effect {
	s.apply(s.gesture.Move(screen, s.transform))
	return Effect{}
}

// PointerUp ends the gesture. A person drag is saved even when it did not
// move.
func (s *Session) PointerUp() Effect {
	rel := s.gesture.End(s.now(), false)
	s.finish(rel)
	return Effect{}
}

// Wheel zooms one step.
func (s *Session) Wheel(deltaY float64) Effect {
	s.transform.Wheel(deltaY)
	s.requestRedraw()
	return Effect{}
}

// Click completes a pending relationship pick.
func (s *Session) Click(screen geom.Point) Effect {
	if s.relMode == RelationNone {
		return Effect{}
	}
	target := s.personAt(screen)
	if target == nil || target.ID() == s.relSource {
		return Effect{}
	}

	mode, source := s.relMode, s.relSource
	s.relMode, s.relSource = RelationNone, ""
	if err := s.Link(mode, source, target.ID()); err != nil {
		s.log.Warn("Relationship pick failed", "mode", mode.String(), "error", err)
	}
	return Effect{}
}

// DoubleClick opens the detail view of the person under the pointer.
func (s *Session) DoubleClick(screen geom.Point) Effect {
	p := s.personAt(screen)
	if p == nil {
		return Effect{}
	}
	s.log.Info("Person info opened via double-click", "personId", p.ID())
	return Effect{Info: p.ID()}
}

func (s *Session) focusPicked(id string) {
	s.focusPick = false
	if err := s.Focus(id); err != nil {
		s.log.Warn("Focus pick failed", "id", id, "error", err)
	}
}

// ContextMenu selects the person under the pointer and asks for the menu.
// Over empty canvas it asks to hide the menu.
func (s *Session) ContextMenu(screen geom.Point) Effect {
	p := s.personAt(screen)
	if p == nil {
		return Effect{HideMenu: true}
	}
	if s.focusPick {
		s.focusPicked(p.ID())
		return Effect{HideMenu: true}
	}

	s.selected = p.ID()
	s.log.Info("Context menu shown", "personId", p.ID())
	return Effect{Menu: &Menu{PersonID: p.ID(), At: screen}}
}

// Resize records the new canvas size.
func (s *Session) Resize(width, height float64) {
	s.width, s.height = width, height
	s.requestRedraw()
}

// =============================================================================
// Touch
// =============================================================================

// TouchStart handles one finger like a pointer-down and two fingers as the
// start of a pinch.
func (s *Session) TouchStart(touches []geom.Point) Effect {
	switch len(touches) {
	case 1:
		p := s.personAt(touches[0])
		s.begin(touches[0], p)
	case 2:
		s.gesture.BeginPinch(touches[0], touches[1])
	}
	return Effect{}
}

// TouchMove drags, pans or pinches depending on the finger count.
func (s *Session) TouchMove(touches []geom.Point) Effect {
	switch len(touches) {
	case 1:
		s.apply(s.gesture.Move(touches[0], s.transform))
	case 2:
		if s.gesture.PinchMove(touches[0], touches[1], &s.transform) {
			s.requestRedraw()
		}
	}
	return Effect{}
}

// TouchEnd finishes the gesture. A short stationary tap on a person opens
// its context menu at the lifted finger.
func (s *Session) TouchEnd(at geom.Point) Effect {
	rel := s.gesture.End(s.now(), true)
	s.finish(rel)
	if rel.Tap {
		return s.ContextMenu(at)
	}
	return Effect{}
}

// =============================================================================
// Gesture plumbing
// =============================================================================

// begin starts a drag on p, or a pan when p is nil.
func (s *Session) begin(screen geom.Point, p *family.Person) {
	now := s.now()
	if p == nil {
		s.gesture.BeginPan(screen, s.transform, now)
		return
	}
	s.selected = p.ID()
	world := s.transform.ScreenToWorld(screen)
	s.gesture.BeginDrag(p.ID(), world, geom.Pt(p.X, p.Y), now)
	s.log.Info("Person selected for dragging", "id", p.ID())
}

func (s *Session) apply(step viewport.Step) {
	switch step.Kind {
	case viewport.StepMovePerson:
		s.tree.MovePerson(step.Person, step.Pos.X, step.Pos.Y)
		s.requestRedraw()
	case viewport.StepPan:
		s.transform.PanTo(step.Pos.X, step.Pos.Y)
		s.requestRedraw()
	}
}

func (s *Session) finish(rel viewport.Release) {
	if rel.Dragged {
		s.log.Info("Person drag completed", "id", rel.Person, "moved", rel.Moved)
		s.changed()
	}
}
