// Package session is the interactive controller behind the canvas. It owns
// the tree, the pan/zoom transform, the gesture in progress and the focus
// view, and turns input events and menu commands into graph mutations.
//
// A Session is not safe for concurrent use; hosts drive it from one event
// loop, which is how the browser delivers input anyway.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kittclouds/kinship/internal/logging"
	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/focus"
	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/layout"
	"github.com/kittclouds/kinship/pkg/namesearch"
	"github.com/kittclouds/kinship/pkg/scene"
	"github.com/kittclouds/kinship/pkg/viewport"
)

// Options configures New. Zero values fall back to defaults.
type Options struct {
	// Store receives the snapshot after every mutation. nil disables saving.
	Store family.KeyValue
	// Names answers Find. nil creates a memory-only index.
	Names   *namesearch.Index
	Metrics layout.Metrics
	Style   scene.Style
	Width   float64
	Height  float64
	Logger  *slog.Logger
	// Redraw is called whenever the scene may have changed.
	Redraw func()
	// Now is the clock used for tap detection.
	Now func() time.Time
	// Background runs slow side work such as saving the name index.
	// nil runs it inline.
	Background func(func())
}

// Session is the single-threaded owner of the interactive state.
type Session struct {
	tree      *family.Tree
	store     family.KeyValue
	names     *namesearch.Index
	namesDirt bool

	metrics   layout.Metrics
	style     scene.Style
	transform viewport.Transform
	gesture   viewport.Gesture
	width     float64
	height    float64

	view      *focus.View
	selected  string
	focusPick bool
	relMode   Relation
	relSource string

	redraw     func()
	now        func() time.Time
	background func(func())
	log        *slog.Logger
}

// New wraps tree in a session.
func New(tree *family.Tree, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Metrics.BaseWidth == 0 {
		measurer := opts.Metrics.Measurer
		opts.Metrics = layout.DefaultMetrics()
		opts.Metrics.Measurer = measurer
	}
	if opts.Style == (scene.Style{}) {
		opts.Style = scene.DefaultStyle()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Background == nil {
		opts.Background = func(fn func()) { fn() }
	}
	if opts.Names == nil {
		opts.Names, _ = namesearch.Open(nil, "")
	}

	s := &Session{
		tree:       tree,
		store:      opts.Store,
		names:      opts.Names,
		namesDirt:  true,
		metrics:    opts.Metrics,
		style:      opts.Style,
		transform:  viewport.Identity(),
		width:      opts.Width,
		height:     opts.Height,
		redraw:     opts.Redraw,
		now:        opts.Now,
		background: opts.Background,
		log:        opts.Logger.With("component", "Session"),
	}
	s.log.Info("Initialized", "width", s.width, "height", s.height)
	return s
}

// Tree returns the graph the session edits.
func (s *Session) Tree() *family.Tree { return s.tree }

// Transform returns the current pan and zoom.
func (s *Session) Transform() viewport.Transform { return s.transform }

// SetTransform replaces pan and zoom, clamping the scale.
func (s *Session) SetTransform(t viewport.Transform) {
	t.Scale = viewport.ClampScale(t.Scale)
	s.transform = t
	s.requestRedraw()
}

// Selected is the id of the person the context menu acts on.
func (s *Session) Selected() string { return s.selected }

// Select makes id the selected person.
func (s *Session) Select(id string) error {
	if _, ok := s.tree.Person(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	s.selected = id
	return nil
}

// Focused returns the focus root, or "" when everyone is shown.
func (s *Session) Focused() string {
	if s.view == nil {
		return ""
	}
	return s.view.Root()
}

// View returns the active focus view; nil shows everyone.
func (s *Session) View() *focus.View { return s.view }

// FocusPicking reports whether the next pointer-down on a person focuses it.
func (s *Session) FocusPicking() bool { return s.focusPick }

// Relationship returns the pending relationship mode and its source.
func (s *Session) Relationship() (Relation, string) { return s.relMode, s.relSource }

// Dragging reports whether a person drag is in progress.
func (s *Session) Dragging() bool { return s.gesture.Mode() == viewport.ModeDragging }

// Scene renders the current frame. It never changes session state.
func (s *Session) Scene() scene.Scene {
	return scene.Build(s.tree, s.view, s.metrics, s.transform, s.style)
}

// Visible lists the persons currently drawn, in draw order.
func (s *Session) Visible() []*family.Person {
	return s.view.Filter(s.tree.Persons())
}

// Load restores the persisted tree and centres it.
func (s *Session) Load() (bool, error) {
	if s.store == nil {
		return false, nil
	}
	ok, err := s.tree.LoadFrom(s.store)
	if err != nil || !ok {
		return ok, err
	}
	s.namesDirt = true
	s.CenterView()
	return true, nil
}

// Find returns up to k person ids whose names are closest to query.
func (s *Session) Find(query string, k int) []string {
	if s.namesDirt {
		s.names.Rebuild(s.tree.Persons())
		s.namesDirt = false
		names, log := s.names, s.log
		s.background(func() {
			if err := names.Save(); err != nil {
				log.Warn("Failed to save name index", "error", err)
			}
		})
	}
	return s.names.Search(query, k)
}

// personAt hit-tests a screen point against the visible persons.
func (s *Session) personAt(screen geom.Point) *family.Person {
	return viewport.PersonAtScreen(s.Visible(), s.metrics, s.transform, screen)
}

// changed persists the tree after a mutation and requests a redraw.
func (s *Session) changed() {
	s.namesDirt = true
	if s.view != nil {
		s.view = focus.Compute(s.tree, s.view.Root())
	}
	if s.store != nil {
		s.tree.SaveTo(s.store)
	}
	s.requestRedraw()
}

func (s *Session) requestRedraw() {
	if s.redraw != nil {
		s.redraw()
	}
}
