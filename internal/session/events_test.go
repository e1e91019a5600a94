package session

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/viewport"
)

func TestPointerDragMovesAndSaves(t *testing.T) {
	h := newHarness(t)
	p := h.person("A", family.GenderMale, 100, 100)

	h.s.PointerDown(geom.Pt(110, 120), PrimaryButton)
	require.True(t, h.s.Dragging())
	assert.Equal(t, p.ID(), h.s.Selected())

	before := h.redraws
	h.s.PointerMove(geom.Pt(160, 170))
	assert.Equal(t, geom.Pt(150, 150), geom.Pt(p.X, p.Y), "grab offset is kept")
	assert.Greater(t, h.redraws, before)

	data, err := h.kv.Get(family.SnapshotKey)
	require.NoError(t, err)
	assert.Nil(t, data, "moves are not saved until release")

	h.s.PointerUp()
	assert.False(t, h.s.Dragging())
	saved := h.savedPerson(t, p.ID())
	assert.Equal(t, geom.Pt(150, 150), geom.Pt(saved.X, saved.Y))
}

func TestPointerDragUnderZoom(t *testing.T) {
	h := newHarness(t)
	p := h.person("A", family.GenderMale, 100, 100)
	h.s.SetTransform(viewport.Transform{OffsetX: 50, OffsetY: 20, Scale: 2})

	// World (110,110) is screen (270,240).
	h.s.PointerDown(geom.Pt(270, 240), PrimaryButton)
	require.True(t, h.s.Dragging())
	h.s.PointerMove(geom.Pt(290, 260))
	h.s.PointerUp()

	assert.Equal(t, geom.Pt(110, 110), geom.Pt(p.X, p.Y))
}

func TestPointerUpWithoutMoveStillSaves(t *testing.T) {
	h := newHarness(t)
	h.person("A", family.GenderMale, 100, 100)

	h.s.PointerDown(geom.Pt(110, 120), PrimaryButton)
	h.s.PointerUp()

	assert.Equal(t, 1, h.saved(t).Len())
}

func TestPointerPansEmptyCanvas(t *testing.T) {
	h := newHarness(t)
	h.person("A", family.GenderMale, 100, 100)

	h.s.PointerDown(geom.Pt(500, 500), PrimaryButton)
	assert.False(t, h.s.Dragging())
	h.s.PointerMove(geom.Pt(520, 510))
	h.s.PointerUp()

	tr := h.s.Transform()
	assert.Equal(t, 20.0, tr.OffsetX)
	assert.Equal(t, 10.0, tr.OffsetY)

	data, err := h.kv.Get(family.SnapshotKey)
	require.NoError(t, err)
	assert.Nil(t, data, "panning does not save")
}

func TestNonPrimaryButtonIgnored(t *testing.T) {
	h := newHarness(t)
	h.person("A", family.GenderMale, 100, 100)

	h.s.PointerDown(geom.Pt(110, 120), 2)
	assert.False(t, h.s.Dragging())
	assert.Empty(t, h.s.Selected())
}

func TestWheelClamps(t *testing.T) {
	h := newHarness(t)
	for range 100 {
		h.s.Wheel(-1)
	}
	assert.Equal(t, viewport.MaxScale, h.s.Transform().Scale)

	for range 100 {
		h.s.Wheel(1)
	}
	assert.Equal(t, viewport.MinScale, h.s.Transform().Scale)
}

func TestHitTestIgnoresHiddenPersons(t *testing.T) {
	h := newHarness(t)
	root := h.person("Root", family.GenderMale, 600, 400)
	hidden := h.person("Hidden", family.GenderMale, 100, 100)
	require.NoError(t, h.s.Focus(root.ID()))

	// Put the hidden person's box under a known screen point.
	at := h.s.Transform().WorldToScreen(geom.Pt(hidden.X+10, hidden.Y+10))
	eff := h.s.ContextMenu(at)
	assert.True(t, eff.HideMenu)
	assert.Nil(t, eff.Menu)
}

// =============================================================================
// Menus and modes
// =============================================================================

func TestContextMenu(t *testing.T) {
	h := newHarness(t)
	p := h.person("A", family.GenderMale, 100, 100)

	eff := h.s.ContextMenu(geom.Pt(5, 5))
	assert.True(t, eff.HideMenu)

	eff = h.s.ContextMenu(geom.Pt(120, 130))
	require.NotNil(t, eff.Menu)
	assert.Equal(t, p.ID(), eff.Menu.PersonID)
	assert.Equal(t, geom.Pt(120, 130), eff.Menu.At)
	assert.Equal(t, p.ID(), h.s.Selected())
}

func TestDoubleClickOpensInfo(t *testing.T) {
	h := newHarness(t)
	p := h.person("A", family.GenderMale, 100, 100)

	assert.Equal(t, p.ID(), h.s.DoubleClick(geom.Pt(120, 130)).Info)
	assert.Empty(t, h.s.DoubleClick(geom.Pt(5, 5)).Info)
}

func TestFocusPickOnPointerDown(t *testing.T) {
	h := newHarness(t)
	a := h.person("A", family.GenderMale, 100, 100)
	h.person("B", family.GenderMale, 600, 100)

	h.s.StartFocusPick()
	require.True(t, h.s.FocusPicking())

	h.s.PointerDown(geom.Pt(5, 5), PrimaryButton)
	assert.True(t, h.s.FocusPicking(), "empty canvas keeps the mode")
	h.s.PointerUp()

	h.s.PointerDown(geom.Pt(120, 130), PrimaryButton)
	assert.False(t, h.s.FocusPicking())
	assert.False(t, h.s.Dragging())
	assert.Equal(t, a.ID(), h.s.Focused())
	assert.Len(t, h.s.Visible(), 1)
}

func TestFocusPickOnContextMenu(t *testing.T) {
	h := newHarness(t)
	a := h.person("A", family.GenderMale, 100, 100)

	h.s.StartFocusPick()
	eff := h.s.ContextMenu(geom.Pt(120, 130))
	assert.Nil(t, eff.Menu)
	assert.Equal(t, a.ID(), h.s.Focused())

	h.s.StartFocusPick()
	h.s.CancelFocusPick()
	assert.False(t, h.s.FocusPicking())
}

func TestFocusPickLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	s := New(family.NewTree(nil), Options{Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	s.StartFocusPick()
	s.focusPicked("person_404")

	assert.False(t, s.FocusPicking())
	assert.Empty(t, s.Focused())
	assert.Contains(t, buf.String(), "Focus pick failed")
	assert.Contains(t, buf.String(), "person_404")
}

func TestClickCompletesRelationship(t *testing.T) {
	h := newHarness(t)
	a := h.person("A", family.GenderMale, 100, 100)
	b := h.person("B", family.GenderFemale, 400, 100)
	require.NoError(t, h.s.Select(a.ID()))
	require.NoError(t, h.s.StartRelationship(RelationSpouse))

	h.s.Click(geom.Pt(120, 130))
	mode, _ := h.s.Relationship()
	assert.Equal(t, RelationSpouse, mode, "clicking the source keeps waiting")

	h.s.Click(geom.Pt(5, 5))
	mode, _ = h.s.Relationship()
	assert.Equal(t, RelationSpouse, mode, "clicking empty canvas keeps waiting")

	h.s.Click(geom.Pt(420, 130))
	mode, _ = h.s.Relationship()
	assert.Equal(t, RelationNone, mode)
	assert.True(t, a.HasSpouse(b.ID()))
	assert.True(t, h.savedPerson(t, b.ID()).HasSpouse(a.ID()))
}

func TestClickWithoutModeDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.person("A", family.GenderMale, 100, 100)
	before := h.redraws
	assert.Equal(t, Effect{}, h.s.Click(geom.Pt(120, 130)))
	assert.Equal(t, before, h.redraws)
}

// =============================================================================
// Touch
// =============================================================================

func TestTouchTapOpensMenu(t *testing.T) {
	h := newHarness(t)
	p := h.person("A", family.GenderMale, 100, 100)
	at := geom.Pt(120, 130)

	h.s.TouchStart([]geom.Point{at})
	h.advance(100 * time.Millisecond)
	eff := h.s.TouchEnd(at)

	require.NotNil(t, eff.Menu)
	assert.Equal(t, p.ID(), eff.Menu.PersonID)
}

func TestTouchLongPressIsNotATap(t *testing.T) {
	h := newHarness(t)
	h.person("A", family.GenderMale, 100, 100)
	at := geom.Pt(120, 130)

	h.s.TouchStart([]geom.Point{at})
	h.advance(400 * time.Millisecond)
	assert.Nil(t, h.s.TouchEnd(at).Menu)
}

func TestTouchDrag(t *testing.T) {
	h := newHarness(t)
	p := h.person("A", family.GenderMale, 100, 100)

	h.s.TouchStart([]geom.Point{geom.Pt(120, 130)})
	h.s.TouchMove([]geom.Point{geom.Pt(140, 150)})
	eff := h.s.TouchEnd(geom.Pt(140, 150))

	assert.Nil(t, eff.Menu)
	assert.Equal(t, geom.Pt(120, 120), geom.Pt(p.X, p.Y))
	assert.Equal(t, 120.0, h.savedPerson(t, p.ID()).X)
}

func TestPinchZooms(t *testing.T) {
	h := newHarness(t)

	h.s.TouchStart([]geom.Point{geom.Pt(0, 0), geom.Pt(100, 0)})
	h.s.TouchMove([]geom.Point{geom.Pt(0, 0), geom.Pt(200, 0)})
	assert.Equal(t, 2.0, h.s.Transform().Scale)

	h.s.TouchMove([]geom.Point{geom.Pt(0, 0), geom.Pt(2000, 0)})
	assert.Equal(t, viewport.MaxScale, h.s.Transform().Scale)

	assert.Nil(t, h.s.TouchEnd(geom.Pt(0, 0)).Menu)
}

// =============================================================================
// Import during a gesture
// =============================================================================

func TestImportAbandonsDrag(t *testing.T) {
	h := newHarness(t)
	h.person("A", family.GenderMale, 100, 100)

	h.s.PointerDown(geom.Pt(110, 120), PrimaryButton)
	require.True(t, h.s.Dragging())

	require.NoError(t, h.s.Import([]byte(importDoc)))
	assert.False(t, h.s.Dragging())

	h.s.PointerMove(geom.Pt(300, 300))
	h.s.PointerUp()

	ivan, ok := h.s.Tree().Person("person_1")
	require.True(t, ok)
	assert.Equal(t, geom.Pt(0, 0), geom.Pt(ivan.X, ivan.Y), "stale drag does not move the imported person")
}

func TestDeleteDuringDrag(t *testing.T) {
	h := newHarness(t)
	p := h.person("A", family.GenderMale, 100, 100)

	h.s.PointerDown(geom.Pt(110, 120), PrimaryButton)
	require.NoError(t, h.s.Delete(p.ID()))
	assert.False(t, h.s.Dragging())
	h.s.PointerMove(geom.Pt(300, 300))
	h.s.PointerUp()
	assert.Equal(t, 0, h.s.Tree().Len())
}

func TestResizeRedraws(t *testing.T) {
	h := newHarness(t)
	before := h.redraws
	h.s.Resize(1024, 768)
	assert.Equal(t, before+1, h.redraws)

	h.person("A", family.GenderMale, 0, 0)
	h.s.CenterView()
	assert.Equal(t, 512-75.0, h.s.Transform().OffsetX)
}
