//go:build js && wasm

package main

import (
	"math"
	"syscall/js"

	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/layout"
	"github.com/kittclouds/kinship/pkg/scene"
)

const (
	nameFont     = "bold 14px Arial"
	dateFont     = "11px Arial"
	initialsFont = "bold 20px Arial"
)

// =============================================================================
// Text measurement
// =============================================================================

// canvasMeasurer sizes labels with the 2D context so boxes match what the
// browser draws.
type canvasMeasurer struct {
	ctx js.Value
}

func (m canvasMeasurer) MeasureText(text string, f layout.Font) float64 {
	m.ctx.Call("save")
	defer m.ctx.Call("restore")
	if f == layout.DateFont {
		m.ctx.Set("font", dateFont)
	} else {
		m.ctx.Set("font", nameFont)
	}
	return m.ctx.Call("measureText", text).Get("width").Float()
}

// =============================================================================
// Painter
// =============================================================================

// painter draws scenes on a canvas, at most once per animation frame.
type painter struct {
	canvas js.Value
	ctx    js.Value
	scene  func() scene.Scene

	pending bool
	frame   js.Func

	// images caches decoded photos by data URL. An entry exists from the
	// moment loading starts; loaded flips when onload fires.
	images map[string]*photo
}

type photo struct {
	img    js.Value
	loaded bool
	onload js.Func
}

func newPainter(canvas js.Value) *painter {
	p := &painter{
		canvas: canvas,
		ctx:    canvas.Call("getContext", "2d"),
		images: make(map[string]*photo),
	}
	p.frame = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		p.pending = false
		if p.scene != nil {
			p.paint(p.scene())
		}
		return nil
	})
	return p
}

// requestRedraw schedules one paint for the next animation frame.
func (p *painter) requestRedraw() {
	if p.pending {
		return
	}
	p.pending = true
	js.Global().Call("requestAnimationFrame", p.frame)
}

// size is the canvas size in CSS pixels.
func (p *painter) size() (float64, float64) {
	return p.canvas.Get("width").Float(), p.canvas.Get("height").Float()
}

func (p *painter) paint(s scene.Scene) {
	ctx := p.ctx
	w, h := p.size()

	ctx.Call("setTransform", 1, 0, 0, 1, 0, 0)
	ctx.Call("clearRect", 0, 0, w, h)
	t := s.Transform
	ctx.Call("setTransform", t.Scale, 0, 0, t.Scale, t.OffsetX, t.OffsetY)

	for _, l := range s.Lines {
		p.line(l)
	}
	for _, n := range s.Nodes {
		p.node(n, s.Style)
	}
	p.prune(s.Nodes)
}

func (p *painter) line(l scene.Line) {
	if len(l.Points) < 2 {
		return
	}
	ctx := p.ctx
	ctx.Call("beginPath")
	ctx.Call("moveTo", l.Points[0].X, l.Points[0].Y)
	for _, pt := range l.Points[1:] {
		ctx.Call("lineTo", pt.X, pt.Y)
	}
	ctx.Set("strokeStyle", l.Color)
	ctx.Set("lineWidth", l.Width)
	ctx.Call("stroke")
}

func (p *painter) node(n scene.Node, st scene.Style) {
	ctx := p.ctx

	roundRect(ctx, n.Box, st.CornerRadius)
	ctx.Set("fillStyle", st.NodeFill)
	ctx.Call("fill")
	ctx.Set("strokeStyle", n.Stroke)
	ctx.Set("lineWidth", st.NodeStrokeWidth)
	ctx.Call("stroke")

	c := n.AvatarCenter()
	if img, ok := p.photo(n.Photo); ok {
		ctx.Call("save")
		ctx.Call("beginPath")
		ctx.Call("arc", c.X, c.Y, scene.AvatarRadius, 0, 2*math.Pi)
		ctx.Call("clip")
		size := 2 * scene.AvatarRadius
		ctx.Call("drawImage", img, c.X-scene.AvatarRadius, c.Y-scene.AvatarRadius, size, size)
		ctx.Call("restore")
	} else {
		ctx.Call("beginPath")
		ctx.Call("arc", c.X, c.Y, scene.AvatarRadius, 0, 2*math.Pi)
		ctx.Set("fillStyle", st.AvatarFill)
		ctx.Call("fill")

		ctx.Set("font", initialsFont)
		ctx.Set("fillStyle", "white")
		ctx.Set("textAlign", "center")
		ctx.Set("textBaseline", "middle")
		ctx.Call("fillText", n.Initials, c.X, c.Y)
	}

	ctx.Set("textAlign", "left")
	ctx.Set("textBaseline", "alphabetic")
	at := n.NameAt()
	ctx.Set("font", nameFont)
	ctx.Set("fillStyle", st.NameColor)
	ctx.Call("fillText", n.Name, at.X, at.Y)

	if n.Dates != "" {
		at = n.DatesAt()
		ctx.Set("font", dateFont)
		ctx.Set("fillStyle", st.DateColor)
		ctx.Call("fillText", n.Dates, at.X, at.Y)
	}
}

// roundRect traces a rounded rectangle with arcTo, which every canvas
// implementation has.
func roundRect(ctx js.Value, r geom.Rect, radius float64) {
	radius = math.Min(radius, math.Min(r.W, r.H)/2)
	right, bottom := r.X+r.W, r.Y+r.H
	ctx.Call("beginPath")
	ctx.Call("moveTo", r.X+radius, r.Y)
	ctx.Call("arcTo", right, r.Y, right, bottom, radius)
	ctx.Call("arcTo", right, bottom, r.X, bottom, radius)
	ctx.Call("arcTo", r.X, bottom, r.X, r.Y, radius)
	ctx.Call("arcTo", r.X, r.Y, right, r.Y, radius)
	ctx.Call("closePath")
}

// photo returns the decoded image for src, starting a load on first use.
// Until it has loaded the node shows its initials.
func (p *painter) photo(src string) (js.Value, bool) {
	if src == "" {
		return js.Undefined(), false
	}
	if ph, ok := p.images[src]; ok {
		return ph.img, ph.loaded
	}

	ph := &photo{img: js.Global().Get("Image").New()}
	ph.onload = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		ph.loaded = true
		p.requestRedraw()
		return nil
	})
	ph.img.Set("onload", ph.onload)
	ph.img.Set("src", src)
	p.images[src] = ph
	return ph.img, false
}

// prune drops photos no longer on screen.
func (p *painter) prune(nodes []scene.Node) {
	if len(p.images) <= len(nodes) {
		return
	}
	live := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		live[n.Photo] = true
	}
	for src, ph := range p.images {
		if !live[src] {
			ph.img.Set("onload", js.Null())
			ph.onload.Release()
			delete(p.images, src)
		}
	}
}
