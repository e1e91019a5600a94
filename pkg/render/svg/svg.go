// Package svg writes a scene as a standalone SVG document.
package svg

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/scene"
)

const fontFamily = "Arial, sans-serif"

// Write renders s into a width x height document. The scene transform becomes
// the transform of the top-level group, so coordinates stay in world space.
func Write(w io.Writer, s scene.Scene, width, height int) error {
	var b strings.Builder

	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">
`, width, height, width, height)

	if clips := clipPaths(s.Nodes); clips != "" {
		b.WriteString("  <defs>\n")
		b.WriteString(clips)
		b.WriteString("  </defs>\n")
	}

	t := s.Transform
	fmt.Fprintf(&b, `  <g transform="translate(%s %s) scale(%s)">`+"\n", num(t.OffsetX), num(t.OffsetY), num(t.Scale))

	for _, l := range s.Lines {
		fmt.Fprintf(&b, `    <polyline points="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
			points(l.Points), attr(l.Color), num(l.Width))
	}
	for i, n := range s.Nodes {
		writeNode(&b, i, n, s.Style)
	}

	b.WriteString("  </g>\n</svg>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}

func writeNode(b *strings.Builder, i int, n scene.Node, st scene.Style) {
	r := n.Box
	fmt.Fprintf(b, `    <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		num(r.X), num(r.Y), num(r.W), num(r.H), num(st.CornerRadius),
		attr(st.NodeFill), attr(n.Stroke), num(st.NodeStrokeWidth))

	c := n.AvatarCenter()
	if n.Photo != "" {
		size := 2 * scene.AvatarRadius
		fmt.Fprintf(b, `    <image href="%s" x="%s" y="%s" width="%s" height="%s" clip-path="url(#%s)"/>`+"\n",
			attr(n.Photo), num(c.X-scene.AvatarRadius), num(c.Y-scene.AvatarRadius), num(size), num(size), clipID(i))
	} else {
		fmt.Fprintf(b, `    <circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
			num(c.X), num(c.Y), num(scene.AvatarRadius), attr(st.AvatarFill))
		fmt.Fprintf(b, `    <text x="%s" y="%s" font-family="%s" font-size="20" font-weight="bold" fill="white" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			num(c.X), num(c.Y), fontFamily, text(n.Initials))
	}

	at := n.NameAt()
	fmt.Fprintf(b, `    <text x="%s" y="%s" font-family="%s" font-size="14" font-weight="bold" fill="%s">%s</text>`+"\n",
		num(at.X), num(at.Y), fontFamily, attr(st.NameColor), text(n.Name))

	if n.Dates != "" {
		at = n.DatesAt()
		fmt.Fprintf(b, `    <text x="%s" y="%s" font-family="%s" font-size="11" fill="%s">%s</text>`+"\n",
			num(at.X), num(at.Y), fontFamily, attr(st.DateColor), text(n.Dates))
	}
}

func clipPaths(nodes []scene.Node) string {
	var b strings.Builder
	for i, n := range nodes {
		if n.Photo == "" {
			continue
		}
		c := n.AvatarCenter()
		fmt.Fprintf(&b, `    <clipPath id="%s"><circle cx="%s" cy="%s" r="%s"/></clipPath>`+"\n",
			clipID(i), num(c.X), num(c.Y), num(scene.AvatarRadius))
	}
	return b.String()
}

func clipID(i int) string { return "avatar-" + strconv.Itoa(i) }

func points(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func text(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// attr escapes s for a double-quoted attribute.
func attr(s string) string { return text(s) }
