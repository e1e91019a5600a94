// Package textmetrics measures node labels with the Go fonts so that boxes
// can be sized outside a browser (CLI, SVG export, tests).
package textmetrics

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/kittclouds/kinship/pkg/layout"
)

// Sizes in pixels at 72 DPI, matching the canvas fonts.
const (
	NameSize = 14
	DateSize = 11
)

// Measurer implements layout.Measurer with opentype faces.
type Measurer struct {
	name font.Face
	date font.Face
}

// New parses the embedded Go fonts.
func New() (*Measurer, error) {
	name, err := newFace(gobold.TTF, NameSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load name font: %w", err)
	}
	date, err := newFace(goregular.TTF, DateSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load date font: %w", err)
	}
	return &Measurer{name: name, date: date}, nil
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	fnt, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// MeasureText returns the advance width of text in pixels.
func (m *Measurer) MeasureText(text string, f layout.Font) float64 {
	face := m.name
	if f == layout.DateFont {
		face = m.date
	}
	adv := font.MeasureString(face, text)
	return float64(adv) / 64
}
