// Package draw defines the drawing surface the renderers paint on, with a
// raster implementation backed by gg and a recorder for tests.
package draw

import (
	"image"
	"image/color"
)

// Align is the horizontal anchor of a text run.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle describes a text run. Text is anchored vertically on its middle.
type TextStyle struct {
	Size  float64
	Color color.Color
	Align Align
	Bold  bool
}

// Canvas is an immediate-mode 2D drawing surface with a transform and alpha
// stack. Coordinates are in pixels.
type Canvas interface {
	Size() (w, h float64)

	// Push saves the transform and alpha; Pop restores them.
	Push()
	Pop()
	Translate(x, y float64)
	Scale(sx, sy float64)
	Rotate(radians float64)
	// SetAlpha multiplies the current alpha by a.
	SetAlpha(a float64)

	Clear(c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	StrokeRect(x, y, w, h, lineWidth float64, c color.Color)
	FillRoundRect(x, y, w, h, r float64, c color.Color)
	StrokeRoundRect(x, y, w, h, r, lineWidth float64, c color.Color)
	Line(x1, y1, x2, y2, lineWidth float64, c color.Color)
	FillCircle(x, y, r float64, c color.Color)
	StrokeCircle(x, y, r, lineWidth float64, c color.Color)
	Text(s string, x, y float64, style TextStyle)
	Image(img image.Image, x, y, w, h float64)
	MeasureText(s string, style TextStyle) (w, h float64)
}

// WithAlpha returns c with its alpha multiplied by a.
func WithAlpha(c color.Color, a float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	switch {
	case a <= 0:
		n.A = 0
	case a < 1:
		n.A = uint8(float64(n.A)*a + 0.5)
	}
	return n
}

// Hex builds an opaque color from 0xRRGGBB.
func Hex(rgb uint32) color.NRGBA {
	return color.NRGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}
}

// Truncate shortens s to max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func clamp01(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
