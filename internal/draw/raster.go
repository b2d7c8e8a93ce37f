package draw

import (
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *truetype.Font
	bold      *truetype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		regular, fontsErr = truetype.Parse(goregular.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("failed to parse font: %w", fontsErr)
			return
		}
		bold, fontsErr = truetype.Parse(gobold.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("failed to parse bold font: %w", fontsErr)
		}
	})
	return fontsErr
}

type faceKey struct {
	size float64
	bold bool
}

// Raster is a Canvas painting into an RGBA image with gg.
// It is not safe for concurrent use.
type Raster struct {
	dc    *gg.Context
	alpha float64
	stack []float64
	faces map[faceKey]font.Face
}

// NewRaster creates a w x h raster canvas.
func NewRaster(w, h int) (*Raster, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	return &Raster{
		dc:    gg.NewContext(w, h),
		alpha: 1,
		faces: make(map[faceKey]font.Face),
	}, nil
}

// Pixels returns the painted image. It is overwritten by later drawing.
func (r *Raster) Pixels() image.Image {
	return r.dc.Image()
}

// Snapshot returns a copy of the painted image.
func (r *Raster) Snapshot() *image.RGBA {
	src := r.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	imagedraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, imagedraw.Src)
	return dst
}

func (r *Raster) Size() (float64, float64) {
	return float64(r.dc.Width()), float64(r.dc.Height())
}

func (r *Raster) Push() {
	r.dc.Push()
	r.stack = append(r.stack, r.alpha)
}

func (r *Raster) Pop() {
	if len(r.stack) == 0 {
		return
	}
	r.dc.Pop()
	r.alpha = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *Raster) Translate(x, y float64) { r.dc.Translate(x, y) }
func (r *Raster) Scale(sx, sy float64)   { r.dc.Scale(sx, sy) }
func (r *Raster) Rotate(a float64)       { r.dc.Rotate(a) }
func (r *Raster) SetAlpha(a float64)     { r.alpha *= clamp01(a) }

func (r *Raster) setColor(c color.Color) {
	r.dc.SetColor(WithAlpha(c, r.alpha))
}

func (r *Raster) Clear(c color.Color) {
	r.dc.Push()
	r.dc.Identity()
	r.dc.SetColor(c)
	r.dc.Clear()
	r.dc.Pop()
}

func (r *Raster) FillRect(x, y, w, h float64, c color.Color) {
	r.setColor(c)
	r.dc.DrawRectangle(x, y, w, h)
	r.dc.Fill()
}

func (r *Raster) StrokeRect(x, y, w, h, lw float64, c color.Color) {
	r.setColor(c)
	r.dc.SetLineWidth(lw)
	r.dc.DrawRectangle(x, y, w, h)
	r.dc.Stroke()
}

func (r *Raster) FillRoundRect(x, y, w, h, rad float64, c color.Color) {
	r.setColor(c)
	r.dc.DrawRoundedRectangle(x, y, w, h, rad)
	r.dc.Fill()
}

func (r *Raster) StrokeRoundRect(x, y, w, h, rad, lw float64, c color.Color) {
	r.setColor(c)
	r.dc.SetLineWidth(lw)
	r.dc.DrawRoundedRectangle(x, y, w, h, rad)
	r.dc.Stroke()
}

func (r *Raster) Line(x1, y1, x2, y2, lw float64, c color.Color) {
	r.setColor(c)
	r.dc.SetLineWidth(lw)
	r.dc.DrawLine(x1, y1, x2, y2)
	r.dc.Stroke()
}

func (r *Raster) FillCircle(x, y, rad float64, c color.Color) {
	r.setColor(c)
	r.dc.DrawCircle(x, y, rad)
	r.dc.Fill()
}

func (r *Raster) StrokeCircle(x, y, rad, lw float64, c color.Color) {
	r.setColor(c)
	r.dc.SetLineWidth(lw)
	r.dc.DrawCircle(x, y, rad)
	r.dc.Stroke()
}

func (r *Raster) face(style TextStyle) font.Face {
	size := style.Size
	if size <= 0 {
		size = 14
	}
	key := faceKey{size: size, bold: style.Bold}
	if f, ok := r.faces[key]; ok {
		return f
	}
	ttf := regular
	if style.Bold {
		ttf = bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[key] = f
	return f
}

func (r *Raster) Text(s string, x, y float64, style TextStyle) {
	if s == "" {
		return
	}
	c := style.Color
	if c == nil {
		c = color.White
	}
	r.setColor(c)
	r.dc.SetFontFace(r.face(style))

	ax := 0.0
	switch style.Align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	r.dc.DrawStringAnchored(s, x, y, ax, 0.35)
}

func (r *Raster) MeasureText(s string, style TextStyle) (float64, float64) {
	r.dc.SetFontFace(r.face(style))
	return r.dc.MeasureString(s)
}

// Image draws img scaled into the rectangle (x, y, w, h).
func (r *Raster) Image(img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Empty() || w == 0 || h == 0 {
		return
	}
	if r.alpha < 1 {
		img = fade(img, r.alpha)
	}

	r.dc.Push()
	r.dc.Translate(x, y)
	r.dc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	r.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	r.dc.Pop()
}

func fade(img image.Image, a float64) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	mask := image.NewUniform(color.Alpha{A: uint8(clamp01(a)*255 + 0.5)})
	imagedraw.DrawMask(out, out.Bounds(), img, b.Min, mask, image.Point{}, imagedraw.Over)
	return out
}
