package app

import (
	"image"
	"math"
	"strings"
	"time"

	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/draw"
	"github.com/ayusman/pinchviz/internal/gesture"
	"github.com/ayusman/pinchviz/internal/scene"
)

// Scene colors.
var (
	backgroundColor = draw.Hex(0x05070d)
	accent          = draw.Hex(0x00e5ff)
	accentHot       = draw.Hex(0xff4081)
	tableFill       = draw.WithAlpha(draw.Hex(0x0d1b2a), 0.85)
	droppedFill     = draw.WithAlpha(draw.Hex(0x1b5e20), 0.85)
	labelColor      = draw.Hex(0xe0f7fa)
	errorColor      = draw.Hex(0xff5252)
	scanlineColor   = draw.WithAlpha(draw.Hex(0x000000), 0.18)
	boneColor       = draw.WithAlpha(draw.Hex(0x00e5ff), 0.8)
	jointColor      = draw.Hex(0xffffff)
)

// Caption text drawn by the scene layers.
const (
	GenerateText    = "Generate"
	LoadingText     = "Loading..."
	DropZoneText    = "Drop tables here"
	UnavailableText = "Hand tracking unavailable"
	StartingText    = "Starting hand tracking..."
)

const (
	tableRadius = 38.0
	scanlineGap = 4.0
	toastWidth  = 420.0
	toastHeight = 44.0
)

// drawVideo paints img mirrored so it covers the whole canvas, cropping the
// overflowing axis.
func drawVideo(c draw.Canvas, img image.Image) {
	w, h := c.Size()
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	s := math.Max(w/float64(b.Dx()), h/float64(b.Dy()))
	dw, dh := float64(b.Dx())*s, float64(b.Dy())*s

	c.Push()
	c.Translate(w, 0)
	c.Scale(-1, 1)
	c.Image(img, (w-dw)/2, (h-dh)/2, dw, dh)
	c.Pop()
}

func drawScanlines(c draw.Canvas) {
	w, h := c.Size()
	for y := 0.0; y < h; y += scanlineGap {
		c.Line(0, y, w, y, 1, scanlineColor)
	}
}

func drawDropZone(c draw.Canvas, sc *scene.Scene) {
	w, h := c.Size()
	z := scene.DropZone
	x, y, zw, zh := z.X*w, z.Y*h, z.Width*w, z.Height*h

	edge := accent
	for _, t := range sc.Tables {
		if t.IsDragging && scene.InDropZone(t) {
			edge = accentHot
		}
	}
	c.FillRoundRect(x, y, zw, zh, 16, draw.WithAlpha(edge, 0.08))
	c.StrokeRoundRect(x, y, zw, zh, 16, 2, edge)

	label := DropZoneText
	if n := sc.Dropped.Len(); n > 0 {
		label = draw.Truncate(strings.Join(sc.Dropped.Names(), " + "), 40)
	}
	c.Text(label, x+zw/2, y+zh/2, draw.TextStyle{Size: 18, Color: labelColor, Align: draw.AlignCenter})
}

func drawTables(c draw.Canvas, sc *scene.Scene) {
	w, h := c.Size()
	for _, t := range sc.Tables {
		x, y := t.X*w, t.Y*h
		fill := tableFill
		if sc.Dropped.Contains(t.Name) {
			fill = droppedFill
		}
		r := tableRadius
		edge := accent
		if t.IsDragging {
			r *= 1.15
			edge = accentHot
			c.FillCircle(x, y, r+10, draw.WithAlpha(accentHot, 0.2))
		}
		c.FillCircle(x, y, r, fill)
		c.StrokeCircle(x, y, r, 2, edge)
		c.Text(draw.Truncate(t.Name, 12), x, y, draw.TextStyle{Size: 14, Color: labelColor, Align: draw.AlignCenter, Bold: true})
	}
}

func drawButton(c draw.Canvas, vp scene.Viewport, b scene.Button, loading bool) {
	x, y, bw, bh := vp.ButtonPixels()
	edge := accent
	if b.Hover {
		edge = accentHot
		c.FillRoundRect(x-6, y-6, bw+12, bh+12, 18, draw.WithAlpha(accentHot, 0.25))
	}
	c.FillRoundRect(x, y, bw, bh, 12, tableFill)
	c.StrokeRoundRect(x, y, bw, bh, 12, 2, edge)

	label := GenerateText
	if loading {
		label = LoadingText
	}
	c.Text(label, x+bw/2, y+bh/2, draw.TextStyle{Size: 22, Color: labelColor, Align: draw.AlignCenter, Bold: true})
}

// drawToasts stacks toasts from the bottom, newest last, fading each out
// over its final half second.
func drawToasts(c draw.Canvas, toasts []Toast, now time.Time) {
	w, h := c.Size()
	y := h - 40 - toastHeight
	for i := len(toasts) - 1; i >= 0; i-- {
		t := toasts[i]
		left := ToastDuration - now.Sub(t.CreatedAt)
		alpha := 1.0
		if left < 500*time.Millisecond {
			alpha = math.Max(0, float64(left)/float64(500*time.Millisecond))
		}
		edge := accent
		if t.Level == ToastError {
			edge = errorColor
		}

		c.Push()
		c.SetAlpha(alpha)
		x := (w - toastWidth) / 2
		c.FillRoundRect(x, y, toastWidth, toastHeight, 10, tableFill)
		c.StrokeRoundRect(x, y, toastWidth, toastHeight, 10, 2, edge)
		c.Text(draw.Truncate(t.Text, 44), w/2, y+toastHeight/2, draw.TextStyle{Size: 16, Color: labelColor, Align: draw.AlignCenter})
		c.Pop()

		y -= toastHeight + 8
	}
}

// drawSkeleton draws every detected hand mirrored to match the video.
func drawSkeleton(c draw.Canvas, hands []detector.HandLandmarks) {
	w, h := c.Size()
	for _, hand := range hands {
		for _, conn := range detector.Connections {
			a, b := hand.Points[conn[0]], hand.Points[conn[1]]
			c.Line((1-a.X)*w, a.Y*h, (1-b.X)*w, b.Y*h, 2, boneColor)
		}
		for _, p := range hand.Points {
			c.FillCircle((1-p.X)*w, p.Y*h, 3, jointColor)
		}
	}
}

func drawPinch(c draw.Canvas, in *gesture.Interpreter) {
	p := in.PinchState()
	if !p.IsPinching {
		return
	}
	w, h := c.Size()
	c.FillCircle(p.X*w, p.Y*h, 10, draw.WithAlpha(accentHot, 0.6))
	c.StrokeCircle(p.X*w, p.Y*h, 16, 2, accentHot)
}

// drawLoading dims the scene and spins an arc of dots.
func drawLoading(c draw.Canvas, now time.Time) {
	w, h := c.Size()
	c.FillRect(0, 0, w, h, draw.WithAlpha(backgroundColor, 0.5))

	const dots = 8
	phase := float64(now.UnixMilli()%1000) / 1000
	for i := 0; i < dots; i++ {
		a := 2*math.Pi*float64(i)/dots + 2*math.Pi*phase
		alpha := 0.25 + 0.75*float64(i)/dots
		c.FillCircle(w/2+math.Cos(a)*28, h/2+math.Sin(a)*28, 5, draw.WithAlpha(accent, alpha))
	}
	c.Text(LoadingText, w/2, h/2+56, draw.TextStyle{Size: 18, Color: labelColor, Align: draw.AlignCenter})
}

func drawTrackingStatus(c draw.Canvas, t Tracking) {
	w, _ := c.Size()
	text, col := StartingText, accent
	if t == TrackingUnavailable {
		text, col = UnavailableText, errorColor
	}
	c.FillRoundRect(w/2-170, 12, 340, 36, 8, tableFill)
	c.Text(text, w/2, 30, draw.TextStyle{Size: 16, Color: col, Align: draw.AlignCenter})
}
