package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ayusman/pinchviz/internal/dataset"
	"github.com/ayusman/pinchviz/internal/draw"
)

// Theme colors.
var (
	backdrop   = draw.WithAlpha(draw.Hex(0x05070d), 0.85)
	panelFill  = draw.WithAlpha(draw.Hex(0x0d1b2a), 0.95)
	panelEdge  = draw.Hex(0x00e5ff)
	textColor  = draw.Hex(0xe0f7fa)
	mutedColor = draw.Hex(0x80cbc4)
	gridColor  = draw.WithAlpha(draw.Hex(0x00e5ff), 0.15)
	demoColor  = draw.Hex(0xffc400)
	statsFill  = draw.WithAlpha(draw.Hex(0x102a43), 0.95)
)

// Overlay captions.
const (
	NoDataText  = "No data to display"
	DismissHint = "Swipe left or right to close"
)

const (
	statsWidth = 200.0
	titleSize  = 28.0
)

// Render draws ds as a chart overlay scaled and faded by f. It never
// modifies ds. A degenerate canvas draws nothing.
func Render(c draw.Canvas, ds *dataset.Dataset, f Frame) {
	w, h := c.Size()
	if w <= 0 || h <= 0 || f.Opacity <= 0 {
		return
	}

	c.Push()
	defer c.Pop()

	c.SetAlpha(f.Opacity)
	c.FillRect(0, 0, w, h, backdrop)

	c.Translate(w/2, h/2)
	c.Scale(f.Scale, f.Scale)
	c.Translate(-w/2, -h/2)

	mx, my := w*0.05, h*0.05
	px, py, pw, ph := mx, my, w-2*mx, h-2*my
	c.FillRoundRect(px, py, pw, ph, 18, panelFill)
	c.StrokeRoundRect(px, py, pw, ph, 18, 2, panelEdge)

	title := "Chart"
	subtitle := ""
	if ds != nil {
		title, subtitle = ds.Title, ds.Subtitle
	}
	c.Text(title, w/2, py+36, draw.TextStyle{Size: titleSize, Color: textColor, Align: draw.AlignCenter, Bold: true})
	subColor := mutedColor
	if ds != nil && ds.Demo {
		subColor = demoColor
	}
	c.Text(subtitle, w/2, py+68, draw.TextStyle{Size: 16, Color: subColor, Align: draw.AlignCenter})
	c.Text(DismissHint, w/2, py+ph-18, draw.TextStyle{Size: 13, Color: mutedColor, Align: draw.AlignCenter})

	if ds.Empty() {
		c.Text(NoDataText, w/2, h/2, draw.TextStyle{Size: 24, Color: textColor, Align: draw.AlignCenter, Bold: true})
		return
	}

	bars, stats := Bars(ds)
	plot := rect{x: px + 80, y: py + 100, w: pw - 80 - statsWidth - 50, h: ph - 100 - 140}
	if plot.w <= 0 || plot.h <= 0 {
		return
	}

	drawAxes(c, plot, ds, bars)
	drawBars(c, plot, bars)
	drawLayoutNote(c, ds, plot)
	drawStats(c, rect{x: px + pw - statsWidth - 24, y: plot.y, w: statsWidth, h: 170}, stats)
}

type rect struct{ x, y, w, h float64 }

func scaleMax(bars []Bar) float64 {
	m := 0.0
	for _, b := range bars {
		m = math.Max(m, b.Value)
	}
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 1
	}
	return m
}

func drawAxes(c draw.Canvas, p rect, ds *dataset.Dataset, bars []Bar) {
	top := scaleMax(bars)
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		y := p.y + p.h - p.h*float64(i)/ticks
		c.Line(p.x, y, p.x+p.w, y, 1, gridColor)
		c.Text(FormatValue(top*float64(i)/ticks), p.x-8, y, draw.TextStyle{Size: 11, Color: mutedColor, Align: draw.AlignRight})
	}
	c.Line(p.x, p.y, p.x, p.y+p.h, 2, panelEdge)
	c.Line(p.x, p.y+p.h, p.x+p.w, p.y+p.h, 2, panelEdge)

	c.Text(ds.XLabel, p.x+p.w/2, p.y+p.h+125, draw.TextStyle{Size: 14, Color: textColor, Align: draw.AlignCenter, Bold: true})

	c.Push()
	c.Translate(p.x-60, p.y+p.h/2)
	c.Rotate(-math.Pi / 2)
	c.Text(ds.YLabel, 0, 0, draw.TextStyle{Size: 14, Color: textColor, Align: draw.AlignCenter, Bold: true})
	c.Pop()
}

func drawBars(c draw.Canvas, p rect, bars []Bar) {
	if len(bars) == 0 {
		return
	}
	top := scaleMax(bars)
	slot := p.w / float64(len(bars))
	bw := slot * 0.7

	for i, b := range bars {
		v := b.Value
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		bh := p.h * v / top
		x := p.x + slot*float64(i) + (slot-bw)/2
		y := p.y + p.h - bh

		c.FillRect(x, y, bw, bh, b.Color)
		c.FillRect(x, y, bw, math.Min(3, bh), draw.WithAlpha(textColor, 0.6))
		c.Text(FormatValue(b.Value), x+bw/2, y-10, draw.TextStyle{Size: 11, Color: textColor, Align: draw.AlignCenter})

		c.Push()
		c.Translate(x+bw/2, p.y+p.h+12)
		c.Rotate(-math.Pi / 4)
		c.Text(draw.Truncate(b.Label, LabelMax), 0, 0, draw.TextStyle{Size: 11, Color: mutedColor, Align: draw.AlignRight})
		c.Pop()
	}
}

// drawLayoutNote adds the layout-specific caption under the title.
func drawLayoutNote(c draw.Canvas, ds *dataset.Dataset, p rect) {
	style := draw.TextStyle{Size: 12, Color: mutedColor}
	x, y := p.x, p.y-14

	switch ds.Kind {
	case dataset.KindEventsRegistrations:
		c.Text(fmt.Sprintf("%d events ranked by registrations", len(ds.Records)), x, y, style)
	case dataset.KindSchemaJoin:
		if r := ds.Relationship; r != nil {
			c.Text(fmt.Sprintf("%s.%s -> %s (%s)", r.ReferencingTable, r.ForeignKey, r.ReferencedTable, ds.JoinType), x, y, style)
		}
	case dataset.KindRelationship:
		if r := ds.Relationship; r != nil {
			c.Text(fmt.Sprintf("Detected %s.%s -> %s", r.ReferencingTable, r.ForeignKey, r.ReferencedTable), x, y, style)
		}
	default:
		for i, t := range ds.Tables {
			lx := x + float64(i)*130
			c.FillRect(lx, y-6, 12, 12, TableColor(ds, t))
			c.Text(draw.Truncate(t, 14), lx+18, y, style)
		}
	}
}

func drawStats(c draw.Canvas, r rect, s Stats) {
	c.FillRoundRect(r.x, r.y, r.w, r.h, 10, statsFill)
	c.StrokeRoundRect(r.x, r.y, r.w, r.h, 10, 1, panelEdge)
	c.Text("Statistics", r.x+16, r.y+22, draw.TextStyle{Size: 15, Color: textColor, Bold: true})

	rows := []struct {
		label string
		value string
	}{
		{"Records", strconv.Itoa(s.Records)},
		{"Total", FormatValue(s.Total)},
		{"Average", FormatValue(s.Average)},
		{"Max", FormatValue(s.Max)},
	}
	for i, row := range rows {
		y := r.y + 56 + float64(i)*28
		c.Text(row.label, r.x+16, y, draw.TextStyle{Size: 13, Color: mutedColor})
		c.Text(row.value, r.x+r.w-16, y, draw.TextStyle{Size: 13, Color: textColor, Align: draw.AlignRight, Bold: true})
	}
}

// FormatValue prints integers without decimals and other values with one.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
