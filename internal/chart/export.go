package chart

import (
	"errors"
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ayusman/pinchviz/internal/dataset"
	"github.com/ayusman/pinchviz/internal/draw"
)

// ErrNoBars is returned when a dataset has nothing to export.
var ErrNoBars = errors.New("dataset has no bars to export")

// ExportPNG writes a static bar chart of ds as PNG. Bars are the same
// sorted, capped set the overlay draws.
func ExportPNG(w io.Writer, ds *dataset.Dataset, width, height int) error {
	bars, _ := Bars(ds)
	if len(bars) == 0 {
		return ErrNoBars
	}

	values := make([]gochart.Value, len(bars))
	nonZero := false
	for i, b := range bars {
		if b.Value != 0 {
			nonZero = true
		}
		col := drawing.Color{R: b.Color.R, G: b.Color.G, B: b.Color.B, A: 255}
		values[i] = gochart.Value{
			Label: draw.Truncate(b.Label, LabelMax),
			Value: b.Value,
			Style: gochart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
	}
	if !nonZero {
		return ErrNoBars
	}

	slot := (width - 120) / len(values)
	if slot < 6 {
		slot = 6
	}
	barWidth := slot * 2 / 3

	bc := gochart.BarChart{
		Title:      ds.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: slot - barWidth,
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 24}},
		XAxis:      gochart.Style{TextRotationDegrees: 45},
		YAxis:      gochart.YAxis{Name: ds.YLabel},
		Bars:       values,
	}

	if err := bc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}
