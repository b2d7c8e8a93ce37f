// Package scene holds the draggable table objects, the drop zone and the
// generate button state that gestures act upon.
package scene

import (
	"math"

	"github.com/google/uuid"
)

// Layout constants in normalized coordinates.
const (
	// MinCoord and MaxCoord bound every table position.
	MinCoord = 0.05
	MaxCoord = 0.95

	// RowY is the vertical position of the initial table row.
	RowY     = 0.15
	rowLeft  = 0.1
	rowRight = 0.9

	// HitRadiusPx is the pick radius around a table center, in pixels.
	HitRadiusPx = 60.0
)

// DefaultTables is used when the data source cannot list its tables.
var DefaultTables = []string{"users", "posts", "categories", "products", "events", "registrations"}

// Table is a draggable icon standing for one relational table.
type Table struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	IsDragging bool    `json:"is_dragging"`
}

// Rect is an axis-aligned rectangle in normalized coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Center returns the rectangle center.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// DropZone is the fixed region that selects tables for charting.
var DropZone = Rect{X: 0.5 - 0.15, Y: 0.7 - 0.1, Width: 0.3, Height: 0.2}

// Viewport is the drawing surface size in pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// HitRadius converts the pixel pick radius into normalized units.
// A degenerate viewport yields zero so nothing can be picked.
func (v Viewport) HitRadius() float64 {
	m := math.Min(v.Width, v.Height)
	if m <= 0 {
		return 0
	}
	return HitRadiusPx / m
}

// Generate button pixel geometry.
const (
	ButtonWidthPx  = 220.0
	ButtonHeightPx = 64.0
	buttonMarginPx = 40.0
)

// ButtonPixels returns the generate button rectangle in pixels.
func (v Viewport) ButtonPixels() (x, y, w, h float64) {
	return (v.Width - ButtonWidthPx) / 2, v.Height - ButtonHeightPx - buttonMarginPx, ButtonWidthPx, ButtonHeightPx
}

// ButtonRect returns the generate button rectangle in normalized coordinates.
func (v Viewport) ButtonRect() Rect {
	if v.Width <= 0 || v.Height <= 0 {
		return Rect{}
	}
	x, y, w, h := v.ButtonPixels()
	return Rect{X: x / v.Width, Y: y / v.Height, Width: w / v.Width, Height: h / v.Height}
}

// Button is the virtual "Generate" button state.
type Button struct {
	Hover   bool `json:"hover"`
	Clicked bool `json:"clicked"`
}

// Scene is the mutable interaction model. It is owned by the render loop and
// mutated only through gesture handling.
type Scene struct {
	Tables  []*Table
	Dropped Dropped
	Button  Button
}

// New lays out one table per name along the top row. An empty list falls back to DefaultTables.
func New(names []string) *Scene {
	if len(names) == 0 {
		names = DefaultTables
	}

	s := &Scene{Tables: make([]*Table, 0, len(names))}
	for i, name := range names {
		x := 0.5
		if len(names) > 1 {
			x = rowLeft + (rowRight-rowLeft)*float64(i)/float64(len(names)-1)
		}
		s.Tables = append(s.Tables, &Table{
			ID:   uuid.NewString(),
			Name: name,
			X:    x,
			Y:    RowY,
		})
	}
	return s
}

// TableAt returns the first table whose center lies within radius of (x, y).
func (s *Scene) TableAt(x, y, radius float64) *Table {
	for _, t := range s.Tables {
		if math.Hypot(t.X-x, t.Y-y) <= radius {
			return t
		}
	}
	return nil
}

// Find returns the table with the given name.
func (s *Scene) Find(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Move translates t by (dx, dy), clamping both axes into [MinCoord, MaxCoord].
func Move(t *Table, dx, dy float64) {
	t.X = Clamp(t.X + dx)
	t.Y = Clamp(t.Y + dy)
}

// Clamp bounds v into [MinCoord, MaxCoord]. NaN collapses to MinCoord.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < MinCoord {
		return MinCoord
	}
	if v > MaxCoord {
		return MaxCoord
	}
	return v
}

// InDropZone reports whether the table currently sits inside the drop zone.
func InDropZone(t *Table) bool {
	return DropZone.Contains(t.X, t.Y)
}

// Dropped is the ordered set of table names inside the drop zone.
type Dropped struct {
	names []string
}

// Add appends name unless it is already present. It reports whether name was added.
func (d *Dropped) Add(name string) bool {
	if d.Contains(name) {
		return false
	}
	d.names = append(d.names, name)
	return true
}

// Contains reports whether name has been dropped.
func (d *Dropped) Contains(name string) bool {
	for _, n := range d.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns a copy of the dropped names in drop order.
func (d *Dropped) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of dropped tables.
func (d *Dropped) Len() int { return len(d.names) }

// Clear empties the set.
func (d *Dropped) Clear() { d.names = d.names[:0] }
