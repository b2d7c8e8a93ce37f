package draw

import (
	"image"
	"image/color"
	"math"
)

// Matrix is a 2D affine transform [a b c d e f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

func (m Matrix) mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ScaleX returns the horizontal scale factor.
func (m Matrix) ScaleX() float64 {
	return math.Hypot(m[0], m[1])
}

// Command is one recorded drawing call.
type Command struct {
	Op     string
	Args   []float64
	Text   string
	Color  color.NRGBA
	Style  TextStyle
	Alpha  float64
	Matrix Matrix
}

type recorderState struct {
	m     Matrix
	alpha float64
}

// Recorder is a Canvas that records draw calls instead of painting.
type Recorder struct {
	W, H     float64
	Commands []Command

	state recorderState
	stack []recorderState
}

// NewRecorder returns a recorder of the given size.
func NewRecorder(w, h float64) *Recorder {
	return &Recorder{W: w, H: h, state: recorderState{m: Identity, alpha: 1}}
}

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) Push() { r.stack = append(r.stack, r.state) }

func (r *Recorder) Pop() {
	if len(r.stack) == 0 {
		return
	}
	r.state = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

// Depth returns the number of unmatched Push calls.
func (r *Recorder) Depth() int { return len(r.stack) }

func (r *Recorder) Translate(x, y float64) {
	r.state.m = r.state.m.mul(Matrix{1, 0, 0, 1, x, y})
}

func (r *Recorder) Scale(sx, sy float64) {
	r.state.m = r.state.m.mul(Matrix{sx, 0, 0, sy, 0, 0})
}

func (r *Recorder) Rotate(a float64) {
	s, c := math.Sin(a), math.Cos(a)
	r.state.m = r.state.m.mul(Matrix{c, s, -s, c, 0, 0})
}

func (r *Recorder) SetAlpha(a float64) { r.state.alpha *= clamp01(a) }

func (r *Recorder) record(op string, c color.Color, args ...float64) {
	cmd := Command{Op: op, Args: args, Alpha: r.state.alpha, Matrix: r.state.m}
	if c != nil {
		cmd.Color = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	r.Commands = append(r.Commands, cmd)
}

func (r *Recorder) Clear(c color.Color) { r.record("clear", c) }

func (r *Recorder) FillRect(x, y, w, h float64, c color.Color) {
	r.record("fill_rect", c, x, y, w, h)
}

func (r *Recorder) StrokeRect(x, y, w, h, lw float64, c color.Color) {
	r.record("stroke_rect", c, x, y, w, h, lw)
}

func (r *Recorder) FillRoundRect(x, y, w, h, rad float64, c color.Color) {
	r.record("fill_round_rect", c, x, y, w, h, rad)
}

func (r *Recorder) StrokeRoundRect(x, y, w, h, rad, lw float64, c color.Color) {
	r.record("stroke_round_rect", c, x, y, w, h, rad, lw)
}

func (r *Recorder) Line(x1, y1, x2, y2, lw float64, c color.Color) {
	r.record("line", c, x1, y1, x2, y2, lw)
}

func (r *Recorder) FillCircle(x, y, rad float64, c color.Color) {
	r.record("fill_circle", c, x, y, rad)
}

func (r *Recorder) StrokeCircle(x, y, rad, lw float64, c color.Color) {
	r.record("stroke_circle", c, x, y, rad, lw)
}

func (r *Recorder) Text(s string, x, y float64, style TextStyle) {
	r.record("text", style.Color, x, y)
	cmd := &r.Commands[len(r.Commands)-1]
	cmd.Text = s
	cmd.Style = style
}

func (r *Recorder) Image(img image.Image, x, y, w, h float64) {
	r.record("image", nil, x, y, w, h)
}

// MeasureText approximates a proportional font at 0.6em per rune.
func (r *Recorder) MeasureText(s string, style TextStyle) (float64, float64) {
	return float64(len([]rune(s))) * style.Size * 0.6, style.Size
}

// Ops returns the commands with the given op.
func (r *Recorder) Ops(op string) []Command {
	var out []Command
	for _, c := range r.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Texts returns every recorded text run in draw order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, c := range r.Commands {
		if c.Op == "text" {
			out = append(out, c.Text)
		}
	}
	return out
}

// HasText reports whether s was drawn.
func (r *Recorder) HasText(s string) bool {
	for _, t := range r.Texts() {
		if t == s {
			return true
		}
	}
	return false
}

// Reset drops recorded commands and restores the initial state.
func (r *Recorder) Reset() {
	r.Commands = r.Commands[:0]
	r.state = recorderState{m: Identity, alpha: 1}
	r.stack = r.stack[:0]
}
