// Package chart renders chart-ready datasets onto a draw.Canvas and drives
// the overlay's enter and exit animation.
package chart

import (
	"math"
	"time"
)

// Phase is the chart overlay animation state.
type Phase int

const (
	PhaseHidden Phase = iota
	PhaseEntering
	PhaseVisible
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseVisible:
		return "visible"
	case PhaseExiting:
		return "exiting"
	default:
		return "hidden"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Animation durations.
const (
	EnterDuration = 800 * time.Millisecond
	ExitDuration  = 600 * time.Millisecond
)

// MinScale is the overlay scale when fully hidden.
const MinScale = 0.3

// Frame is the overlay transform for one rendered frame.
type Frame struct {
	Scale   float64
	Opacity float64
}

// FullFrame is the static visible frame.
var FullFrame = Frame{Scale: 1, Opacity: 1}

// Animator tracks the overlay phase against wall-clock time.
// It is owned by the render loop and not safe for concurrent use.
type Animator struct {
	phase Phase
	start time.Time
	// from is the frame the exit animation starts at.
	from Frame
}

// Phase returns the current phase.
func (a *Animator) Phase() Phase { return a.phase }

// Showing reports whether the overlay is on screen.
func (a *Animator) Showing() bool { return a.phase != PhaseHidden }

// Show starts the entering phase unless the overlay is already entering or visible.
func (a *Animator) Show(now time.Time) {
	if a.phase == PhaseEntering || a.phase == PhaseVisible {
		return
	}
	a.phase = PhaseEntering
	a.start = now
}

// Hide starts the exiting phase unless the overlay is already hidden or exiting.
// An overlay still entering shrinks from where it is.
func (a *Animator) Hide(now time.Time) {
	if a.phase == PhaseHidden || a.phase == PhaseExiting {
		return
	}
	a.from = a.Frame(now)
	a.phase = PhaseExiting
	a.start = now
}

// Update advances time-driven transitions. It reports true on the call that
// completes the exit, when the caller must discard the chart.
func (a *Animator) Update(now time.Time) bool {
	elapsed := now.Sub(a.start)
	switch a.phase {
	case PhaseEntering:
		if elapsed >= EnterDuration {
			a.phase = PhaseVisible
		}
	case PhaseExiting:
		if elapsed >= ExitDuration {
			a.phase = PhaseHidden
			return true
		}
	}
	return false
}

// Frame returns the overlay transform at now.
func (a *Animator) Frame(now time.Time) Frame {
	elapsed := now.Sub(a.start)
	switch a.phase {
	case PhaseEntering:
		return EnterFrame(elapsed)
	case PhaseVisible:
		return FullFrame
	case PhaseExiting:
		return exitFrom(a.from, elapsed)
	default:
		return Frame{Scale: MinScale}
	}
}

// EnterFrame interpolates scale 0.3 to 1 and opacity 0 to 1 with a cubic ease-out.
func EnterFrame(elapsed time.Duration) Frame {
	t := progress(elapsed, EnterDuration)
	eased := 1 - math.Pow(1-t, 3)
	return Frame{Scale: MinScale + (1-MinScale)*eased, Opacity: eased}
}

// ExitFrame interpolates scale 1 to 0.3 and opacity 1 to 0 with a quadratic ease-out.
func ExitFrame(elapsed time.Duration) Frame {
	return exitFrom(FullFrame, elapsed)
}

func exitFrom(from Frame, elapsed time.Duration) Frame {
	t := progress(elapsed, ExitDuration)
	eased := 1 - (1-t)*(1-t)
	return Frame{
		Scale:   from.Scale - (from.Scale-MinScale)*eased,
		Opacity: from.Opacity * (1 - eased),
	}
}

func progress(elapsed, total time.Duration) float64 {
	if total <= 0 || elapsed >= total {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(total)
}
