package gesture

import (
	"math"
	"time"

	"github.com/ayusman/pinchviz/internal/detector"
)

// Swipe thresholds.
const (
	SwipeMinDX   = 0.3
	SwipeMaxDY   = 0.2
	SwipeTimeout = 1000 * time.Millisecond
)

// SwipeState tracks a horizontal swipe of the extended index finger.
// Positions are normalized; X is mirrored, Y is raw.
type SwipeState struct {
	IsTracking bool      `json:"is_tracking"`
	StartX     float64   `json:"start_x"`
	StartY     float64   `json:"start_y"`
	CurrentX   float64   `json:"current_x"`
	CurrentY   float64   `json:"current_y"`
	StartTime  time.Time `json:"start_time"`
}

// IsSwipe reports whether a displacement completed within elapsed qualifies as a swipe.
func IsSwipe(dx, dy float64, elapsed time.Duration) bool {
	return math.Abs(dx) > SwipeMinDX && math.Abs(dy) < SwipeMaxDY && elapsed < SwipeTimeout
}

// Reset stops tracking.
func (s *SwipeState) Reset() {
	*s = SwipeState{}
}

// Update advances swipe tracking with the latest hand and reports whether a
// swipe completed on this tick. A nil hand or a retracted index finger cancels
// tracking; a window older than SwipeTimeout is abandoned and must be restarted.
func (s *SwipeState) Update(h *detector.HandLandmarks, now time.Time) bool {
	if h == nil || !IndexExtended(h) {
		s.Reset()
		return false
	}

	tip := h.Points[detector.IndexTip]
	x, y := 1-tip.X, tip.Y

	if !s.IsTracking {
		*s = SwipeState{
			IsTracking: true,
			StartX:     x,
			StartY:     y,
			CurrentX:   x,
			CurrentY:   y,
			StartTime:  now,
		}
		return false
	}

	s.CurrentX, s.CurrentY = x, y
	elapsed := now.Sub(s.StartTime)

	if IsSwipe(s.CurrentX-s.StartX, s.CurrentY-s.StartY, elapsed) {
		s.Reset()
		return true
	}
	if elapsed > SwipeTimeout {
		s.Reset()
	}
	return false
}
