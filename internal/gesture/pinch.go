// Package gesture turns hand landmark frames into pinch-drag, pinch-click and
// swipe interactions on the scene.
package gesture

import (
	"math"

	"github.com/ayusman/pinchviz/internal/detector"
)

// PinchThreshold is the thumb-tip to index-tip distance, in normalized units,
// below which a hand is pinching.
const PinchThreshold = 0.05

// PinchState is the pinch status carried from one tick to the next.
// X and Y are the mirrored pinch center of the last pinching tick.
type PinchState struct {
	IsPinching bool    `json:"is_pinching"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// PinchDistance is the Euclidean distance between the thumb and index tips.
func PinchDistance(h *detector.HandLandmarks) float64 {
	thumb := h.Points[detector.ThumbTip]
	index := h.Points[detector.IndexTip]
	return math.Hypot(thumb.X-index.X, thumb.Y-index.Y)
}

// IsPinching reports whether d is strictly below the pinch threshold.
func IsPinching(d float64) bool {
	return d < PinchThreshold
}

// PinchCenter returns the midpoint of the thumb and index tips with x mirrored
// to match the mirrored video presentation.
func PinchCenter(h *detector.HandLandmarks) (x, y float64) {
	thumb := h.Points[detector.ThumbTip]
	index := h.Points[detector.IndexTip]
	return 1 - (thumb.X+index.X)/2, (thumb.Y + index.Y) / 2
}

// IndexExtended reports whether the index tip is above its PIP joint.
// Image y grows downward, so "above" means a smaller y.
func IndexExtended(h *detector.HandLandmarks) bool {
	return h.Points[detector.IndexTip].Y < h.Points[detector.IndexPIP].Y
}
