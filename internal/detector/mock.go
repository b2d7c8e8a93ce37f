package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results, either as a fixed set of
// hands or as a sequence replayed one entry per Detect call.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	calls    int
	err      error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence replays the given frames in order; once exhausted the last
// frame keeps being returned.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
	m.calls = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		i := m.calls - 1
		if i >= len(m.sequence) {
			i = len(m.sequence) - 1
		}
		return m.sequence[i], nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PinchLandmarks returns a hand whose thumb and index tips touch at (x, y)
// in raw (unmirrored) image coordinates.
func PinchLandmarks(x, y float64) HandLandmarks {
	return handAt(x, y, 0.01, 0.01, true)
}

// OpenHandLandmarks returns a hand with the index tip at (x, y) and the thumb
// held well away from it, so no pinch is reported.
func OpenHandLandmarks(x, y float64) HandLandmarks {
	return handAt(x, y, 0.15, 0.1, true)
}

// PointingLandmarks is an alias for an extended index finger used to drive swipes.
func PointingLandmarks(x, y float64) HandLandmarks {
	return OpenHandLandmarks(x, y)
}

// FistLandmarks returns a hand with the index finger curled below its PIP joint.
func FistLandmarks(x, y float64) HandLandmarks {
	return handAt(x, y, 0.15, 0.1, false)
}

// handAt builds a plausible right hand around an index fingertip at (x, y).
// thumbDX/thumbDY offset the thumb tip from the index tip. When extended is
// false the index tip sits below its PIP joint.
func handAt(x, y, thumbDX, thumbDY float64, extended bool) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	wrist := Point3D{X: x, Y: y + 0.3}
	h.Points[Wrist] = wrist

	h.Points[ThumbCMC] = Point3D{X: x + thumbDX*0.3, Y: y + 0.24}
	h.Points[ThumbMCP] = Point3D{X: x + thumbDX*0.6, Y: y + 0.18}
	h.Points[ThumbIP] = Point3D{X: x + thumbDX*0.8, Y: y + thumbDY + 0.06}
	h.Points[ThumbTip] = Point3D{X: x + thumbDX, Y: y + thumbDY}

	h.Points[IndexMCP] = Point3D{X: x, Y: y + 0.16}
	if extended {
		h.Points[IndexPIP] = Point3D{X: x, Y: y + 0.1}
		h.Points[IndexDIP] = Point3D{X: x, Y: y + 0.05}
	} else {
		h.Points[IndexPIP] = Point3D{X: x, Y: y - 0.04}
		h.Points[IndexDIP] = Point3D{X: x, Y: y - 0.02}
	}
	h.Points[IndexTip] = Point3D{X: x, Y: y}

	fingers := [][4]int{
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{RingMCP, RingPIP, RingDIP, RingTip},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	for i, f := range fingers {
		fx := x - 0.03*float64(i+1)
		h.Points[f[0]] = Point3D{X: fx, Y: y + 0.17}
		h.Points[f[1]] = Point3D{X: fx, Y: y + 0.2}
		h.Points[f[2]] = Point3D{X: fx, Y: y + 0.21}
		h.Points[f[3]] = Point3D{X: fx, Y: y + 0.19}
	}

	return h
}
