package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/scene"
)

const epsilon = 1e-9

var viewport = scene.Viewport{Width: 1280, Height: 720}

// pinchAt returns a pinching hand whose mirrored pinch center is (mx, my).
func pinchAt(mx, my float64) *detector.HandLandmarks {
	h := detector.PinchLandmarks(1-mx-0.005, my-0.005)
	return &h
}

// openAt returns a non-pinching hand whose mirrored thumb-index midpoint is (mx, my).
func openAt(mx, my float64) *detector.HandLandmarks {
	h := detector.OpenHandLandmarks(1-mx-0.075, my-0.05)
	return &h
}

// pointAt returns a hand with an extended index tip at mirrored (mx, my).
func pointAt(mx, my float64) *detector.HandLandmarks {
	h := detector.PointingLandmarks(1-mx, my)
	return &h
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestIsPinching_Boundary(t *testing.T) {
	tests := []struct {
		d    float64
		want bool
	}{
		{0, true},
		{0.01, true},
		{0.0499999, true},
		{0.05, false},
		{0.0500001, false},
		{0.2, false},
	}

	for _, tt := range tests {
		if got := IsPinching(tt.d); got != tt.want {
			t.Errorf("IsPinching(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestPinchCenter_Mirrored(t *testing.T) {
	var h detector.HandLandmarks
	h.Points[detector.ThumbTip] = detector.Point3D{X: 0.2, Y: 0.4}
	h.Points[detector.IndexTip] = detector.Point3D{X: 0.4, Y: 0.6}

	x, y := PinchCenter(&h)
	if math.Abs(x-0.7) > epsilon || math.Abs(y-0.5) > epsilon {
		t.Errorf("PinchCenter = (%f, %f), want (0.7, 0.5)", x, y)
	}
	if d := PinchDistance(&h); math.Abs(d-math.Hypot(0.2, 0.2)) > epsilon {
		t.Errorf("PinchDistance = %f", d)
	}
}

func TestInterpreter_DragAndDrop(t *testing.T) {
	sc := scene.New([]string{"events", "registrations"})
	events := sc.Find("events")
	in := NewInterpreter()

	got := in.Interact(sc, pinchAt(events.X, events.Y), viewport)
	if len(got) != 1 || got[0].Type != EventPinchStart || got[0].Table != "events" {
		t.Fatalf("pinch start events = %+v", got)
	}
	if !events.IsDragging || in.Dragged() != events {
		t.Fatal("table under the pinch should become the dragged table")
	}

	// Drag toward the drop zone in a few steps.
	x, y := events.X, events.Y
	for i := 0; i < 10; i++ {
		x += (0.5 - x) / 2
		y += (0.7 - y) / 2
		got = in.Interact(sc, pinchAt(x, y), viewport)
		if len(got) != 1 || got[0].Type != EventPinchMove {
			t.Fatalf("move %d events = %+v", i, got)
		}
	}
	if !scene.InDropZone(events) {
		t.Fatalf("table at (%f, %f) should be in the drop zone", events.X, events.Y)
	}

	got = in.Interact(sc, openAt(x, y), viewport)
	if want := []EventType{EventPinchEnd, EventDropped}; !equalTypes(types(got), want) {
		t.Fatalf("release events = %v, want %v", types(got), want)
	}
	if events.IsDragging || in.Dragged() != nil {
		t.Error("release should clear the drag")
	}
	if names := sc.Dropped.Names(); len(names) != 1 || names[0] != "events" {
		t.Errorf("Dropped = %v, want [events]", names)
	}
}

func TestInterpreter_RepeatedDropNoDuplicate(t *testing.T) {
	sc := scene.New([]string{"events"})
	tbl := sc.Tables[0]
	tbl.X, tbl.Y = 0.5, 0.7
	in := NewInterpreter()

	for i := 0; i < 4; i++ {
		in.Interact(sc, pinchAt(0.5, 0.7), viewport)
		got := in.Interact(sc, openAt(0.5, 0.7), viewport)
		if i > 0 && hasEvent(got, EventDropped) {
			t.Errorf("drop %d should not emit EventDropped again", i)
		}
	}

	if sc.Dropped.Len() != 1 {
		t.Errorf("Dropped.Len() = %d, want 1", sc.Dropped.Len())
	}
}

func TestInterpreter_DragClamped(t *testing.T) {
	sc := scene.New([]string{"users"})
	tbl := sc.Tables[0]
	in := NewInterpreter()

	in.Interact(sc, pinchAt(tbl.X, tbl.Y), viewport)
	// A single huge jump cannot carry the table off screen.
	in.Interact(sc, pinchAt(0.999, 0.999), viewport)
	in.Interact(sc, pinchAt(0.999, 0.999), viewport)

	if tbl.X > scene.MaxCoord || tbl.Y > scene.MaxCoord {
		t.Errorf("table escaped to (%f, %f)", tbl.X, tbl.Y)
	}

	in.Interact(sc, pinchAt(0.001, 0.001), viewport)
	if tbl.X < scene.MinCoord || tbl.Y < scene.MinCoord {
		t.Errorf("table escaped to (%f, %f)", tbl.X, tbl.Y)
	}
}

func TestInterpreter_HandsLostReleasesDrag(t *testing.T) {
	sc := scene.New([]string{"events"})
	tbl := sc.Tables[0]
	in := NewInterpreter()

	in.Interact(sc, pinchAt(tbl.X, tbl.Y), viewport)
	tbl.X, tbl.Y = 0.5, 0.7 // pretend it was dragged into the zone

	got := in.Interact(sc, nil, viewport)
	if want := []EventType{EventPinchEnd, EventDropped}; !equalTypes(types(got), want) {
		t.Fatalf("hands-lost events = %v, want %v", types(got), want)
	}
	if tbl.IsDragging || in.PinchState().IsPinching {
		t.Error("hands lost should end the pinch and drag")
	}

	// Further empty ticks are quiet.
	if got := in.Interact(sc, nil, viewport); len(got) != 0 {
		t.Errorf("idle empty tick events = %+v", got)
	}
}

func TestInterpreter_PinchOnEmptySpace(t *testing.T) {
	sc := scene.New([]string{"events"})
	in := NewInterpreter()

	got := in.Interact(sc, pinchAt(0.5, 0.45), viewport)
	if len(got) != 1 || got[0].Table != "" {
		t.Fatalf("pinch on empty space events = %+v", got)
	}
	if got := in.Interact(sc, pinchAt(0.6, 0.45), viewport); len(got) != 0 {
		t.Errorf("move without drag should emit nothing, got %+v", got)
	}
	got = in.Interact(sc, openAt(0.6, 0.45), viewport)
	if want := []EventType{EventPinchEnd}; !equalTypes(types(got), want) {
		t.Errorf("release events = %v, want %v", types(got), want)
	}
}

func TestInterpreter_GenerateButtonLatch(t *testing.T) {
	sc := scene.New([]string{"events"})
	in := NewInterpreter()
	bx, by := viewport.ButtonRect().Center()

	// Hovering without a pinch only lights the button.
	if got := in.Interact(sc, openAt(bx, by), viewport); len(got) != 0 {
		t.Fatalf("hover events = %+v", got)
	}
	if !sc.Button.Hover {
		t.Error("button should be hovered")
	}

	got := in.Interact(sc, pinchAt(bx, by), viewport)
	if want := []EventType{EventPinchStart, EventGenerate}; !equalTypes(types(got), want) {
		t.Fatalf("pinch on button events = %v, want %v", types(got), want)
	}
	if !sc.Button.Clicked {
		t.Error("button should be latched after click")
	}

	// Holding the pinch must not fire again.
	for i := 0; i < 5; i++ {
		if got := in.Interact(sc, pinchAt(bx, by), viewport); hasEvent(got, EventGenerate) {
			t.Fatalf("held pinch fired generate again on tick %d", i)
		}
	}

	in.Interact(sc, openAt(bx, by), viewport)
	if sc.Button.Clicked {
		t.Error("release should reset the click latch")
	}

	if got := in.Interact(sc, pinchAt(bx, by), viewport); !hasEvent(got, EventGenerate) {
		t.Error("a new pinch after release should fire generate again")
	}
}

func TestIsSwipe(t *testing.T) {
	tests := []struct {
		name    string
		dx, dy  float64
		elapsed time.Duration
		want    bool
	}{
		{"right swipe", 0.35, 0.05, 300 * time.Millisecond, true},
		{"left swipe", -0.4, -0.1, 900 * time.Millisecond, true},
		{"dx at threshold", 0.3, 0.0, 100 * time.Millisecond, false},
		{"dy at threshold", 0.5, 0.2, 100 * time.Millisecond, false},
		{"too slow", 0.5, 0.0, 1000 * time.Millisecond, false},
		{"too short", 0.1, 0.0, 100 * time.Millisecond, false},
		{"too vertical", 0.5, -0.3, 100 * time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSwipe(tt.dx, tt.dy, tt.elapsed); got != tt.want {
				t.Errorf("IsSwipe(%v, %v, %v) = %v, want %v", tt.dx, tt.dy, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestInterpreter_SwipeDismiss(t *testing.T) {
	in := NewInterpreter()
	start := time.Unix(1000, 0)

	if got := in.DetectSwipe(pointAt(0.2, 0.5), start); len(got) != 0 {
		t.Fatalf("first extended frame should only start tracking, got %+v", got)
	}
	if !in.SwipeState().IsTracking {
		t.Fatal("tracking should have started")
	}

	got := in.DetectSwipe(pointAt(0.6, 0.55), start.Add(400*time.Millisecond))
	if len(got) != 1 || got[0].Type != EventDismiss {
		t.Fatalf("swipe events = %+v, want dismiss", got)
	}
	if in.SwipeState().IsTracking {
		t.Error("tracking should reset after a completed swipe")
	}
}

func TestInterpreter_SwipeTimeout(t *testing.T) {
	in := NewInterpreter()
	start := time.Unix(1000, 0)

	in.DetectSwipe(pointAt(0.2, 0.5), start)
	in.DetectSwipe(pointAt(0.25, 0.5), start.Add(1100*time.Millisecond))
	if in.SwipeState().IsTracking {
		t.Fatal("tracking should reset after the timeout")
	}

	// The next frame restarts tracking from the current position.
	in.DetectSwipe(pointAt(0.3, 0.5), start.Add(1200*time.Millisecond))
	st := in.SwipeState()
	if !st.IsTracking || math.Abs(st.StartX-0.3) > epsilon {
		t.Errorf("expected tracking restarted at 0.3, got %+v", st)
	}
	if got := in.DetectSwipe(pointAt(0.7, 0.5), start.Add(1500*time.Millisecond)); len(got) != 1 {
		t.Errorf("fresh window should allow a swipe, got %+v", got)
	}
}

func TestInterpreter_SwipeCancelledByRetraction(t *testing.T) {
	in := NewInterpreter()
	start := time.Unix(1000, 0)

	in.DetectSwipe(pointAt(0.2, 0.5), start)
	fist := detector.FistLandmarks(1-0.6, 0.5)
	if got := in.DetectSwipe(&fist, start.Add(100*time.Millisecond)); len(got) != 0 {
		t.Fatalf("retracted finger should not swipe, got %+v", got)
	}
	if in.SwipeState().IsTracking {
		t.Error("retraction should cancel tracking")
	}

	in.DetectSwipe(pointAt(0.2, 0.5), start.Add(200*time.Millisecond))
	in.DetectSwipe(nil, start.Add(250*time.Millisecond))
	if in.SwipeState().IsTracking {
		t.Error("losing the hand should cancel tracking")
	}
}

func TestInterpreter_SwipeVerticalDrift(t *testing.T) {
	in := NewInterpreter()
	start := time.Unix(1000, 0)

	in.DetectSwipe(pointAt(0.2, 0.3), start)
	if got := in.DetectSwipe(pointAt(0.7, 0.6), start.Add(200*time.Millisecond)); len(got) != 0 {
		t.Errorf("diagonal motion should not dismiss, got %+v", got)
	}
}

func TestEventType_String(t *testing.T) {
	if EventGenerate.String() != "generate" || EventType(99).String() != "unknown" {
		t.Error("unexpected EventType names")
	}
}

func equalTypes(a, b []EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
