package app

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/pinchviz/internal/chart"
	"github.com/ayusman/pinchviz/internal/dataset"
	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/draw"
	"github.com/ayusman/pinchviz/internal/scene"
	"github.com/ayusman/pinchviz/internal/source"
)

const (
	testWidth  = 1280
	testHeight = 720
	tick       = 40 * time.Millisecond
)

// fakeHands serves a fixed detection to the render loop.
type fakeHands struct {
	frame detector.Frame
}

func (f *fakeHands) Latest() detector.Frame { return f.frame }

func (f *fakeHands) set(hands ...*detector.HandLandmarks) {
	f.frame = detector.Frame{}
	for _, h := range hands {
		f.frame.Hands = append(f.frame.Hands, *h)
	}
}

type panickyHands struct{}

func (panickyHands) Latest() detector.Frame { panic("detector exploded") }

// stubGenerator records calls and optionally blocks until released.
type stubGenerator struct {
	mu      sync.Mutex
	calls   [][]string
	ds      *dataset.Dataset
	release chan struct{}
	ctxErr  error
}

func (g *stubGenerator) Generate(ctx context.Context, names []string) *dataset.Dataset {
	g.mu.Lock()
	g.calls = append(g.calls, names)
	release := g.release
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			g.mu.Lock()
			g.ctxErr = ctx.Err()
			g.mu.Unlock()
		}
	}
	return g.ds
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func usersDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Kind:   dataset.KindGeneric,
		Tables: []string{"users"},
		Records: []source.Record{
			{"id": int64(1), "name": "Ada", dataset.TableField: "users"},
			{"id": int64(2), "name": "Linus", dataset.TableField: "users"},
		},
		XField: "name",
		Title:  "Users",
	}
}

// pinchAt returns a pinching hand whose mirrored pinch center is (mx, my).
func pinchAt(mx, my float64) *detector.HandLandmarks {
	h := detector.PinchLandmarks(1-mx-0.005, my-0.005)
	return &h
}

// openAt returns an open hand whose mirrored thumb-index midpoint is (mx, my).
func openAt(mx, my float64) *detector.HandLandmarks {
	h := detector.OpenHandLandmarks(1-mx-0.075, my-0.05)
	return &h
}

func pointAt(mx, my float64) *detector.HandLandmarks {
	h := detector.PointingLandmarks(1-mx, my)
	return &h
}

type harness struct {
	t     *testing.T
	d     *Director
	rec   *draw.Recorder
	hands *fakeHands
	gen   *stubGenerator
	now   time.Time

	mu     sync.Mutex
	events []Event
}

func newHarness(t *testing.T, gen *stubGenerator) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		rec:   draw.NewRecorder(testWidth, testHeight),
		hands: &fakeHands{},
		gen:   gen,
		now:   time.Unix(1_700_000_000, 0),
	}
	d, err := NewDirector(DirectorConfig{
		Width:     testWidth,
		Height:    testHeight,
		Tables:    []string{"users", "posts", "events"},
		Canvas:    h.rec,
		Notifiers: []Notifier{NotifierFunc(h.record)},
	}, h.hands, gen)
	if err != nil {
		t.Fatalf("NewDirector() error = %v", err)
	}
	h.d = d
	return h
}

func (h *harness) record(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *harness) step(hands ...*detector.HandLandmarks) {
	h.t.Helper()
	h.hands.set(hands...)
	h.now = h.now.Add(tick)
	if !h.d.Step(h.now) {
		h.t.Fatalf("frame at %v was not drawn", h.now)
	}
}

// advance steps with no hands until d elapses.
func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	for end := h.now.Add(d); h.now.Before(end); {
		h.step()
	}
}

func (h *harness) table(name string) scene.Table {
	h.t.Helper()
	for _, t := range h.d.Snapshot().Tables {
		if t.Name == name {
			return t
		}
	}
	h.t.Fatalf("table %q not in scene", name)
	return scene.Table{}
}

func (h *harness) drop(name string) {
	h.t.Helper()
	t := h.table(name)
	zx, zy := scene.DropZone.Center()
	h.step(pinchAt(t.X, t.Y))
	h.step(pinchAt(zx, zy))
	h.step(openAt(zx, zy))
}

func (h *harness) clickGenerate() {
	h.t.Helper()
	bx, by := h.d.Viewport().ButtonRect().Center()
	h.step(pinchAt(bx, by))
	h.step(openAt(0.5, 0.4))
}

// waitForChart steps until a dataset arrives.
func (h *harness) waitForChart() {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.d.Dataset() == nil {
		if time.Now().After(deadline) {
			h.t.Fatal("timed out waiting for the dataset")
		}
		time.Sleep(time.Millisecond)
		h.step()
	}
}

func (h *harness) toasts(level ToastLevel) []Toast {
	var out []Toast
	for _, t := range h.d.Toasts() {
		if t.Level == level {
			out = append(out, t)
		}
	}
	return out
}

func TestDirector_GenerateWithEmptyDropZone(t *testing.T) {
	gen := &stubGenerator{ds: usersDataset()}
	h := newHarness(t, gen)

	h.clickGenerate()

	if n := gen.callCount(); n != 0 {
		t.Errorf("generator called %d times, want 0", n)
	}
	if len(h.toasts(ToastError)) != 1 {
		t.Errorf("expected one error toast, got %+v", h.d.Toasts())
	}
	if h.d.Snapshot().Loading {
		t.Error("empty generate must not enter the loading state")
	}
}

func TestDirector_DropAddsTable(t *testing.T) {
	h := newHarness(t, &stubGenerator{})

	h.drop("users")

	st := h.d.Snapshot()
	if len(st.Dropped) != 1 || st.Dropped[0] != "users" {
		t.Fatalf("Dropped = %v, want [users]", st.Dropped)
	}
	if len(h.toasts(ToastInfo)) == 0 {
		t.Error("a drop should raise an info toast")
	}

	// Dropping the same table again does not duplicate it.
	h.drop("users")
	if got := h.d.Snapshot().Dropped; len(got) != 1 {
		t.Errorf("Dropped = %v after repeated drop", got)
	}
}

func TestDirector_GenerateShowsChart(t *testing.T) {
	gen := &stubGenerator{ds: usersDataset()}
	h := newHarness(t, gen)

	h.drop("users")
	h.clickGenerate()
	h.waitForChart()

	if n := gen.callCount(); n != 1 {
		t.Fatalf("generator called %d times, want 1", n)
	}
	if got := gen.calls[0]; len(got) != 1 || got[0] != "users" {
		t.Errorf("generator names = %v", got)
	}

	st := h.d.Snapshot()
	if st.Loading {
		t.Error("loading should end when the dataset arrives")
	}
	if st.Phase != chart.PhaseEntering {
		t.Errorf("phase = %v, want entering", st.Phase)
	}

	h.advance(chart.EnterDuration)
	if got := h.d.Snapshot().Phase; got != chart.PhaseVisible {
		t.Errorf("phase after enter = %v, want visible", got)
	}

	h.rec.Reset()
	h.step()
	if !h.rec.HasText("Users") {
		t.Errorf("chart title not drawn; texts = %v", h.rec.Texts())
	}
	if h.rec.HasText(GenerateText) || h.rec.HasText(DropZoneText) {
		t.Error("scene layer must not be drawn while the chart is open")
	}
}

func TestDirector_LoadingState(t *testing.T) {
	gen := &stubGenerator{ds: usersDataset(), release: make(chan struct{})}
	h := newHarness(t, gen)

	h.drop("users")
	h.clickGenerate()

	if !h.d.Snapshot().Loading {
		t.Fatal("expected loading while the fetch is outstanding")
	}
	h.rec.Reset()
	h.step()
	if !h.rec.HasText(LoadingText) {
		t.Error("loading overlay not drawn")
	}

	// A second click while loading does not start another fetch.
	h.clickGenerate()
	close(gen.release)
	h.waitForChart()
	if n := gen.callCount(); n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
}

func TestDirector_StaleResultDiscarded(t *testing.T) {
	h := newHarness(t, &stubGenerator{})

	h.d.results <- fetchResult{cycle: 7, ds: usersDataset()}
	h.step()

	if h.d.Dataset() != nil {
		t.Error("a result for an unknown cycle must be discarded")
	}
	if h.d.Snapshot().Phase != chart.PhaseHidden {
		t.Error("chart should stay hidden")
	}
}

func TestDirector_CancelPendingFetch(t *testing.T) {
	gen := &stubGenerator{ds: usersDataset(), release: make(chan struct{})}
	h := newHarness(t, gen)

	h.drop("users")
	h.clickGenerate()
	h.d.cancelPending()

	deadline := time.Now().Add(2 * time.Second)
	for {
		gen.mu.Lock()
		err := gen.ctxErr
		gen.mu.Unlock()
		if err != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("fetch context was not cancelled")
		}
		time.Sleep(time.Millisecond)
	}

	h.step()
	if h.d.Dataset() != nil {
		t.Error("cancelled fetch must not show a chart")
	}
}

func TestDirector_SwipeDismissClearsSession(t *testing.T) {
	h := newHarness(t, &stubGenerator{ds: usersDataset()})

	h.drop("users")
	h.clickGenerate()
	h.waitForChart()
	h.advance(chart.EnterDuration)

	h.step(pointAt(0.2, 0.5))
	h.hands.set(pointAt(0.6, 0.55))
	h.now = h.now.Add(400 * time.Millisecond)
	h.d.Step(h.now)

	if got := h.d.Snapshot().Phase; got != chart.PhaseExiting {
		t.Fatalf("phase after swipe = %v, want exiting", got)
	}

	h.advance(chart.ExitDuration + tick)

	st := h.d.Snapshot()
	if st.Phase != chart.PhaseHidden {
		t.Errorf("phase = %v, want hidden", st.Phase)
	}
	if h.d.Dataset() != nil {
		t.Error("dataset should be cleared after the exit animation")
	}
	if len(st.Dropped) != 0 {
		t.Errorf("Dropped = %v, want empty", st.Dropped)
	}
	// Tables keep their positions.
	if tb := h.table("users"); tb.Y == scene.RowY {
		t.Error("dismiss should not reset table positions")
	}
}

func TestDirector_FramePacing(t *testing.T) {
	h := newHarness(t, &stubGenerator{})
	start := time.Unix(1_700_000_000, 0)

	if !h.d.Step(start) {
		t.Fatal("first frame should draw")
	}
	if h.d.Step(start.Add(10 * time.Millisecond)) {
		t.Error("frame within the interval should be skipped")
	}
	if !h.d.Step(start.Add(34 * time.Millisecond)) {
		t.Error("frame after the interval should draw")
	}
	if got := h.d.Snapshot().Frame; got != 2 {
		t.Errorf("Frame = %d, want 2", got)
	}
}

func TestDirector_BackgroundIsDetectionFrame(t *testing.T) {
	h := newHarness(t, &stubGenerator{})

	h.step()
	if got := len(h.rec.Ops("image")); got != 0 {
		t.Errorf("frame without video drew %d images, want 0", got)
	}

	h.rec.Reset()
	hand := openAt(0.5, 0.5)
	h.hands.frame = detector.Frame{
		Hands: []detector.HandLandmarks{*hand},
		Image: image.NewRGBA(image.Rect(0, 0, 640, 360)),
	}
	h.now = h.now.Add(tick)
	h.d.Step(h.now)

	imgs := h.rec.Ops("image")
	if len(imgs) != 1 {
		t.Fatalf("drew %d images, want the detection frame once", len(imgs))
	}
	if imgs[0].Matrix[0] >= 0 {
		t.Error("video background should be mirrored")
	}
	if args := imgs[0].Args; args[2] != testWidth || args[3] != testHeight {
		t.Errorf("video drawn at %vx%v, want it to fill %vx%v", args[2], args[3], testWidth, testHeight)
	}
}

func TestDirector_RecoversFromPanic(t *testing.T) {
	d, err := NewDirector(DirectorConfig{
		Width:  testWidth,
		Height: testHeight,
		Canvas: draw.NewRecorder(testWidth, testHeight),
	}, panickyHands{}, &stubGenerator{})
	if err != nil {
		t.Fatalf("NewDirector() error = %v", err)
	}

	// Must not propagate.
	d.safeStep(time.Now())
}

func TestDirector_TrackingBanner(t *testing.T) {
	h := newHarness(t, &stubGenerator{})

	h.step()
	if !h.rec.HasText(StartingText) {
		t.Error("loading tracking banner not drawn")
	}

	h.d.SetTracking(TrackingUnavailable)
	h.rec.Reset()
	h.step()
	if !h.rec.HasText(UnavailableText) {
		t.Error("unavailable banner not drawn")
	}
	if got := h.d.Snapshot().Tracking; got != TrackingUnavailable {
		t.Errorf("Tracking = %v", got)
	}

	h.d.SetTracking(TrackingReady)
	h.rec.Reset()
	h.step()
	if h.rec.HasText(UnavailableText) || h.rec.HasText(StartingText) {
		t.Error("no banner expected once tracking is ready")
	}
}

func TestDirector_ToastsExpire(t *testing.T) {
	h := newHarness(t, &stubGenerator{})

	h.d.Post("hello", ToastInfo)
	h.step()
	if len(h.d.Toasts()) != 1 {
		t.Fatalf("Toasts() = %+v", h.d.Toasts())
	}

	h.advance(ToastDuration)
	if len(h.d.Toasts()) != 0 {
		t.Errorf("toast should expire after %v", ToastDuration)
	}
}

func TestDirector_Notifications(t *testing.T) {
	h := newHarness(t, &stubGenerator{})

	h.step(openAt(0.5, 0.5))
	h.clickGenerate()

	var toasts, states, hands int
	for _, e := range h.events {
		switch e.Type {
		case EventToast:
			toasts++
		case EventState:
			states++
		case EventHands:
			hands++
		}
	}
	if toasts != 1 {
		t.Errorf("toast events = %d, want 1", toasts)
	}
	if states == 0 {
		t.Error("expected state events")
	}
	if hands == 0 {
		t.Error("expected hands events")
	}
}

type captureSink struct {
	frames int
	bounds image.Rectangle
}

func (s *captureSink) PublishFrame(img image.Image) {
	s.frames++
	s.bounds = img.Bounds()
}

func TestDirector_PublishesRasterFrames(t *testing.T) {
	sink := &captureSink{}
	d, err := NewDirector(DirectorConfig{Width: 320, Height: 240, Sinks: []FrameSink{sink}}, &fakeHands{}, &stubGenerator{})
	if err != nil {
		t.Fatalf("NewDirector() error = %v", err)
	}

	d.Step(time.Now())
	if sink.frames != 1 {
		t.Fatalf("frames = %d, want 1", sink.frames)
	}
	if sink.bounds.Dx() != 320 || sink.bounds.Dy() != 240 {
		t.Errorf("frame bounds = %v", sink.bounds)
	}
}
