package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ayusman/pinchviz/internal/capture"
	"github.com/ayusman/pinchviz/internal/chart"
	"github.com/ayusman/pinchviz/internal/dataset"
	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/draw"
	"github.com/ayusman/pinchviz/internal/gesture"
	"github.com/ayusman/pinchviz/internal/scene"
)

// Render loop defaults.
const (
	DefaultFPS           = 30
	DefaultCheckInterval = 4 * time.Millisecond
)

// Generator builds a dataset for the dropped tables. It must not fail;
// fallbacks are the generator's concern.
type Generator interface {
	Generate(ctx context.Context, names []string) *dataset.Dataset
}

// DirectorConfig holds render loop options and collaborators.
type DirectorConfig struct {
	Width  int
	Height int
	// FPS caps how often frames are drawn.
	FPS int
	// CheckInterval is how often the loop checks whether a frame is due.
	CheckInterval time.Duration
	// Tables lays out the scene; empty uses scene.DefaultTables.
	Tables []string

	// Canvas overrides the raster canvas, mainly for tests.
	Canvas    draw.Canvas
	Sinks     []FrameSink
	Notifiers []Notifier
}

type post struct {
	text  string
	level ToastLevel
}

type fetchResult struct {
	cycle uint64
	ds    *dataset.Dataset
}

// simulation is the per-frame state. Only the loop goroutine touches it.
type simulation struct {
	scene    *scene.Scene
	gestures *gesture.Interpreter
	anim     chart.Animator
	dataset  *dataset.Dataset

	// base parents every fetch context.
	base        context.Context
	loading     bool
	cycle       uint64
	cancelFetch context.CancelFunc

	toasts   []Toast
	lastDraw time.Time
	frames   int64
	lastSig  stateSig
}

type stateSig struct {
	phase    chart.Phase
	loading  bool
	dropped  int
	hover    bool
	dragging bool
	tracking Tracking
}

// Director drives the fixed-rate draw loop: it applies gestures to the
// scene, launches dataset generation and composites every layer.
type Director struct {
	config  DirectorConfig
	hands   Landmarks
	gen     Generator
	canvas  draw.Canvas
	vp      scene.Viewport
	results chan fetchResult
	posts   chan post

	sim simulation

	current  atomic.Pointer[dataset.Dataset]
	snapshot atomic.Pointer[State]
	tracking atomic.Value
}

// NewDirector creates a director reading hands from hands and building
// datasets with gen.
func NewDirector(config DirectorConfig, hands Landmarks, gen Generator) (*Director, error) {
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = capture.DefaultWidth, capture.DefaultHeight
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCheckInterval
	}

	canvas := config.Canvas
	if canvas == nil {
		r, err := draw.NewRaster(config.Width, config.Height)
		if err != nil {
			return nil, fmt.Errorf("create canvas: %w", err)
		}
		canvas = r
	}

	d := &Director{
		config:  config,
		hands:   hands,
		gen:     gen,
		canvas:  canvas,
		vp:      scene.Viewport{Width: float64(config.Width), Height: float64(config.Height)},
		results: make(chan fetchResult, 1),
		posts:   make(chan post, 16),
		sim: simulation{
			scene:    scene.New(config.Tables),
			gestures: gesture.NewInterpreter(),
			base:     context.Background(),
		},
	}
	d.tracking.Store(TrackingLoading)
	d.publishState()
	return d, nil
}

// Run draws frames until ctx is done. Fetches started by the loop are
// cancelled with ctx and their late results are dropped.
func (d *Director) Run(ctx context.Context) {
	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	d.sim.base = ctx
	log.Printf("Render loop started at %d FPS", d.config.FPS)
	for {
		select {
		case <-ctx.Done():
			d.cancelPending()
			log.Println("Render loop stopped")
			return
		case now := <-ticker.C:
			d.safeStep(now)
		}
	}
}

func (d *Director) cancelPending() {
	if d.sim.cancelFetch != nil {
		d.sim.cancelFetch()
		d.sim.cancelFetch = nil
	}
	d.sim.loading = false
}

func (d *Director) safeStep(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Render tick panic: %v", r)
		}
	}()
	d.Step(now)
}

// Step runs one loop check. It reports whether a frame was drawn: frames
// are skipped while less than one frame interval has passed since the last.
// Step must only be called from one goroutine.
func (d *Director) Step(now time.Time) bool {
	d.drainResults(now)

	interval := time.Second / time.Duration(d.config.FPS)
	if !d.sim.lastDraw.IsZero() && now.Sub(d.sim.lastDraw) < interval {
		return false
	}
	d.sim.lastDraw = now
	d.sim.frames++

	d.frame(now)
	return true
}

// Post queues a toast from any goroutine. It is dropped when the queue is full.
func (d *Director) Post(text string, level ToastLevel) {
	select {
	case d.posts <- post{text: text, level: level}:
	default:
		log.Printf("Toast dropped: %s", text)
	}
}

// SetTracking records the hand tracking status shown on screen.
func (d *Director) SetTracking(t Tracking) {
	d.tracking.Store(t)
}

// TrackingStatus returns the hand tracking status.
func (d *Director) TrackingStatus() Tracking {
	return d.tracking.Load().(Tracking)
}

// Dataset returns the dataset currently charted, or nil.
func (d *Director) Dataset() *dataset.Dataset {
	return d.current.Load()
}

// Snapshot returns the interaction state as of the last drawn frame.
func (d *Director) Snapshot() State {
	return *d.snapshot.Load()
}

// Viewport returns the canvas size.
func (d *Director) Viewport() scene.Viewport {
	return d.vp
}

func (d *Director) frame(now time.Time) {
	sim := &d.sim

	if sim.anim.Update(now) {
		sim.dataset = nil
		sim.scene.Dropped.Clear()
		d.current.Store(nil)
		log.Println("Chart dismissed")
	}
	d.pruneToasts(now)

	latest := d.hands.Latest()
	hand := latest.Primary()

	d.drawBackground(latest)

	if sim.anim.Showing() {
		drawSkeleton(d.canvas, latest.Hands)
		for _, ev := range sim.gestures.DetectSwipe(hand, now) {
			if ev.Type == gesture.EventDismiss && sim.anim.Phase() != chart.PhaseExiting {
				sim.anim.Hide(now)
				log.Println("Swipe detected, closing chart")
			}
		}
		chart.Render(d.canvas, sim.dataset, sim.anim.Frame(now))
		d.finish(now, latest)
		return
	}

	for _, ev := range sim.gestures.Interact(sim.scene, hand, d.vp) {
		switch ev.Type {
		case gesture.EventGenerate:
			d.generate(now)
		case gesture.EventDropped:
			d.toast(fmt.Sprintf("Added %s", ev.Table), ToastInfo, now)
		}
	}

	drawScanlines(d.canvas)
	drawDropZone(d.canvas, sim.scene)
	drawTables(d.canvas, sim.scene)
	drawButton(d.canvas, d.vp, sim.scene.Button, sim.loading)
	drawToasts(d.canvas, sim.toasts, now)
	drawSkeleton(d.canvas, latest.Hands)
	drawPinch(d.canvas, sim.gestures)
	if sim.loading {
		drawLoading(d.canvas, now)
	}
	if t := d.TrackingStatus(); t != TrackingReady {
		drawTrackingStatus(d.canvas, t)
	}
	d.finish(now, latest)
}

func (d *Director) finish(now time.Time, latest detector.Frame) {
	if len(d.config.Sinks) > 0 {
		if img, ok := d.canvas.(interface{ Pixels() image.Image }); ok {
			for _, s := range d.config.Sinks {
				s.PublishFrame(img.Pixels())
			}
		}
	}
	if len(latest.Hands) > 0 {
		d.notify(Event{Type: EventHands, Hands: latest.Hands})
	}
	d.publishState()
}

// drawBackground paints the camera image the latest hands were found in.
// Frames without an image leave a plain backdrop.
func (d *Director) drawBackground(latest detector.Frame) {
	d.canvas.Clear(backgroundColor)
	if latest.Image != nil {
		drawVideo(d.canvas, latest.Image)
	}
}

// generate starts a fetch cycle for the dropped tables. An empty drop zone
// only raises an error toast.
func (d *Director) generate(now time.Time) {
	sim := &d.sim
	if sim.scene.Dropped.Len() == 0 {
		d.toast("Drop at least one table into the zone first", ToastError, now)
		return
	}
	if sim.loading {
		return
	}

	d.cancelPending()
	ctx, cancel := context.WithCancel(sim.base)
	sim.cycle++
	sim.cancelFetch = cancel
	sim.loading = true

	names := sim.scene.Dropped.Names()
	cycle := sim.cycle
	d.toast(fmt.Sprintf("Generating chart for %s", strings.Join(names, ", ")), ToastInfo, now)
	log.Printf("Generating dataset for %v (cycle %d)", names, cycle)

	go func() {
		ds := d.gen.Generate(ctx, names)
		select {
		case d.results <- fetchResult{cycle: cycle, ds: ds}:
		case <-ctx.Done():
			log.Printf("Discarding dataset of cancelled cycle %d", cycle)
		}
	}()
}

func (d *Director) drainResults(now time.Time) {
	for {
		select {
		case r := <-d.results:
			d.applyResult(r, now)
		case p := <-d.posts:
			d.toast(p.text, p.level, now)
		default:
			return
		}
	}
}

func (d *Director) applyResult(r fetchResult, now time.Time) {
	sim := &d.sim
	if r.cycle != sim.cycle || !sim.loading {
		log.Printf("Discarding stale dataset of cycle %d", r.cycle)
		return
	}

	d.cancelPending()
	sim.dataset = r.ds
	d.current.Store(r.ds)
	sim.gestures.ResetSwipe()
	sim.anim.Show(now)

	if r.ds != nil && r.ds.Demo {
		d.toast("Showing demo data", ToastInfo, now)
	}
}

func (d *Director) toast(text string, level ToastLevel, now time.Time) {
	t := newToast(text, level, now)
	d.sim.toasts = append(d.sim.toasts, t)
	d.notify(Event{Type: EventToast, Toast: &t})
}

func (d *Director) pruneToasts(now time.Time) {
	kept := d.sim.toasts[:0]
	for _, t := range d.sim.toasts {
		if now.Sub(t.CreatedAt) < ToastDuration {
			kept = append(kept, t)
		}
	}
	d.sim.toasts = kept
}

// Toasts returns the toasts currently on screen. Loop goroutine only.
func (d *Director) Toasts() []Toast {
	return append([]Toast(nil), d.sim.toasts...)
}

func (d *Director) notify(e Event) {
	for _, n := range d.config.Notifiers {
		n.Notify(e)
	}
}

func (d *Director) publishState() {
	sim := &d.sim
	st := &State{
		Dropped:  sim.scene.Dropped.Names(),
		Button:   sim.scene.Button,
		Phase:    sim.anim.Phase(),
		Loading:  sim.loading,
		Tracking: d.TrackingStatus(),
		Frame:    sim.frames,
	}
	dragging := false
	st.Tables = make([]scene.Table, len(sim.scene.Tables))
	for i, t := range sim.scene.Tables {
		st.Tables[i] = *t
		dragging = dragging || t.IsDragging
	}
	d.snapshot.Store(st)

	sig := stateSig{
		phase:    st.Phase,
		loading:  st.Loading,
		dropped:  len(st.Dropped),
		hover:    st.Button.Hover,
		dragging: dragging,
		tracking: st.Tracking,
	}
	if sig != sim.lastSig {
		sim.lastSig = sig
		d.notify(Event{Type: EventState, State: st})
	}
}
