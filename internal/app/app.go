// Package app wires the camera, the landmark stream and the render loop into
// the running pinch-to-chart application.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/pinchviz/internal/capture"
	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/tracker"
)

// TrackingTimeout is how long hand tracking may take to deliver its first
// result before the session is reported unavailable.
const TrackingTimeout = 15 * time.Second

// ErrNoGenerator is returned by New without a dataset generator.
var ErrNoGenerator = errors.New("app: generator is required")

// Config holds configuration options for the application.
type Config struct {
	// Camera overrides the capture device built from CameraConfig.
	Camera       capture.Camera
	CameraConfig capture.Config

	// Detector overrides hand detection. When nil MediaPipe is tried and the
	// mock detector is used if it cannot be started.
	Detector       detector.Detector
	DetectorConfig detector.Config

	Stream    tracker.Config
	Director  DirectorConfig
	Generator Generator

	TrackingTimeout time.Duration
}

// App runs hand tracking and the render loop.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	stream   *tracker.Stream
	director *Director

	// detectorErr is set when hand detection could not be initialized.
	detectorErr error

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an App. The camera is not opened until Start.
func New(config Config) (*App, error) {
	if config.Generator == nil {
		return nil, ErrNoGenerator
	}
	if config.TrackingTimeout <= 0 {
		config.TrackingTimeout = TrackingTimeout
	}

	a := &App{config: config, camera: config.Camera}
	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraConfig)
	}

	a.detector = config.Detector
	if a.detector == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(config.DetectorConfig); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
			a.detectorErr = err
		}
	}

	// The stream is the camera's only reader; without working detection it
	// still supplies the video background.
	var hands detector.Detector = a.detector
	if a.detectorErr != nil {
		hands = nil
	}
	a.stream = tracker.New(config.Stream, a.camera, hands)

	d, err := NewDirector(config.Director, a.stream, config.Generator)
	if err != nil {
		return nil, err
	}
	a.director = d

	return a, nil
}

// Start opens the camera and launches the landmark stream and render loop.
// A camera that fails to open leaves the render loop running without video
// or tracking.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.director.Run(ctx)
	}()

	if err := a.camera.Open(); err != nil {
		log.Printf("Error opening camera: %v", err)
		a.failTracking("Camera unavailable")
		return err
	}

	a.stream.Start(ctx)

	if a.detectorErr != nil {
		a.failTracking("Hand tracking unavailable")
		return nil
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.watchTracking(ctx)
	}()

	log.Println("Application started")
	return nil
}

func (a *App) failTracking(msg string) {
	a.director.SetTracking(TrackingUnavailable)
	a.director.Post(msg, ToastError)
}

// watchTracking ends the loading state once the first detection arrives, or
// gives up after the tracking timeout.
func (a *App) watchTracking(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(a.config.TrackingTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			log.Println("Hand tracking produced no results, giving up")
			a.stream.DisableDetection()
			a.failTracking("Hand tracking unavailable")
			return
		case <-ticker.C:
			if a.stream.Processed() > 0 {
				a.director.SetTracking(TrackingReady)
				log.Println("Hand tracking ready")
				return
			}
		}
	}
}

// Stop halts the loops and releases the camera and detector. Outstanding
// dataset fetches are cancelled.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.stream.Stop()
	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := a.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}

	log.Println("Application stopped")
}

// SetEnabled pauses or resumes hand tracking.
func (a *App) SetEnabled(enabled bool) {
	a.stream.SetEnabled(enabled)
}

// IsEnabled reports whether hand tracking is running.
func (a *App) IsEnabled() bool {
	return a.stream.Enabled()
}

// Director returns the render loop.
func (a *App) Director() *Director {
	return a.director
}

// Stream returns the landmark stream.
func (a *App) Stream() *tracker.Stream {
	return a.stream
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
