// Package tracker is the only reader of the camera. It feeds frames to the
// hand detector and exposes the most recent frame and detection to the
// render loop without blocking it.
package tracker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/pinchviz/internal/capture"
	"github.com/ayusman/pinchviz/internal/detector"
)

// Config holds stream timing options.
type Config struct {
	// RetryDelay is how long to wait after a camera read failure.
	RetryDelay time.Duration
	// VideoInterval paces frame reads while detection is off (paused or
	// disabled), when nothing else throttles the loop.
	VideoInterval time.Duration
}

// DefaultConfig returns the default stream timings.
func DefaultConfig() Config {
	return Config{
		RetryDelay:    100 * time.Millisecond,
		VideoInterval: 33 * time.Millisecond,
	}
}

// Stream runs detection as fast as the detector completes each inference and
// keeps only the newest result. Results not consumed before the next one
// arrives are discarded. Every published frame carries the camera image the
// hands were found in, so the video keeps moving while detection is off.
type Stream struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector

	slot      chan detector.Frame
	latest    detector.Frame
	enabled   atomic.Bool
	detecting atomic.Bool
	frames    atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stream over the given camera and detector. The stream starts
// enabled. A nil detector gives a video-only stream.
func New(config Config, camera capture.Camera, d detector.Detector) *Stream {
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultConfig().RetryDelay
	}
	if config.VideoInterval <= 0 {
		config.VideoInterval = DefaultConfig().VideoInterval
	}
	s := &Stream{
		config:   config,
		camera:   camera,
		detector: d,
		slot:     make(chan detector.Frame, 1),
	}
	s.enabled.Store(true)
	s.detecting.Store(d != nil)
	return s
}

// Start launches the inference loop. Calling Start on a running stream is a no-op.
func (s *Stream) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	log.Println("Landmark stream started")
}

// Stop cancels the inference loop and waits for it to exit.
func (s *Stream) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	log.Println("Landmark stream stopped")
}

// SetEnabled pauses or resumes inference. A paused stream reports no hands.
func (s *Stream) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// Enabled reports whether inference is running.
func (s *Stream) Enabled() bool {
	return s.enabled.Load()
}

// DisableDetection stops calling the detector for good. Frames keep being
// read and published without hands.
func (s *Stream) DisableDetection() {
	s.detecting.Store(false)
}

// Processed returns the number of successful detections published so far.
func (s *Stream) Processed() int64 {
	return s.frames.Load()
}

// Latest returns the newest available detection, or the previously returned
// one when nothing new has arrived. It never blocks. Latest is meant to be
// called from a single consumer goroutine.
func (s *Stream) Latest() detector.Frame {
	select {
	case f := <-s.slot:
		s.latest = f
	default:
	}
	return s.latest
}

// publish replaces any unconsumed result with f. Only the run goroutine publishes.
func (s *Stream) publish(f detector.Frame) {
	select {
	case s.slot <- f:
		return
	default:
	}

	select {
	case <-s.slot:
	default:
	}

	select {
	case s.slot <- f:
	default:
	}
}

func (s *Stream) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	failing := false
	idle := false
	var hands []detector.HandLandmarks

	for {
		if ctx.Err() != nil {
			return
		}

		detect := s.enabled.Load() && s.detecting.Load()
		if !detect && !idle {
			// Drop the hands at once, even if the camera is failing.
			hands = nil
			s.publish(detector.Frame{Timestamp: time.Now().UnixMilli()})
		}
		idle = !detect

		frame, err := s.camera.ReadFrame()
		if err != nil {
			if !failing {
				log.Printf("Error reading frame: %v", err)
				failing = true
			}
			if !sleep(ctx, s.config.RetryDelay) {
				return
			}
			continue
		}
		failing = false

		img, err := capture.ToImage(frame)
		if err != nil {
			log.Printf("Error converting frame: %v", err)
		}

		if !detect {
			frame.Close()
			s.publish(detector.Frame{Image: img, Timestamp: time.Now().UnixMilli()})
			if !sleep(ctx, s.config.VideoInterval) {
				return
			}
			continue
		}

		found, err := s.detector.Detect(frame)
		frame.Close()
		if err != nil {
			log.Printf("Error detecting hands: %v", err)
			// The video advances; the last detection stays current.
			s.publish(detector.Frame{Hands: hands, Image: img, Timestamp: time.Now().UnixMilli()})
			continue
		}

		hands = found
		s.frames.Add(1)
		s.publish(detector.Frame{
			Hands:     hands,
			Image:     img,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

// sleep waits for d or until ctx is done; it reports whether the loop should continue.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
