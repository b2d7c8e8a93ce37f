package main

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const escKey = 27

// previewWindow shows the composited frames in an OpenCV window. Frames are
// copied on publish and shown from the goroutine that calls Run.
type previewWindow struct {
	title string

	mu    sync.Mutex
	frame *image.RGBA
	fresh bool
}

func newPreviewWindow(title string) *previewWindow {
	return &previewWindow{title: title}
}

// PublishFrame copies img for the next refresh.
func (p *previewWindow) PublishFrame(img image.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := img.Bounds()
	if p.frame == nil || p.frame.Bounds() != b {
		p.frame = image.NewRGBA(b)
	}
	draw.Draw(p.frame, b, img, b.Min, draw.Src)
	p.fresh = true
}

// Run shows frames until ctx is done or Esc is pressed, which calls quit.
func (p *previewWindow) Run(ctx context.Context, quit func()) {
	window := gocv.NewWindow(p.title)
	defer window.Close()

	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if mat, ok := p.next(); ok {
			window.IMShow(mat)
			mat.Close()
		}
		if window.WaitKey(1) == escKey {
			quit()
			return
		}
	}
}

func (p *previewWindow) next() (gocv.Mat, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.fresh {
		return gocv.Mat{}, false
	}
	p.fresh = false
	mat, err := gocv.ImageToMatRGB(p.frame)
	if err != nil {
		return gocv.Mat{}, false
	}
	return mat, true
}
