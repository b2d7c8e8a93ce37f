package server

import (
	"fmt"
	"image"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// StreamHandler serves the composited frames as MJPEG. It is fed through
// PublishFrame and always sends the newest frame; clients that fall behind
// skip frames.
type StreamHandler struct {
	mu     sync.Mutex
	frame  []byte
	seq    uint64
	notify chan struct{}

	clients atomic.Int32
}

// NewStreamHandler creates a StreamHandler with no frame yet.
func NewStreamHandler() *StreamHandler {
	return &StreamHandler{notify: make(chan struct{})}
}

// PublishFrame encodes img as JPEG for connected clients. Frames published
// while nobody is watching are not encoded.
func (h *StreamHandler) PublishFrame(img image.Image) {
	if h.clients.Load() == 0 {
		return
	}

	data, err := encodeJPEG(img)
	if err != nil {
		log.Printf("Error encoding stream frame: %v", err)
		return
	}

	h.mu.Lock()
	h.frame = data
	h.seq++
	close(h.notify)
	h.notify = make(chan struct{})
	h.mu.Unlock()
}

func encodeJPEG(img image.Image) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// Clients returns the number of connected viewers.
func (h *StreamHandler) Clients() int {
	return int(h.clients.Load())
}

// next returns the newest frame if it is newer than seq, and otherwise a
// channel closed when the next frame arrives.
func (h *StreamHandler) next(seq uint64) ([]byte, uint64, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.frame != nil && h.seq != seq {
		return h.frame, h.seq, nil
	}
	return nil, seq, h.notify
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.clients.Add(1)
	defer h.clients.Add(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	var seq uint64
	for {
		frame, next, wait := h.next(seq)
		if frame == nil {
			select {
			case <-r.Context().Done():
				return
			case <-wait:
				continue
			}
		}
		seq = next

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		if _, err := w.Write(frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
