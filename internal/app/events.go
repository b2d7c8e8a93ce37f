package app

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/pinchviz/internal/chart"
	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/scene"
)

// ToastLevel is the severity of a toast.
type ToastLevel string

const (
	ToastInfo  ToastLevel = "info"
	ToastError ToastLevel = "error"
)

// ToastDuration is how long a toast stays on screen.
const ToastDuration = 3000 * time.Millisecond

// Toast is a short notification shown over the scene.
type Toast struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Level     ToastLevel `json:"level"`
	CreatedAt time.Time  `json:"created_at"`
}

func newToast(text string, level ToastLevel, now time.Time) Toast {
	return Toast{ID: uuid.NewString(), Text: text, Level: level, CreatedAt: now}
}

// Tracking describes the hand tracking session.
type Tracking string

const (
	TrackingLoading     Tracking = "loading"
	TrackingReady       Tracking = "ready"
	TrackingUnavailable Tracking = "unavailable"
)

// State is a read-only snapshot of the interaction model for observers.
type State struct {
	Tables   []scene.Table `json:"tables"`
	Dropped  []string      `json:"dropped"`
	Button   scene.Button  `json:"button"`
	Phase    chart.Phase   `json:"phase"`
	Loading  bool          `json:"loading"`
	Tracking Tracking      `json:"tracking"`
	Frame    int64         `json:"frame"`
}

// EventType names an outgoing notification.
type EventType string

const (
	EventToast EventType = "toast"
	EventState EventType = "state"
	EventHands EventType = "hands"
)

// Event is a notification sent to observers.
type Event struct {
	Type  EventType                `json:"type"`
	Toast *Toast                   `json:"toast,omitempty"`
	State *State                   `json:"state,omitempty"`
	Hands []detector.HandLandmarks `json:"hands,omitempty"`
}

// Notifier receives events from the render loop. Notify must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// FrameSink receives every composited frame. The image is reused for the
// next frame, so sinks must copy or encode it before returning.
type FrameSink interface {
	PublishFrame(img image.Image)
}

// Landmarks yields the latest hand detection without blocking.
type Landmarks interface {
	Latest() detector.Frame
}
