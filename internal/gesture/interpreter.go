package gesture

import (
	"time"

	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/scene"
)

// EventType identifies an interaction produced by the interpreter.
type EventType int

const (
	// EventPinchStart fires on the tick a pinch begins.
	EventPinchStart EventType = iota
	// EventPinchMove fires while a pinch drags a table.
	EventPinchMove
	// EventPinchEnd fires when a pinch is released or the hand is lost.
	EventPinchEnd
	// EventGenerate fires once per pinch on the generate button.
	EventGenerate
	// EventDropped fires when a released table is newly added to the drop set.
	EventDropped
	// EventDismiss fires when a swipe dismisses the chart.
	EventDismiss
)

func (t EventType) String() string {
	switch t {
	case EventPinchStart:
		return "pinch_start"
	case EventPinchMove:
		return "pinch_move"
	case EventPinchEnd:
		return "pinch_end"
	case EventGenerate:
		return "generate"
	case EventDropped:
		return "dropped"
	case EventDismiss:
		return "dismiss"
	default:
		return "unknown"
	}
}

// Event is one interaction. Table is set for drag and drop events; X and Y
// carry the mirrored pinch center.
type Event struct {
	Type  EventType
	Table string
	X, Y  float64
}

// Interpreter owns pinch and swipe state across ticks.
// It is not safe for concurrent use; the render loop is its only caller.
type Interpreter struct {
	pinch   PinchState
	swipe   SwipeState
	dragged *scene.Table
}

// NewInterpreter returns an interpreter with no gesture in progress.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// PinchState returns the current pinch state.
func (in *Interpreter) PinchState() PinchState { return in.pinch }

// SwipeState returns the current swipe state.
func (in *Interpreter) SwipeState() SwipeState { return in.swipe }

// Dragged returns the table currently being dragged, if any.
func (in *Interpreter) Dragged() *scene.Table { return in.dragged }

// Interact applies one tick of pinch handling to the scene. A nil hand means
// no hands were detected; an in-progress pinch is then released as if the
// fingers had opened.
func (in *Interpreter) Interact(sc *scene.Scene, hand *detector.HandLandmarks, vp scene.Viewport) []Event {
	if hand == nil {
		if in.pinch.IsPinching {
			return in.release(sc)
		}
		sc.Button.Hover = false
		return nil
	}

	pinching := IsPinching(PinchDistance(hand))
	x, y := PinchCenter(hand)
	overButton := vp.ButtonRect().Contains(x, y)

	switch {
	case pinching && !in.pinch.IsPinching:
		return in.start(sc, x, y, overButton, vp)

	case pinching:
		dx, dy := x-in.pinch.X, y-in.pinch.Y
		in.pinch.X, in.pinch.Y = x, y
		if in.dragged == nil {
			return nil
		}
		scene.Move(in.dragged, dx, dy)
		return []Event{{Type: EventPinchMove, Table: in.dragged.Name, X: x, Y: y}}

	case in.pinch.IsPinching:
		return in.release(sc)

	default:
		sc.Button.Hover = overButton
		return nil
	}
}

func (in *Interpreter) start(sc *scene.Scene, x, y float64, overButton bool, vp scene.Viewport) []Event {
	in.pinch = PinchState{IsPinching: true, X: x, Y: y}
	events := []Event{{Type: EventPinchStart, X: x, Y: y}}

	if overButton {
		sc.Button.Hover = true
		if !sc.Button.Clicked {
			sc.Button.Clicked = true
			events = append(events, Event{Type: EventGenerate, X: x, Y: y})
		}
		return events
	}

	if t := sc.TableAt(x, y, vp.HitRadius()); t != nil {
		t.IsDragging = true
		in.dragged = t
		events[0].Table = t.Name
	}
	return events
}

func (in *Interpreter) release(sc *scene.Scene) []Event {
	end := Event{Type: EventPinchEnd, X: in.pinch.X, Y: in.pinch.Y}
	var events []Event

	if t := in.dragged; t != nil {
		t.IsDragging = false
		end.Table = t.Name
		events = append(events, end)
		if scene.InDropZone(t) && sc.Dropped.Add(t.Name) {
			events = append(events, Event{Type: EventDropped, Table: t.Name, X: t.X, Y: t.Y})
		}
	} else {
		events = append(events, end)
	}

	in.dragged = nil
	in.pinch.IsPinching = false
	sc.Button = scene.Button{}
	return events
}

// DetectSwipe runs one tick of swipe tracking. It returns a dismiss event
// when a swipe completes.
func (in *Interpreter) DetectSwipe(hand *detector.HandLandmarks, now time.Time) []Event {
	if in.swipe.Update(hand, now) {
		return []Event{{Type: EventDismiss}}
	}
	return nil
}

// ResetSwipe abandons any swipe in progress.
func (in *Interpreter) ResetSwipe() {
	in.swipe.Reset()
}
