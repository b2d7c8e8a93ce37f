package tray

import (
	"strings"
	"testing"

	"github.com/ayusman/pinchviz/internal/app"
)

func TestTray_Defaults(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Error("tray should start enabled")
	}
	if tr.Last() != "" {
		t.Errorf("Last() = %q, want empty", tr.Last())
	}
	if tr.Tracking() != app.TrackingLoading {
		t.Errorf("Tracking() = %v, want loading", tr.Tracking())
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New()
	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should re-enable tracking")
	}
}

func TestTray_Open(t *testing.T) {
	tr := New()
	opened := false
	tr.OnOpen(func() { opened = true })
	tr.handleOpen()
	if !opened {
		t.Error("open callback not called")
	}
}

func TestTray_Notify(t *testing.T) {
	tr := New()

	tr.Notify(app.Event{Type: app.EventToast, Toast: &app.Toast{Text: "Added users"}})
	if tr.Last() != "Added users" {
		t.Errorf("Last() = %q", tr.Last())
	}

	tr.Notify(app.Event{Type: app.EventState, State: &app.State{Tracking: app.TrackingReady}})
	if tr.Tracking() != app.TrackingReady {
		t.Errorf("Tracking() = %v, want ready", tr.Tracking())
	}

	// Hands events are ignored.
	tr.Notify(app.Event{Type: app.EventHands})
	if tr.Last() != "Added users" {
		t.Errorf("Last() changed to %q", tr.Last())
	}
}

func TestTitles(t *testing.T) {
	if got := lastTitle(""); got != "Last: none" {
		t.Errorf("lastTitle(\"\") = %q", got)
	}
	long := strings.Repeat("x", 60)
	if got := lastTitle(long); !strings.HasSuffix(got, "...") {
		t.Errorf("long title not truncated: %q", got)
	}
	if toggleTitle(true) == toggleTitle(false) {
		t.Error("toggle titles should differ")
	}
	if got := trackingTitle(app.TrackingUnavailable); got != "Hand tracking: unavailable" {
		t.Errorf("trackingTitle = %q", got)
	}
}
