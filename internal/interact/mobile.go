package interact

import (
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/d4scope/internal/viewport"
)

// FromMouse converts a window system mouse event into a machine event. Only
// the primary button and the vertical wheel are mapped.
func FromMouse(e mouse.Event) (Event, bool) {
	ev := Event{
		Pos:   viewport.Pt(float64(e.X), float64(e.Y)),
		Shift: e.Modifiers&key.ModShift != 0,
	}
	switch e.Button {
	case mouse.ButtonWheelUp:
		ev.Kind, ev.WheelDelta = Wheel, -1
		return ev, true
	case mouse.ButtonWheelDown:
		ev.Kind, ev.WheelDelta = Wheel, 1
		return ev, true
	case mouse.ButtonWheelLeft, mouse.ButtonWheelRight:
		return Event{}, false
	}
	switch e.Direction {
	case mouse.DirNone:
		ev.Kind = PointerMove
		return ev, true
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft {
			return Event{}, false
		}
		ev.Kind = PointerDown
		return ev, true
	case mouse.DirRelease:
		if e.Button != mouse.ButtonLeft {
			return Event{}, false
		}
		ev.Kind = PointerUp
		return ev, true
	}
	return Event{}, false
}
