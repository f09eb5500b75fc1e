// Package interact turns pointer events into annotation and viewport
// mutations.
package interact

import (
	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/viewport"
)

// State is the machine's current mode.
type State int

const (
	Idle State = iota
	DraggingCircle
	PanningCanvas
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DraggingCircle:
		return "dragging"
	case PanningCanvas:
		return "panning"
	}
	return "unknown"
}

// Kind identifies a pointer event.
type Kind int

const (
	PointerDown Kind = iota
	PointerMove
	PointerUp
	PointerLeave
	Wheel
)

// Event is a pointer event in screen space. Shift carries the multi-select
// modifier as it was when the event was generated. WheelDelta follows the
// browser convention: negative scrolls up and zooms in.
type Event struct {
	Kind       Kind
	Pos        viewport.Point
	Shift      bool
	WheelDelta float64
}

// Action reports what an event did.
type Action int

const (
	None Action = iota
	Created
	Selected
	Moved
	Panned
	Zoomed
	Released
)

// Store is the subset of the annotation store the machine mutates.
type Store interface {
	HitTest(p viewport.Point) (annotation.Circle, bool)
	CreateCircle(p viewport.Point, radius float64, additive bool) (annotation.Circle, error)
	Select(id string, additive bool) error
	MoveCircle(id string, p viewport.Point) error
}

// Options tunes the machine.
type Options struct {
	// ClickThreshold is the screen distance a press may travel and still
	// count as a click.
	ClickThreshold float64
	ZoomIn         float64
	ZoomOut        float64
	// Radius supplies the radius for newly placed circles.
	Radius func() float64
	// Ready gates all events until the image resource has loaded.
	Ready func() bool
}

// DefaultOptions returns a 4px click threshold, 1.1/0.9 wheel zoom and
// radius 5 circles.
func DefaultOptions() Options {
	return Options{
		ClickThreshold: 4,
		ZoomIn:         1.1,
		ZoomOut:        0.9,
		Radius:         func() float64 { return 5 },
	}
}

// Machine is the interaction state machine. It is always in exactly one of
// Idle, DraggingCircle or PanningCanvas.
type Machine struct {
	store Store
	view  *viewport.Viewport
	opts  Options

	state   State
	pressed bool
	press   viewport.Point
	last    viewport.Point
	target  string
	grab    viewport.Point
	// Err holds the last absorbed store error, for callers that log.
	Err error
}

// New creates a machine operating on store and view.
func New(store Store, view *viewport.Viewport, opts Options) *Machine {
	def := DefaultOptions()
	if opts.ClickThreshold < 0 {
		opts.ClickThreshold = 0
	}
	if opts.ZoomIn <= 0 {
		opts.ZoomIn = def.ZoomIn
	}
	if opts.ZoomOut <= 0 {
		opts.ZoomOut = def.ZoomOut
	}
	if opts.Radius == nil {
		opts.Radius = def.Radius
	}
	return &Machine{store: store, view: view, opts: opts}
}

// State returns the current mode.
func (m *Machine) State() State { return m.state }

// Dragging returns the id of the circle being dragged, if any.
func (m *Machine) Dragging() (string, bool) {
	if m.state != DraggingCircle {
		return "", false
	}
	return m.target, true
}

func (m *Machine) ready() bool {
	return m.opts.Ready == nil || m.opts.Ready()
}

// Handle applies ev and reports the resulting action. Events arriving before
// the image is ready are dropped.
func (m *Machine) Handle(ev Event) Action {
	m.Err = nil
	if !m.ready() {
		m.reset()
		return None
	}
	switch ev.Kind {
	case Wheel:
		return m.wheel(ev)
	case PointerDown:
		return m.down(ev)
	case PointerMove:
		return m.move(ev)
	case PointerUp:
		return m.up(ev)
	case PointerLeave:
		return m.leave()
	}
	return None
}

func (m *Machine) wheel(ev Event) Action {
	var f float64
	switch {
	case ev.WheelDelta > 0:
		f = m.opts.ZoomOut
	case ev.WheelDelta < 0:
		f = m.opts.ZoomIn
	default:
		return None
	}
	if !m.view.Zoom(f) {
		return None
	}
	return Zoomed
}

func (m *Machine) down(ev Event) Action {
	if m.pressed {
		return None
	}
	m.pressed = true
	m.press, m.last = ev.Pos, ev.Pos
	m.target = ""
	p := m.view.ToImage(ev.Pos)
	if c, ok := m.store.HitTest(p); ok {
		m.target = c.ID
		m.grab = c.Center().Sub(p)
	}
	return None
}

func (m *Machine) move(ev Event) Action {
	if !m.pressed {
		return None
	}
	switch m.state {
	case Idle:
		if ev.Pos.Dist(m.press) <= m.opts.ClickThreshold {
			return None
		}
		if m.target != "" {
			m.state = DraggingCircle
			return m.drag(ev)
		}
		m.state = PanningCanvas
		return m.pan(ev)
	case DraggingCircle:
		return m.drag(ev)
	case PanningCanvas:
		return m.pan(ev)
	}
	return None
}

func (m *Machine) drag(ev Event) Action {
	to := m.view.ToImage(ev.Pos).Add(m.grab)
	if err := m.store.MoveCircle(m.target, to); err != nil {
		m.Err = err
		m.reset()
		return None
	}
	m.last = ev.Pos
	return Moved
}

func (m *Machine) pan(ev Event) Action {
	d := ev.Pos.Sub(m.last)
	m.view.Pan(d.X, d.Y)
	m.last = ev.Pos
	return Panned
}

func (m *Machine) up(ev Event) Action {
	if !m.pressed {
		return None
	}
	state, target := m.state, m.target
	m.reset()
	if state != Idle {
		return Released
	}
	if target != "" {
		if err := m.store.Select(target, ev.Shift); err != nil {
			m.Err = err
			return None
		}
		return Selected
	}
	if _, err := m.store.CreateCircle(m.view.ToImage(m.press), m.opts.Radius(), ev.Shift); err != nil {
		m.Err = err
		return None
	}
	return Created
}

func (m *Machine) leave() Action {
	if !m.pressed {
		return None
	}
	state := m.state
	m.reset()
	if state == Idle {
		return None
	}
	return Released
}

func (m *Machine) reset() {
	m.state = Idle
	m.pressed = false
	m.target = ""
	m.grab = viewport.Point{}
}
