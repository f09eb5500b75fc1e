// Package editor binds an image, its annotations and the analysis
// parameters into one editing session that a window host drives.
package editor

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/config"
	"github.com/example/d4scope/internal/imageres"
	"github.com/example/d4scope/internal/interact"
	"github.com/example/d4scope/internal/params"
	"github.com/example/d4scope/internal/render"
	"github.com/example/d4scope/internal/submit"
	"github.com/example/d4scope/internal/theme"
	"github.com/example/d4scope/internal/viewport"
)

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Editor config.Editor
	Theme  *theme.Theme
	Params *params.Set
	// Logf receives status messages. Defaults to log.Printf.
	Logf func(format string, args ...any)
	// IDs replaces the UUID generator for circles and clusters.
	IDs func() string
}

// Session is safe for concurrent use. Listeners registered with Subscribe
// run with the session locked and must not call back into it.
type Session struct {
	mu sync.Mutex

	image   *imageres.Resource
	store   *annotation.Store
	view    viewport.Viewport
	machine *interact.Machine
	params  *params.Set
	theme   *theme.Theme
	radius  params.Bounds
	place   float64
	zoomIn  float64
	zoomOut float64
	logf    func(format string, args ...any)
	status  string
}

// New creates a session over img, which may still be loading.
func New(img *imageres.Resource, opts Options) *Session {
	ed := opts.Editor
	if ed == (config.Editor{}) {
		ed = config.DefaultEditor()
	}
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.Params == nil {
		opts.Params = params.New()
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	var storeOpts []annotation.Option
	if opts.IDs != nil {
		storeOpts = append(storeOpts, annotation.WithIDGenerator(opts.IDs))
	}
	s := &Session{
		image:   img,
		store:   annotation.New(storeOpts...),
		view:    viewport.New(),
		params:  opts.Params,
		theme:   opts.Theme,
		radius:  params.Bounds{Min: ed.RadiusMin, Max: ed.RadiusMax, Step: ed.RadiusStep},
		place:   ed.DefaultRadius,
		zoomIn:  ed.ZoomIn,
		zoomOut: ed.ZoomOut,
		logf:    opts.Logf,
	}
	s.machine = interact.New(s.store, &s.view, interact.Options{
		ClickThreshold: ed.ClickThreshold,
		ZoomIn:         ed.ZoomIn,
		ZoomOut:        ed.ZoomOut,
		Radius:         func() float64 { return s.place },
		Ready:          s.ready,
	})
	return s
}

func (s *Session) ready() bool {
	return s.image != nil && s.image.Ready() && s.image.Err() == nil
}

func (s *Session) setStatus(format string, args ...any) {
	s.status = fmt.Sprintf(format, args...)
	s.logf("%s", s.status)
}

// HandleEvent feeds a pointer event to the interaction machine.
func (s *Session) HandleEvent(ev interact.Event) interact.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.machine.Handle(ev)
	if s.machine.Err != nil {
		s.setStatus("pointer: %v", s.machine.Err)
	}
	return act
}

// State returns the interaction mode.
func (s *Session) State() interact.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Status returns the last status message.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Viewport returns a copy of the current viewport.
func (s *Session) Viewport() viewport.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Image returns the session's image resource.
func (s *Session) Image() *imageres.Resource { return s.image }

// Params returns the live parameter set.
func (s *Session) Params() *params.Set { return s.params }

// Theme returns the theme used by Render.
func (s *Session) Theme() *theme.Theme { return s.theme }

// Scene snapshots what the renderer needs. The image is nil until ready.
func (s *Session) Scene() render.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene()
}

func (s *Session) scene() render.Scene {
	sc := render.Scene{
		Circles:  s.store.Circles(),
		Clusters: s.store.Clusters(),
		Selected: make(map[string]bool),
		Viewport: s.view,
	}
	if s.ready() {
		if img, err := s.image.RGBA(); err == nil {
			sc.Image = img
		}
	}
	for _, id := range s.store.Selection() {
		sc.Selected[id] = true
	}
	if c, ok := s.store.ActiveCircle(); ok {
		sc.ActiveCircle = c.ID
	}
	return sc
}

// Render draws the session onto dst.
func (s *Session) Render(dst *image.RGBA) {
	sc := s.Scene()
	render.Draw(dst, sc, s.theme)
}

// Overlay renders the annotations over the image at full resolution.
func (s *Session) Overlay() (*image.RGBA, error) {
	if !s.ready() {
		return nil, imageres.ErrNotReady
	}
	sc := s.Scene()
	return render.Overlay(sc, s.theme), nil
}

// Export returns the current annotations.
func (s *Session) Export() annotation.Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Export()
}

// Load replaces the annotations with exp.
func (s *Session) Load(exp annotation.Export) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Load(exp); err != nil {
		return err
	}
	s.setStatus("loaded %d circles, %d clusters", len(exp.Circles), len(exp.Clusters))
	return nil
}

// Subscribe registers fn to receive the export after each mutation.
func (s *Session) Subscribe(fn annotation.Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsub := s.store.Subscribe(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsub()
	}
}

// Submit sends the image, parameters and annotations to a.
func (s *Session) Submit(ctx context.Context, a submit.Analyzer) (submit.Result, error) {
	if s.image == nil {
		return submit.Result{}, submit.ErrNoImage
	}
	if err := s.image.Wait(ctx); err != nil {
		return submit.Result{}, err
	}
	data, name, err := s.image.Bytes()
	if err != nil {
		return submit.Result{}, err
	}
	req := submit.Request{
		Image:       data,
		Filename:    name,
		Parameters:  s.params.Values(),
		Annotations: s.Export(),
	}
	res, err := a.Analyze(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setStatus("submit failed: %v", err)
		return submit.Result{}, err
	}
	s.setStatus("submitted %s: %s", name, res.ProcessedImage)
	return res, nil
}
