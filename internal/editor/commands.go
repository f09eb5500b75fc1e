package editor

import (
	"errors"

	"github.com/example/d4scope/internal/annotation"
)

// DeleteSelected removes the selected circles and reports how many went.
func (s *Session) DeleteSelected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.store.DeleteSelected()
	if n > 0 {
		s.setStatus("deleted %d circles", n)
	}
	return n
}

// CreateCluster groups the selection. With fewer than two selected circles
// it does nothing and returns false.
func (s *Session) CreateCluster(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, err := s.store.CreateCluster(name)
	if errors.Is(err, annotation.ErrInsufficientSelection) {
		s.setStatus("select at least %d circles to cluster", annotation.MinClusterSize)
		return false
	}
	if err != nil {
		s.setStatus("cluster: %v", err)
		return false
	}
	s.setStatus("created %s with %d circles", cl.Name, len(cl.Members))
	return true
}

// ActiveRadius returns the active circle's radius.
func (s *Session) ActiveRadius() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.store.ActiveCircle()
	return c.Radius, ok
}

// SetActiveRadius clamps v to the configured range, snaps it to the radius
// step and applies it to the active circle. It returns the applied radius.
func (s *Session) SetActiveRadius(v float64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setActiveRadius(v)
}

func (s *Session) setActiveRadius(v float64) (float64, bool) {
	c, ok := s.store.ActiveCircle()
	if !ok {
		return 0, false
	}
	r := s.radius.Clamp(v)
	if err := s.store.SetRadius(c.ID, r); err != nil {
		s.setStatus("radius: %v", err)
		return 0, false
	}
	return r, true
}

// NudgeActiveRadius grows or shrinks the active circle by steps radius
// steps.
func (s *Session) NudgeActiveRadius(steps int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.store.ActiveCircle()
	if !ok {
		return 0, false
	}
	step := s.radius.Step
	if step <= 0 {
		step = 1
	}
	return s.setActiveRadius(c.Radius + float64(steps)*step)
}

// ActiveClusterName returns the name bound to the rename control.
func (s *Session) ActiveClusterName() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.store.ActiveCluster()
	return cl.Name, ok
}

// RenameActiveCluster renames the active cluster. It returns false when no
// cluster is active.
func (s *Session) RenameActiveCluster(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.store.ActiveCluster()
	if !ok {
		return false
	}
	if err := s.store.RenameCluster(cl.ID, name); err != nil {
		s.setStatus("rename: %v", err)
		return false
	}
	return true
}

// ResetZoom restores scale 1 and keeps the pan.
func (s *Session) ResetZoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Reset()
}

// ResetPan restores the zero offset and keeps the zoom.
func (s *Session) ResetPan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.ResetPan()
}

// ZoomIn applies one wheel-up step.
func (s *Session) ZoomIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Zoom(s.zoomIn)
}

// ZoomOut applies one wheel-down step.
func (s *Session) ZoomOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Zoom(s.zoomOut)
}
