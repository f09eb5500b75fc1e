// Package annotation owns the circles and clusters of an editing session.
//
// A Store is not safe for concurrent use; callers serialise access on the
// event loop that drives it.
package annotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/d4scope/internal/viewport"
)

var (
	// ErrNotFound is returned for ids that do not resolve to a circle or
	// cluster.
	ErrNotFound = errors.New("annotation not found")
	// ErrInsufficientSelection is returned when a cluster is requested with
	// fewer than two selected circles.
	ErrInsufficientSelection = errors.New("insufficient selection")
	// ErrInvalidRadius is returned for non-positive or non-finite radii.
	ErrInvalidRadius = errors.New("invalid radius")
)

// MinClusterSize is the smallest selection a cluster can be formed from.
const MinClusterSize = 2

// Listener receives the current annotations after every mutation.
type Listener func(Export)

// Store holds circles in insertion order, clusters, the selection set and
// the active circle and cluster.
type Store struct {
	circles       []Circle
	clusters      []Cluster
	selected      map[string]struct{}
	activeCircle  string
	activeCluster string
	newID         func() string
	listeners     []Listener
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUID based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		selected: make(map[string]struct{}),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to receive the export after each mutation. The
// returned func removes the listener.
func (s *Store) Subscribe(fn Listener) func() {
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

func (s *Store) changed() {
	if len(s.listeners) == 0 {
		return
	}
	exp := s.Export()
	for _, fn := range s.listeners {
		if fn != nil {
			fn(exp)
		}
	}
}

func (s *Store) index(id string) int {
	for i := range s.circles {
		if s.circles[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) clusterIndex(id string) int {
	for i := range s.clusters {
		if s.clusters[i].ID == id {
			return i
		}
	}
	return -1
}

// CreateCircle appends a circle at p. Unless additive is set the new circle
// replaces the selection and becomes the active circle.
func (s *Store) CreateCircle(p viewport.Point, radius float64, additive bool) (Circle, error) {
	if !validRadius(radius) {
		return Circle{}, fmt.Errorf("create circle: %w: %v", ErrInvalidRadius, radius)
	}
	c := Circle{ID: s.newID(), X: p.X, Y: p.Y, Radius: radius}
	s.circles = append(s.circles, c)
	if !additive {
		s.replaceSelection(c.ID)
		s.activeCircle = c.ID
	}
	s.changed()
	return c, nil
}

// HitTest returns the earliest created circle containing p.
func (s *Store) HitTest(p viewport.Point) (Circle, bool) {
	for _, c := range s.circles {
		if c.Contains(p) {
			return c, true
		}
	}
	return Circle{}, false
}

// Select applies a click on circle id. With additive set the circle's
// membership in the selection is toggled; otherwise it becomes the only
// selected circle and the active circle.
func (s *Store) Select(id string, additive bool) error {
	if additive {
		return s.ToggleSelect(id)
	}
	if err := s.SetSelection(id); err != nil {
		return err
	}
	s.activeCircle = id
	return nil
}

// ToggleSelect adds id to the selection or removes it if already present.
func (s *Store) ToggleSelect(id string) error {
	if s.index(id) < 0 {
		return fmt.Errorf("toggle %q: %w", id, ErrNotFound)
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	return nil
}

// SetSelection replaces the selection with ids. Every id must exist.
func (s *Store) SetSelection(ids ...string) error {
	for _, id := range ids {
		if s.index(id) < 0 {
			return fmt.Errorf("select %q: %w", id, ErrNotFound)
		}
	}
	s.replaceSelection(ids...)
	return nil
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.replaceSelection()
}

func (s *Store) replaceSelection(ids ...string) {
	s.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.selected[id] = struct{}{}
	}
}

// MoveCircle sets the centre of circle id. Positions are not clamped to the
// image.
func (s *Store) MoveCircle(id string, p viewport.Point) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("move %q: %w", id, ErrNotFound)
	}
	s.circles[i].X, s.circles[i].Y = p.X, p.Y
	s.changed()
	return nil
}

// SetRadius sets the radius of circle id. Range policy belongs to the caller.
func (s *Store) SetRadius(id string, r float64) error {
	if !validRadius(r) {
		return fmt.Errorf("set radius: %w: %v", ErrInvalidRadius, r)
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("set radius %q: %w", id, ErrNotFound)
	}
	s.circles[i].Radius = r
	s.changed()
	return nil
}

// DeleteSelected removes every selected circle from the circle list and from
// every cluster, then clears the selection and the active circle. It returns
// the number of circles removed.
func (s *Store) DeleteSelected() int {
	kept := s.circles[:0]
	removed := 0
	for _, c := range s.circles {
		if _, ok := s.selected[c.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.circles = kept
	for i := range s.clusters {
		members := s.clusters[i].Members[:0]
		for _, m := range s.clusters[i].Members {
			if _, ok := s.selected[m.ID]; !ok {
				members = append(members, m)
			}
		}
		s.clusters[i].Members = members
	}
	s.replaceSelection()
	s.activeCircle = ""
	if removed > 0 {
		s.changed()
	}
	return removed
}

// CreateCluster groups the selected circles, in circle order, into a new
// cluster. A blank name becomes "Cluster N". The selection is cleared and the
// cluster becomes active.
func (s *Store) CreateCluster(name string) (Cluster, error) {
	if len(s.selected) < MinClusterSize {
		return Cluster{}, fmt.Errorf("create cluster with %d selected: %w", len(s.selected), ErrInsufficientSelection)
	}
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Cluster %d", len(s.clusters)+1)
	}
	cl := Cluster{ID: s.newID(), Name: name}
	for _, c := range s.circles {
		if _, ok := s.selected[c.ID]; ok {
			cl.Members = append(cl.Members, c)
		}
	}
	s.clusters = append(s.clusters, cl)
	s.replaceSelection()
	s.activeCluster = cl.ID
	s.changed()
	return cl.clone(), nil
}

// RenameCluster renames cluster id in place.
func (s *Store) RenameCluster(id, name string) error {
	i := s.clusterIndex(id)
	if i < 0 {
		return fmt.Errorf("rename cluster %q: %w", id, ErrNotFound)
	}
	s.clusters[i].Name = name
	s.changed()
	return nil
}

// DeleteCluster removes cluster id. Its circles are left in place.
func (s *Store) DeleteCluster(id string) error {
	i := s.clusterIndex(id)
	if i < 0 {
		return fmt.Errorf("delete cluster %q: %w", id, ErrNotFound)
	}
	s.clusters = append(s.clusters[:i], s.clusters[i+1:]...)
	if s.activeCluster == id {
		s.activeCluster = ""
	}
	s.changed()
	return nil
}

// SetActiveCluster binds cluster id to the rename control. An empty id
// clears it.
func (s *Store) SetActiveCluster(id string) error {
	if id != "" && s.clusterIndex(id) < 0 {
		return fmt.Errorf("activate cluster %q: %w", id, ErrNotFound)
	}
	s.activeCluster = id
	return nil
}

// Circles returns a copy of the circles in insertion order.
func (s *Store) Circles() []Circle {
	return append([]Circle(nil), s.circles...)
}

// Circle looks up a circle by id.
func (s *Store) Circle(id string) (Circle, bool) {
	if i := s.index(id); i >= 0 {
		return s.circles[i], true
	}
	return Circle{}, false
}

// Clusters returns deep copies of the clusters in creation order.
func (s *Store) Clusters() []Cluster {
	out := make([]Cluster, len(s.clusters))
	for i, cl := range s.clusters {
		out[i] = cl.clone()
	}
	return out
}

// Cluster looks up a cluster by id.
func (s *Store) Cluster(id string) (Cluster, bool) {
	if i := s.clusterIndex(id); i >= 0 {
		return s.clusters[i].clone(), true
	}
	return Cluster{}, false
}

// Selection returns the selected ids in circle order.
func (s *Store) Selection() []string {
	ids := make([]string, 0, len(s.selected))
	for _, c := range s.circles {
		if _, ok := s.selected[c.ID]; ok {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// SelectionLen returns the number of selected circles.
func (s *Store) SelectionLen() int {
	return len(s.selected)
}

// IsSelected reports whether circle id is selected.
func (s *Store) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// ActiveCircle returns the circle bound to the radius control.
func (s *Store) ActiveCircle() (Circle, bool) {
	if s.activeCircle == "" {
		return Circle{}, false
	}
	return s.Circle(s.activeCircle)
}

// ActiveCluster returns the cluster bound to the rename control.
func (s *Store) ActiveCluster() (Cluster, bool) {
	if s.activeCluster == "" {
		return Cluster{}, false
	}
	return s.Cluster(s.activeCluster)
}

// Export returns a copy of the current circles and clusters.
func (s *Store) Export() Export {
	return Export{Circles: s.Circles(), Clusters: s.Clusters()}
}

// Load replaces the store contents with exp. Selection and active state are
// cleared.
func (s *Store) Load(exp Export) error {
	if err := exp.Validate(); err != nil {
		return err
	}
	s.circles = append([]Circle(nil), exp.Circles...)
	s.clusters = make([]Cluster, len(exp.Clusters))
	for i, cl := range exp.Clusters {
		s.clusters[i] = cl.clone()
	}
	s.replaceSelection()
	s.activeCircle = ""
	s.activeCluster = ""
	s.changed()
	return nil
}
