package annotation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/d4scope/internal/viewport"
)

func seqIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func mustCircle(t *testing.T, s *Store, x, y, r float64, additive bool) Circle {
	t.Helper()
	c, err := s.CreateCircle(viewport.Pt(x, y), r, additive)
	if err != nil {
		t.Fatalf("CreateCircle: %v", err)
	}
	return c
}

func TestCreateCircleSelectsUnlessAdditive(t *testing.T) {
	s := New(seqIDs())
	a := mustCircle(t, s, 10, 10, 5, false)
	if !s.IsSelected(a.ID) || s.SelectionLen() != 1 {
		t.Fatalf("new circle not sole selection: %v", s.Selection())
	}
	if ac, ok := s.ActiveCircle(); !ok || ac.ID != a.ID {
		t.Fatalf("active circle = %v, %v", ac, ok)
	}
	b := mustCircle(t, s, 50, 50, 5, true)
	if s.IsSelected(b.ID) {
		t.Fatalf("additive creation changed selection")
	}
	if !s.IsSelected(a.ID) {
		t.Fatalf("additive creation dropped existing selection")
	}
}

func TestCreateCircleRejectsBadRadius(t *testing.T) {
	s := New()
	for _, r := range []float64{0, -2} {
		if _, err := s.CreateCircle(viewport.Pt(0, 0), r, false); !errors.Is(err, ErrInvalidRadius) {
			t.Errorf("radius %v: err = %v", r, err)
		}
	}
	if len(s.Circles()) != 0 {
		t.Fatalf("circles created on error")
	}
}

func TestUniqueIDs(t *testing.T) {
	s := New()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		c := mustCircle(t, s, float64(i), 0, 1, true)
		if seen[c.ID] {
			t.Fatalf("duplicate id %q", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestHitTestFirstMatch(t *testing.T) {
	s := New(seqIDs())
	a := mustCircle(t, s, 0, 0, 10, false)
	mustCircle(t, s, 5, 0, 10, false)
	got, ok := s.HitTest(viewport.Pt(3, 0))
	if !ok || got.ID != a.ID {
		t.Fatalf("HitTest = %v, %v; want %s", got, ok, a.ID)
	}
	if _, ok := s.HitTest(viewport.Pt(100, 100)); ok {
		t.Fatalf("hit on empty space")
	}
	if _, ok := s.HitTest(viewport.Pt(10, 0)); !ok {
		t.Fatalf("boundary point not a hit")
	}
}

func TestToggleSelectIsInvolution(t *testing.T) {
	s := New(seqIDs())
	a := mustCircle(t, s, 0, 0, 1, false)
	b := mustCircle(t, s, 10, 0, 1, true)
	before := fmt.Sprint(s.Selection())
	for i := 0; i < 2; i++ {
		if err := s.Select(b.ID, true); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	if after := fmt.Sprint(s.Selection()); after != before {
		t.Fatalf("selection %s, want %s", after, before)
	}
	if !s.IsSelected(a.ID) {
		t.Fatalf("lost %s", a.ID)
	}
}

func TestSelectReplaces(t *testing.T) {
	s := New(seqIDs())
	a := mustCircle(t, s, 0, 0, 1, false)
	b := mustCircle(t, s, 10, 0, 1, true)
	if err := s.Select(b.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := s.Select(a.ID, false); err != nil {
		t.Fatal(err)
	}
	if got := s.Selection(); len(got) != 1 || got[0] != a.ID {
		t.Fatalf("selection = %v", got)
	}
}

func TestStaleIDsAreNotFound(t *testing.T) {
	s := New()
	checks := map[string]error{
		"toggle": s.ToggleSelect("gone"),
		"select": s.SetSelection("gone"),
		"move":   s.MoveCircle("gone", viewport.Pt(1, 1)),
		"radius": s.SetRadius("gone", 3),
		"rename": s.RenameCluster("gone", "x"),
		"delete": s.DeleteCluster("gone"),
		"active": s.SetActiveCluster("gone"),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestMoveAndRadius(t *testing.T) {
	s := New()
	c := mustCircle(t, s, 1, 1, 5, false)
	if err := s.MoveCircle(c.ID, viewport.Pt(-20, 3000)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRadius(c.ID, 12.5); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRadius(c.ID, 0); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("SetRadius(0) err = %v", err)
	}
	got, _ := s.Circle(c.ID)
	if got.X != -20 || got.Y != 3000 || got.Radius != 12.5 {
		t.Fatalf("circle = %+v", got)
	}
}

func TestCreateClusterNeedsTwo(t *testing.T) {
	s := New()
	mustCircle(t, s, 0, 0, 5, false)
	if _, err := s.CreateCluster("X"); !errors.Is(err, ErrInsufficientSelection) {
		t.Fatalf("err = %v", err)
	}
	if len(s.Clusters()) != 0 {
		t.Fatalf("cluster created")
	}
}

func TestCreateClusterSnapshot(t *testing.T) {
	s := New(seqIDs())
	a := mustCircle(t, s, 0, 0, 5, false)
	b := mustCircle(t, s, 30, 0, 5, true)
	if err := s.ToggleSelect(b.ID); err != nil {
		t.Fatal(err)
	}
	cl, err := s.CreateCluster("")
	if err != nil {
		t.Fatal(err)
	}
	if cl.Name != "Cluster 1" {
		t.Fatalf("name = %q", cl.Name)
	}
	if s.SelectionLen() != 0 {
		t.Fatalf("selection not cleared")
	}
	if act, ok := s.ActiveCluster(); !ok || act.ID != cl.ID {
		t.Fatalf("active cluster = %v", act)
	}
	if err := s.MoveCircle(a.ID, viewport.Pt(99, 99)); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Cluster(cl.ID)
	if got.Members[0].X != 0 || got.Members[0].Y != 0 {
		t.Fatalf("member followed move: %+v", got.Members[0])
	}
}

func TestScenario(t *testing.T) {
	s := New()
	first := mustCircle(t, s, 100, 100, 5, false)
	if n := len(s.Circles()); n != 1 || first.Radius != 5 || first.ID == "" {
		t.Fatalf("circles = %v", s.Circles())
	}
	hit, ok := s.HitTest(viewport.Pt(101, 101))
	if !ok || hit.ID != first.ID {
		t.Fatalf("hit = %v, %v", hit, ok)
	}
	second := mustCircle(t, s, 200, 200, 5, false)
	if err := s.Select(first.ID, true); err != nil {
		t.Fatal(err)
	}
	cl, err := s.CreateCluster("X")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Clusters()) != 1 || len(cl.Members) != 2 || cl.Name != "X" {
		t.Fatalf("cluster = %+v", cl)
	}
	if err := s.SetSelection(second.ID); err != nil {
		t.Fatal(err)
	}
	if n := s.DeleteSelected(); n != 1 {
		t.Fatalf("deleted %d", n)
	}
	if len(s.Circles()) != 1 {
		t.Fatalf("circles = %v", s.Circles())
	}
	got, _ := s.Cluster(cl.ID)
	if len(got.Members) != 1 || got.Has(second.ID) {
		t.Fatalf("members = %v", got.Members)
	}
	if _, ok := s.ActiveCircle(); ok {
		t.Fatalf("active circle survived delete")
	}
}

func TestRenameAndDeleteCluster(t *testing.T) {
	s := New(seqIDs())
	a := mustCircle(t, s, 0, 0, 5, false)
	b := mustCircle(t, s, 20, 0, 5, true)
	if err := s.SetSelection(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	cl, err := s.CreateCluster("first")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RenameCluster(cl.ID, "renamed"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Cluster(cl.ID); got.Name != "renamed" {
		t.Fatalf("name = %q", got.Name)
	}
	if err := s.DeleteCluster(cl.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.Clusters()) != 0 || len(s.Circles()) != 2 {
		t.Fatalf("after delete: %d clusters, %d circles", len(s.Clusters()), len(s.Circles()))
	}
	if _, ok := s.ActiveCluster(); ok {
		t.Fatalf("active cluster survived delete")
	}
}

func TestSubscribe(t *testing.T) {
	s := New()
	var got []Export
	stop := s.Subscribe(func(e Export) { got = append(got, e) })
	c := mustCircle(t, s, 0, 0, 5, false)
	if err := s.MoveCircle(c.ID, viewport.Pt(1, 1)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("notified %d times", len(got))
	}
	if got[1].Circles[0].X != 1 {
		t.Fatalf("export not current: %+v", got[1])
	}
	got[1].Circles[0].X = 500
	if cur, _ := s.Circle(c.ID); cur.X != 1 {
		t.Fatalf("export aliases store")
	}
	stop()
	s.DeleteSelected()
	if len(got) != 2 {
		t.Fatalf("notified after unsubscribe")
	}
}

func TestLoadClearsSelection(t *testing.T) {
	s := New()
	mustCircle(t, s, 0, 0, 5, false)
	exp := Export{Circles: []Circle{{ID: "a", X: 1, Y: 2, Radius: 3}}}
	if err := s.Load(exp); err != nil {
		t.Fatal(err)
	}
	if s.SelectionLen() != 0 || len(s.Circles()) != 1 {
		t.Fatalf("load state: %v %v", s.Selection(), s.Circles())
	}
	bad := Export{Circles: []Circle{{ID: "a", Radius: 1}, {ID: "a", Radius: 1}}}
	if err := s.Load(bad); err == nil {
		t.Fatalf("duplicate ids accepted")
	}
}

func TestLoadRejectsOrphanMembers(t *testing.T) {
	s := New()
	orphan := Export{Clusters: []Cluster{{ID: "k", Name: "ghosts", Members: []Circle{
		{ID: "ghost", X: 9, Y: 9, Radius: -3},
		{ID: "ghost", X: 9, Y: 9, Radius: 0},
	}}}}
	if err := s.Load(orphan); err == nil {
		t.Fatal("orphan members accepted")
	}
	if len(s.Clusters()) != 0 {
		t.Fatalf("rejected load changed the store: %v", s.Clusters())
	}

	ok := Export{
		Circles:  []Circle{{ID: "a", X: 1, Y: 1, Radius: 2}, {ID: "b", X: 9, Y: 9, Radius: 2}},
		Clusters: []Cluster{{ID: "k", Name: "pair", Members: []Circle{{ID: "a", X: 1, Y: 1, Radius: 2}, {ID: "b", X: 9, Y: 9, Radius: 2}}}},
	}
	if err := s.Load(ok); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSelection("a", "b"); err != nil {
		t.Fatal(err)
	}
	s.DeleteSelected()
	cl, found := s.Cluster("k")
	if !found || len(cl.Members) != 0 || len(s.Circles()) != 0 {
		t.Fatalf("after delete: cluster %+v, circles %v", cl, s.Circles())
	}
}
