package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/mobile/event/key"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/editor"
	"github.com/example/d4scope/internal/imageres"
	"github.com/example/d4scope/internal/interact"
	"github.com/example/d4scope/internal/submit"
	"github.com/example/d4scope/internal/theme"
	"github.com/example/d4scope/internal/viewport"
)

func newApp(t *testing.T, opts ...Option) *AppState {
	t.Helper()
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
	img := imageres.FromImage("cells.png", image.NewRGBA(image.Rect(0, 0, 64, 48)))
	sess := editor.New(img, editor.Options{IDs: ids, Logf: func(string, ...any) {}})
	return New(sess, opts...)
}

func press(r rune) key.Event {
	return key.Event{Rune: r, Direction: key.DirPress}
}

func pressCode(c key.Code) key.Event {
	return key.Event{Rune: -1, Code: c, Direction: key.DirPress}
}

func click(a *AppState, x, y float64, shift bool) {
	p := viewport.Pt(x, y)
	a.Session.HandleEvent(interact.Event{Kind: interact.PointerDown, Pos: p})
	a.Session.HandleEvent(interact.Event{Kind: interact.PointerUp, Pos: p, Shift: shift})
}

func TestShortcutOf(t *testing.T) {
	cases := []struct {
		in   key.Event
		want KeyShortcut
	}{
		{key.Event{Rune: 'Y', Modifiers: key.ModShift}, KeyShortcut{Rune: 'Y'}},
		{key.Event{Rune: 'C', Modifiers: key.ModControl | key.ModShift}, KeyShortcut{Rune: 'c', Modifiers: key.ModControl}},
		{key.Event{Rune: -1, Code: key.CodeDeleteForward}, KeyShortcut{Code: key.CodeDeleteForward}},
	}
	for _, c := range cases {
		if got := shortcutOf(c.in); got != c.want {
			t.Errorf("shortcutOf(%+v) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestKeysDriveSession(t *testing.T) {
	a := newApp(t)
	click(a, 10, 10, false)

	a.HandleKey(press(']'))
	if r, _ := a.Session.ActiveRadius(); r != 5.5 {
		t.Fatalf("radius after ] = %v", r)
	}
	a.HandleKey(press('['))
	a.HandleKey(press('['))
	if r, _ := a.Session.ActiveRadius(); r != 4.5 {
		t.Fatalf("radius after [[ = %v", r)
	}

	a.HandleKey(press('+'))
	a.HandleKey(press('+'))
	if v := a.Session.Viewport(); v.Scale <= 1.2 {
		t.Fatalf("scale = %v", v.Scale)
	}
	a.HandleKey(press('0'))
	if v := a.Session.Viewport(); v.Scale != 1 {
		t.Fatalf("scale after reset = %v", v.Scale)
	}

	a.HandleKey(pressCode(key.CodeDeleteForward))
	if n := len(a.Session.Export().Circles); n != 0 {
		t.Fatalf("circles after delete = %d", n)
	}
}

func TestClusterAndRename(t *testing.T) {
	a := newApp(t)
	click(a, 10, 10, false)
	click(a, 30, 30, true)
	click(a, 30, 30, true)
	a.HandleKey(press('c'))
	if name, ok := a.Session.ActiveClusterName(); !ok || name != "Cluster 1" {
		t.Fatalf("cluster = %q, %v", name, ok)
	}

	a.HandleKey(press('n'))
	if !strings.HasPrefix(a.statusLine(), "rename cluster: Cluster 1") {
		t.Fatalf("status = %q", a.statusLine())
	}
	for range "Cluster 1" {
		a.HandleKey(pressCode(key.CodeDeleteBackspace))
	}
	for _, r := range "wells" {
		a.HandleKey(press(r))
	}
	// q is text while renaming
	if a.HandleKey(press('q')) {
		t.Fatal("quit while renaming")
	}
	a.HandleKey(pressCode(key.CodeReturnEnter))
	if name, _ := a.Session.ActiveClusterName(); name != "wellsq" {
		t.Fatalf("renamed to %q", name)
	}

	a.HandleKey(press('n'))
	a.HandleKey(press('x'))
	a.HandleKey(pressCode(key.CodeEscape))
	if name, _ := a.Session.ActiveClusterName(); name != "wellsq" {
		t.Fatalf("cancelled rename applied: %q", name)
	}
}

func TestQuit(t *testing.T) {
	a := newApp(t)
	if a.HandleKey(key.Event{Rune: 'q', Direction: key.DirRelease}) {
		t.Fatal("release quit")
	}
	if !a.HandleKey(pressCode(key.CodeEscape)) {
		t.Fatal("escape did not quit")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sub", "annotations.json")
	overlay := filepath.Join(dir, "overlay.png")
	a := newApp(t, WithOutput(out), WithRenderOutput(overlay))
	click(a, 10, 10, false)
	a.HandleKey(press('e'))

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	exp, err := annotation.Decode(f)
	if err != nil || len(exp.Circles) != 1 {
		t.Fatalf("export = %+v, %v", exp, err)
	}
	res, err := imageres.Open(overlay)
	if err != nil {
		t.Fatalf("open overlay: %v", err)
	}
	if sz, _ := res.Size(); sz != image.Pt(64, 48) {
		t.Errorf("overlay size = %v", sz)
	}

	if err := newApp(t).Export(); err == nil {
		t.Error("export without paths succeeded")
	}
}

type fakeAnalyzer struct{ called chan submit.Request }

func (f fakeAnalyzer) Analyze(ctx context.Context, req submit.Request) (submit.Result, error) {
	f.called <- req
	return submit.Result{}, errors.New("offline")
}

func TestSubmitKey(t *testing.T) {
	an := fakeAnalyzer{called: make(chan submit.Request, 1)}
	a := newApp(t, WithAnalyzer(an))
	click(a, 10, 10, false)
	a.HandleKey(press('s'))
	a.Wait()
	req := <-an.called
	if req.Filename != "cells.png" || len(req.Annotations.Circles) != 1 {
		t.Fatalf("request = %q %+v", req.Filename, req.Annotations)
	}
	if !strings.Contains(a.statusLine(), "offline") {
		t.Errorf("status = %q", a.statusLine())
	}
}

func TestWindowSize(t *testing.T) {
	cases := map[image.Point]image.Point{
		image.Pt(100, 100):   image.Pt(minWidth, minHeight+statusHeight),
		image.Pt(800, 600):   image.Pt(800, 600+statusHeight),
		image.Pt(4000, 3000): image.Pt(maxWidth, maxHeight+statusHeight),
	}
	for in, want := range cases {
		if got := windowSize(in); got != want {
			t.Errorf("windowSize(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestDrawStatusBar(t *testing.T) {
	th := theme.Default()
	dst := image.NewRGBA(image.Rect(0, 0, 200, 40))
	r := image.Rect(0, 18, 200, 40)
	drawStatusBar(dst, r, "", th)
	if got := dst.RGBAAt(100, 30); got != th.StatusBackground {
		t.Errorf("status pixel = %v", got)
	}
	if got := dst.RGBAAt(100, 5); got.A != 0 {
		t.Errorf("canvas touched: %v", got)
	}
}
