//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/example/d4scope/internal/annotation"
)

func resetInit() {
	initOnce = sync.Once{}
	initErr = nil
}

func TestEnsureInitWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	resetInit()
	t.Cleanup(resetInit)

	if err := WriteText("hello world"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WriteText: expected errNoDisplay, got %v", err)
	}
	if err := WriteAnnotations(annotation.Export{}); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WriteAnnotations: expected errNoDisplay, got %v", err)
	}
	if err := WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WriteImage: expected errNoDisplay, got %v", err)
	}
	if _, err := ReadAnnotations(); !errors.Is(err, errNoDisplay) {
		t.Fatalf("ReadAnnotations: expected errNoDisplay, got %v", err)
	}
	if _, err := ReadImage(); !errors.Is(err, errNoDisplay) {
		t.Fatalf("ReadImage: expected errNoDisplay, got %v", err)
	}
}
