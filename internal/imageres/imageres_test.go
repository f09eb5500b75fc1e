package imageres

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sample() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func TestPendingIsNotReady(t *testing.T) {
	r := New("x.png")
	if r.Ready() {
		t.Fatal("pending resource reports ready")
	}
	if _, err := r.Size(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Size err = %v", err)
	}
	var zero Resource
	if zero.Ready() {
		t.Fatal("zero resource reports ready")
	}
}

func TestLoadAsync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	if err := Save(path, sample()); err != nil {
		t.Fatal(err)
	}
	r := LoadAsync(path)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	size, err := r.Size()
	if err != nil || size != image.Pt(6, 4) {
		t.Fatalf("Size = %v, %v", size, err)
	}
	data, name, err := r.Bytes()
	if err != nil || name != "in.png" || len(data) == 0 {
		t.Fatalf("Bytes = %d, %q, %v", len(data), name, err)
	}
}

func TestLoadAsyncMissingFile(t *testing.T) {
	r := LoadAsync(filepath.Join(t.TempDir(), "missing.png"))
	if err := r.Wait(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
	if r.Ready() {
		t.Fatal("failed resource reports ready")
	}
}

func TestEncodeDecodeFormats(t *testing.T) {
	for _, f := range []Format{FormatPNG, FormatJPEG, FormatWebP} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, sample(), f); err != nil {
				t.Fatal(err)
			}
			r, err := Decode("img", &buf)
			if err != nil {
				t.Fatal(err)
			}
			if size, _ := r.Size(); size != image.Pt(6, 4) {
				t.Fatalf("size = %v", size)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{"a.JPG": FormatJPEG, "b.webp": FormatWebP, "c.png": FormatPNG, "d": FormatPNG}
	for in, want := range cases {
		if got := FormatFromPath(in); got != want {
			t.Errorf("FormatFromPath(%q) = %q", in, got)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("gif accepted")
	}
}

func TestToRGBARebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(3, 3, 7, 7))
	src.Set(3, 3, color.RGBA{G: 255, A: 255})
	out := ToRGBA(src)
	if out.Bounds().Min != (image.Point{}) || out.RGBAAt(0, 0).G != 255 {
		t.Fatalf("rebased = %v %v", out.Bounds(), out.RGBAAt(0, 0))
	}
}

func TestFit(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, 400, 200))
	if got := Fit(big, 100).Bounds().Size(); got != image.Pt(100, 50) {
		t.Fatalf("Fit size = %v", got)
	}
	if got := Fit(sample(), 100).Bounds().Size(); got != image.Pt(6, 4) {
		t.Fatalf("small image resized to %v", got)
	}
}
