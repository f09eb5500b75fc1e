// Package imageres loads the image being annotated and reports when it is
// ready to draw.
package imageres

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotReady is returned by accessors called before loading finished.
var ErrNotReady = errors.New("image not ready")

// Resource is an image that may still be loading. The zero value is an
// empty resource that never becomes ready.
type Resource struct {
	mu    sync.RWMutex
	name  string
	img   *image.RGBA
	err   error
	data  []byte
	ready chan struct{}
}

// New returns a pending resource named name.
func New(name string) *Resource {
	return &Resource{name: name, ready: make(chan struct{})}
}

// FromImage returns a resource that is already ready.
func FromImage(name string, img image.Image) *Resource {
	r := New(name)
	r.finish(ToRGBA(img), nil, nil)
	return r
}

// Open decodes path synchronously, honouring EXIF orientation.
func Open(path string) (*Resource, error) {
	r := New(filepath.Base(path))
	r.load(func() (image.Image, []byte, error) { return openFile(path) })
	if err := r.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadAsync starts decoding path in the background and returns immediately.
func LoadAsync(path string) *Resource {
	r := New(filepath.Base(path))
	go r.load(func() (image.Image, []byte, error) { return openFile(path) })
	return r
}

// Decode reads an image from rd synchronously.
func Decode(name string, rd io.Reader) (*Resource, error) {
	r := New(name)
	r.load(func() (image.Image, []byte, error) {
		data, err := io.ReadAll(rd)
		if err != nil {
			return nil, nil, err
		}
		img, err := decodeBytes(data)
		return img, data, err
	})
	if err := r.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resource) load(fn func() (image.Image, []byte, error)) {
	img, data, err := fn()
	if err != nil {
		r.finish(nil, nil, fmt.Errorf("load %s: %w", r.name, err))
		return
	}
	r.finish(ToRGBA(img), data, nil)
}

func (r *Resource) finish(img *image.RGBA, data []byte, err error) {
	r.mu.Lock()
	r.img, r.data, r.err = img, data, err
	r.mu.Unlock()
	close(r.ready)
}

// Name returns the file name the resource was loaded from.
func (r *Resource) Name() string { return r.name }

// Ready reports whether loading has finished successfully.
func (r *Resource) Ready() bool {
	if r == nil || r.ready == nil {
		return false
	}
	select {
	case <-r.ready:
		return r.Err() == nil
	default:
		return false
	}
}

// Done is closed once loading finished, successfully or not.
func (r *Resource) Done() <-chan struct{} { return r.ready }

// Wait blocks until loading finished or ctx is done.
func (r *Resource) Wait(ctx context.Context) error {
	select {
	case <-r.ready:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the load error, if any.
func (r *Resource) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// RGBA returns the decoded pixels.
func (r *Resource) RGBA() (*image.RGBA, error) {
	if !r.Ready() {
		return nil, ErrNotReady
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.img, nil
}

// Size reports the image dimensions.
func (r *Resource) Size() (image.Point, error) {
	img, err := r.RGBA()
	if err != nil {
		return image.Point{}, err
	}
	return img.Bounds().Size(), nil
}

// Bytes returns the original encoded file contents when the resource was
// read from a file or stream. Otherwise the image is encoded as PNG.
func (r *Resource) Bytes() ([]byte, string, error) {
	img, err := r.RGBA()
	if err != nil {
		return nil, "", err
	}
	r.mu.RLock()
	data := r.data
	r.mu.RUnlock()
	if len(data) > 0 {
		return data, r.name, nil
	}
	enc, err := EncodeBytes(img, FormatPNG)
	if err != nil {
		return nil, "", err
	}
	name := r.name
	if filepath.Ext(name) != ".png" {
		name += ".png"
	}
	return enc, name, nil
}

// ToRGBA converts img to a zero-origin *image.RGBA, copying when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Fit scales img down so its longer edge is at most maxEdge. Smaller
// images are returned unchanged.
func Fit(img image.Image, maxEdge int) *image.RGBA {
	b := img.Bounds()
	if maxEdge <= 0 || (b.Dx() <= maxEdge && b.Dy() <= maxEdge) {
		return ToRGBA(img)
	}
	return ToRGBA(imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos))
}
