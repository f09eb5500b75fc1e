// Package capture grabs the desktop as the image to annotate.
package capture

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"time"

	"github.com/example/d4scope/internal/imageres"
)

// Source picks where a capture comes from.
type Source string

const (
	// SourceScreen asks the desktop portal and falls back to the X11 root
	// window when the portal is unavailable.
	SourceScreen Source = "screen"
	// SourceRoot reads the X11 root window directly.
	SourceRoot Source = "root"
)

// ParseSource validates a -capture flag value.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceScreen:
		return SourceScreen, nil
	case SourceRoot:
		return SourceRoot, nil
	}
	return "", fmt.Errorf("unknown capture source %q (want screen or root)", s)
}

// Options tunes a capture.
type Options struct {
	IncludeCursor bool
	// Interactive lets the portal ask the user for a region. It disables the
	// root window fallback.
	Interactive bool
	// Region crops the result when non-empty.
	Region image.Rectangle
}

var (
	portalScreenshotFn = portalScreenshot
	rootScreenshotFn   = rootScreenshot
	now                = time.Now
)

// Screenshot captures from src.
func Screenshot(src Source, opts Options) (*image.RGBA, error) {
	var (
		img *image.RGBA
		err error
	)
	switch src {
	case SourceRoot:
		img, err = rootScreenshotFn()
	case SourceScreen, "":
		img, err = screen(opts)
	default:
		return nil, fmt.Errorf("unknown capture source %q", src)
	}
	if err != nil {
		return nil, err
	}
	if opts.Region.Empty() {
		return img, nil
	}
	return cropToRect(img, opts.Region)
}

func screen(opts Options) (*image.RGBA, error) {
	img, err := portalScreenshotFn(opts)
	if err == nil || opts.Interactive || !isPortalUnsupportedError(err) {
		return img, err
	}
	img, rootErr := rootScreenshotFn()
	if rootErr != nil {
		return nil, fmt.Errorf("portal screenshot: %v; root window fallback: %w", err, rootErr)
	}
	return img, nil
}

// Resource captures from src and wraps the pixels as a ready image named
// after the capture time.
func Resource(src Source, opts Options) (*imageres.Resource, error) {
	img, err := Screenshot(src, opts)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("capture-%s.png", now().Format("20060102-150405"))
	return imageres.FromImage(name, img), nil
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
