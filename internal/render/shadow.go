package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ShadowOptions configures the drop shadow placed behind exported renders.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions returns a soft shadow offset down and to the right.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  24,
		Offset:  image.Pt(16, 16),
		Opacity: 0.55,
	}
}

// ApplyShadow composites img over a blurred silhouette of itself. The result
// has a zero origin and is large enough to hold both the image and the
// shadow; the returned point is where img's top-left corner landed.
func ApplyShadow(img *image.RGBA, opts ShadowOptions) (*image.RGBA, image.Point) {
	if img == nil || img.Bounds().Empty() || opts.Opacity <= 0 {
		return img, image.Point{}
	}
	opacity := min(opts.Opacity, 1)
	radius := max(opts.Radius, 0)

	src := img.Bounds()
	padded := src.Inset(-radius)
	shadow := padded.Add(opts.Offset)
	canvas := src.Union(shadow)
	if canvas.Empty() {
		return img, image.Point{}
	}

	// Silhouette of the alpha channel on the padded canvas, then blurred.
	sil := image.NewNRGBA(padded.Sub(padded.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			a := img.RGBAAt(x, y).A
			if a == 0 {
				continue
			}
			sil.SetNRGBA(x-padded.Min.X, y-padded.Min.Y, color.NRGBA{A: uint8(float64(a)*opacity + 0.5)})
		}
	}
	var blurred image.Image = sil
	if radius > 0 {
		blurred = imaging.Blur(sil, float64(radius)/2)
	}

	dst := image.NewRGBA(canvas.Sub(canvas.Min))
	draw.Draw(dst, blurred.Bounds().Add(shadow.Min.Sub(canvas.Min)), blurred, blurred.Bounds().Min, draw.Over)
	at := src.Min.Sub(canvas.Min)
	draw.Draw(dst, src.Sub(canvas.Min), img, src.Min, draw.Over)
	return dst, at
}
