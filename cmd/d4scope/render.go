package main

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/example/d4scope/internal/imageres"
	"github.com/example/d4scope/internal/render"
	"github.com/example/d4scope/internal/theme"
	"github.com/example/d4scope/internal/viewport"
)

// renderCmd draws annotations over an image without opening a window.
type renderCmd struct {
	command
	src         imageSource
	annotations string
	output      string
	scale       float64
	offset      string
	shadow      bool
	format      string
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	c := &renderCmd{command: newCommand(r, "render"), src: imageSource{fileFlag: "image"}}
	fs := c.fs
	fs.StringVar(&c.src.file, "image", "", "image file to render over")
	fs.BoolVar(&c.src.fromClipboard, "from-clipboard", false, "render over the clipboard image")
	fs.StringVar(&c.src.capture, "capture", "", "render over a fresh capture: screen or root")
	fs.StringVar(&c.annotations, "annotations", "", "annotations JSON file, - for stdin")
	fs.StringVar(&c.output, "output", "", "output image file")
	fs.Float64Var(&c.scale, "scale", 1, "zoom factor")
	fs.StringVar(&c.offset, "offset", "0,0", "pan offset in screen pixels as x,y")
	fs.BoolVar(&c.shadow, "shadow", false, "add a drop shadow around the render")
	fs.StringVar(&c.format, "format", "", "png, jpeg or webp (default from the output extension)")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.src.validate(); err != nil {
		return nil, &UsageError{of: c, msg: err.Error()}
	}
	if c.annotations == "" || c.output == "" {
		return nil, &UsageError{of: c, msg: "-annotations and -output are required"}
	}
	if math.IsNaN(c.scale) || c.scale < viewport.MinScale || c.scale > viewport.MaxScale {
		return nil, fmt.Errorf("scale must be between %g and %g, got %v", viewport.MinScale, viewport.MaxScale, c.scale)
	}
	if _, _, err := parsePoint(c.offset); err != nil {
		return nil, fmt.Errorf("invalid -offset: %w", err)
	}
	if c.format != "" {
		if _, err := imageres.ParseFormat(c.format); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	res, err := c.src.open(false, 0)
	if err != nil {
		return err
	}
	img, err := res.RGBA()
	if err != nil {
		return err
	}
	exp, err := readAnnotations(c.annotations)
	if err != nil {
		return err
	}
	ox, oy, _ := parsePoint(c.offset)
	vp := viewport.Viewport{Scale: c.scale, OffsetX: ox, OffsetY: oy}
	sc := render.Scene{Image: img, Circles: exp.Circles, Clusters: exp.Clusters, Viewport: vp}

	th := theme.Default()
	if c.root != nil && c.root.activeTheme != nil {
		th = c.root.activeTheme
	}
	size := frameSize(img.Bounds().Size(), vp)
	if size.X > maxFrameEdge || size.Y > maxFrameEdge {
		return fmt.Errorf("render of %dx%d exceeds the %dpx limit; lower -scale or -offset", size.X, size.Y, maxFrameEdge)
	}
	out := render.Frame(size, sc, th)
	if c.shadow {
		out, _ = render.ApplyShadow(out, render.DefaultShadowOptions())
	}
	if err := c.write(out); err != nil {
		return err
	}
	c.root.alerts().Export(c.output)
	return nil
}

// maxFrameEdge bounds either side of a headless render.
const maxFrameEdge = 16384

// frameSize is the canvas that holds the image after zoom and pan. Sides
// past maxFrameEdge saturate so the caller can reject them before
// allocating.
func frameSize(img image.Point, vp viewport.Viewport) image.Point {
	br := vp.ToScreen(viewport.Pt(float64(img.X), float64(img.Y)))
	side := func(v float64) int {
		return int(math.Max(1, math.Min(math.Ceil(v), maxFrameEdge+1)))
	}
	return image.Pt(side(br.X), side(br.Y))
}

func (c *renderCmd) write(img image.Image) (err error) {
	if c.format == "" {
		return imageres.Save(c.output, img)
	}
	f, _ := imageres.ParseFormat(c.format)
	out, err := os.Create(c.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return imageres.Encode(out, img, f)
}
