// Package render draws the image and its annotations under a viewport.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"sync"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/stat"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/theme"
	"github.com/example/d4scope/internal/viewport"
)

const (
	lineWidth       = 2
	activeLineWidth = 3
	labelSize       = 12
	checkerSize     = 8
)

// Scene is everything the renderer reads. Image is nil while the image
// resource is still loading.
type Scene struct {
	Image        image.Image
	Circles      []annotation.Circle
	Clusters     []annotation.Cluster
	Selected     map[string]bool
	ActiveCircle string
	Viewport     viewport.Viewport
}

var (
	labelOnce sync.Once
	labelFace font.Face
)

func face() font.Face {
	labelOnce.Do(func() {
		labelFace = basicfont.Face7x13
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			log.Printf("parse font: %v", err)
			return
		}
		fc, err := opentype.NewFace(f, &opentype.FaceOptions{Size: labelSize, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			log.Printf("font face: %v", err)
			return
		}
		labelFace = fc
	})
	return labelFace
}

// Draw paints sc onto dst with the viewport origin at dst.Bounds().Min, so
// dst may be a sub-image of a larger canvas. It never mutates the scene.
func Draw(dst *image.RGBA, sc Scene, th *theme.Theme) {
	if th == nil {
		th = theme.Default()
	}
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(th.Background), image.Point{}, draw.Src)
	if sc.Image == nil {
		drawText(dst, "loading…", b.Min.X+8, b.Min.Y+20, th.Foreground)
		return
	}
	vp := sc.Viewport
	ib := sc.Image.Bounds()
	r := screenRect(vp, ib).Add(b.Min)
	drawCheckerboard(dst, r.Intersect(b), checkerSize, th.CheckerLight, th.CheckerDark)
	xdraw.NearestNeighbor.Scale(dst, r, sc.Image, ib, draw.Over, nil)

	drawOverlays(dst, sc, th)

	for _, cl := range sc.Clusters {
		if len(cl.Members) < annotation.MinClusterSize {
			continue
		}
		c := vp.ToScreen(Centroid(cl))
		drawText(dst, cl.Name, b.Min.X+int(math.Round(c.X)), b.Min.Y+int(math.Round(c.Y)), th.ClusterLabel)
	}
}

// Frame allocates a size canvas and draws sc onto it.
func Frame(size image.Point, sc Scene, th *theme.Theme) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	Draw(dst, sc, th)
	return dst
}

// Overlay renders sc at scale 1 without pan on a canvas the size of the
// image. It returns nil when the scene has no image.
func Overlay(sc Scene, th *theme.Theme) *image.RGBA {
	if sc.Image == nil {
		return nil
	}
	sc.Viewport = viewport.New()
	return Frame(sc.Image.Bounds().Size(), sc, th)
}

// Centroid returns the mean member position of cl in image space.
func Centroid(cl annotation.Cluster) viewport.Point {
	xs := make([]float64, len(cl.Members))
	ys := make([]float64, len(cl.Members))
	for i, m := range cl.Members {
		xs[i], ys[i] = m.X, m.Y
	}
	return viewport.Pt(stat.Mean(xs, nil), stat.Mean(ys, nil))
}

func screenRect(vp viewport.Viewport, ib image.Rectangle) image.Rectangle {
	tl := vp.ToScreen(viewport.Pt(0, 0))
	br := vp.ToScreen(viewport.Pt(float64(ib.Dx()), float64(ib.Dy())))
	return image.Rect(
		int(math.Floor(tl.X)), int(math.Floor(tl.Y)),
		int(math.Ceil(br.X)), int(math.Ceil(br.Y)),
	)
}

func drawOverlays(dst *image.RGBA, sc Scene, th *theme.Theme) {
	if len(sc.Circles) == 0 && len(sc.Clusters) == 0 {
		return
	}
	b := dst.Bounds()
	canvas := dst
	if b.Min != (image.Point{}) {
		canvas = image.NewRGBA(image.Rectangle{Max: b.Size()})
		draw.Draw(canvas, canvas.Bounds(), dst, b.Min, draw.Src)
	}
	gc := gg.NewContextForImage(canvas)
	defer func() {
		if err := gc.Close(); err != nil {
			log.Printf("close overlay context: %v", err)
		}
	}()
	vp := sc.Viewport

	for _, c := range sc.Circles {
		p := vp.ToScreen(c.Center())
		stroke, fill := th.Circle, th.CircleFill
		if sc.Selected[c.ID] {
			stroke, fill = th.CircleSelected, th.CircleSelectedFill
		}
		w := float64(lineWidth)
		if c.ID == sc.ActiveCircle {
			w = activeLineWidth
		}
		gc.DrawCircle(p.X, p.Y, math.Max(c.Radius*vp.Scale, 1))
		setColor(gc, stroke)
		gc.SetLineWidth(w)
		if err := gc.StrokePreserve(); err != nil {
			log.Printf("stroke circle %s: %v", c.ID, err)
		}
		setColor(gc, fill)
		if err := gc.Fill(); err != nil {
			log.Printf("fill circle %s: %v", c.ID, err)
		}
	}

	setColor(gc, th.Cluster)
	gc.SetLineWidth(lineWidth)
	gc.SetLineJoin(gg.LineJoinRound)
	for _, cl := range sc.Clusters {
		if len(cl.Members) < annotation.MinClusterSize {
			continue
		}
		for i, m := range cl.Members {
			p := vp.ToScreen(m.Center())
			if i == 0 {
				gc.MoveTo(p.X, p.Y)
			} else {
				gc.LineTo(p.X, p.Y)
			}
		}
		gc.ClosePath()
		if err := gc.Stroke(); err != nil {
			log.Printf("stroke cluster %s: %v", cl.ID, err)
		}
	}
	if err := gc.FlushGPU(); err != nil {
		log.Printf("flush overlays: %v", err)
	}
	draw.Draw(dst, b, gc.Image(), image.Point{}, draw.Src)
}

func setColor(gc *gg.Context, c color.RGBA) {
	gc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

func drawText(dst *image.RGBA, s string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face(),
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.SetRGBA(x, y, light)
			} else {
				dst.SetRGBA(x, y, dark)
			}
		}
	}
}
