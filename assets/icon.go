// Package assets draws the application icon.
package assets

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/gg"

	"github.com/example/d4scope/internal/imageres"
)

// Icon sizes the application ships, smallest first.
var sizes = []int{16, 32, 48, 64, 128, 256}

var (
	pathMu sync.Mutex
	paths  = map[int]string{}
)

// IconSizes lists the supported icon sizes.
func IconSizes() []int {
	return append([]int(nil), sizes...)
}

func supported(size int) bool {
	for _, s := range sizes {
		if s == size {
			return true
		}
	}
	return false
}

// IconImage draws the icon: three spots on a dark well, joined as a cluster.
func IconImage(size int) (*image.RGBA, error) {
	if !supported(size) {
		return nil, fmt.Errorf("icon size %dpx not supported", size)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	gc := gg.NewContextForImage(dst)
	defer gc.Close()

	s := float64(size)
	gc.DrawCircle(s/2, s/2, s*0.46)
	gc.SetRGBA(0.12, 0.14, 0.18, 1)
	if err := gc.Fill(); err != nil {
		return nil, err
	}

	spots := [][2]float64{{0.32, 0.36}, {0.68, 0.40}, {0.48, 0.70}}
	gc.SetRGBA(0.2, 0.45, 1, 1)
	gc.SetLineWidth(max(s/32, 1))
	for i, p := range spots {
		if i == 0 {
			gc.MoveTo(p[0]*s, p[1]*s)
		} else {
			gc.LineTo(p[0]*s, p[1]*s)
		}
	}
	gc.ClosePath()
	if err := gc.Stroke(); err != nil {
		return nil, err
	}
	for _, p := range spots {
		gc.DrawCircle(p[0]*s, p[1]*s, s*0.11)
		gc.SetRGBA(1, 1, 0, 1)
		gc.SetLineWidth(max(s/24, 1))
		if err := gc.StrokePreserve(); err != nil {
			return nil, err
		}
		gc.SetRGBA(1, 1, 0, 0.3)
		if err := gc.Fill(); err != nil {
			return nil, err
		}
	}
	if err := gc.FlushGPU(); err != nil {
		log.Printf("flush icon: %v", err)
	}
	out := image.NewRGBA(dst.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), gc.Image(), image.Point{}, draw.Over)
	return out, nil
}

// IconPNG returns the PNG encoding of the icon at size.
func IconPNG(size int) ([]byte, error) {
	img, err := IconImage(size)
	if err != nil {
		return nil, err
	}
	return imageres.EncodeBytes(img, imageres.FormatPNG)
}

// IconPath writes the icon to the temp directory once per process and
// returns its path, for consumers that only accept files.
func IconPath(size int) (string, error) {
	pathMu.Lock()
	defer pathMu.Unlock()
	if p, ok := paths[size]; ok {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	data, err := IconPNG(size)
	if err != nil {
		return "", err
	}
	p := filepath.Join(os.TempDir(), fmt.Sprintf("d4scope-icon-%d.png", size))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	paths[size] = p
	return p, nil
}
