// Package appstate runs the annotation window on the shiny driver.
package appstate

import (
	"context"
	"image"
	"image/draw"
	"log"
	"sync"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/d4scope/internal/interact"
	"github.com/example/d4scope/internal/theme"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

const (
	minWidth, minHeight = 640, 480
	maxWidth, maxHeight = 1600, 1000
)

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// windowSize fits the image between the minimum and maximum window sizes
// and leaves room for the status bar.
func windowSize(img image.Point) image.Point {
	w := min(max(img.X, minWidth), maxWidth)
	h := min(max(img.Y, minHeight), maxHeight)
	return image.Pt(w, h+statusHeight)
}

type paintState struct {
	width, height int
	status        string
}

// Main is the shiny entry point.
func (a *AppState) Main(s screen.Screen) {
	sz := windowSize(image.Pt(minWidth, minHeight))
	if res := a.Session.Image(); res != nil {
		if isz, err := res.Size(); err == nil {
			sz = windowSize(isz)
		}
	}
	width, height := sz.X, sz.Y
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()
	defer a.notifyClose()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	if res := a.Session.Image(); res != nil && res.Done() != nil {
		go func() {
			select {
			case <-res.Done():
				if err := res.Err(); err != nil {
					log.Printf("load %s: %v", res.Name(), err)
				}
				a.NotifyChanged()
			case <-done:
			}
		}()
	}

	var (
		paintMu     sync.Mutex
		paintCancel context.CancelFunc
		dropCount   int
	)
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			a.drawFrame(ctx, s, w, st)
			paintMu.Lock()
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintCancel = nil
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				a.Session.HandleEvent(interact.Event{Kind: interact.PointerLeave})
				w.Send(paint.Event{})
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{width: width, height: height, status: a.statusLine()}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			ev, ok := interact.FromMouse(e)
			if !ok {
				continue
			}
			if int(e.Y) >= height-statusHeight && a.Session.State() == interact.Idle && ev.Kind == interact.PointerDown {
				continue
			}
			if a.Session.HandleEvent(ev) != interact.None {
				w.Send(paint.Event{})
			}
		case key.Event:
			if a.HandleKey(e) {
				return
			}
			w.Send(paint.Event{})
		case error:
			log.Printf("window: %v", e)
		}
	}
}

func (a *AppState) drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	if st.width <= 0 || st.height <= 0 {
		return
	}
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	dst := b.RGBA()
	canvas := image.Rect(0, 0, st.width, max(st.height-statusHeight, 0))
	a.Session.Render(dst.SubImage(canvas).(*image.RGBA))
	if ctx.Err() != nil {
		return
	}
	drawStatusBar(dst, image.Rect(0, canvas.Max.Y, st.width, st.height), st.status, a.Session.Theme())
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawStatusBar(dst *image.RGBA, r image.Rectangle, text string, th *theme.Theme) {
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(th.StatusBackground), image.Point{}, draw.Src)
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(r.Min.X+6, r.Min.Y+(r.Dy()+ascent)/2-1)
	d.DrawString(text)
}
