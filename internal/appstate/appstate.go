package appstate

import (
	"context"
	"log"
	"sync"
	"time"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/clipboard"
	"github.com/example/d4scope/internal/editor"
	"github.com/example/d4scope/internal/notify"
	"github.com/example/d4scope/internal/submit"
)

const (
	statusHeight  = 22
	submitTimeout = 2 * time.Minute
)

// KeyShortcut describes a keyboard combination that triggers an action.
// Printable keys match on Rune, others on Code.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// shortcutOf normalises a key event for keymap lookup. Shift is folded into
// the rune for printable keys.
func shortcutOf(e key.Event) KeyShortcut {
	if e.Rune > 0 && unicode.IsPrint(e.Rune) {
		mods := e.Modifiers &^ key.ModShift
		r := e.Rune
		if mods&key.ModControl != 0 {
			r = unicode.ToLower(r)
		}
		return KeyShortcut{Rune: r, Modifiers: mods}
	}
	return KeyShortcut{Code: e.Code, Modifiers: e.Modifiers &^ key.ModShift}
}

// AppState hosts an editor session in a window.
type AppState struct {
	Session *editor.Session
	// Output receives the annotation export on "e".
	Output string
	// RenderOutput, when set, receives the rendered overlay alongside Output.
	RenderOutput string
	Title        string

	analyzer submit.Analyzer
	notifier *notify.Notifier
	onClose  func()

	actions map[string]func()
	keymap  map[KeyShortcut]string

	mu       sync.Mutex
	renaming bool
	input    string
	quit     bool
	pending  sync.WaitGroup

	updateCh  chan struct{}
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithOutput sets the annotation JSON path written on export.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithRenderOutput sets the overlay image path written on export.
func WithRenderOutput(out string) Option { return func(a *AppState) { a.RenderOutput = out } }

// WithTitle sets the window title shown in the status bar.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithAnalyzer sets where "s" submits. Defaults to the in-process mock.
func WithAnalyzer(an submit.Analyzer) Option { return func(a *AppState) { a.analyzer = an } }

// WithNotifier sets the desktop notifier.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState for sess.
func New(sess *editor.Session, opts ...Option) *AppState {
	a := &AppState{
		Session:  sess,
		Title:    "d4scope",
		analyzer: submit.Mock{},
		updateCh: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(a)
	}
	a.registerActions()
	sess.Subscribe(func(annotation.Export) { a.NotifyChanged() })
	return a
}

// NotifyChanged requests a repaint.
func (a *AppState) NotifyChanged() {
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

func (a *AppState) register(name string, keys []KeyShortcut, fn func()) {
	a.actions[name] = fn
	for _, sc := range keys {
		a.keymap[sc] = name
	}
}

func (a *AppState) registerActions() {
	a.actions = map[string]func(){}
	a.keymap = map[KeyShortcut]string{}
	s := a.Session

	a.register("delete", []KeyShortcut{{Code: key.CodeDeleteForward}, {Code: key.CodeDeleteBackspace}}, func() {
		s.DeleteSelected()
	})
	a.register("cluster", []KeyShortcut{{Rune: 'c'}}, func() {
		s.CreateCluster("")
	})
	a.register("rename", []KeyShortcut{{Rune: 'n'}}, func() {
		name, ok := s.ActiveClusterName()
		if !ok {
			a.logf("no active cluster to rename")
			return
		}
		a.renaming, a.input = true, name
	})
	a.register("zoomin", []KeyShortcut{{Rune: '+'}, {Rune: '='}}, func() { s.ZoomIn() })
	a.register("zoomout", []KeyShortcut{{Rune: '-'}}, func() { s.ZoomOut() })
	a.register("resetzoom", []KeyShortcut{{Rune: '0'}}, s.ResetZoom)
	a.register("resetpan", []KeyShortcut{{Rune: 'r'}}, s.ResetPan)
	a.register("shrink", []KeyShortcut{{Rune: '['}}, func() { s.NudgeActiveRadius(-1) })
	a.register("grow", []KeyShortcut{{Rune: ']'}}, func() { s.NudgeActiveRadius(1) })
	a.register("export", []KeyShortcut{{Rune: 'e'}}, func() {
		if err := a.Export(); err != nil {
			a.logf("export: %v", err)
		}
	})
	a.register("copyjson", []KeyShortcut{{Rune: 'y'}}, func() {
		if err := clipboard.WriteAnnotations(s.Export()); err != nil {
			a.logf("copy annotations: %v", err)
			return
		}
		a.notifier.Copy("annotations")
		a.logf("copied annotations")
	})
	a.register("copyimage", []KeyShortcut{{Rune: 'Y'}, {Rune: 'c', Modifiers: key.ModControl}}, func() {
		ov, err := s.Overlay()
		if err == nil {
			err = clipboard.WriteImage(ov)
		}
		if err != nil {
			a.logf("copy image: %v", err)
			return
		}
		a.notifier.Copy("image")
		a.logf("copied image")
	})
	a.register("submit", []KeyShortcut{{Rune: 's'}}, func() {
		a.pending.Add(1)
		go func() {
			defer a.pending.Done()
			a.submit()
		}()
	})
	a.register("quit", []KeyShortcut{{Rune: 'q'}, {Code: key.CodeEscape}}, func() {
		a.quit = true
	})
}

func (a *AppState) logf(format string, args ...any) {
	log.Printf(format, args...)
}

func (a *AppState) submit() {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	res, err := a.Session.Submit(ctx, a.analyzer)
	if err != nil {
		a.NotifyChanged()
		return
	}
	name := a.Session.Image().Name()
	ov, _ := a.Session.Overlay()
	a.notifier.Submit(name, ov)
	log.Printf("analysis results for %s: %v", name, res.AnalysisResults)
	a.NotifyChanged()
}

// HandleKey applies a key press and reports whether the window should
// close. While renaming, printable keys edit the name, Enter commits and
// Escape cancels.
func (a *AppState) HandleKey(e key.Event) bool {
	if e.Direction != key.DirPress && e.Direction != key.DirNone {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.renaming {
		a.editName(e)
		return false
	}
	if name, ok := a.keymap[shortcutOf(e)]; ok {
		a.actions[name]()
	}
	return a.quit
}

func (a *AppState) editName(e key.Event) {
	switch e.Code {
	case key.CodeReturnEnter:
		a.Session.RenameActiveCluster(a.input)
		a.renaming = false
	case key.CodeEscape:
		a.renaming = false
	case key.CodeDeleteBackspace:
		if r := []rune(a.input); len(r) > 0 {
			a.input = string(r[:len(r)-1])
		}
	default:
		if e.Rune > 0 && unicode.IsPrint(e.Rune) {
			a.input += string(e.Rune)
		}
	}
}

// Wait blocks until background submissions finish.
func (a *AppState) Wait() { a.pending.Wait() }
