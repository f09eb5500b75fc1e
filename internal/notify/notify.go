// Package notify raises desktop notifications for completed actions.
package notify

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/d4scope/assets"
	"github.com/example/d4scope/internal/config"
	"github.com/example/d4scope/internal/imageres"
	"github.com/example/d4scope/internal/platform"
)

const iconSize = 64

// Event identifies a notification trigger.
type Event string

const (
	// EventSubmit fires when the analysis service accepted a submission.
	EventSubmit Event = "submit"
	// EventExport fires when annotations or a rendered image were written.
	EventExport Event = "export"
	// EventCopy fires when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// send is swapped out in tests.
var send = platform.Notify

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "d4scope",
		Events: map[Event]EventPreference{
			EventSubmit: {Template: "Submitted %s for analysis"},
			EventExport: {Template: "Exported %s"},
			EventCopy:   {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences applies D4SCOPE_NOTIFY_* environment overrides to the
// defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("D4SCOPE_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, ev := range []Event{EventSubmit, EventExport, EventCopy} {
		key := "D4SCOPE_NOTIFY_" + strings.ToUpper(string(ev)) + "_TEXT"
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			prefs.Events[ev] = EventPreference{Template: v}
		}
	}
	return prefs
}

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
}

// New creates a new Notifier using the provided preferences. Every event
// starts disabled.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool)}
}

// FromConfig builds a notifier enabled per the [notify] section.
func FromConfig(n config.Notify) *Notifier {
	nt := New(LoadPreferences())
	nt.Enable(EventSubmit, n.Submit)
	nt.Enable(EventExport, n.Export)
	nt.Enable(EventCopy, n.Copy)
	return nt
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Submit announces a submission, previewing the processed overlay when one
// is given.
func (n *Notifier) Submit(name string, preview image.Image) {
	if !n.enabledFor(EventSubmit) {
		return
	}
	opts := platform.Options{IconPath: appIcon()}
	if preview != nil {
		if path, cleanup, err := createPreview(preview); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventSubmit, name, opts)
}

// Export announces a written file, using it as the icon when it is an
// image.
func (n *Notifier) Export(path string) {
	if !n.enabledFor(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{IconPath: appIcon()}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil && isImage(abs) {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{IconPath: appIcon()})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

// appIcon returns the application icon path, or "" when it cannot be
// written.
func appIcon() string {
	p, err := assets.IconPath(iconSize)
	if err != nil {
		log.Printf("notification icon: %v", err)
		return ""
	}
	return p
}

func isImage(path string) bool {
	_, err := imageres.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return err == nil
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "d4scope-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := imageres.Encode(f, img, imageres.FormatPNG); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
