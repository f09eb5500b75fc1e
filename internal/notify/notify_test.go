package notify

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/d4scope/internal/config"
	"github.com/example/d4scope/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func capture(t *testing.T) *[]sent {
	t.Helper()
	var got []sent
	prev := send
	send = func(title, body string, opts platform.Options) error {
		if opts.IconPath != "" {
			if _, err := os.Stat(opts.IconPath); err != nil {
				t.Errorf("icon missing during send: %v", err)
			}
		}
		got = append(got, sent{title, body, opts})
		return nil
	}
	t.Cleanup(func() { send = prev })
	return &got
}

func TestDisabledByDefault(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Submit("cells.png", nil)
	n.Export("out.json")
	n.Copy("annotations")
	if len(*got) != 0 {
		t.Fatalf("sent %d notifications", len(*got))
	}
	var nilNotifier *Notifier
	nilNotifier.Copy("x")
}

func TestFromConfig(t *testing.T) {
	got := capture(t)
	n := FromConfig(config.Notify{Copy: true})
	n.Copy("")
	n.Submit("cells.png", nil)
	if len(*got) != 1 {
		t.Fatalf("sent %+v", *got)
	}
	if (*got)[0].title != "d4scope" || (*got)[0].body != "Copied image to clipboard" {
		t.Errorf("notification = %+v", (*got)[0])
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("D4SCOPE_NOTIFY_TITLE", "Lab")
	t.Setenv("D4SCOPE_NOTIFY_SUBMIT_TEXT", "Sent %s")
	prefs := LoadPreferences()
	if prefs.Title != "Lab" || prefs.Events[EventSubmit].Template != "Sent %s" {
		t.Fatalf("prefs = %+v", prefs)
	}
	if prefs.Events[EventCopy].Template != DefaultPreferences().Events[EventCopy].Template {
		t.Error("unset event changed")
	}
}

func TestSubmitPreview(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Enable(EventSubmit, true)
	n.Submit("cells.png", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if len(*got) != 1 {
		t.Fatalf("sent %d", len(*got))
	}
	icon := (*got)[0].opts.IconPath
	if icon == "" {
		t.Fatal("no preview icon")
	}
	if _, err := os.Stat(icon); !os.IsNotExist(err) {
		t.Errorf("preview not cleaned up: %v", err)
	}
}

func TestExportIcon(t *testing.T) {
	got := capture(t)
	dir := t.TempDir()
	png := filepath.Join(dir, "overlay.png")
	js := filepath.Join(dir, "annotations.json")
	for _, p := range []string{png, js} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	n := New(DefaultPreferences())
	n.Enable(EventExport, true)
	n.Export(png)
	n.Export(js)
	if len(*got) != 2 {
		t.Fatalf("sent %d", len(*got))
	}
	if (*got)[0].opts.IconPath != png || filepath.Base((*got)[1].opts.IconPath) != "d4scope-icon-64.png" {
		t.Errorf("icons = %q, %q", (*got)[0].opts.IconPath, (*got)[1].opts.IconPath)
	}
	if !strings.HasSuffix((*got)[1].body, "annotations.json") {
		t.Errorf("body = %q", (*got)[1].body)
	}
}

func TestSendErrorLogged(t *testing.T) {
	prev := send
	send = func(string, string, platform.Options) error { return errors.New("no bus") }
	t.Cleanup(func() { send = prev })
	n := New(DefaultPreferences())
	n.Enable(EventCopy, true)
	n.Copy("annotations")
}
