package appstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/imageres"
)

// Export writes the annotations to Output and, when configured, the
// rendered overlay to RenderOutput.
func (a *AppState) Export() error {
	if a.Output == "" && a.RenderOutput == "" {
		return errors.New("no output path configured")
	}
	if a.Output != "" {
		if err := WriteAnnotations(a.Output, a.Session.Export()); err != nil {
			return err
		}
		a.notifier.Export(a.Output)
		a.logf("wrote %s", a.Output)
	}
	if a.RenderOutput != "" {
		ov, err := a.Session.Overlay()
		if err != nil {
			return fmt.Errorf("render overlay: %w", err)
		}
		if err := imageres.Save(a.RenderOutput, ov); err != nil {
			return err
		}
		a.notifier.Export(a.RenderOutput)
		a.logf("wrote %s", a.RenderOutput)
	}
	return nil
}

// WriteAnnotations writes exp as JSON to path, or to stdout when path is
// "-". Missing parent directories are created.
func WriteAnnotations(path string, exp annotation.Export) (err error) {
	if path == "-" {
		return annotation.Encode(os.Stdout, exp)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return annotation.Encode(f, exp)
}

// statusLine summarises the session for the status bar.
func (a *AppState) statusLine() string {
	a.mu.Lock()
	renaming, input := a.renaming, a.input
	a.mu.Unlock()
	if renaming {
		return "rename cluster: " + input + "|"
	}
	s := a.Session
	exp := s.Export()
	v := s.Viewport()
	parts := []string{
		a.Title,
		fmt.Sprintf("%d circles", len(exp.Circles)),
		fmt.Sprintf("%d clusters", len(exp.Clusters)),
		fmt.Sprintf("%.0f%%", v.Scale*100),
	}
	if r, ok := s.ActiveRadius(); ok {
		parts = append(parts, fmt.Sprintf("r=%g", r))
	}
	if msg := s.Status(); msg != "" {
		parts = append(parts, msg)
	}
	return strings.Join(parts, "  ·  ")
}
