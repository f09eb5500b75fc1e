//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"errors"
	"os"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce     sync.Once
	initErr      error
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
)

func ensureInit() error {
	initOnce.Do(func() {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

func writeImage(png []byte) error {
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func readImage() []byte {
	return clipboard.Read(clipboard.FmtImage)
}

func writeText(text []byte) error {
	clipboard.Write(clipboard.FmtText, text)
	return nil
}

func readText() []byte {
	return clipboard.Read(clipboard.FmtText)
}
