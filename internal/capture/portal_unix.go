//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"errors"
	"fmt"
	"image"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/example/d4scope/internal/imageres"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	portalResponse  = "org.freedesktop.portal.Request.Response"
	portalTimeout   = 2 * time.Minute
	responseSuccess = uint32(0)
)

var portalHandleToken = newPortalHandleToken

func portalScreenshot(opts Options) (*image.RGBA, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbus connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Printf("dbus close: %v", cerr)
		}
	}()

	sigc := make(chan *dbus.Signal, 4)
	conn.Signal(sigc)

	obj := conn.Object(portalDest, portalPath)
	var handle dbus.ObjectPath
	call := obj.Call("org.freedesktop.portal.Screenshot.Screenshot", 0, "", portalScreenshotOptions(opts))
	if call.Err != nil {
		return nil, fmt.Errorf("portal screenshot call: %w", call.Err)
	}
	if err := call.Store(&handle); err != nil {
		return nil, fmt.Errorf("portal screenshot response: %w", err)
	}

	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.Request',member='Response',path='%s'", handle)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, fmt.Errorf("portal screenshot subscribe: %w", err)
	}
	defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule)

	timeout := time.After(portalTimeout)
	for {
		select {
		case sig := <-sigc:
			if sig == nil || sig.Path != handle || sig.Name != portalResponse {
				continue
			}
			return portalResult(sig.Body)
		case <-timeout:
			return nil, fmt.Errorf("portal screenshot: no response after %s", portalTimeout)
		}
	}
}

func portalResult(body []any) (*image.RGBA, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("portal screenshot: malformed response")
	}
	if code, ok := body[0].(uint32); ok && code != responseSuccess {
		return nil, fmt.Errorf("portal screenshot: request cancelled (code %d)", code)
	}
	res, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("portal screenshot: malformed results")
	}
	uriVar, ok := res["uri"]
	if !ok {
		return nil, fmt.Errorf("portal screenshot: response missing image data")
	}
	uri, _ := uriVar.Value().(string)
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return nil, fmt.Errorf("portal screenshot: unexpected uri %q", uri)
	}
	return loadCapture(u.Path)
}

func newPortalHandleToken() string {
	return fmt.Sprintf("d4scope%d", time.Now().UnixNano())
}

func portalScreenshotOptions(opts Options) map[string]dbus.Variant {
	cursorMode := "hidden"
	if opts.IncludeCursor {
		cursorMode = "embedded"
	}
	return map[string]dbus.Variant{
		"interactive":  dbus.MakeVariant(opts.Interactive),
		"modal":        dbus.MakeVariant(opts.Interactive),
		"handle_token": dbus.MakeVariant(portalHandleToken()),
		"cursor_mode":  dbus.MakeVariant(cursorMode),
	}
}

// loadCapture decodes the portal's temporary file and removes it.
func loadCapture(path string) (*image.RGBA, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("remove %s: %v", path, err)
		}
	}()
	res, err := imageres.Open(path)
	if err != nil {
		return nil, fmt.Errorf("portal screenshot image: %w", err)
	}
	return res.RGBA()
}

// isPortalUnsupportedError reports whether err means no portal is there to
// answer, as opposed to the user cancelling.
func isPortalUnsupportedError(err error) bool {
	var dbusErr *dbus.Error
	if !errors.As(err, &dbusErr) {
		var dbusErrVal dbus.Error
		if !errors.As(err, &dbusErrVal) {
			return false
		}
		dbusErr = &dbusErrVal
	}
	switch dbusErr.Name {
	case "org.freedesktop.portal.Error.NotSupported",
		"org.freedesktop.DBus.Error.ServiceUnknown",
		"org.freedesktop.DBus.Error.UnknownMethod",
		"org.freedesktop.DBus.Error.Disconnected",
		"org.freedesktop.DBus.Error.NoReply":
		return true
	}
	return false
}
