// Package platform delivers desktop notifications through the host's
// notification service.
package platform

import "time"

// AppName identifies the sender to the notification service.
const AppName = "d4scope"

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath points to an image shown with the notification where the
	// platform supports it.
	IconPath string
	// Timeout is how long the notification stays up. Not every platform
	// honours it.
	Timeout time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
