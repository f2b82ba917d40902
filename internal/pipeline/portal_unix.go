//go:build linux || freebsd || openbsd || netbsd || dragonfly

package pipeline

import (
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
)

// HasCapturePermission reports whether the session will allow screen
// capture. Plain X11 sessions impose no restriction; Wayland sessions need a
// working screenshot portal, so its presence on the session bus is probed
// without issuing a capture request.
func HasCapturePermission() bool {
	if !runningOnWayland() {
		return true
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false
	}
	defer conn.Close()

	obj := conn.Object("org.freedesktop.portal.Desktop", "/org/freedesktop/portal/desktop")
	variant, err := obj.GetProperty("org.freedesktop.portal.Screenshot.version")
	if err != nil {
		return false
	}
	version, ok := variant.Value().(uint32)
	return ok && version >= 1
}

func runningOnWayland() bool {
	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	if sessionType == "wayland" {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}
