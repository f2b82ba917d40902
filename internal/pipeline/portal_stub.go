//go:build !linux && !freebsd && !openbsd && !netbsd && !dragonfly

package pipeline

// HasCapturePermission reports whether the session will allow screen
// capture.
func HasCapturePermission() bool {
	return false
}
