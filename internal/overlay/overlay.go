// Package overlay implements the interactive capture overlay: one
// full-screen, input-capturing surface per connected display, the selection
// state machine they share, and the coordinator that owns their lifetime
// and the single-completion protocol.
package overlay

import (
	"image"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/wincat"
)

// Mode selects what a capture session resolves to.
type Mode int

const (
	// ModeArea lets the user drag a rectangle.
	ModeArea Mode = iota
	// ModeWindow lets the user pick a window under the pointer.
	ModeWindow
	// ModeFullscreen captures the clicked display whole.
	ModeFullscreen
)

func (m Mode) String() string {
	switch m {
	case ModeArea:
		return "area"
	case ModeWindow:
		return "window"
	case ModeFullscreen:
		return "fullscreen"
	}
	return "unknown"
}

// Kind tags the terminal outcome of an interactive session.
type Kind int

const (
	// KindRegion resolves to a rectangle in global coordinates.
	KindRegion Kind = iota
	// KindWindow resolves to a window handle.
	KindWindow
	// KindCancelled carries no payload.
	KindCancelled
)

// Result is the terminal output of an interaction, produced exactly once
// per session.
type Result struct {
	Kind   Kind
	Region image.Rectangle // global space, valid for KindRegion
	Window wincat.Candidate
}

// localFromEvent converts a pointer event position (surface pixels, top-left
// origin, Y-down) into the display's local logical space (bottom-left
// origin, Y-up).
func localFromEvent(d display.Descriptor, ex, ey float32) image.Point {
	lx := int(float64(ex)/d.Scale + 0.5)
	ly := d.Frame.Dy() - int(float64(ey)/d.Scale+0.5)
	return image.Point{X: lx, Y: ly}
}

// bufferRect converts a rectangle in local logical space into surface
// buffer pixels for drawing.
func bufferRect(d display.Descriptor, local image.Rectangle) image.Rectangle {
	x0 := scalePx(local.Min.X, d.Scale)
	y0 := scalePx(d.Frame.Dy()-local.Max.Y, d.Scale)
	return image.Rect(x0, y0, x0+scalePx(local.Dx(), d.Scale), y0+scalePx(local.Dy(), d.Scale))
}

// bufferPoint converts a point in local logical space into surface buffer
// pixels.
func bufferPoint(d display.Descriptor, local image.Point) image.Point {
	return image.Point{
		X: scalePx(local.X, d.Scale),
		Y: scalePx(d.Frame.Dy()-local.Y, d.Scale),
	}
}

func scalePx(v int, scale float64) int {
	return int(float64(v)*scale + 0.5)
}
