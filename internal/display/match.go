package display

import (
	"errors"
	"fmt"
	"image"
)

// ErrNoDisplayFound reports that a descriptor or rectangle could not be
// mapped to any capture-service display. It is a hard error: silently
// defaulting to the first display would capture the wrong monitor.
var ErrNoDisplayFound = errors.New("no matching capture display found")

// CaptureDisplay describes one display as enumerated by the capture
// service. Bounds are in capture-pixel space, top-left origin, Y-down.
type CaptureDisplay struct {
	Index  int
	Bounds image.Rectangle
}

// Match resolves the capture-service display that corresponds to the given
// windowing-system descriptor. The two subsystems enumerate the same
// physical monitors independently and disagree on the Y origin convention,
// so the match key is device pixel size plus X origin only.
func Match(d Descriptor, candidates []CaptureDisplay) (CaptureDisplay, error) {
	size := d.PixelSize()
	wantX := scaleLen(d.Frame.Min.X, d.Scale)
	for _, c := range candidates {
		if c.Bounds.Dx() != size.X || c.Bounds.Dy() != size.Y {
			continue
		}
		if c.Bounds.Min.X != wantX {
			continue
		}
		return c, nil
	}
	return CaptureDisplay{}, fmt.Errorf("display %s (%dx%d px at x=%d): %w",
		d.ID, size.X, size.Y, wantX, ErrNoDisplayFound)
}
