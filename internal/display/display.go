// Package display tracks the connected monitors and reconciles the two
// coordinate spaces the rest of the program has to deal with: the global,
// desktop-wide logical space used for window placement and pointer input
// (origin at the bottom-left of the primary display, Y growing upward), and
// the per-display pixel space used by the capture service (origin at the
// top-left of each display's buffer, Y growing downward).
package display

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
)

var errNoDisplays = errors.New("no displays available")

// Descriptor describes one connected monitor. It is an immutable snapshot;
// the registry regenerates the whole set whenever the windowing system
// signals a configuration change.
type Descriptor struct {
	ID      string
	Frame   image.Rectangle // global logical space
	Scale   float64         // physical pixels per logical unit
	Primary bool
}

// ToGlobal converts a point in the display's local space to global space.
func (d Descriptor) ToGlobal(p image.Point) image.Point {
	return p.Add(d.Frame.Min)
}

// ToLocal converts a point in global space to the display's local space.
func (d Descriptor) ToLocal(p image.Point) image.Point {
	return p.Sub(d.Frame.Min)
}

// RectToGlobal converts a rectangle in local space to global space.
func (d Descriptor) RectToGlobal(r image.Rectangle) image.Rectangle {
	return r.Add(d.Frame.Min)
}

// RectToLocal converts a rectangle in global space to local space.
func (d Descriptor) RectToLocal(r image.Rectangle) image.Rectangle {
	return r.Sub(d.Frame.Min)
}

// PixelSize returns the display's size in device pixels.
func (d Descriptor) PixelSize() image.Point {
	return image.Point{
		X: scaleLen(d.Frame.Dx(), d.Scale),
		Y: scaleLen(d.Frame.Dy(), d.Scale),
	}
}

func scaleLen(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}

// At returns the descriptor whose frame contains the given global point.
func At(descs []Descriptor, p image.Point) (Descriptor, bool) {
	for _, d := range descs {
		if p.In(d.Frame) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ForRect returns the descriptor whose frame contains the center of the
// given global rectangle.
func ForRect(descs []Descriptor, r image.Rectangle) (Descriptor, bool) {
	center := image.Point{X: r.Min.X + r.Dx()/2, Y: r.Min.Y + r.Dy()/2}
	return At(descs, center)
}

// Primary returns the primary descriptor, falling back to the first one.
func Primary(descs []Descriptor) (Descriptor, bool) {
	if len(descs) == 0 {
		return Descriptor{}, false
	}
	for _, d := range descs {
		if d.Primary {
			return d, true
		}
	}
	return descs[0], true
}

// Union returns the bounding rectangle of all display frames in global space.
func Union(descs []Descriptor) image.Rectangle {
	var u image.Rectangle
	for _, d := range descs {
		u = u.Union(d.Frame)
	}
	return u
}

// Backend enumerates displays from the windowing system.
type Backend interface {
	// Descriptors returns a freshly enumerated, disjoint set of descriptors.
	Descriptors() ([]Descriptor, error)
	// Watch invokes onChange after every configuration change until the
	// returned stop function is called. Backends without change
	// notification return a no-op stop function.
	Watch(onChange func()) (stop func(), err error)
}

// Registry is the single source of truth for display descriptors. All other
// components hold read-only copies of its snapshots.
type Registry struct {
	backend Backend

	mu      sync.Mutex
	current []Descriptor
	subs    []func()
	stop    func()
}

// NewRegistry creates a registry over the given backend and performs the
// initial enumeration.
func NewRegistry(backend Backend) (*Registry, error) {
	r := &Registry{backend: backend}
	if err := r.Refresh(); err != nil {
		return nil, err
	}
	stop, err := backend.Watch(r.configurationChanged)
	if err != nil {
		return nil, fmt.Errorf("watch display changes: %w", err)
	}
	r.stop = stop
	return r, nil
}

// Current returns the most recent snapshot of connected displays.
func (r *Registry) Current() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Descriptor, len(r.current))
	copy(out, r.current)
	return out
}

// Refresh re-enumerates the displays and replaces the snapshot wholesale.
func (r *Registry) Refresh() error {
	descs, err := r.backend.Descriptors()
	if err != nil {
		return fmt.Errorf("enumerate displays: %w", err)
	}
	if len(descs) == 0 {
		return errNoDisplays
	}
	r.mu.Lock()
	r.current = descs
	r.mu.Unlock()
	return nil
}

// OnChange registers a callback invoked after every configuration change.
// The callback runs on the watcher's goroutine; it must hand off to its own
// event queue before touching interactive state.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

// Close stops the configuration-change watcher.
func (r *Registry) Close() {
	if r.stop != nil {
		r.stop()
	}
}

func (r *Registry) configurationChanged() {
	if err := r.Refresh(); err != nil {
		// A failed re-enumeration keeps the previous snapshot; the next
		// change notification will try again.
		return
	}
	r.mu.Lock()
	subs := make([]func(), len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
