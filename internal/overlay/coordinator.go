package overlay

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/pipeline"
	"github.com/example/snapshade/internal/wincat"
)

// Surface is the coordinator's view of one per-display overlay window.
type Surface interface {
	// Hide tears the surface down. Must be safe to call from any goroutine.
	Hide()
	// SetWindows installs window candidates for hover hit-testing.
	SetWindows(windows []wincat.Candidate)
}

// SurfaceFactory creates a surface for one display. post receives the
// surface's terminal result and must be called at most once.
type SurfaceFactory func(d display.Descriptor, mode Mode, post func(Result)) (Surface, error)

// Sink receives the outcome of a capture session.
type Sink interface {
	Captured(img *image.RGBA, region image.Rectangle)
	Cancelled()
	PermissionDenied(err error)
}

// settleDelay is how long the coordinator waits after hiding the surfaces
// before capturing, so the compositor has unmapped them.
var settleDelay = 80 * time.Millisecond

type startEvent struct {
	mode Mode
}

type configEvent struct{}

type completionEvent struct {
	session int
	result  Result
}

type candidatesEvent struct {
	session int
	windows []wincat.Candidate
}

// Coordinator owns the overlay surfaces' lifetime. It serializes all session
// state on a single goroutine fed by an event channel: surfaces on every
// display post to the same session, the first terminal result wins, and
// everything that arrives after the session closed is ignored.
type Coordinator struct {
	registry *display.Registry
	catalog  *wincat.Catalog
	pipe     *pipeline.Pipeline
	factory  SurfaceFactory
	sink     Sink

	events chan interface{}

	// Owned by Run's goroutine.
	surfaces []Surface
	mode     Mode
	session  int
	active   bool
}

// NewCoordinator wires a coordinator to its collaborators. It subscribes to
// the registry's configuration-change notifications immediately.
func NewCoordinator(reg *display.Registry, catalog *wincat.Catalog, pipe *pipeline.Pipeline, factory SurfaceFactory, sink Sink) *Coordinator {
	c := &Coordinator{
		registry: reg,
		catalog:  catalog,
		pipe:     pipe,
		factory:  factory,
		sink:     sink,
		events:   make(chan interface{}, 64),
	}
	reg.OnChange(func() {
		c.events <- configEvent{}
	})
	return c
}

// Start opens a capture session in the given mode. If a session is already
// active it is torn down and replaced.
func (c *Coordinator) Start(mode Mode) {
	c.events <- startEvent{mode: mode}
}

// Run processes session events until ctx is done. It must run on its own
// goroutine; surfaces and the registry feed it through the event channel.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.hideAll()
			return
		case ev := <-c.events:
			switch e := ev.(type) {
			case startEvent:
				c.mode = e.mode
				c.rebuild(ctx)
			case configEvent:
				// A display was attached, removed or rearranged. An active
				// session restarts against the new topology; otherwise the
				// refreshed registry is all that's needed.
				if c.active {
					log.Printf("overlay: display configuration changed, rebuilding session")
					c.rebuild(ctx)
				}
			case completionEvent:
				c.onCompletion(ctx, e)
			case candidatesEvent:
				if e.session == c.session && c.active {
					for _, s := range c.surfaces {
						s.SetWindows(e.windows)
					}
				}
			}
		}
	}
}

// rebuild tears down any current surfaces and opens a fresh set, one per
// display in the current registry snapshot.
func (c *Coordinator) rebuild(ctx context.Context) {
	c.hideAll()
	c.session++
	c.active = true

	session := c.session
	post := func(r Result) {
		c.events <- completionEvent{session: session, result: r}
	}

	descs := c.registry.Current()
	for _, d := range descs {
		s, err := c.factory(d, c.mode, post)
		if err != nil {
			log.Printf("overlay: surface for %s: %v", d.ID, err)
			continue
		}
		c.surfaces = append(c.surfaces, s)
	}
	if len(c.surfaces) == 0 {
		c.active = false
		c.sink.Cancelled()
		return
	}

	if c.mode == ModeWindow {
		go func() {
			windows, err := c.catalog.Enumerate(ctx, descs)
			if err != nil {
				log.Printf("overlay: window enumeration: %v", err)
				return
			}
			c.events <- candidatesEvent{session: session, windows: windows}
		}()
	}
}

// onCompletion closes the session on the first result and hands it to the
// pipeline. Results from stale sessions, or from a second surface racing the
// winner, are dropped.
func (c *Coordinator) onCompletion(ctx context.Context, e completionEvent) {
	if e.session != c.session || !c.active {
		log.Printf("overlay: ignoring completion from closed session %d", e.session)
		return
	}
	c.active = false
	c.hideAll()

	switch e.result.Kind {
	case KindCancelled:
		c.sink.Cancelled()
	case KindRegion:
		region := e.result.Region
		go c.deliver(func() (*pipeline.Result, error) {
			return c.pipe.CaptureRegion(ctx, region)
		})
	case KindWindow:
		window := e.result.Window
		go c.deliver(func() (*pipeline.Result, error) {
			return c.pipe.CaptureWindow(ctx, window)
		})
	}
}

// deliver runs one capture off the event loop and routes its outcome to the
// sink. Capture errors are terminal; nothing here retries.
func (c *Coordinator) deliver(capture func() (*pipeline.Result, error)) {
	// The surfaces were just asked to hide; give the compositor a beat to
	// actually unmap them so they don't bleed into the capture.
	time.Sleep(settleDelay)
	res, err := capture()
	switch {
	case errors.Is(err, pipeline.ErrPermissionDenied):
		c.sink.PermissionDenied(err)
	case err != nil:
		log.Printf("overlay: capture failed: %v", err)
		c.sink.Cancelled()
	default:
		c.sink.Captured(res.Image, res.Rect)
	}
}

func (c *Coordinator) hideAll() {
	for _, s := range c.surfaces {
		s.Hide()
	}
	c.surfaces = nil
}
