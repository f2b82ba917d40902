// Package pipeline turns a resolved selection into pixels. Given a region in
// global coordinates or a window handle, it asks the platform capture
// service for the relevant display's buffer at native pixel resolution and
// computes the exact crop rectangle in capture-pixel space.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/wincat"
)

// ErrPermissionDenied reports that screen capture access has not been
// granted. It is terminal for the attempt; retrying without user corrective
// action would fail again.
var ErrPermissionDenied = errors.New("screen capture permission not granted")

// CaptureOptions configures a capture-service request.
type CaptureOptions struct {
	// ExcludeSelf filters out windows owned by the capturing application so
	// the overlay and toolbar never appear in the output.
	ExcludeSelf bool
	// IncludeCursor embeds the pointer in the captured pixels.
	IncludeCursor bool
}

// Service is the platform capture service. All methods operate in
// capture-pixel space.
type Service interface {
	// Displays enumerates the service's own display records.
	Displays() ([]display.CaptureDisplay, error)
	// CaptureDisplay captures one full display at native pixel resolution.
	CaptureDisplay(d display.CaptureDisplay, opts CaptureOptions) (*image.RGBA, error)
	// CaptureWindow captures exactly the pixels of the given window.
	CaptureWindow(id uint32) (*image.RGBA, error)
	// ReadPixels reads the current screen content under a small rectangle.
	// It is the cheap, low-latency primitive backing the magnifier and the
	// overlay background snapshot; it bypasses the region bookkeeping above.
	ReadPixels(r image.Rectangle) (*image.RGBA, error)
}

// Result is a completed capture: the pixel buffer plus the global rectangle
// it was cut from.
type Result struct {
	Image *image.RGBA
	Rect  image.Rectangle
}

// Pipeline resolves selections against the display registry and the capture
// service.
type Pipeline struct {
	registry      *display.Registry
	service       Service
	hasPermission func() bool
}

// Option modifies a Pipeline during creation.
type Option func(*Pipeline)

// WithPermissionCheck installs the collaborator queried before any capture
// request. When it reports false the pipeline fails immediately with
// ErrPermissionDenied and never contacts the service.
func WithPermissionCheck(fn func() bool) Option {
	return func(p *Pipeline) { p.hasPermission = fn }
}

// New creates a pipeline over the given registry and capture service.
func New(registry *display.Registry, service Service, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:      registry,
		service:       service,
		hasPermission: func() bool { return true },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CaptureRegion captures the given rectangle in global logical coordinates.
func (p *Pipeline) CaptureRegion(ctx context.Context, globalRect image.Rectangle) (*Result, error) {
	if err := p.preflight(ctx); err != nil {
		return nil, err
	}
	d, ok := display.ForRect(p.registry.Current(), globalRect)
	if !ok {
		return nil, fmt.Errorf("region %v: %w", globalRect, display.ErrNoDisplayFound)
	}
	captures, err := p.service.Displays()
	if err != nil {
		return nil, fmt.Errorf("capture service displays: %w", err)
	}
	target, err := display.Match(d, captures)
	if err != nil {
		return nil, err
	}
	full, err := p.service.CaptureDisplay(target, CaptureOptions{ExcludeSelf: true})
	if err != nil {
		return nil, fmt.Errorf("capture display %s: %w", d.ID, err)
	}
	crop := PixelCrop(d, globalRect)
	img, err := cropToRect(full, crop)
	if err != nil {
		return nil, fmt.Errorf("crop display %s: %w", d.ID, err)
	}
	return &Result{Image: img, Rect: globalRect}, nil
}

// CaptureWindow captures exactly the target window's pixels. No cropping is
// needed; the service returns that window's buffer.
func (p *Pipeline) CaptureWindow(ctx context.Context, w wincat.Candidate) (*Result, error) {
	if err := p.preflight(ctx); err != nil {
		return nil, err
	}
	img, err := p.service.CaptureWindow(w.ID)
	if err != nil {
		return nil, fmt.Errorf("capture window 0x%x: %w", w.ID, err)
	}
	return &Result{Image: img, Rect: w.Frame}, nil
}

// CaptureFullscreen captures all connected displays stitched into one buffer
// spanning the virtual desktop.
func (p *Pipeline) CaptureFullscreen(ctx context.Context) (*Result, error) {
	if err := p.preflight(ctx); err != nil {
		return nil, err
	}
	captures, err := p.service.Displays()
	if err != nil {
		return nil, fmt.Errorf("capture service displays: %w", err)
	}
	if len(captures) == 0 {
		return nil, fmt.Errorf("fullscreen capture: %w", display.ErrNoDisplayFound)
	}
	var union image.Rectangle
	for _, c := range captures {
		union = union.Union(c.Bounds)
	}
	out := image.NewRGBA(image.Rect(0, 0, union.Dx(), union.Dy()))
	for _, c := range captures {
		img, err := p.service.CaptureDisplay(c, CaptureOptions{ExcludeSelf: true})
		if err != nil {
			return nil, fmt.Errorf("capture display %d: %w", c.Index, err)
		}
		draw.Draw(out, c.Bounds.Sub(union.Min), img, img.Bounds().Min, draw.Src)
	}
	return &Result{Image: out, Rect: display.Union(p.registry.Current())}, nil
}

// Peek reads the current screen pixels under a small rectangle in global
// logical coordinates. It backs the magnifier loupe and the overlay
// background snapshot and never consults the window filter.
func (p *Pipeline) Peek(globalRect image.Rectangle) (*image.RGBA, error) {
	d, ok := display.ForRect(p.registry.Current(), globalRect)
	if !ok {
		return nil, fmt.Errorf("peek %v: %w", globalRect, display.ErrNoDisplayFound)
	}
	captures, err := p.service.Displays()
	if err != nil {
		return nil, fmt.Errorf("capture service displays: %w", err)
	}
	target, err := display.Match(d, captures)
	if err != nil {
		return nil, err
	}
	crop := PixelCrop(d, globalRect).Add(target.Bounds.Min)
	return p.service.ReadPixels(crop)
}

func (p *Pipeline) preflight(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.hasPermission() {
		return ErrPermissionDenied
	}
	return nil
}

// PixelCrop converts a global logical rectangle into the display-relative
// pixel crop for the display that contains it. Logical coordinates are Y-up
// from the display's bottom edge while pixel buffers are Y-down from the
// top, so the Y axis flips:
//
//	pixelY = (displayLogicalHeight - relY - rect.height) * scale
//
// Width and height are clamped to a minimum of one pixel.
func PixelCrop(d display.Descriptor, globalRect image.Rectangle) image.Rectangle {
	relX := globalRect.Min.X - d.Frame.Min.X
	relY := globalRect.Min.Y - d.Frame.Min.Y

	px := pixelRound(relX, d.Scale)
	py := pixelRound(d.Frame.Dy()-relY-globalRect.Dy(), d.Scale)
	w := pixelRound(globalRect.Dx(), d.Scale)
	h := pixelRound(globalRect.Dy(), d.Scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Rect(px, py, px+w, py+h)
}

func pixelRound(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
