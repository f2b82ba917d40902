package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"log"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/theme"
	"github.com/example/snapshade/internal/wincat"
)

// Snapshot provides the pre-captured screen content behind a surface. The
// overlay covers the whole display once shown, so the dimmed background and
// the magnifier both render from this snapshot rather than live pixels.
type Snapshot func(display.Descriptor) (*image.RGBA, error)

// setWindowsEvent and hideEvent are delivered through the shiny event queue
// so all surface state is touched from its own event loop only.
type setWindowsEvent struct {
	windows []wincat.Candidate
}

type hideEvent struct{}

type shinySurface struct {
	disp display.Descriptor
	th   *theme.Theme
	sel  *Selection
	post func(Result)

	win screen.Window
	buf screen.Buffer

	raw    *image.RGBA // undimmed screen content, surface pixels
	dimmed *image.RGBA

	cursor        image.Point // surface pixels
	lastHighlight image.Rectangle
	posted        bool
}

// NewSurfaceFactory returns a factory producing one full-screen shiny window
// per display. snapshot supplies each surface's background; post receives the
// surface's terminal result and is called at most once per surface.
func NewSurfaceFactory(scr screen.Screen, th *theme.Theme, snapshot Snapshot) SurfaceFactory {
	return func(d display.Descriptor, mode Mode, post func(Result)) (Surface, error) {
		size := d.PixelSize()
		win, err := scr.NewWindow(&screen.NewWindowOptions{
			Width:  size.X,
			Height: size.Y,
			Title:  "snapshade-overlay",
		})
		if err != nil {
			return nil, fmt.Errorf("create overlay window for %s: %w", d.ID, err)
		}
		buf, err := scr.NewBuffer(size)
		if err != nil {
			win.Release()
			return nil, fmt.Errorf("create overlay buffer for %s: %w", d.ID, err)
		}

		raw, err := snapshot(d)
		if err != nil {
			// Degrade to a black background rather than refusing to open.
			log.Printf("overlay: snapshot for %s failed: %v", d.ID, err)
			raw = image.NewRGBA(image.Rectangle{Max: size})
		}

		s := &shinySurface{
			disp:   d,
			th:     th,
			sel:    NewSelection(d, mode),
			post:   post,
			win:    win,
			buf:    buf,
			raw:    raw,
			dimmed: dimImage(raw, th.Dim),
		}
		go s.run()
		return s, nil
	}
}

// Hide tears the surface down. Safe to call from any goroutine; the actual
// release happens on the surface's event loop.
func (s *shinySurface) Hide() {
	s.win.Send(hideEvent{})
}

// SetWindows installs window candidates for hover hit-testing.
func (s *shinySurface) SetWindows(windows []wincat.Candidate) {
	s.win.Send(setWindowsEvent{windows: windows})
}

func (s *shinySurface) run() {
	for {
		switch e := s.win.NextEvent().(type) {
		case hideEvent:
			s.buf.Release()
			s.win.Release()
			return
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				s.buf.Release()
				return
			}
		case setWindowsEvent:
			s.sel.SetWindows(e.windows)
			local := localFromEvent(s.disp, float32(s.cursor.X), float32(s.cursor.Y))
			s.apply(s.sel.PointerMove(local, false))
		case paint.Event:
			s.compose()
			s.flush(s.buf.Bounds())
		case mouse.Event:
			s.onMouse(e)
		case key.Event:
			if e.Code == key.CodeEscape && e.Direction == key.DirPress {
				s.apply(s.sel.Cancel())
			}
		case error:
			log.Printf("overlay: window event error on %s: %v", s.disp.ID, e)
		}
	}
}

func (s *shinySurface) onMouse(e mouse.Event) {
	s.cursor = image.Pt(int(e.X), int(e.Y))
	local := localFromEvent(s.disp, e.X, e.Y)
	penetrate := e.Modifiers&key.ModAlt != 0

	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		s.apply(s.sel.PointerDown(local, penetrate))
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		s.apply(s.sel.PointerUp(local))
	case e.Direction == mouse.DirNone:
		s.apply(s.sel.PointerMove(local, penetrate))
	}
}

func (s *shinySurface) apply(out Outcome) {
	switch out {
	case OutcomeRepaint:
		s.compose()
		s.flush(s.buf.Bounds())
	case OutcomeHighlight:
		s.repaintHighlight()
	case OutcomeCaptured, OutcomeCancelled:
		s.complete()
	}
}

// complete posts the terminal result exactly once. The surface keeps
// running until the coordinator hides it.
func (s *shinySurface) complete() {
	if s.posted {
		return
	}
	s.posted = true
	s.post(s.sel.Result())
}

// compose redraws the whole buffer: dimmed background, then the
// mode-specific decorations.
func (s *shinySurface) compose() {
	dst := s.buf.RGBA()
	draw.Draw(dst, dst.Bounds(), s.dimmed, s.dimmed.Bounds().Min, draw.Src)

	switch s.sel.mode {
	case ModeArea:
		if r := s.sel.Rect(); s.sel.Phase() == PhaseSelecting && !r.Empty() {
			br := bufferRect(s.disp, r)
			punchOut(dst, s.raw, br)
			drawBorder(dst, br.Inset(-borderThickness), s.th.Border, borderThickness)
			drawLabel(dst, image.Pt(br.Min.X, br.Max.Y+4),
				fmt.Sprintf("%d x %d", r.Dx(), r.Dy()), s.th)
		}
		drawMagnifier(dst, s.raw, s.cursor, s.th)
	case ModeWindow:
		s.lastHighlight = image.Rectangle{}
		if cand, ok := s.sel.Hovered(); ok {
			hr := s.highlightRect(cand)
			drawBorder(dst, hr, s.th.Highlight, highlightThickness)
			s.lastHighlight = hr
		}
	case ModeFullscreen:
		drawBorder(dst, dst.Bounds(), s.th.Border, borderThickness)
	}
}

// repaintHighlight redraws only the previous and the new hover highlight
// instead of the full surface.
func (s *shinySurface) repaintHighlight() {
	dst := s.buf.RGBA()
	dirty := s.lastHighlight
	if !dirty.Empty() {
		draw.Draw(dst, dirty.Intersect(dst.Bounds()), s.dimmed, dirty.Min, draw.Src)
	}
	s.lastHighlight = image.Rectangle{}
	if cand, ok := s.sel.Hovered(); ok {
		hr := s.highlightRect(cand)
		drawBorder(dst, hr, s.th.Highlight, highlightThickness)
		s.lastHighlight = hr
	}
	s.flush(dirty.Union(s.lastHighlight))
}

// highlightRect maps a candidate's global frame onto this surface's buffer,
// clipped to the display.
func (s *shinySurface) highlightRect(cand wincat.Candidate) image.Rectangle {
	local := s.disp.RectToLocal(cand.Frame.Intersect(s.disp.Frame))
	return bufferRect(s.disp, local)
}

func (s *shinySurface) flush(r image.Rectangle) {
	r = r.Intersect(s.buf.Bounds())
	if r.Empty() {
		return
	}
	s.win.Upload(r.Min, s.buf, r)
	s.win.Publish()
}
