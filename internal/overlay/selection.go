package overlay

import (
	"image"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/wincat"
)

// minSelectionSize is the smallest drag, in local logical units per axis,
// that still produces a capture. Anything smaller is treated as a slip of
// the hand and discarded back to Idle.
const minSelectionSize = 10

// Phase is the interaction state of one surface.
type Phase int

const (
	// PhaseIdle shows dimming and waits for input.
	PhaseIdle Phase = iota
	// PhaseSelecting tracks an in-progress drag.
	PhaseSelecting
	// PhaseCaptured holds a resolved region or window.
	PhaseCaptured
	// PhaseCancelled ends the session without a capture.
	PhaseCancelled
)

// Outcome tells the surface what a pointer or key event changed.
type Outcome int

const (
	// OutcomeNone requires no repaint.
	OutcomeNone Outcome = iota
	// OutcomeRepaint requires a full surface repaint.
	OutcomeRepaint
	// OutcomeHighlight requires repainting only the hover highlight.
	OutcomeHighlight
	// OutcomeCaptured ends the session with a result.
	OutcomeCaptured
	// OutcomeCancelled ends the session without a result.
	OutcomeCancelled
)

// Selection is the interaction state machine for one surface. All
// coordinates it holds are in the surface's local logical space; the
// conversion to global space is exactly local + Frame.Min and happens only
// in Result.
type Selection struct {
	disp display.Descriptor
	mode Mode

	phase   Phase
	start   image.Point
	rect    image.Rectangle
	windows []wincat.Candidate
	hovered *wincat.Candidate
}

// NewSelection creates the state machine for a surface bound to the given
// display.
func NewSelection(d display.Descriptor, mode Mode) *Selection {
	return &Selection{disp: d, mode: mode}
}

// SetWindows installs the candidates used for hover hit-testing in window
// mode. They arrive asynchronously after the surface is shown.
func (s *Selection) SetWindows(windows []wincat.Candidate) {
	s.windows = windows
}

// Phase returns the current interaction phase.
func (s *Selection) Phase() Phase { return s.phase }

// Rect returns the current selection rectangle in local logical space,
// normalized regardless of drag direction.
func (s *Selection) Rect() image.Rectangle { return s.rect }

// Hovered returns the window currently under the pointer in window mode.
func (s *Selection) Hovered() (wincat.Candidate, bool) {
	if s.hovered == nil {
		return wincat.Candidate{}, false
	}
	return *s.hovered, true
}

// PointerDown handles a press at the given local position.
func (s *Selection) PointerDown(local image.Point, penetrate bool) Outcome {
	switch s.mode {
	case ModeArea:
		if s.phase != PhaseIdle {
			return OutcomeNone
		}
		s.start = local
		s.rect = image.Rectangle{Min: local, Max: local}
		s.phase = PhaseSelecting
		return OutcomeRepaint
	case ModeWindow:
		s.updateHover(local, penetrate)
		if s.hovered == nil {
			return OutcomeNone
		}
		s.phase = PhaseCaptured
		return OutcomeCaptured
	case ModeFullscreen:
		s.phase = PhaseCaptured
		return OutcomeCaptured
	}
	return OutcomeNone
}

// PointerMove handles pointer motion at the given local position.
func (s *Selection) PointerMove(local image.Point, penetrate bool) Outcome {
	switch s.mode {
	case ModeArea:
		if s.phase != PhaseSelecting {
			// The magnifier follows the pointer even before a drag starts.
			return OutcomeRepaint
		}
		s.rect = image.Rect(s.start.X, s.start.Y, local.X, local.Y)
		return OutcomeRepaint
	case ModeWindow:
		if s.updateHover(local, penetrate) {
			return OutcomeHighlight
		}
		return OutcomeNone
	}
	return OutcomeNone
}

// PointerUp handles a release at the given local position.
func (s *Selection) PointerUp(local image.Point) Outcome {
	if s.mode != ModeArea || s.phase != PhaseSelecting {
		return OutcomeNone
	}
	s.rect = image.Rect(s.start.X, s.start.Y, local.X, local.Y)
	if s.rect.Dx() < minSelectionSize || s.rect.Dy() < minSelectionSize {
		// Too small to be intentional: back to Idle, no capture.
		s.rect = image.Rectangle{}
		s.phase = PhaseIdle
		return OutcomeRepaint
	}
	s.phase = PhaseCaptured
	return OutcomeCaptured
}

// Cancel handles the escape key.
func (s *Selection) Cancel() Outcome {
	if s.phase != PhaseIdle && s.phase != PhaseSelecting {
		return OutcomeNone
	}
	s.phase = PhaseCancelled
	return OutcomeCancelled
}

func (s *Selection) updateHover(local image.Point, penetrate bool) bool {
	global := s.disp.ToGlobal(local)
	cand, ok := wincat.HitTest(s.windows, global, penetrate)
	if !ok {
		changed := s.hovered != nil
		s.hovered = nil
		return changed
	}
	if s.hovered != nil && s.hovered.ID == cand.ID {
		return false
	}
	s.hovered = &cand
	return true
}

// Result materializes the terminal outcome. Valid only once the phase is
// PhaseCaptured or PhaseCancelled.
func (s *Selection) Result() Result {
	switch s.phase {
	case PhaseCaptured:
		switch s.mode {
		case ModeArea:
			return Result{Kind: KindRegion, Region: s.disp.RectToGlobal(s.rect)}
		case ModeWindow:
			return Result{Kind: KindWindow, Window: *s.hovered}
		case ModeFullscreen:
			return Result{Kind: KindRegion, Region: s.disp.Frame}
		}
	}
	return Result{Kind: KindCancelled}
}
