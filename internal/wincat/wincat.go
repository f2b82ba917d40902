// Package wincat enumerates on-screen windows for window-capture mode and
// provides occlusion-aware hit-testing over the result.
package wincat

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/example/snapshade/internal/display"
)

var errNoWindows = errors.New("no windows available")

// Candidate describes one top-level window. Frame is in global logical
// space; Layer orders windows back (low) to front (high).
type Candidate struct {
	ID          uint32
	Title       string
	Frame       image.Rectangle
	Layer       int
	OwnerIsSelf bool
}

// Source lists top-level windows from the windowing system.
type Source interface {
	ListWindows() ([]Candidate, error)
}

// Catalog enumerates window candidates once per capture session. Results
// are not cached across sessions; window state changes constantly.
type Catalog struct {
	source Source
}

// New creates a catalog over the given source.
func New(source Source) *Catalog {
	return &Catalog{source: source}
}

// Enumerate lists the windows eligible for capture: the capturing
// application's own windows and windows entirely off-screen are excluded,
// and the result is sorted front-most first so hit-testing is a linear scan
// taking the first match. The enumeration runs on its own goroutine; the
// context bounds how long the caller waits for it.
func (c *Catalog) Enumerate(ctx context.Context, displays []display.Descriptor) ([]Candidate, error) {
	type answer struct {
		windows []Candidate
		err     error
	}
	ch := make(chan answer, 1)
	go func() {
		windows, err := c.source.ListWindows()
		ch <- answer{windows: windows, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return nil, fmt.Errorf("enumerate windows: %w", a.err)
		}
		windows := filter(a.windows, displays)
		if len(windows) == 0 {
			return nil, errNoWindows
		}
		sort.SliceStable(windows, func(i, j int) bool {
			return windows[i].Layer > windows[j].Layer
		})
		return windows, nil
	}
}

func filter(windows []Candidate, displays []display.Descriptor) []Candidate {
	desktop := display.Union(displays)
	out := make([]Candidate, 0, len(windows))
	for _, w := range windows {
		if w.OwnerIsSelf {
			continue
		}
		if w.Frame.Empty() || !w.Frame.Overlaps(desktop) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// HitTest returns the front-most candidate containing the given global
// point. With penetrate set the first match is skipped and the one beneath
// it is returned, which lets the user select an occluded window.
func HitTest(candidates []Candidate, global image.Point, penetrate bool) (Candidate, bool) {
	skipped := false
	for _, c := range candidates {
		if !global.In(c.Frame) {
			continue
		}
		if penetrate && !skipped {
			skipped = true
			continue
		}
		return c, true
	}
	return Candidate{}, false
}
