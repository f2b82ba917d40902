package main

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/overlay"
	"github.com/example/snapshade/internal/pipeline"
	"github.com/example/snapshade/internal/theme"
	"github.com/example/snapshade/internal/wincat"
)

// runSessionFn is swapped out in tests.
var runSessionFn = runSession

type sessionOutcome struct {
	res *pipeline.Result
	err error
}

// chanSink forwards the coordinator's outcome to the session's waiter.
type chanSink struct {
	ch chan sessionOutcome
}

func (s *chanSink) Captured(img *image.RGBA, region image.Rectangle) {
	s.ch <- sessionOutcome{res: &pipeline.Result{Image: img, Rect: region}}
}

func (s *chanSink) Cancelled() {
	s.ch <- sessionOutcome{}
}

func (s *chanSink) PermissionDenied(err error) {
	s.ch <- sessionOutcome{err: err}
}

// runSession opens the interactive overlay and blocks until the user
// completes or cancels the selection. A nil result without an error means
// the session was cancelled.
func runSession(mode overlay.Mode, th *theme.Theme) (*pipeline.Result, error) {
	reg, err := display.NewRegistry(display.NewBackend())
	if err != nil {
		return nil, err
	}
	defer reg.Close()

	scale := 1.0
	if descs := reg.Current(); len(descs) > 0 {
		scale = descs[0].Scale
	}
	catalog := wincat.New(wincat.NewSource(scale))
	pipe := pipeline.New(reg, pipeline.NewService(), pipeline.WithPermissionCheck(pipeline.HasCapturePermission))

	var out sessionOutcome
	driver.Main(func(scr screen.Screen) {
		snapshot := func(d display.Descriptor) (*image.RGBA, error) {
			return pipe.Peek(d.Frame)
		}
		sink := &chanSink{ch: make(chan sessionOutcome, 1)}
		coord := overlay.NewCoordinator(reg, catalog, pipe,
			overlay.NewSurfaceFactory(scr, th, snapshot), sink)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go coord.Run(ctx)
		coord.Start(mode)
		out = <-sink.ch
	})

	if out.err != nil {
		if errors.Is(out.err, pipeline.ErrPermissionDenied) {
			return nil, fmt.Errorf("screen capture is not permitted; grant access in the desktop portal and retry: %w", out.err)
		}
		return nil, out.err
	}
	return out.res, nil
}
