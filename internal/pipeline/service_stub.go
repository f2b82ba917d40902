//go:build !linux && !freebsd && !openbsd && !netbsd && !dragonfly

package pipeline

import (
	"fmt"
	"image"

	"github.com/example/snapshade/internal/display"
)

type stubService struct{}

// NewService returns the platform capture service.
func NewService() Service {
	return stubService{}
}

func (stubService) Displays() ([]display.CaptureDisplay, error) {
	return nil, fmt.Errorf("screen capture is not supported on this platform")
}

func (stubService) CaptureDisplay(display.CaptureDisplay, CaptureOptions) (*image.RGBA, error) {
	return nil, fmt.Errorf("screen capture is not supported on this platform")
}

func (stubService) CaptureWindow(uint32) (*image.RGBA, error) {
	return nil, fmt.Errorf("screen capture is not supported on this platform")
}

func (stubService) ReadPixels(image.Rectangle) (*image.RGBA, error) {
	return nil, fmt.Errorf("screen capture is not supported on this platform")
}
