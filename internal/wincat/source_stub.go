//go:build !linux && !freebsd && !openbsd && !netbsd && !dragonfly

package wincat

import "fmt"

type stubSource struct{}

// NewSource returns the platform window source.
func NewSource(scale float64) Source {
	return stubSource{}
}

func (stubSource) ListWindows() ([]Candidate, error) {
	return nil, fmt.Errorf("window enumeration is not supported on this platform")
}
