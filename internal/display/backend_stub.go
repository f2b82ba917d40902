//go:build !linux && !freebsd && !openbsd && !netbsd && !dragonfly

package display

import "fmt"

type stubBackend struct{}

// NewBackend returns the platform display backend.
func NewBackend() Backend {
	return stubBackend{}
}

func (stubBackend) Descriptors() ([]Descriptor, error) {
	return nil, fmt.Errorf("display enumeration is not supported on this platform")
}

func (stubBackend) Watch(func()) (func(), error) {
	return func() {}, nil
}
