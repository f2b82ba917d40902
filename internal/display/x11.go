//go:build linux || freebsd || openbsd || netbsd || dragonfly

package display

import (
	"fmt"
	"image"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

// x11Backend enumerates displays through the X RandR extension and converts
// the X server's top-left Y-down geometry into the global bottom-left Y-up
// logical space used throughout the program.
type x11Backend struct {
	scale float64
}

// NewBackend returns the platform display backend.
func NewBackend() Backend {
	return &x11Backend{scale: scaleFromEnv()}
}

func scaleFromEnv() float64 {
	for _, key := range []string{"SNAPSHADE_SCALE", "GDK_SCALE"} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			continue
		}
		return scale
	}
	return 1.0
}

func (b *x11Backend) Descriptors() ([]Descriptor, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	if setup == nil {
		return nil, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		return nil, fmt.Errorf("xproto screen unavailable")
	}
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("init randr: %w", err)
	}
	return b.fetchDescriptors(conn, screen)
}

func (b *x11Backend) fetchDescriptors(conn *xgb.Conn, screen *xproto.ScreenInfo) ([]Descriptor, error) {
	root := screen.Root
	desktopHeight := int(screen.HeightInPixels)

	res, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("randr screen resources: %w", err)
	}
	primaryOutput := randr.Output(0)
	if primary, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primaryOutput = primary.Output
	}

	descs := make([]Descriptor, 0, len(res.Outputs))
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		descs = append(descs, Descriptor{
			ID:      strings.TrimSpace(string(info.Name)),
			Frame:   frameFromCrtc(int(crtc.X), int(crtc.Y), int(crtc.Width), int(crtc.Height), desktopHeight, b.scale),
			Scale:   b.scale,
			Primary: output == primaryOutput,
		})
	}
	return descs, nil
}

// frameFromCrtc converts pixel geometry with a top-left origin into a
// logical frame with a bottom-left origin.
func frameFromCrtc(x, y, w, h, desktopHeight int, scale float64) image.Rectangle {
	minX := logicalLen(x, scale)
	minY := logicalLen(desktopHeight-y-h, scale)
	return image.Rect(minX, minY, minX+logicalLen(w, scale), minY+logicalLen(h, scale))
}

func logicalLen(px int, scale float64) int {
	return int(math.Round(float64(px) / scale))
}

func (b *x11Backend) Watch(onChange func()) (func(), error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	setup := xproto.Setup(conn)
	if setup == nil {
		conn.Close()
		return nil, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		conn.Close()
		return nil, fmt.Errorf("xproto screen unavailable")
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init randr: %w", err)
	}
	if err := randr.SelectInputChecked(conn, screen.Root, randr.NotifyMaskScreenChange|randr.NotifyMaskCrtcChange|randr.NotifyMaskOutputChange).Check(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("randr select input: %w", err)
	}

	go func() {
		for {
			ev, err := conn.WaitForEvent()
			if err != nil || ev == nil {
				return
			}
			switch ev.(type) {
			case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
				onChange()
			}
		}
	}()
	return func() { conn.Close() }, nil
}
