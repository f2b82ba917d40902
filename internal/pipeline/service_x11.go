//go:build linux || freebsd || openbsd || netbsd || dragonfly

package pipeline

import (
	"fmt"
	"image"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/kbinani/screenshot"

	"github.com/example/snapshade/internal/display"
)

// x11Service backs the capture service with the screenshot library for
// display pixels and a direct X11 GetImage for window pixels.
//
// The ExcludeSelf content filter holds because the coordinator withdraws
// every overlay surface before a capture request is issued; the X server no
// longer renders unmapped windows, so they cannot appear in the output.
type x11Service struct{}

// NewService returns the platform capture service.
func NewService() Service {
	return x11Service{}
}

func (x11Service) Displays() ([]display.CaptureDisplay, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("capture service reports no active displays")
	}
	displays := make([]display.CaptureDisplay, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, display.CaptureDisplay{
			Index:  i,
			Bounds: screenshot.GetDisplayBounds(i),
		})
	}
	return displays, nil
}

func (x11Service) CaptureDisplay(d display.CaptureDisplay, opts CaptureOptions) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(d.Bounds)
	if err != nil {
		return nil, fmt.Errorf("capture rect %v: %w", d.Bounds, err)
	}
	return img, nil
}

func (x11Service) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("read pixels: empty rect")
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("read pixels %v: %w", r, err)
	}
	return img, nil
}

func (x11Service) CaptureWindow(id uint32) (*image.RGBA, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	defer conn.Close()

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(id)).Reply()
	if err != nil {
		return nil, fmt.Errorf("window geometry: %w", err)
	}
	width := int(geom.Width)
	height := int(geom.Height)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("window has empty geometry")
	}

	setup := xproto.Setup(conn)
	if setup == nil {
		return nil, fmt.Errorf("xproto setup unavailable")
	}

	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(id), 0, 0, geom.Width, geom.Height, ^uint32(0)).Reply()
	if err != nil {
		return nil, fmt.Errorf("window pixels: %w", err)
	}
	return xImageToRGBA(setup, reply, width, height)
}

func xImageToRGBA(setup *xproto.SetupInfo, reply *xproto.GetImageReply, width, height int) (*image.RGBA, error) {
	if len(reply.Data) == 0 {
		return nil, fmt.Errorf("window pixels: empty image data")
	}

	bitsPerPixel := 0
	for _, format := range setup.PixmapFormats {
		if format.Depth == reply.Depth {
			bitsPerPixel = int(format.BitsPerPixel)
			break
		}
	}
	if bitsPerPixel == 0 {
		return nil, fmt.Errorf("unsupported window depth %d", reply.Depth)
	}
	bytesPerPixel := bitsPerPixel / 8
	if bytesPerPixel < 3 {
		return nil, fmt.Errorf("unsupported window pixel format %d bpp", bitsPerPixel)
	}

	stride := len(reply.Data) / height
	if stride*height != len(reply.Data) {
		return nil, fmt.Errorf("window pixels: unexpected stride")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := reply.Data[y*stride : (y+1)*stride]
		for x := 0; x < width; x++ {
			off := x * bytesPerPixel
			if off+3 > len(row) {
				break
			}
			b := row[off]
			g := row[off+1]
			r := row[off+2]
			a := byte(0xFF)
			if bytesPerPixel >= 4 && off+3 < len(row) {
				a = row[off+3]
			}
			pix := img.PixOffset(x, y)
			img.Pix[pix+0] = r
			img.Pix[pix+1] = g
			img.Pix[pix+2] = b
			img.Pix[pix+3] = a
		}
	}
	return img, nil
}
