//go:build linux || freebsd || openbsd || netbsd || dragonfly

package wincat

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Source lists top-level windows through EWMH properties. The stacking
// order of _NET_CLIENT_LIST_STACKING (bottom to top) becomes the layer
// order, and windows owned by this process are flagged as self.
type x11Source struct {
	ownPID uint32
	scale  float64
}

// NewSource returns the platform window source. The scale factor converts
// the X server's pixel geometry into logical units.
func NewSource(scale float64) Source {
	return &x11Source{ownPID: uint32(os.Getpid()), scale: scale}
}

func (s *x11Source) ListWindows() ([]Candidate, error) {
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

	ids, err := stackingList(conn, screen.Root)
	if err != nil {
		return nil, err
	}

	desktopHeight := int(screen.HeightInPixels)
	windows := make([]Candidate, 0, len(ids))
	for layer, win := range ids {
		cand, err := s.describe(conn, screen.Root, win, desktopHeight)
		if err != nil {
			continue
		}
		cand.Layer = layer
		windows = append(windows, cand)
	}
	return windows, nil
}

func stackingList(conn *xgb.Conn, root xproto.Window) ([]xproto.Window, error) {
	listAtom, err := internAtom(conn, "_NET_CLIENT_LIST_STACKING")
	if err != nil {
		return nil, err
	}
	reply, err := xproto.GetProperty(conn, false, root, listAtom, xproto.AtomWindow, 0, 1<<16).Reply()
	if err != nil || reply.Format != 32 || reply.ValueLen == 0 {
		// Fallback to _NET_CLIENT_LIST if stacking is not available.
		listAtom, err = internAtom(conn, "_NET_CLIENT_LIST")
		if err != nil {
			return nil, err
		}
		reply, err = xproto.GetProperty(conn, false, root, listAtom, xproto.AtomWindow, 0, 1<<16).Reply()
		if err != nil {
			return nil, fmt.Errorf("client list: %w", err)
		}
	}
	ids := make([]xproto.Window, 0, reply.ValueLen)
	for idx := 0; idx < int(reply.ValueLen); idx++ {
		ids = append(ids, xproto.Window(xgb.Get32(reply.Value[idx*4:])))
	}
	return ids, nil
}

func (s *x11Source) describe(conn *xgb.Conn, root, win xproto.Window, desktopHeight int) (Candidate, error) {
	title := readUTF8Property(conn, win, "_NET_WM_NAME")
	if title == "" {
		title = readStringProperty(conn, win, "WM_NAME")
	}
	rect, err := windowRect(conn, root, win)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		ID:          uint32(win),
		Title:       title,
		Frame:       flipRect(rect, desktopHeight, s.scale),
		OwnerIsSelf: readPID(conn, win) == s.ownPID,
	}, nil
}

func windowRect(conn *xgb.Conn, root, win xproto.Window) (image.Rectangle, error) {
	geo, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	trans, err := xproto.TranslateCoordinates(conn, win, root, int16(geo.X), int16(geo.Y)).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	x := int(trans.DstX) - int(geo.BorderWidth)
	y := int(trans.DstY) - int(geo.BorderWidth)
	width := int(geo.Width) + int(geo.BorderWidth)*2
	height := int(geo.Height) + int(geo.BorderWidth)*2
	return image.Rect(x, y, x+width, y+height), nil
}

// flipRect converts a pixel rectangle with a top-left origin into the global
// logical space with a bottom-left origin.
func flipRect(r image.Rectangle, desktopHeight int, scale float64) image.Rectangle {
	minX := logicalLen(r.Min.X, scale)
	minY := logicalLen(desktopHeight-r.Max.Y, scale)
	return image.Rect(minX, minY, minX+logicalLen(r.Dx(), scale), minY+logicalLen(r.Dy(), scale))
}

func logicalLen(px int, scale float64) int {
	if scale == 0 {
		return px
	}
	return int(float64(px)/scale + 0.5)
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

func readUTF8Property(conn *xgb.Conn, win xproto.Window, name string) string {
	atom, err := internAtom(conn, name)
	if err != nil {
		return ""
	}
	utf8StringAtom, err := internAtom(conn, "UTF8_STRING")
	if err != nil {
		return ""
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, utf8StringAtom, 0, 1<<16).Reply()
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	return strings.TrimRight(string(reply.Value), "\x00")
}

func readStringProperty(conn *xgb.Conn, win xproto.Window, name string) string {
	atom, err := internAtom(conn, name)
	if err != nil {
		return ""
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomString, 0, 1<<16).Reply()
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	return strings.TrimRight(string(reply.Value), "\x00")
}

func readPID(conn *xgb.Conn, win xproto.Window) uint32 {
	atom, err := internAtom(conn, "_NET_WM_PID")
	if err != nil {
		return 0
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomCardinal, 0, 1).Reply()
	if err != nil || reply.Format != 32 || reply.ValueLen == 0 {
		return 0
	}
	return xgb.Get32(reply.Value)
}
