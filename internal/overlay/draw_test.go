package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/snapshade/internal/theme"
)

func TestPunchOutRestoresRawPixels(t *testing.T) {
	raw := image.NewRGBA(image.Rect(0, 0, 100, 100))
	marker := color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xFF}
	raw.SetRGBA(50, 50, marker)

	dst := dimImage(raw, color.RGBA{A: 128})
	if dst.RGBAAt(50, 50) == marker {
		t.Fatalf("dimming left the marker untouched")
	}
	punchOut(dst, raw, image.Rect(40, 40, 60, 60))
	if got := dst.RGBAAt(50, 50); got != marker {
		t.Fatalf("punched pixel = %v, want %v", got, marker)
	}
	// Outside the punched rect stays dimmed.
	if dst.RGBAAt(10, 10) == raw.RGBAAt(10, 10) {
		t.Fatalf("pixel outside the punch lost its dimming")
	}
}

func TestDrawBorderStrokesOutlineOnly(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 50, 50))
	col := color.RGBA{R: 255, A: 255}
	drawBorder(dst, image.Rect(10, 10, 40, 40), col, 2)

	if got := dst.RGBAAt(10, 10); got != col {
		t.Fatalf("corner pixel = %v, want border color", got)
	}
	if got := dst.RGBAAt(25, 25); got == col {
		t.Fatalf("interior pixel should not be stroked")
	}
}

func TestDrawLabelStaysInBounds(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 200, 100))
	th := theme.Default()
	// A position hanging off the bottom-right corner gets nudged back in.
	box := drawLabel(dst, image.Pt(190, 95), "1920 x 1080", th)
	if !box.In(dst.Bounds()) {
		t.Fatalf("label box %v escapes bounds %v", box, dst.Bounds())
	}
}

func TestHexColor(t *testing.T) {
	got := hexColor(color.RGBA{R: 0xAB, G: 0x0C, B: 0xEF, A: 0xFF})
	if got != "#AB0CEF" {
		t.Fatalf("hexColor = %q, want #AB0CEF", got)
	}
}

func TestDrawMagnifierNearEdgeStaysInBounds(t *testing.T) {
	raw := image.NewRGBA(image.Rect(0, 0, 400, 300))
	dst := dimImage(raw, color.RGBA{A: 110})
	th := theme.Default()

	for _, cursor := range []image.Point{
		{X: 0, Y: 0},
		{X: 399, Y: 299},
		{X: 399, Y: 0},
		{X: 0, Y: 299},
		{X: 200, Y: 150},
	} {
		dirty := drawMagnifier(dst, raw, cursor, th)
		if dirty.Empty() {
			t.Fatalf("magnifier at %v drew nothing", cursor)
		}
	}
}
