package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/snapshade/internal/theme"
)

const borderThickness = 2
const highlightThickness = 3

// dimImage returns a copy of src with the theme's dimming color blended
// over every pixel. The copy becomes the overlay's resting background.
func dimImage(src *image.RGBA, dim color.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(dim), image.Point{}, draw.Over)
	return dst
}

// punchOut restores the undimmed screen content inside r.
func punchOut(dst, raw *image.RGBA, r image.Rectangle) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, raw, r.Min.Sub(dst.Bounds().Min).Add(raw.Bounds().Min), draw.Src)
}

// drawBorder strokes the rectangle's outline with the given thickness,
// drawn just inside the rect.
func drawBorder(dst *image.RGBA, r image.Rectangle, col color.RGBA, thickness int) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	u := image.NewUniform(col)
	top := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness)
	bottom := image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y)
	left := image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y)
	right := image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y)
	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(dst, edge.Intersect(dst.Bounds()), u, image.Point{}, draw.Src)
	}
}

// drawLabel renders text on a backing box with its top-left corner at pos,
// nudged inside the destination bounds. It returns the rectangle it drew.
func drawLabel(dst *image.RGBA, pos image.Point, text string, th *theme.Theme) image.Rectangle {
	d := &font.Drawer{Face: basicfont.Face7x13}
	w := d.MeasureString(text).Ceil() + 8
	h := 18

	box := image.Rect(pos.X, pos.Y, pos.X+w, pos.Y+h)
	if box.Max.X > dst.Bounds().Max.X {
		box = box.Sub(image.Pt(box.Max.X-dst.Bounds().Max.X, 0))
	}
	if box.Max.Y > dst.Bounds().Max.Y {
		box = box.Sub(image.Pt(0, box.Max.Y-dst.Bounds().Max.Y))
	}
	if box.Min.X < dst.Bounds().Min.X {
		box = box.Add(image.Pt(dst.Bounds().Min.X-box.Min.X, 0))
	}
	if box.Min.Y < dst.Bounds().Min.Y {
		box = box.Add(image.Pt(0, dst.Bounds().Min.Y-box.Min.Y))
	}

	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(th.TextBg), image.Point{}, draw.Over)
	d.Dst = dst
	d.Src = image.NewUniform(th.Text)
	d.Dot = fixed.P(box.Min.X+4, box.Min.Y+13)
	d.DrawString(text)
	return box
}
