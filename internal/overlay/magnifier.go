package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/example/snapshade/internal/theme"
)

const (
	magnifierSample = 21 // sampled square side, surface pixels; odd so the cursor pixel sits dead center
	magnifierZoom   = 6
	magnifierMargin = 24 // loupe offset from the cursor
)

// drawMagnifier renders the pixel loupe next to the cursor: a zoomed
// nearest-neighbor view of the raw screen content around the cursor, a
// crosshair over the center pixel, and the center pixel's hex value.
// It returns the rectangle it touched so callers can track dirty regions.
func drawMagnifier(dst, raw *image.RGBA, cursor image.Point, th *theme.Theme) image.Rectangle {
	side := magnifierSample * magnifierZoom
	loupe := image.Rect(cursor.X+magnifierMargin, cursor.Y+magnifierMargin,
		cursor.X+magnifierMargin+side, cursor.Y+magnifierMargin+side)
	// Flip to the other side of the cursor when the loupe would run off
	// the surface.
	if loupe.Max.X > dst.Bounds().Max.X {
		loupe = loupe.Sub(image.Pt(side+2*magnifierMargin, 0))
	}
	if loupe.Max.Y+20 > dst.Bounds().Max.Y {
		loupe = loupe.Sub(image.Pt(0, side+2*magnifierMargin))
	}

	half := magnifierSample / 2
	for dy := 0; dy < side; dy++ {
		for dx := 0; dx < side; dx++ {
			sx := cursor.X - half + dx/magnifierZoom
			sy := cursor.Y - half + dy/magnifierZoom
			var c color.RGBA
			if image.Pt(sx, sy).In(raw.Bounds()) {
				c = raw.RGBAAt(sx, sy)
			}
			px := image.Pt(loupe.Min.X+dx, loupe.Min.Y+dy)
			if px.In(dst.Bounds()) {
				dst.SetRGBA(px.X, px.Y, c)
			}
		}
	}

	// Crosshair over the center sample cell.
	center := magnifierSample / 2 * magnifierZoom
	hairV := image.Rect(loupe.Min.X+center+magnifierZoom/2, loupe.Min.Y,
		loupe.Min.X+center+magnifierZoom/2+1, loupe.Max.Y)
	hairH := image.Rect(loupe.Min.X, loupe.Min.Y+center+magnifierZoom/2,
		loupe.Max.X, loupe.Min.Y+center+magnifierZoom/2+1)
	hair := image.NewUniform(th.Crosshair)
	draw.Draw(dst, hairV.Intersect(dst.Bounds()), hair, image.Point{}, draw.Src)
	draw.Draw(dst, hairH.Intersect(dst.Bounds()), hair, image.Point{}, draw.Src)

	drawBorder(dst, loupe, th.Border, 1)

	var c color.RGBA
	if cursor.In(raw.Bounds()) {
		c = raw.RGBAAt(cursor.X, cursor.Y)
	}
	label := drawLabel(dst, image.Pt(loupe.Min.X, loupe.Max.Y+2), hexColor(c), th)

	return loupe.Union(label)
}

// hexColor formats a pixel as #RRGGBB.
func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
