// Package render holds post-capture image effects.
package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow applied to a capture.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions returns a conservative drop shadow that works well
// with most window captures.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  24,
		Offset:  image.Pt(16, 16),
		Opacity: 0.55,
	}
}

// ApplyShadow composites img onto an expanded transparent canvas with a
// blurred drop shadow behind it. The result always has a zero-based origin.
func ApplyShadow(img *image.RGBA, opts ShadowOptions) *image.RGBA {
	if img == nil || img.Bounds().Empty() || opts.Opacity <= 0 {
		return img
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}

	srcBounds := img.Bounds()
	paddedBounds := srcBounds
	if radius > 0 {
		paddedBounds = paddedBounds.Inset(-radius)
	}
	shadowBounds := paddedBounds.Add(opts.Offset)
	compositeBounds := srcBounds.Union(shadowBounds)
	dstRect := compositeBounds.Sub(compositeBounds.Min)
	if dstRect.Dx() <= 0 || dstRect.Dy() <= 0 {
		return img
	}
	shadowOrigin := shadowBounds.Min.Sub(compositeBounds.Min)

	// The shadow silhouette is the capture's alpha channel, blurred.
	mask := image.NewGray(paddedBounds.Sub(paddedBounds.Min))
	for y := srcBounds.Min.Y; y < srcBounds.Max.Y; y++ {
		for x := srcBounds.Min.X; x < srcBounds.Max.X; x++ {
			if a := img.RGBAAt(x, y).A; a != 0 {
				mask.SetGray(x-paddedBounds.Min.X, y-paddedBounds.Min.Y, color.Gray{Y: a})
			}
		}
	}
	blurred := blurGray(mask, radius)

	dst := image.NewRGBA(dstRect)
	shadowAlpha := uint8(opacity*255 + 0.5)
	draw.DrawMask(dst, blurred.Bounds().Add(shadowOrigin),
		image.NewUniform(color.RGBA{A: shadowAlpha}), image.Point{},
		blurred, blurred.Bounds().Min, draw.Over)
	draw.Draw(dst, srcBounds.Sub(compositeBounds.Min), img, srcBounds.Min, draw.Over)
	return dst
}

// blurGray is a two-pass box blur over a grayscale mask.
func blurGray(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		out := image.NewGray(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	tmp := image.NewGray(bounds)
	dst := image.NewGray(bounds)

	for y := 0; y < h; y++ {
		rowStart := y * src.Stride
		tmpStart := y * tmp.Stride
		prefix := make([]int, w+1)
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(src.Pix[rowStart+x])
		}
		for x := 0; x < w; x++ {
			x0 := max(x-radius, 0)
			x1 := min(x+radius, w-1)
			sum := prefix[x1+1] - prefix[x0]
			tmp.Pix[tmpStart+x] = uint8(sum / (x1 - x0 + 1))
		}
	}

	for x := 0; x < w; x++ {
		prefix := make([]int, h+1)
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0 := max(y-radius, 0)
			y1 := min(y+radius, h-1)
			sum := prefix[y1+1] - prefix[y0]
			dst.Pix[y*dst.Stride+x] = uint8(sum / (y1 - y0 + 1))
		}
	}

	return dst
}
