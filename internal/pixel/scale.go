package pixel

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample shrinks img by an integer factor, keeping at least one pixel on
// each axis. A factor of 1 or less copies the image at full size.
func Downsample(img image.Image, factor int) *Buffer {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return New(0, 0)
	}
	if factor <= 1 {
		return FromImage(img)
	}
	w := max(1, bounds.Dx()/factor)
	h := max(1, bounds.Dy()/factor)
	out := New(w, h)
	draw.ApproxBiLinear.Scale(out.Image(), out.Image().Bounds(), img, bounds, draw.Src, nil)
	return out
}

// Resize returns b scaled to width x height. Enlarging uses CatmullRom so the
// upscaled blur stays soft instead of blocky.
func Resize(b *Buffer, width, height int) *Buffer {
	if b.Empty() || width <= 0 || height <= 0 {
		return b
	}
	if width == b.Width && height == b.Height {
		return b.Clone()
	}
	out := New(width, height)
	draw.CatmullRom.Scale(out.Image(), out.Image().Bounds(), b.Image(), b.Image().Bounds(), draw.Src, nil)
	return out
}

// Upscale enlarges b by an integer factor, the inverse of Downsample.
func Upscale(b *Buffer, factor int) *Buffer {
	if factor <= 1 || b.Empty() {
		return b
	}
	return Resize(b, b.Width*factor, b.Height*factor)
}
