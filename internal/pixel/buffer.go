package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// Buffer is a plain RGBA raster. Pix holds four samples per pixel in R, G, B, A
// order, row-major, with no row padding: len(Pix) == 4*Width*Height.
//
// A Buffer is owned by exactly one stage of the pipeline at a time. Stages that
// transform a buffer return a new one rather than writing into their input.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed (transparent black) buffer.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{Width: width, Height: height, Pix: make([]uint8, 4*width*height)}
}

// Fill returns a buffer of the given size where every pixel is c.
func Fill(width, height int, c color.RGBA) *Buffer {
	b := New(width, height)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i+0] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = c.A
	}
	return b
}

// Empty reports whether the buffer has no pixels. A nil buffer is empty.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0 || len(b.Pix) < 4*b.Width*b.Height
}

// RGBA returns the pixel at (x, y). Coordinates outside the buffer return
// transparent black.
func (b *Buffer) RGBA(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.RGBA{}
	}
	i := 4 * (y*b.Width + x)
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set writes c at (x, y). Out-of-range coordinates are ignored.
func (b *Buffer) Set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := 4 * (y*b.Width + x)
	b.Pix[i+0] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// Image wraps the buffer as an *image.RGBA sharing the same backing slice.
func (b *Buffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: 4 * b.Width,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage copies any image into a new Buffer anchored at (0, 0).
func FromImage(img image.Image) *Buffer {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	out := New(bounds.Dx(), bounds.Dy())
	if out.Empty() {
		return out
	}
	draw.Draw(out.Image(), out.Image().Bounds(), img, bounds.Min, draw.Src)
	return out
}
