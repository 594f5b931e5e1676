package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/mj1618/privacy-blur/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// glyphHeight is the line height of basicfont.Face7x13.
const glyphHeight = 13

// annotateSnapshot draws the overlay's status over a snapshot: a frame
// around the covered area while a surface is attached, and a label with the
// phase, opacity and generation in the top-left corner.
func annotateSnapshot(img image.Image, st model.Status) *image.RGBA {
	rgba := imageToRGBA(img)
	b := rgba.Bounds()

	frameColor := color.RGBA{R: 255, G: 0, B: 0, A: 200}
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}

	if st.Attached {
		drawRectangle(rgba, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, frameColor)
	}
	label := statusLabel(st)
	drawTextWithOutline(rgba, label, b.Min.X+4, b.Min.Y+4+glyphHeight, textColor, outlineColor)
	return rgba
}

func statusLabel(st model.Status) string {
	label := fmt.Sprintf("%s %.2f gen=%d", st.Phase, st.Opacity, st.Generation)
	if st.Presentation != "" {
		label += " " + st.Presentation
	}
	return label
}

// imageToRGBA converts any image to RGBA.
func imageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// drawRectangle draws a one-pixel outline clamped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTextWithOutline draws text with its baseline starting at (x, y),
// surrounded by a one-pixel outline so it reads on any background.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, x+dx, y+dy, outlineColor)
		}
	}
	drawString(img, text, x, y, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
