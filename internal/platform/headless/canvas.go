package headless

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/mj1618/privacy-blur/internal/platform"
	"golang.org/x/image/draw"
)

// Content is what the canvas currently displays.
type Content int

const (
	ContentNone Content = iota
	ContentBlurred
	ContentSolid
)

func (c Content) String() string {
	switch c {
	case ContentBlurred:
		return "blurred"
	case ContentSolid:
		return "solid"
	default:
		return "none"
	}
}

// CanvasState is a point-in-time view of a Canvas.
type CanvasState struct {
	Attached bool
	Content  Content
	Opacity  float64
	Solid    color.RGBA
}

// Canvas implements platform.PresentationSurface in memory. It records the
// sequence of presentation calls (opacity updates excepted) for inspection.
type Canvas struct {
	mu       sync.Mutex
	attached bool
	content  Content
	blurred  *pixel.Buffer
	solid    color.RGBA
	opacity  float64
	ops      []string
	frames   int
}

// NewCanvas returns a detached, empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{}
}

func (c *Canvas) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attached {
		return
	}
	c.attached = true
	c.ops = append(c.ops, "attach")
}

func (c *Canvas) ShowBlurred(buf *pixel.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = ContentBlurred
	c.blurred = buf
	c.ops = append(c.ops, fmt.Sprintf("show-blurred %dx%d", buf.Width, buf.Height))
}

func (c *Canvas) ShowSolid(col color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = ContentSolid
	c.blurred = nil
	c.solid = col
	c.ops = append(c.ops, fmt.Sprintf("show-solid %s", platform.FormatColor(col)))
}

func (c *Canvas) SetOpacity(opacity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opacity = min(max(opacity, 0), 1)
	c.frames++
}

// Detach clears the canvas. Calling it when not attached does nothing.
func (c *Canvas) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return
	}
	c.attached = false
	c.content = ContentNone
	c.blurred = nil
	c.opacity = 0
	c.ops = append(c.ops, "detach")
}

// State returns the current canvas state.
func (c *Canvas) State() CanvasState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CanvasState{Attached: c.attached, Content: c.content, Opacity: c.opacity, Solid: c.solid}
}

// Ops returns a copy of the recorded presentation calls.
func (c *Canvas) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...)
}

// OpacityUpdates returns how many SetOpacity calls the canvas received.
func (c *Canvas) OpacityUpdates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Composite draws the overlay above base at its current opacity, the way the
// host would see it on screen.
func (c *Canvas) Composite(base image.Image) *image.RGBA {
	bounds := base.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), base, bounds.Min, draw.Src)

	c.mu.Lock()
	attached, content, blurred, solid, opacity := c.attached, c.content, c.blurred, c.solid, c.opacity
	c.mu.Unlock()

	if !attached || content == ContentNone || opacity <= 0 {
		return dst
	}
	if content == ContentBlurred && blurred.Empty() {
		return dst
	}

	var src image.Image
	switch content {
	case ContentBlurred:
		src = pixel.Resize(blurred, dst.Rect.Dx(), dst.Rect.Dy()).Image()
	case ContentSolid:
		src = image.NewUniform(solid)
	}
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, dst.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
	return dst
}

// Host implements platform.SurfaceLocator for a single canvas whose
// availability can be toggled, simulating a host window coming and going.
type Host struct {
	mu        sync.RWMutex
	canvas    *Canvas
	available bool
}

// NewHost returns an available host backed by canvas.
func NewHost(canvas *Canvas) *Host {
	return &Host{canvas: canvas, available: canvas != nil}
}

// SetAvailable marks the host window as present or gone.
func (h *Host) SetAvailable(available bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.available = available && h.canvas != nil
}

// Canvas returns the backing canvas.
func (h *Host) Canvas() *Canvas {
	return h.canvas
}

func (h *Host) Current() (platform.PresentationSurface, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.available {
		return nil, false
	}
	return h.canvas, true
}
