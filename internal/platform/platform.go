package platform

import (
	"image/color"
	"time"

	"github.com/mj1618/privacy-blur/internal/pixel"
)

// FrameSource captures the host's currently visible surface.
type FrameSource interface {
	// Capture returns a snapshot shrunk by downsampleFactor. It returns an
	// error or an empty buffer when no surface is available, and must not
	// block longer than a single frame interval.
	Capture(downsampleFactor int) (*pixel.Buffer, error)
}

// PresentationSurface is the host-owned layer the overlay paints into.
type PresentationSurface interface {
	// Attach inserts the layer above all host content.
	Attach()
	// ShowBlurred displays buf stretched to the layer's size.
	ShowBlurred(buf *pixel.Buffer)
	// ShowSolid fills the layer with an opaque colour.
	ShowSolid(c color.RGBA)
	SetOpacity(opacity float64)
	// Detach removes the layer. Safe to call when never attached.
	Detach()
}

// SurfaceLocator looks up the current host surface. Callers query it on every
// show instead of keeping a reference, so a recreated host window is picked up.
type SurfaceLocator interface {
	Current() (PresentationSurface, bool)
}

// AnimationDriver advances a value over time.
type AnimationDriver interface {
	// Animate moves from -> to over duration, calling step for each frame.
	// done is called exactly once: with true when the value reached to, with
	// false when the animation was cancelled. A zero duration still calls done,
	// either synchronously or on the next tick.
	Animate(from, to float64, duration time.Duration, step func(value float64), done func(finished bool)) Animation
}

// Animation is a running animation.
type Animation interface {
	Cancel()
}
