package headless

import (
	"fmt"
	"image"

	"github.com/mj1618/privacy-blur/internal/platform"
)

func init() {
	Register()
}

// Register installs the headless backend as the platform provider.
func Register() {
	platform.NewProviderFunc = NewProvider
}

// NewProvider builds a provider whose frame source serves opts.Source and
// whose surface is a fresh Canvas.
func NewProvider(opts platform.Options) (*platform.Provider, error) {
	canvas := NewCanvas()
	return &platform.Provider{
		Frames:   NewImageSource(opts.Source),
		Surfaces: NewHost(canvas),
		Animator: NewTicker(),
	}, nil
}

// Snapshot renders what a headless provider's host currently shows: the
// frame source content with the overlay drawn above it.
func Snapshot(p *platform.Provider) (*image.RGBA, error) {
	src, ok := p.Frames.(*ImageSource)
	if !ok {
		return nil, fmt.Errorf("snapshot: frame source %T is not headless", p.Frames)
	}
	host, ok := p.Surfaces.(*Host)
	if !ok {
		return nil, fmt.Errorf("snapshot: surface locator %T is not headless", p.Surfaces)
	}
	img := src.Image()
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoSurface
	}
	return host.Canvas().Composite(img), nil
}
