package platform

import (
	"errors"
	"image"
)

// Provider bundles the collaborators a compositor needs.
type Provider struct {
	Frames   FrameSource
	Surfaces SurfaceLocator
	Animator AnimationDriver
}

// Options configures provider construction.
type Options struct {
	// Source is the initial content a headless frame source serves.
	Source image.Image
}

// ErrUnsupported is returned when no backend has registered itself.
var ErrUnsupported = errors.New("no presentation backend registered for this build")

// NewProviderFunc is set by backend packages via init().
// See internal/platform/headless/init.go for the headless registration.
var NewProviderFunc func(opts Options) (*Provider, error)

// NewProvider returns a Provider from the registered backend.
func NewProvider(opts Options) (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc(opts)
}

// Complete reports whether every collaborator is present.
func (p *Provider) Complete() bool {
	return p != nil && p.Frames != nil && p.Surfaces != nil && p.Animator != nil
}
