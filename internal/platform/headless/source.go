package headless

import (
	"errors"
	"image"
	"sync"

	"github.com/mj1618/privacy-blur/internal/pixel"
)

// ErrNoSurface is returned when there is nothing to capture.
var ErrNoSurface = errors.New("no visible surface to capture")

// ImageSource implements platform.FrameSource over a replaceable image.
type ImageSource struct {
	mu  sync.RWMutex
	img image.Image
}

// NewImageSource creates a source serving img. img may be nil.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

// SetImage replaces the content future captures return.
func (s *ImageSource) SetImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
}

// Image returns the current content.
func (s *ImageSource) Image() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img
}

// Capture returns the current content shrunk by downsampleFactor.
func (s *ImageSource) Capture(downsampleFactor int) (*pixel.Buffer, error) {
	img := s.Image()
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoSurface
	}
	return pixel.Downsample(img, downsampleFactor), nil
}
