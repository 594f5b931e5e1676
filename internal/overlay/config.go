package overlay

import (
	"image/color"
	"math"
	"time"

	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/platform"
)

// Defaults used when no configuration has been supplied.
const (
	DefaultBlurRadius       = 20
	DefaultFadeDuration     = 200 * time.Millisecond
	DefaultDownsampleFactor = 4
	DefaultDensity          = 1.0
)

// DefaultMaskColor is painted when there is no blurred frame to show.
var DefaultMaskColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Config is an immutable configuration snapshot. A compositor replaces its
// snapshot wholesale and reads it once at the start of each transition, so a
// change never affects an animation already running.
type Config struct {
	Enabled bool
	// BlurRadius is in device-independent units; zero selects the solid mask.
	BlurRadius       int
	FadeDuration     time.Duration
	DownsampleFactor int
	// Density converts BlurRadius into pixels.
	Density   float64
	MaskColor color.RGBA
}

// DefaultConfig returns the configuration a compositor starts with.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		BlurRadius:       DefaultBlurRadius,
		FadeDuration:     DefaultFadeDuration,
		DownsampleFactor: DefaultDownsampleFactor,
		Density:          DefaultDensity,
		MaskColor:        DefaultMaskColor,
	}
}

// PixelRadius is the blur radius in pixels.
func (c Config) PixelRadius() int {
	if c.BlurRadius <= 0 {
		return 0
	}
	d := c.Density
	if d <= 0 {
		d = DefaultDensity
	}
	return int(math.Round(float64(c.BlurRadius) * d))
}

// View converts the config into its serialisable form.
func (c Config) View() model.ConfigView {
	return model.ConfigView{
		Enabled:          c.Enabled,
		BlurRadius:       c.BlurRadius,
		FadeDurationMS:   c.FadeDuration.Milliseconds(),
		DownsampleFactor: c.DownsampleFactor,
		Density:          c.Density,
		MaskColor:        platform.FormatColor(c.MaskColor),
	}
}

// Patch is a partial configuration update. Nil fields leave the current value
// unchanged.
type Patch struct {
	Enabled          *bool
	BlurRadius       *int
	FadeDuration     *time.Duration
	DownsampleFactor *int
	Density          *float64
	MaskColor        *color.RGBA
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T { return &v }

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Enabled == nil && p.BlurRadius == nil && p.FadeDuration == nil &&
		p.DownsampleFactor == nil && p.Density == nil && p.MaskColor == nil
}

// Merge returns p with every field set in o overriding it.
func (p Patch) Merge(o Patch) Patch {
	if o.Enabled != nil {
		p.Enabled = o.Enabled
	}
	if o.BlurRadius != nil {
		p.BlurRadius = o.BlurRadius
	}
	if o.FadeDuration != nil {
		p.FadeDuration = o.FadeDuration
	}
	if o.DownsampleFactor != nil {
		p.DownsampleFactor = o.DownsampleFactor
	}
	if o.Density != nil {
		p.Density = o.Density
	}
	if o.MaskColor != nil {
		p.MaskColor = o.MaskColor
	}
	return p
}

// Apply returns c updated with the fields set in p. Negative radius and
// duration clamp to zero, a downsample factor below one clamps to one, and a
// non-positive density is ignored.
func (c Config) Apply(p Patch) Config {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.BlurRadius != nil {
		c.BlurRadius = max(*p.BlurRadius, 0)
	}
	if p.FadeDuration != nil {
		c.FadeDuration = max(*p.FadeDuration, 0)
	}
	if p.DownsampleFactor != nil {
		c.DownsampleFactor = max(*p.DownsampleFactor, 1)
	}
	if p.Density != nil && *p.Density > 0 {
		c.Density = *p.Density
	}
	if p.MaskColor != nil {
		c.MaskColor = *p.MaskColor
	}
	return c
}

// PatchFromOverrides converts serialised overrides into a Patch.
func PatchFromOverrides(o *model.ConfigOverrides) (Patch, error) {
	var p Patch
	if o == nil {
		return p, nil
	}
	p.Enabled = o.Enabled
	p.BlurRadius = o.BlurRadius
	p.DownsampleFactor = o.DownsampleFactor
	p.Density = o.Density
	if o.FadeDurationMS != nil {
		p.FadeDuration = Ptr(time.Duration(*o.FadeDurationMS) * time.Millisecond)
	}
	if o.MaskColor != nil {
		c, err := platform.ParseColor(*o.MaskColor)
		if err != nil {
			return Patch{}, err
		}
		p.MaskColor = &c
	}
	return p, nil
}
