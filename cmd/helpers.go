package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/privacy-blur/internal/blur"
	"github.com/mj1618/privacy-blur/internal/overlay"
	"github.com/mj1618/privacy-blur/internal/platform"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/webp"
)

// addOverlayFlags registers the flags that override overlay configuration.
func addOverlayFlags(cmd *cobra.Command) {
	cmd.Flags().Int("radius", overlay.DefaultBlurRadius, "Blur radius in device-independent units (0 = solid mask)")
	cmd.Flags().Int("fade", int(overlay.DefaultFadeDuration/time.Millisecond), "Fade duration in milliseconds")
	cmd.Flags().Int("downsample", overlay.DefaultDownsampleFactor, "Shrink factor applied before blurring")
	cmd.Flags().Float64("density", overlay.DefaultDensity, "Pixels per device-independent unit")
	cmd.Flags().String("mask-color", "", "Solid mask color: #rrggbb, #rrggbbaa, white, black, gray")
	cmd.Flags().String("strategy", "", "Blur strategy: auto, software, accelerated")
}

// overlayPatch returns the overlay settings given explicitly on the command
// line. Flags left at their defaults do not override the config file.
func overlayPatch(cmd *cobra.Command) (overlay.Patch, error) {
	var p overlay.Patch
	flags := cmd.Flags()
	if flags.Changed("radius") {
		v, _ := flags.GetInt("radius")
		p.BlurRadius = &v
	}
	if flags.Changed("fade") {
		ms, _ := flags.GetInt("fade")
		p.FadeDuration = overlay.Ptr(time.Duration(ms) * time.Millisecond)
	}
	if flags.Changed("downsample") {
		v, _ := flags.GetInt("downsample")
		p.DownsampleFactor = &v
	}
	if flags.Changed("density") {
		v, _ := flags.GetFloat64("density")
		p.Density = &v
	}
	if flags.Changed("mask-color") {
		s, _ := flags.GetString("mask-color")
		c, err := platform.ParseColor(s)
		if err != nil {
			return overlay.Patch{}, err
		}
		p.MaskColor = &c
	}
	return p, nil
}

// resolveSettings layers the command's overlay flags over the loaded config.
func resolveSettings(cmd *cobra.Command) (overlay.Config, blur.Strategy, error) {
	p, err := overlayPatch(cmd)
	if err != nil {
		return overlay.Config{}, nil, err
	}
	settings.Apply(p)
	if cmd.Flags().Changed("strategy") {
		settings.Strategy, _ = cmd.Flags().GetString("strategy")
	}
	st, err := resolveStrategy(settings.Strategy)
	if err != nil {
		return overlay.Config{}, nil, err
	}
	return settings.OverlayConfig(), st, nil
}

func resolveStrategy(name string) (blur.Strategy, error) {
	kind, err := blur.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return blur.New(kind)
}

// addSourceFlags registers the flags describing the content a headless
// overlay captures.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "Image the headless host displays (default: generated test pattern)")
	cmd.Flags().Int("width", 320, "Test pattern width")
	cmd.Flags().Int("height", 240, "Test pattern height")
}

func loadSource(cmd *cobra.Command) (image.Image, error) {
	path, _ := cmd.Flags().GetString("image")
	if path != "" {
		return decodeImage(path)
	}
	w, _ := cmd.Flags().GetInt("width")
	h, _ := cmd.Flags().GetInt("height")
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid test pattern size %dx%d", w, h)
	}
	return testPattern(w, h), nil
}

// testPattern draws a checkerboard with a diagonal gradient, which makes
// blurring visible at any radius.
func testPattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	const cell = 16
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{
				R: uint8(255 * x / max(w-1, 1)),
				G: uint8(255 * y / max(h-1, 1)),
				B: 96,
				A: 255,
			}
			if (x/cell+y/cell)%2 == 0 {
				c.B = 224
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// decodeImage reads a PNG, JPEG, GIF or WebP file.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// encodeImage writes img to path, choosing the encoder by file extension.
func encodeImage(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	case ".gif":
		err = gif.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// outputPath derives the destination for input. An empty out writes next to
// the input with a ".blurred" suffix; a directory keeps the input's name.
func outputPath(input, out string, multiple bool) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	if out == "" {
		if ext == ".webp" {
			ext = ".png"
		}
		return filepath.Join(filepath.Dir(input), strings.TrimSuffix(base, filepath.Ext(base))+".blurred"+ext)
	}
	if info, err := os.Stat(out); (err == nil && info.IsDir()) || multiple {
		if ext == ".webp" {
			base = strings.TrimSuffix(base, ext) + ".png"
		}
		return filepath.Join(out, base)
	}
	return out
}
