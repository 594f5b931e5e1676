package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"time"

	"github.com/mj1618/privacy-blur/internal/blur"
	"github.com/mj1618/privacy-blur/internal/output"
	"github.com/mj1618/privacy-blur/internal/overlay"
	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var blurCmd = &cobra.Command{
	Use:   "blur <image>...",
	Short: "Blur image files the way the overlay blurs a captured frame",
	Long: `Decode each image (PNG, JPEG, GIF or WebP), shrink it by the downsample
factor, blur it with the selected strategy and scale it back to full size.
A radius of 0 writes the solid mask color instead.

Examples:
  privacy-blur blur screen.png
  privacy-blur blur --radius 30 --strategy software -o out.png screen.png
  privacy-blur blur --jobs 8 -o blurred/ shots/*.png`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: validateBlurFlags,
	RunE:    runBlur,
}

func init() {
	rootCmd.AddCommand(blurCmd)
	addOverlayFlags(blurCmd)
	blurCmd.Flags().StringP("output", "o", "", "Output file, or directory for several inputs (default: <name>.blurred.<ext>)")
	blurCmd.Flags().Int("quality", 90, "JPEG quality 1-100")
	blurCmd.Flags().Int("jobs", runtime.GOMAXPROCS(0), "Images processed concurrently")
}

func runBlur(cmd *cobra.Command, args []string) error {
	cfg, st, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	quality, _ := cmd.Flags().GetInt("quality")
	jobs, _ := cmd.Flags().GetInt("jobs")

	multiple := len(args) > 1
	if multiple && out != "" {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
	}

	results := make([]output.BlurResult, len(args))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	g, gCtx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, input := range args {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			r, err := blurFile(input, outputPath(input, out, multiple), quality, cfg, st)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return output.Print(output.BlurBatchResult{OK: true, Results: results})
}

func blurFile(input, dest string, quality int, cfg overlay.Config, st blur.Strategy) (output.BlurResult, error) {
	start := time.Now()
	img, err := decodeImage(input)
	if err != nil {
		return output.BlurResult{}, err
	}
	blurred, solid := blurImage(img, cfg, st)
	if err := encodeImage(dest, blurred, quality); err != nil {
		return output.BlurResult{}, err
	}
	b := img.Bounds()
	elapsed := time.Since(start)
	logger.Debug("blurred image",
		zap.String("input", input),
		zap.String("output", dest),
		zap.Duration("elapsed", elapsed))
	return output.BlurResult{
		Input:     input,
		Output:    dest,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Radius:    cfg.PixelRadius(),
		Strategy:  st.Name(),
		ElapsedMS: elapsed.Milliseconds(),
		Solid:     solid,
	}, nil
}

// blurImage runs the overlay's capture pipeline over a still image and
// reports whether the mask color was used instead of a blur.
func blurImage(img image.Image, cfg overlay.Config, st blur.Strategy) (image.Image, bool) {
	b := img.Bounds()
	radius := cfg.PixelRadius()
	if radius <= 0 || b.Empty() {
		return pixel.Fill(b.Dx(), b.Dy(), cfg.MaskColor).Image(), true
	}
	small := pixel.Downsample(img, cfg.DownsampleFactor)
	out := st.Blur(small, radius)
	if out.Empty() {
		return pixel.Fill(b.Dx(), b.Dy(), cfg.MaskColor).Image(), true
	}
	return pixel.Resize(out, b.Dx(), b.Dy()).Image(), false
}

func validateBlurFlags(cmd *cobra.Command, args []string) error {
	if jobs, _ := cmd.Flags().GetInt("jobs"); jobs < 0 {
		return fmt.Errorf("--jobs must be >= 0, got %d", jobs)
	}
	return nil
}
