package cmd

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/mj1618/privacy-blur/internal/blur"
	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/output"
	"github.com/mj1618/privacy-blur/internal/overlay"
	"github.com/mj1618/privacy-blur/internal/platform"
	"github.com/mj1618/privacy-blur/internal/platform/headless"
	"github.com/mj1618/privacy-blur/internal/script"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the overlay with a script of steps",
	Long: `Execute a sequence of overlay steps from a YAML list on stdin against a
headless host, then print every step result and state transition.

Each step is either a bare action or a single-key map carrying its argument.
Steps execute sequentially, and by default execution stops on the first error.

Supported steps: show, hide, enable, disable, teardown, status,
configure, sleep, wait

Example:
  privacy-blur run --snapshot final.png <<'EOF'
  - configure: { blur_radius: 12, fade_duration_ms: 100 }
  - show
  - wait: shown
  - sleep: 250ms
  - hide
  - wait: { phase: hidden, timeout: 2s }
  EOF`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addOverlayFlags(runCmd)
	addSourceFlags(runCmd)
	runCmd.Flags().Bool("stop-on-error", true, "Stop execution on first error (default: true)")
	runCmd.Flags().String("snapshot", "", "Write the final host view with the overlay on top to this PNG")
	runCmd.Flags().Bool("annotate", false, "Label the snapshot with the overlay phase and opacity")
}

// scriptRun is everything the run command needs besides the parsed steps.
type scriptRun struct {
	source      image.Image
	config      overlay.Config
	strategy    blur.Strategy
	stopOnError bool
	snapshot    string
	annotate    bool
}

func runRun(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("no steps provided on stdin, pipe a YAML list of steps")
	}
	steps, err := script.Parse(data)
	if err != nil {
		return err
	}

	cfg, st, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	src, err := loadSource(cmd)
	if err != nil {
		return err
	}
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	snapshot, _ := cmd.Flags().GetString("snapshot")
	annotate, _ := cmd.Flags().GetBool("annotate")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := executeScript(ctx, steps, scriptRun{
		source:      src,
		config:      cfg,
		strategy:    st,
		stopOnError: stopOnError,
		snapshot:    snapshot,
		annotate:    annotate,
	})
	if err != nil {
		return err
	}
	return output.Print(res)
}

// executeScript runs steps against a fresh headless overlay and collects the
// transitions it makes along the way.
func executeScript(ctx context.Context, steps []model.Step, r scriptRun) (model.RunResult, error) {
	provider, err := headless.NewProvider(platform.Options{Source: r.source})
	if err != nil {
		return model.RunResult{}, err
	}

	var (
		mu          sync.Mutex
		transitions = []model.Transition{}
	)
	ctrl, err := overlay.NewController(provider,
		overlay.WithConfig(r.config),
		overlay.WithStrategy(r.strategy),
		overlay.WithLogger(logger),
		overlay.WithObserver(func(t model.Transition) {
			mu.Lock()
			transitions = append(transitions, t)
			mu.Unlock()
		}),
	)
	if err != nil {
		return model.RunResult{}, err
	}
	defer ctrl.Close()

	runner := script.NewRunner(ctrl)
	runner.StopOnError = r.stopOnError
	res := runner.Run(ctx, steps)

	// Status waits on the loop, so every transition has been observed.
	mu.Lock()
	res.Transitions = slices.Clone(transitions)
	mu.Unlock()

	if r.snapshot != "" {
		img, err := headless.Snapshot(provider)
		if err != nil {
			return res, err
		}
		var out image.Image = img
		if r.annotate {
			out = annotateSnapshot(img, res.Final)
		}
		if err := encodeImage(r.snapshot, out, 90); err != nil {
			return res, err
		}
		res.Snapshot = r.snapshot
	}
	return res, nil
}
