// Package overlay implements the privacy overlay: a state machine that
// captures the current frame, blurs it off the owner context, and fades the
// result in and out over the host content.
package overlay

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/privacy-blur/internal/blur"
	"github.com/mj1618/privacy-blur/internal/metrics"
	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/mj1618/privacy-blur/internal/platform"
	"go.uber.org/zap"
)

// ErrIncompleteProvider is returned when a provider lacks a collaborator.
var ErrIncompleteProvider = errors.New("overlay: provider is missing a collaborator")

// Dispatcher runs functions on the compositor's owner context, one at a time
// and in order. *loop.Loop implements it.
type Dispatcher interface {
	Post(fn func()) bool
}

// Presentation kinds reported in Status and metrics.
const (
	PresentBlurred = "blurred"
	PresentSolid   = "solid"
)

type settings struct {
	logger   *zap.Logger
	metrics  *metrics.Overlay
	strategy blur.Strategy
	observer func(model.Transition)
	config   Config
}

// Option customises a Compositor.
type Option func(*settings)

// WithLogger sets the diagnostics logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics records transitions and blur timings into m.
func WithMetrics(m *metrics.Overlay) Option {
	return func(s *settings) { s.metrics = m }
}

// WithStrategy selects the blur implementation. The default is the software
// stack blur.
func WithStrategy(st blur.Strategy) Option {
	return func(s *settings) { s.strategy = st }
}

// WithObserver registers fn to receive every state transition. fn runs on the
// owner context and must not block.
func WithObserver(fn func(model.Transition)) Option {
	return func(s *settings) { s.observer = fn }
}

// WithConfig sets the initial configuration.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.config = cfg }
}

func newSettings(opts []Option) settings {
	s := settings{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.strategy == nil {
		s.strategy = blur.Software{RadiusScale: blur.DefaultSoftwareScale}
	}
	return s
}

// Compositor drives one overlay. Except for Config and ID, its methods must
// only be called from the dispatcher's context; every asynchronous completion
// is posted back there and checked against the current generation.
type Compositor struct {
	id       string
	frames   platform.FrameSource
	surfaces platform.SurfaceLocator
	animator platform.AnimationDriver
	dispatch Dispatcher
	strategy blur.Strategy
	worker   *worker
	logger   *zap.Logger
	metrics  *metrics.Overlay
	observer func(model.Transition)

	config atomic.Pointer[Config]

	// Owned by the dispatcher context.
	phase        Phase
	target       float64
	opacity      float64
	gen          uint64
	surface      platform.PresentationSurface
	anim         platform.Animation
	pending      bool
	presentation string
	seq          uint64
	last         *model.Transition
	closed       bool
}

// New returns a hidden compositor driven by p's collaborators.
func New(p *platform.Provider, dispatch Dispatcher, opts ...Option) (*Compositor, error) {
	return newCompositor(p, dispatch, newSettings(opts))
}

func newCompositor(p *platform.Provider, dispatch Dispatcher, s settings) (*Compositor, error) {
	if !p.Complete() {
		return nil, ErrIncompleteProvider
	}
	if dispatch == nil {
		return nil, errors.New("overlay: nil dispatcher")
	}
	c := &Compositor{
		id:       uuid.NewString(),
		frames:   p.Frames,
		surfaces: p.Surfaces,
		animator: p.Animator,
		dispatch: dispatch,
		strategy: s.strategy,
		worker:   newWorker(s.strategy),
		metrics:  s.metrics,
		observer: s.observer,
	}
	c.logger = s.logger.With(zap.String("overlay", c.id))
	cfg := s.config
	c.config.Store(&cfg)
	return c, nil
}

// ID identifies the compositor in logs and status.
func (c *Compositor) ID() string { return c.id }

// Config returns the current configuration snapshot. Safe from any goroutine.
func (c *Compositor) Config() Config { return *c.config.Load() }

// Phase returns the current lifecycle phase.
func (c *Compositor) Phase() Phase { return c.phase }

// Status returns a serialisable view of the compositor.
func (c *Compositor) Status() model.Status {
	st := model.Status{
		ID:           c.id,
		Phase:        c.phase.String(),
		Target:       c.target,
		Opacity:      c.opacity,
		Generation:   c.gen,
		Attached:     c.surface != nil,
		BlurPending:  c.pending,
		Presentation: c.presentation,
		Strategy:     c.strategy.Name(),
		Config:       c.Config().View(),
		Transitions:  int(c.seq),
	}
	if c.last != nil {
		t := *c.last
		st.Last = &t
	}
	return st
}

// Configure replaces the configuration with the current one updated by p. A
// patch that disables the overlay tears it down immediately.
func (c *Compositor) Configure(p Patch) {
	next := c.Config().Apply(p)
	c.config.Store(&next)
	c.logger.Debug("configured",
		zap.Bool("enabled", next.Enabled),
		zap.Int("blur_radius", next.BlurRadius),
		zap.Duration("fade", next.FadeDuration))
	if !next.Enabled {
		c.teardown("disable")
	}
}

// SetEnabled toggles the policy flag. Disabling tears down without animation.
func (c *Compositor) SetEnabled(enabled bool) {
	c.Configure(Patch{Enabled: &enabled})
}

// Show captures the current frame and fades the overlay in. It does nothing
// when disabled, when already showing, or when there is no host surface. From
// Hiding it starts over with a fresh capture, keeping the surface attached.
func (c *Compositor) Show() {
	if c.closed {
		return
	}
	cfg := c.Config()
	if !cfg.Enabled {
		c.logger.Debug("show ignored", zap.String("reason", "disabled"))
		return
	}
	if c.phase.Visible() {
		return
	}
	surface := c.surface
	if surface == nil {
		s, ok := c.surfaces.Current()
		if !ok {
			c.logger.Debug("show ignored", zap.String("reason", "no host surface"))
			return
		}
		surface = s
	}

	c.cancelAnimation()
	c.worker.cancel()
	gen := c.advance()
	c.target = 1
	c.transition("show", Showing, "")

	radius := cfg.PixelRadius()
	if radius <= 0 {
		c.presentSolid(gen, cfg, surface, "no-radius")
		return
	}
	frame, err := c.frames.Capture(cfg.DownsampleFactor)
	switch {
	case err != nil:
		c.logger.Warn("capture failed, using solid mask", zap.Error(err))
		c.presentSolid(gen, cfg, surface, "capture-failed")
	case frame.Empty():
		c.logger.Debug("empty capture, using solid mask")
		c.presentSolid(gen, cfg, surface, "capture-empty")
	default:
		c.requestBlur(gen, cfg, surface, frame, radius)
	}
}

// Hide fades the overlay out and detaches it. A show still waiting for its
// blur is abandoned without ever attaching.
func (c *Compositor) Hide() {
	if c.closed || !c.phase.Visible() {
		return
	}
	cfg := c.Config()
	c.cancelAnimation()
	c.worker.cancel()
	c.pending = false
	gen := c.advance()
	c.target = 0
	if c.surface == nil {
		c.transition("hide", Hidden, "blur cancelled")
		return
	}
	c.transition("hide", Hiding, "")
	c.fade(gen, 0, cfg.FadeDuration, func() {
		c.detach()
		c.transition("fade-out-complete", Hidden, "")
	})
}

// Teardown detaches the overlay at once from any phase. Completions still in
// flight are ignored afterwards.
func (c *Compositor) Teardown() {
	c.teardown("teardown")
}

// Close tears down and stops the blur worker. The compositor ignores Show and
// Hide afterwards.
func (c *Compositor) Close() {
	if c.closed {
		return
	}
	c.teardown("close")
	c.closed = true
	c.worker.stop()
}

func (c *Compositor) teardown(event string) {
	if c.phase == Hidden && c.surface == nil {
		return
	}
	c.cancelAnimation()
	c.worker.cancel()
	c.pending = false
	c.advance()
	c.target = 0
	c.detach()
	c.transition(event, Hidden, "")
}

func (c *Compositor) requestBlur(gen uint64, cfg Config, surface platform.PresentationSurface, frame *pixel.Buffer, radius int) {
	c.pending = true
	ok := c.worker.submit(blurJob{
		gen:     gen,
		frame:   frame,
		radius:  radius,
		upscale: cfg.DownsampleFactor,
		deliver: func(out *pixel.Buffer, elapsed time.Duration) {
			c.dispatch.Post(func() {
				c.metrics.ObserveBlur(c.strategy.Name(), elapsed)
				c.onBlurred(gen, cfg, out)
			})
		},
	})
	if !ok {
		c.pending = false
		c.presentSolid(gen, cfg, surface, "worker-stopped")
	}
}

func (c *Compositor) onBlurred(gen uint64, cfg Config, out *pixel.Buffer) {
	if gen != c.gen || !c.pending {
		c.metrics.ObserveStale("blur")
		c.logger.Debug("dropping stale blur", zap.Uint64("generation", gen), zap.Uint64("current", c.gen))
		return
	}
	c.pending = false

	// The host may have gone away while the blur ran.
	surface := c.surface
	if surface == nil {
		s, ok := c.surfaces.Current()
		if !ok {
			c.advance()
			c.target = 0
			c.transition("surface-lost", Hidden, "no host surface")
			return
		}
		surface = s
	}
	c.present(gen, cfg, surface, func(s platform.PresentationSurface) { s.ShowBlurred(out) }, PresentBlurred, "ok")
}

func (c *Compositor) presentSolid(gen uint64, cfg Config, surface platform.PresentationSurface, reason string) {
	mask := cfg.MaskColor
	c.present(gen, cfg, surface, func(s platform.PresentationSurface) { s.ShowSolid(mask) }, PresentSolid, reason)
}

func (c *Compositor) present(gen uint64, cfg Config, surface platform.PresentationSurface, paint func(platform.PresentationSurface), kind, reason string) {
	paint(surface)
	if c.surface == nil {
		surface.SetOpacity(0)
		surface.Attach()
		c.surface = surface
		c.opacity = 0
		c.metrics.SetVisible(true)
	}
	c.presentation = kind
	c.metrics.ObservePresentation(kind, reason)
	c.fade(gen, 1, cfg.FadeDuration, func() {
		c.transition("fade-in-complete", Shown, "")
	})
}

// fade animates the attached surface from its current opacity to `to`. Steps
// and completion are posted to the owner context and dropped once the
// generation has moved on.
func (c *Compositor) fade(gen uint64, to float64, d time.Duration, done func()) {
	c.anim = c.animator.Animate(c.opacity, to, d,
		func(v float64) {
			c.dispatch.Post(func() {
				if gen != c.gen || c.surface == nil {
					return
				}
				c.opacity = v
				c.surface.SetOpacity(v)
			})
		},
		func(finished bool) {
			c.dispatch.Post(func() {
				if gen != c.gen {
					if finished {
						c.metrics.ObserveStale("animation")
					}
					return
				}
				c.anim = nil
				if !finished {
					return
				}
				c.opacity = to
				if c.surface != nil {
					c.surface.SetOpacity(to)
				}
				done()
			})
		})
}

func (c *Compositor) cancelAnimation() {
	if c.anim == nil {
		return
	}
	a := c.anim
	c.anim = nil
	a.Cancel()
}

func (c *Compositor) detach() {
	if c.surface != nil {
		c.surface.Detach()
		c.surface = nil
		c.metrics.SetVisible(false)
	}
	c.opacity = 0
	c.presentation = ""
}

func (c *Compositor) advance() uint64 {
	c.gen++
	return c.gen
}

func (c *Compositor) transition(event string, to Phase, reason string) {
	from := c.phase
	c.phase = to
	c.seq++
	t := model.Transition{
		Seq:        c.seq,
		Event:      event,
		From:       from.String(),
		To:         to.String(),
		Generation: c.gen,
		Reason:     reason,
	}
	c.last = &t
	c.metrics.ObserveTransition(event, t.From, t.To)
	c.logger.Debug("transition",
		zap.String("event", event),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Uint64("generation", c.gen))
	if c.observer != nil {
		c.observer(t)
	}
}
