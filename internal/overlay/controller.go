package overlay

import (
	"sync/atomic"

	"github.com/mj1618/privacy-blur/internal/loop"
	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/platform"
)

// Controller is a goroutine-safe facade over a Compositor. It owns the loop
// the compositor runs on. Show, Hide, Enable and Configure return once queued;
// Disable, Teardown and Status wait for the loop to run them.
//
// Controller methods must not be called from an observer callback, which
// already runs on the loop.
type Controller struct {
	loop    *loop.Loop
	comp    *Compositor
	closed  atomic.Bool
	stopped chan struct{}
}

// NewController starts a loop and a compositor bound to it.
func NewController(p *platform.Provider, opts ...Option) (*Controller, error) {
	s := newSettings(opts)
	l := loop.New(s.logger)
	comp, err := newCompositor(p, l, s)
	if err != nil {
		l.Close()
		return nil, err
	}
	return &Controller{loop: l, comp: comp, stopped: make(chan struct{})}, nil
}

// ID identifies the underlying compositor.
func (c *Controller) ID() string { return c.comp.ID() }

// Config returns the current configuration snapshot.
func (c *Controller) Config() Config { return c.comp.Config() }

// IsEnabled reports the policy flag without touching the loop.
func (c *Controller) IsEnabled() bool { return c.comp.Config().Enabled }

func (c *Controller) Configure(p Patch) { c.post(func() { c.comp.Configure(p) }) }

func (c *Controller) Enable() { c.post(func() { c.comp.SetEnabled(true) }) }

func (c *Controller) Disable() { c.call(func() { c.comp.SetEnabled(false) }) }

func (c *Controller) Show() { c.post(c.comp.Show) }

func (c *Controller) Hide() { c.post(c.comp.Hide) }

func (c *Controller) Teardown() { c.call(c.comp.Teardown) }

// Status returns the compositor state after every previously queued call has
// run.
func (c *Controller) Status() model.Status {
	var st model.Status
	if !c.call(func() { st = c.comp.Status() }) {
		// Once the loop has exited nothing else touches the compositor.
		<-c.stopped
		return c.comp.Status()
	}
	return st
}

// Sync waits until every previously queued call has run. It reports false
// once the controller is closed.
func (c *Controller) Sync() bool {
	return c.call(func() {})
}

// Close tears the overlay down, stops the blur worker and the loop. Calls
// made afterwards do nothing.
func (c *Controller) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.loop.Call(c.comp.Close)
	c.loop.Close()
	close(c.stopped)
}

func (c *Controller) post(fn func()) {
	if c.closed.Load() {
		return
	}
	c.loop.Post(fn)
}

func (c *Controller) call(fn func()) bool {
	if c.closed.Load() {
		return false
	}
	return c.loop.Call(fn)
}
