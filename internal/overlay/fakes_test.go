package overlay

import (
	"image/color"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/mj1618/privacy-blur/internal/platform"
	"github.com/mj1618/privacy-blur/internal/platform/headless"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{R: 255, A: 255}

// queue is a Dispatcher the test drains by hand.
type queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queue) Post(fn func()) bool {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
	return true
}

// drain runs queued functions, including ones they post, until none remain.
func (q *queue) drain() int {
	n := 0
	for {
		q.mu.Lock()
		fns := q.fns
		q.fns = nil
		q.mu.Unlock()
		if len(fns) == 0 {
			return n
		}
		for _, fn := range fns {
			fn()
			n++
		}
	}
}

// settle drains the queue until cond holds, failing after two seconds.
func (q *queue) settle(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		q.drain()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeFrames struct {
	mu    sync.Mutex
	buf   *pixel.Buffer
	err   error
	calls int
}

func (f *fakeFrames) Capture(downsampleFactor int) (*pixel.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.buf.Clone(), nil
}

func (f *fakeFrames) captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAnimation struct {
	from, to  float64
	duration  time.Duration
	step      func(float64)
	done      func(bool)
	once      sync.Once
	cancelled bool
	// late makes Cancel skip the done callback, like a driver that reports
	// completion after it was told to stop.
	late bool
}

func (a *fakeAnimation) Cancel() {
	a.cancelled = true
	if !a.late {
		a.finish(false)
	}
}

func (a *fakeAnimation) finish(finished bool) {
	a.once.Do(func() { a.done(finished) })
}

type fakeAnimator struct {
	anims []*fakeAnimation
	late  bool
}

func (f *fakeAnimator) Animate(from, to float64, d time.Duration, step func(float64), done func(bool)) platform.Animation {
	a := &fakeAnimation{from: from, to: to, duration: d, step: step, done: done, late: f.late}
	f.anims = append(f.anims, a)
	return a
}

func (f *fakeAnimator) last() *fakeAnimation {
	if len(f.anims) == 0 {
		return nil
	}
	return f.anims[len(f.anims)-1]
}

// gate is a blur strategy that blocks until released.
type gate struct {
	release chan struct{}
	calls   atomic.Int32
	once    sync.Once
}

func newGate() *gate { return &gate{release: make(chan struct{})} }

func (g *gate) Name() string { return "gate" }

func (g *gate) Blur(buf *pixel.Buffer, radius int) *pixel.Buffer {
	g.calls.Add(1)
	<-g.release
	return buf.Clone()
}

func (g *gate) open() { g.once.Do(func() { close(g.release) }) }

type harness struct {
	q           *queue
	frames      *fakeFrames
	host        *headless.Host
	canvas      *headless.Canvas
	anim        *fakeAnimator
	comp        *Compositor
	transitions []model.Transition
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		q:      &queue{},
		frames: &fakeFrames{buf: pixel.Fill(8, 8, red)},
		canvas: headless.NewCanvas(),
		anim:   &fakeAnimator{},
	}
	h.host = headless.NewHost(h.canvas)
	p := &platform.Provider{Frames: h.frames, Surfaces: h.host, Animator: h.anim}
	opts = append([]Option{WithObserver(func(tr model.Transition) {
		h.transitions = append(h.transitions, tr)
	})}, opts...)
	comp, err := New(p, h.q, opts...)
	require.NoError(t, err)
	h.comp = comp
	t.Cleanup(func() {
		comp.Close()
		h.q.drain()
	})
	return h
}

// solid configures a zero radius so presentation happens without the worker.
func (h *harness) solid() *harness {
	h.comp.Configure(Patch{BlurRadius: Ptr(0)})
	return h
}

// finishFade completes the most recent animation and runs its callbacks.
func (h *harness) finishFade() {
	h.anim.last().finish(true)
	h.q.drain()
}

func (h *harness) showFully(t *testing.T) {
	t.Helper()
	h.comp.Show()
	h.q.settle(t, func() bool { return h.comp.Status().Attached })
	h.finishFade()
	require.Equal(t, Shown, h.comp.Phase())
}

func (h *harness) count(prefix string) int {
	n := 0
	for _, op := range h.canvas.Ops() {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}
