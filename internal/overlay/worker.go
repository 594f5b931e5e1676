package overlay

import (
	"sync"
	"time"

	"github.com/mj1618/privacy-blur/internal/blur"
	"github.com/mj1618/privacy-blur/internal/pixel"
)

// blurJob is one captured frame waiting to be blurred. The frame belongs to
// the worker once submitted.
type blurJob struct {
	gen     uint64
	frame   *pixel.Buffer
	radius  int
	upscale int
	deliver func(out *pixel.Buffer, elapsed time.Duration)
}

// worker blurs frames on a single goroutine. It holds at most one queued job;
// submitting replaces a job that has not started yet.
type worker struct {
	strategy blur.Strategy

	mu      sync.Mutex
	queued  *blurJob
	started bool
	stopped bool
	wake    chan struct{}
	quit    chan struct{}
	exited  chan struct{}
}

func newWorker(strategy blur.Strategy) *worker {
	return &worker{
		strategy: strategy,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

// submit queues j, superseding any job not yet picked up. It reports false if
// the worker has been stopped.
func (w *worker) submit(j blurJob) bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return false
	}
	w.queued = &j
	if !w.started {
		w.started = true
		go w.run()
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// cancel drops the queued job, if any. A job already running still delivers;
// its generation makes the result stale.
func (w *worker) cancel() {
	w.mu.Lock()
	w.queued = nil
	w.mu.Unlock()
}

func (w *worker) take() *blurJob {
	w.mu.Lock()
	defer w.mu.Unlock()
	j := w.queued
	w.queued = nil
	return j
}

func (w *worker) run() {
	defer close(w.exited)
	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
		}
		j := w.take()
		if j == nil {
			continue
		}
		start := time.Now()
		out := w.strategy.Blur(j.frame, j.radius)
		out = pixel.Upscale(out, j.upscale)
		j.deliver(out, time.Since(start))
	}
}

// stop ends the worker goroutine and waits for a running job to deliver.
func (w *worker) stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.queued = nil
	started := w.started
	w.mu.Unlock()

	close(w.quit)
	if started {
		<-w.exited
	}
}
