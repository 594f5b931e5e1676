// Package loop provides a serialized execution context: a single goroutine
// that runs posted functions one at a time in FIFO order. It plays the role a
// UI thread plays in a host toolkit.
package loop

import (
	"sync"

	"go.uber.org/zap"
)

// Loop runs posted functions sequentially on one goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	exited chan struct{}
	logger *zap.Logger
}

// New starts a loop. logger may be nil.
func New(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loop{
		wake:   make(chan struct{}, 1),
		exited: make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

// Post queues fn and returns immediately. It reports false once the loop is
// closed, in which case fn never runs. Post never blocks, so it is safe to
// call from the loop itself.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call queues fn and waits for it to finish. It must not be called from the
// loop goroutine.
func (l *Loop) Call(fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

// Close stops accepting work, runs whatever is already queued, and waits for
// the goroutine to exit. Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	already := l.closed
	l.closed = true
	l.mu.Unlock()

	if !already {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	<-l.exited
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, fn := range batch {
			l.invoke(fn)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-l.wake
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}
