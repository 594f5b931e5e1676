package headless

import (
	"math"
	"sync"
	"time"

	"github.com/mj1618/privacy-blur/internal/platform"
)

// FrameInterval is the ticker period, one 60 Hz display frame.
const FrameInterval = time.Second / 60

// AccelerateDecelerate eases in and out along a cosine curve.
func AccelerateDecelerate(t float64) float64 {
	return math.Cos((t+1)*math.Pi)/2 + 0.5
}

// Ticker implements platform.AnimationDriver with one goroutine per animation
// stepping on a time.Ticker.
type Ticker struct {
	Interval     time.Duration
	Interpolator func(t float64) float64
}

// NewTicker returns a 60 Hz driver with accelerate/decelerate easing.
func NewTicker() *Ticker {
	return &Ticker{Interval: FrameInterval, Interpolator: AccelerateDecelerate}
}

type tickerAnimation struct {
	stop     chan struct{}
	stopOnce sync.Once
	doneOnce sync.Once
	done     func(bool)
}

func (a *tickerAnimation) Cancel() {
	a.stopOnce.Do(func() { close(a.stop) })
}

func (a *tickerAnimation) finish(finished bool) {
	a.doneOnce.Do(func() {
		if a.done != nil {
			a.done(finished)
		}
	})
}

func (d *Ticker) Animate(from, to float64, duration time.Duration, step func(float64), done func(bool)) platform.Animation {
	a := &tickerAnimation{stop: make(chan struct{}), done: done}
	go d.run(a, from, to, duration, step)
	return a
}

func (d *Ticker) run(a *tickerAnimation, from, to float64, duration time.Duration, step func(float64)) {
	if step == nil {
		step = func(float64) {}
	}
	interp := d.Interpolator
	if interp == nil {
		interp = AccelerateDecelerate
	}
	interval := d.Interval
	if interval <= 0 {
		interval = FrameInterval
	}

	if duration <= 0 {
		select {
		case <-a.stop:
			a.finish(false)
		default:
			step(to)
			a.finish(true)
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-a.stop:
			a.finish(false)
			return
		case now := <-ticker.C:
			f := float64(now.Sub(start)) / float64(duration)
			if f >= 1 {
				step(to)
				a.finish(true)
				return
			}
			step(from + (to-from)*interp(f))
		}
	}
}
