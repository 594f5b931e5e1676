package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/mj1618/privacy-blur/internal/blur"
	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_LatestQueuedJobWins(t *testing.T) {
	g := newGate()
	w := newWorker(g)
	defer w.stop()
	defer g.open()

	var mu sync.Mutex
	var got []uint64
	deliver := func(gen uint64) func(*pixel.Buffer, time.Duration) {
		return func(*pixel.Buffer, time.Duration) {
			mu.Lock()
			got = append(got, gen)
			mu.Unlock()
		}
	}

	buf := pixel.Fill(2, 2, red)
	require.True(t, w.submit(blurJob{gen: 1, frame: buf, radius: 1, deliver: deliver(1)}))
	// Wait until job 1 is running so the next two queue behind it.
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	w.submit(blurJob{gen: 2, frame: buf, radius: 1, deliver: deliver(2)})
	w.submit(blurJob{gen: 3, frame: buf, radius: 1, deliver: deliver(3)})
	g.open()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, []uint64{1, 3}, got)
	mu.Unlock()
}

func TestWorker_CancelDropsQueuedJob(t *testing.T) {
	g := newGate()
	w := newWorker(g)
	defer w.stop()
	defer g.open()

	delivered := make(chan uint64, 2)
	buf := pixel.Fill(2, 2, red)
	w.submit(blurJob{gen: 1, frame: buf, radius: 1, deliver: func(*pixel.Buffer, time.Duration) { delivered <- 1 }})
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	w.submit(blurJob{gen: 2, frame: buf, radius: 1, deliver: func(*pixel.Buffer, time.Duration) { delivered <- 2 }})
	w.cancel()
	g.open()

	assert.Equal(t, uint64(1), <-delivered)
	select {
	case gen := <-delivered:
		t.Fatalf("cancelled job %d delivered", gen)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestWorker_UpscalesResult(t *testing.T) {
	w := newWorker(blur.Software{})
	defer w.stop()

	out := make(chan *pixel.Buffer, 1)
	w.submit(blurJob{gen: 1, frame: pixel.Fill(3, 2, red), radius: 4, upscale: 4,
		deliver: func(b *pixel.Buffer, _ time.Duration) { out <- b }})
	b := <-out
	assert.Equal(t, 12, b.Width)
	assert.Equal(t, 8, b.Height)
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	w := newWorker(newGate())
	w.stop()
	w.stop()
	assert.False(t, w.submit(blurJob{gen: 1}))
}
