package headless

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/mj1618/privacy-blur/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	return pixel.Fill(w, h, c).Image()
}

func TestImageSource_Capture(t *testing.T) {
	src := NewImageSource(solidImage(40, 20, color.RGBA{R: 9, A: 255}))

	buf, err := src.Capture(4)
	require.NoError(t, err)
	assert.Equal(t, 10, buf.Width)
	assert.Equal(t, 5, buf.Height)
	assert.Equal(t, color.RGBA{R: 9, A: 255}, buf.RGBA(2, 2))

	full, err := src.Capture(1)
	require.NoError(t, err)
	assert.Equal(t, 40, full.Width)
}

func TestImageSource_NoSurface(t *testing.T) {
	src := NewImageSource(nil)
	_, err := src.Capture(4)
	assert.True(t, errors.Is(err, ErrNoSurface))

	src.SetImage(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	_, err = src.Capture(4)
	assert.True(t, errors.Is(err, ErrNoSurface))
}

func TestImageSource_TinyImageKeepsOnePixel(t *testing.T) {
	src := NewImageSource(solidImage(3, 2, color.RGBA{A: 255}))
	buf, err := src.Capture(4)
	require.NoError(t, err)
	assert.Equal(t, 1, buf.Width)
	assert.Equal(t, 1, buf.Height)
}

func TestCanvas_RecordsPresentation(t *testing.T) {
	c := NewCanvas()
	c.Detach() // never attached: no-op
	c.Attach()
	c.Attach()
	c.ShowSolid(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	c.SetOpacity(0.5)
	c.SetOpacity(2)

	state := c.State()
	assert.True(t, state.Attached)
	assert.Equal(t, ContentSolid, state.Content)
	assert.Equal(t, 1.0, state.Opacity)
	assert.Equal(t, 2, c.OpacityUpdates())

	c.Detach()
	c.Detach()
	assert.Equal(t, []string{"attach", "show-solid #ffffff", "detach"}, c.Ops())
	assert.False(t, c.State().Attached)
	assert.Equal(t, ContentNone, c.State().Content)
}

func TestCanvas_Composite(t *testing.T) {
	base := solidImage(4, 4, color.RGBA{B: 255, A: 255})
	c := NewCanvas()

	// Nothing attached: composite is the base.
	assert.Equal(t, color.RGBA{B: 255, A: 255}, c.Composite(base).RGBAAt(1, 1))

	c.Attach()
	c.ShowSolid(color.RGBA{R: 255, A: 255})
	c.SetOpacity(1)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, c.Composite(base).RGBAAt(1, 1))

	c.SetOpacity(0)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, c.Composite(base).RGBAAt(1, 1))

	c.ShowBlurred(pixel.Fill(2, 2, color.RGBA{G: 255, A: 255}))
	c.SetOpacity(1)
	got := c.Composite(base).RGBAAt(2, 2)
	assert.InDelta(t, 255, int(got.G), 2)
	assert.InDelta(t, 0, int(got.B), 2)
}

func TestHost_Availability(t *testing.T) {
	canvas := NewCanvas()
	h := NewHost(canvas)

	s, ok := h.Current()
	require.True(t, ok)
	assert.Same(t, canvas, s)

	h.SetAvailable(false)
	s, ok = h.Current()
	assert.False(t, ok)
	assert.Nil(t, s)

	_, ok = NewHost(nil).Current()
	assert.False(t, ok)
}

func TestTicker_RunsToCompletion(t *testing.T) {
	d := &Ticker{Interval: time.Millisecond}
	var mu sync.Mutex
	var values []float64
	done := make(chan bool, 1)

	d.Animate(0, 1, 20*time.Millisecond, func(v float64) {
		mu.Lock()
		values = append(values, v)
		mu.Unlock()
	}, func(finished bool) { done <- finished })

	select {
	case finished := <-done:
		assert.True(t, finished)
	case <-time.After(2 * time.Second):
		t.Fatal("animation never completed")
	}
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, values)
	assert.Equal(t, 1.0, values[len(values)-1])
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}
}

func TestTicker_ZeroDurationStillCompletes(t *testing.T) {
	var last atomic.Value
	done := make(chan bool, 1)
	NewTicker().Animate(1, 0, 0, func(v float64) { last.Store(v) }, func(finished bool) { done <- finished })

	select {
	case finished := <-done:
		assert.True(t, finished)
		assert.Equal(t, 0.0, last.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("zero-duration animation never completed")
	}
}

func TestTicker_CancelCompletesOnce(t *testing.T) {
	var calls atomic.Int32
	done := make(chan bool, 2)
	a := NewTicker().Animate(0, 1, time.Hour, nil, func(finished bool) {
		calls.Add(1)
		done <- finished
	})
	a.Cancel()
	a.Cancel()

	select {
	case finished := <-done:
		assert.False(t, finished)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled animation never reported completion")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAccelerateDecelerate(t *testing.T) {
	assert.InDelta(t, 0, AccelerateDecelerate(0), 1e-9)
	assert.InDelta(t, 0.5, AccelerateDecelerate(0.5), 1e-9)
	assert.InDelta(t, 1, AccelerateDecelerate(1), 1e-9)
}

func TestNewProvider_IsComplete(t *testing.T) {
	p, err := NewProvider(platform.Options{})
	require.NoError(t, err)
	assert.True(t, p.Complete())
	_, ok := p.Surfaces.(*Host)
	assert.True(t, ok)
}

func TestSnapshot(t *testing.T) {
	base := solidImage(4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	p, err := NewProvider(platform.Options{Source: base})
	require.NoError(t, err)

	img, err := Snapshot(p)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.RGBAAt(1, 1))

	canvas := p.Surfaces.(*Host).Canvas()
	canvas.ShowSolid(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	canvas.SetOpacity(1)
	canvas.Attach()
	img, err = Snapshot(p)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(2, 2))

	p.Frames.(*ImageSource).SetImage(nil)
	_, err = Snapshot(p)
	assert.ErrorIs(t, err, ErrNoSurface)

	_, err = Snapshot(&platform.Provider{})
	assert.Error(t, err)
}
