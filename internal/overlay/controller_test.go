package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/privacy-blur/internal/platform"
	"github.com/mj1618/privacy-blur/internal/platform/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, opts ...Option) (*Controller, *headless.Canvas) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{B: 200, A: 255}}, image.Point{}, draw.Src)
	p, err := headless.NewProvider(platform.Options{Source: img})
	require.NoError(t, err)
	p.Animator = &headless.Ticker{Interval: time.Millisecond, Interpolator: headless.AccelerateDecelerate}

	opts = append([]Option{WithConfig(DefaultConfig().Apply(Patch{FadeDuration: Ptr(10 * time.Millisecond)}))}, opts...)
	c, err := NewController(p, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, p.Surfaces.(*headless.Host).Canvas()
}

func waitPhase(t *testing.T, c *Controller, phase Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Status().Phase == phase.String() }, 2*time.Second, time.Millisecond,
		"phase %s not reached", phase)
}

func TestNewController_IncompleteProvider(t *testing.T) {
	_, err := NewController(&platform.Provider{})
	assert.ErrorIs(t, err, ErrIncompleteProvider)
}

func TestController_ShowAndHide(t *testing.T) {
	c, canvas := newTestController(t)

	c.Show()
	waitPhase(t, c, Shown)
	st := canvas.State()
	assert.True(t, st.Attached)
	assert.Equal(t, headless.ContentBlurred, st.Content)
	assert.Equal(t, 1.0, st.Opacity)
	assert.Equal(t, []string{"show-blurred 64x48", "attach"}, canvas.Ops())

	c.Hide()
	waitPhase(t, c, Hidden)
	assert.False(t, canvas.State().Attached)
}

func TestController_SolidWhenRadiusZero(t *testing.T) {
	c, canvas := newTestController(t)
	c.Configure(Patch{BlurRadius: Ptr(0)})
	c.Show()
	waitPhase(t, c, Shown)
	assert.Equal(t, headless.ContentSolid, canvas.State().Content)
}

func TestController_DisableIsSynchronous(t *testing.T) {
	c, canvas := newTestController(t)
	c.Show()
	waitPhase(t, c, Shown)

	c.Disable()
	assert.False(t, c.IsEnabled())
	assert.False(t, canvas.State().Attached)
	assert.Equal(t, "hidden", c.Status().Phase)

	c.Show()
	assert.Equal(t, "hidden", c.Status().Phase)

	c.Enable()
	require.True(t, c.Sync())
	assert.True(t, c.IsEnabled())
}

func TestController_TeardownIsSynchronous(t *testing.T) {
	c, canvas := newTestController(t, WithConfig(DefaultConfig().Apply(Patch{FadeDuration: Ptr(time.Second)})))
	c.Show()
	require.Eventually(t, func() bool { return canvas.State().Attached }, 2*time.Second, time.Millisecond)

	c.Teardown()
	assert.False(t, canvas.State().Attached)
	assert.Equal(t, "hidden", c.Status().Phase)
}

func TestController_ConcurrentShowHide(t *testing.T) {
	c, canvas := newTestController(t)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				c.Show()
				c.Hide()
				_ = c.IsEnabled()
			}
		}()
	}
	wg.Wait()

	c.Hide()
	waitPhase(t, c, Hidden)
	// No stray completion brings it back.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, "hidden", c.Status().Phase)
	assert.False(t, canvas.State().Attached)
}

func TestController_CloseIsFinal(t *testing.T) {
	c, canvas := newTestController(t)
	c.Show()
	waitPhase(t, c, Shown)

	c.Close()
	c.Close()
	assert.False(t, canvas.State().Attached)

	c.Show()
	c.Teardown()
	assert.Equal(t, "hidden", c.Status().Phase)
	assert.False(t, c.Sync())
}
