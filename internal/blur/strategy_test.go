package blur

import (
	"image/color"
	"math/rand"
	"runtime"
	"testing"

	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveRadius(t *testing.T) {
	tests := []struct {
		requested int
		scale     float64
		want      int
	}{
		{0, 0.5, 0},
		{-4, 0.5, 0},
		{1, 0.5, 1},
		{20, 0.5, 10},
		{21, 0.5, 11},
		{20, 1, 20},
		{20, 0, 20},
		{10000, 1, MaxRadius},
	}
	for _, tt := range tests {
		got := EffectiveRadius(tt.requested, tt.scale)
		if got != tt.want {
			t.Errorf("EffectiveRadius(%d, %v) = %d, want %d", tt.requested, tt.scale, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"", KindAuto},
		{"auto", KindAuto},
		{"Software", KindSoftware},
		{" accelerated ", KindAccelerated},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseKind("gpu")
	assert.Error(t, err)
}

func TestProbe_FollowsParallelism(t *testing.T) {
	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)
	assert.Equal(t, KindSoftware, Probe())

	runtime.GOMAXPROCS(acceleratedMinProcs)
	assert.Equal(t, KindAccelerated, Probe())
}

func TestNew(t *testing.T) {
	s, err := New(KindSoftware)
	require.NoError(t, err)
	assert.Equal(t, "software", s.Name())

	a, err := New(KindAccelerated)
	require.NoError(t, err)
	assert.Equal(t, "accelerated", a.Name())

	auto, err := New(KindAuto)
	require.NoError(t, err)
	assert.Equal(t, string(Probe()), auto.Name())

	_, err = New(Kind("bogus"))
	assert.Error(t, err)
}

func TestStrategies_HonourContract(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, s := range []Strategy{Software{}, Accelerated{}} {
		t.Run(s.Name(), func(t *testing.T) {
			src := randomBuffer(rng, 21, 13)
			before := src.Clone()

			out := s.Blur(src, 6)
			require.Equal(t, 21, out.Width)
			require.Equal(t, 13, out.Height)
			for i := 3; i < len(out.Pix); i += 4 {
				require.Equal(t, uint8(0xff), out.Pix[i], "alpha at pixel %d", i/4)
			}
			assert.Equal(t, before.Pix, src.Pix, "input must not be modified")

			assert.Same(t, src, s.Blur(src, 0))
			empty := pixel.New(0, 0)
			assert.Same(t, empty, s.Blur(empty, 6))
		})
	}
}

func TestAccelerated_UniformInteriorIsStable(t *testing.T) {
	c := color.RGBA{R: 40, G: 160, B: 220, A: 255}
	out := Accelerated{}.Blur(pixel.Fill(32, 32, c), 2)
	got := out.RGBA(16, 16)
	assert.InDelta(t, int(c.R), int(got.R), 2)
	assert.InDelta(t, int(c.G), int(got.G), 2)
	assert.InDelta(t, int(c.B), int(got.B), 2)
}

func TestSoftware_HalvesRequestedRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	src := randomBuffer(rng, 10, 10)
	assert.Equal(t, StackBlur(src, 10).Pix, Software{}.Blur(src, 20).Pix)
	assert.Equal(t, StackBlur(src, 20).Pix, Software{RadiusScale: 1}.Blur(src, 20).Pix)
}
