package blur

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/mj1618/privacy-blur/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBuffer(rng *rand.Rand, w, h int) *pixel.Buffer {
	b := pixel.New(w, h)
	rng.Read(b.Pix)
	return b
}

func TestStackBlur_PreservesDimensionsAndAlpha(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sizes := [][2]int{{1, 1}, {1, 9}, {9, 1}, {3, 5}, {16, 16}, {37, 23}}
	radii := []int{1, 2, 5, 20, 100}

	for _, sz := range sizes {
		for _, r := range radii {
			src := randomBuffer(rng, sz[0], sz[1])
			out := StackBlur(src, r)
			require.NotNil(t, out)
			assert.Equal(t, sz[0], out.Width, "width for %v r=%d", sz, r)
			assert.Equal(t, sz[1], out.Height, "height for %v r=%d", sz, r)
			require.Len(t, out.Pix, 4*sz[0]*sz[1])
			for i := 3; i < len(out.Pix); i += 4 {
				if out.Pix[i] != 0xff {
					t.Fatalf("size %v r=%d: alpha at %d = %d, want 255", sz, r, i/4, out.Pix[i])
				}
			}
		}
	}
}

func TestStackBlur_UniformInputIsInvariant(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	src := pixel.Fill(8, 8, red)

	out := StackBlur(src, 2)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := out.RGBA(x, y); got != red {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, red)
			}
		}
	}
}

func TestStackBlur_UniformEdgesDoNotDarken(t *testing.T) {
	gray := color.RGBA{R: 90, G: 120, B: 200, A: 255}
	for _, sz := range [][2]int{{1, 10}, {10, 1}, {5, 3}} {
		out := StackBlur(pixel.Fill(sz[0], sz[1], gray), 10)
		for y := 0; y < sz[1]; y++ {
			for x := 0; x < sz[0]; x++ {
				assert.Equal(t, gray, out.RGBA(x, y), "size %v pixel (%d,%d)", sz, x, y)
			}
		}
	}
}

func TestStackBlur_DegenerateInputsReturnedUnchanged(t *testing.T) {
	src := pixel.Fill(4, 4, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	assert.Same(t, src, StackBlur(src, 0))
	assert.Same(t, src, StackBlur(src, -3))

	empty := pixel.New(0, 5)
	assert.Same(t, empty, StackBlur(empty, 3))

	assert.Nil(t, StackBlur(nil, 3))
}

func TestStackBlur_DoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	src := randomBuffer(rng, 12, 9)
	before := src.Clone()

	_ = StackBlur(src, 4)

	assert.Equal(t, before.Pix, src.Pix)
}

func TestStackBlur_ForcesAlphaOpaque(t *testing.T) {
	src := pixel.Fill(6, 6, color.RGBA{R: 10, G: 20, B: 30, A: 0})
	out := StackBlur(src, 3)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, out.RGBA(3, 3))
}

func TestStackBlur_SmoothingIncreasesWithRadius(t *testing.T) {
	// Left half black, right half white.
	const w, h = 16, 16
	src := pixel.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if x >= w/2 {
				v = 255
			}
			src.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	spread := func(b *pixel.Buffer) int {
		lo, hi := 255, 0
		for x := 0; x < w; x++ {
			v := int(b.RGBA(x, h/2).R)
			lo = min(lo, v)
			hi = max(hi, v)
		}
		return hi - lo
	}

	small := StackBlur(src, 2)
	large := StackBlur(src, 64)

	assert.Equal(t, 255, spread(small), "a small window keeps the outer columns saturated")
	assert.Less(t, spread(large), spread(small))
	assert.Less(t, spread(large), 64, "a window covering the whole image should pull values toward the mean")

	// Values rise monotonically from the dark side to the bright side.
	for x := 1; x < w; x++ {
		assert.GreaterOrEqual(t, large.RGBA(x, h/2).R, large.RGBA(x-1, h/2).R, "column %d", x)
	}
	// Columns are constant, so the vertical pass must leave each column flat.
	for y := 0; y < h; y++ {
		assert.Equal(t, large.RGBA(3, 0), large.RGBA(3, y))
	}
}

func TestStackBlur_ClampsRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	src := randomBuffer(rng, 6, 4)
	assert.Equal(t, StackBlur(src, MaxRadius).Pix, StackBlur(src, MaxRadius+500).Pix)
}

func TestStackBlur_SinglePixel(t *testing.T) {
	src := pixel.Fill(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 10})
	out := StackBlur(src, 8)
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, out.RGBA(0, 0))
}

func TestBuildDivideTable(t *testing.T) {
	for _, r := range []int{1, 2, 7} {
		table := buildDivideTable(r)
		divsum := (r + 1) * (r + 1)
		require.Len(t, table, 256*divsum)
		for _, k := range []int{0, 1, divsum - 1, divsum, 3*divsum + 2, 255 * divsum, len(table) - 1} {
			assert.Equal(t, uint8(k/divsum), table[k], "r=%d k=%d", r, k)
		}
	}
}

func TestTableCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newTableCache(2)
	c.get(1)
	c.get(2)
	c.get(1) // 2 becomes least recently used
	c.get(3)

	assert.Equal(t, 2, c.len())
	_, has1 := c.entries[1]
	_, has2 := c.entries[2]
	_, has3 := c.entries[3]
	assert.True(t, has1)
	assert.False(t, has2)
	assert.True(t, has3)
}

func TestTableCache_ReturnsSameTableOnHit(t *testing.T) {
	c := newTableCache(2)
	a := c.get(5)
	b := c.get(5)
	assert.Same(t, &a[0], &b[0])
}
