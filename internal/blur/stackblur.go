package blur

import "github.com/mj1618/privacy-blur/internal/pixel"

// MaxRadius is the largest radius StackBlur honours. Larger radii are clamped.
// At this bound the division table holds 256*255*255 entries and the widest
// accumulator sum is 255*255*255, far inside an int.
const MaxRadius = 254

// StackBlur blurs src with a triangular-weighted sliding window of width
// 2*radius+1, first along rows and then along columns. Each window slide costs
// O(1) regardless of radius, so the whole pass is O(width*height).
//
// Window indices are clamped to the image edges. The returned buffer has the
// same dimensions as src and a fully opaque alpha channel; src is not modified.
// A radius below 1 or an empty buffer returns src unchanged.
func StackBlur(src *pixel.Buffer, radius int) *pixel.Buffer {
	if src.Empty() || radius < 1 {
		return src
	}
	if radius > MaxRadius {
		radius = MaxRadius
	}

	w, h := src.Width, src.Height
	n := w * h
	table := divideTable(radius)

	// Horizontal pass output, one plane per colour channel.
	rp := make([]uint8, n)
	gp := make([]uint8, n)
	bp := make([]uint8, n)

	s := newWindow(radius)
	for y := 0; y < h; y++ {
		row := y * w
		s.reset()
		for i := -radius; i <= radius; i++ {
			p := 4 * (row + clamp(i, w-1))
			s.seed(i, int(src.Pix[p]), int(src.Pix[p+1]), int(src.Pix[p+2]))
		}
		for x := 0; x < w; x++ {
			rp[row+x] = table[s.rSum]
			gp[row+x] = table[s.gSum]
			bp[row+x] = table[s.bSum]

			p := 4 * (row + min(x+radius+1, w-1))
			s.slide(int(src.Pix[p]), int(src.Pix[p+1]), int(src.Pix[p+2]))
		}
	}

	out := pixel.New(w, h)
	for x := 0; x < w; x++ {
		s.reset()
		for i := -radius; i <= radius; i++ {
			p := clamp(i, h-1)*w + x
			s.seed(i, int(rp[p]), int(gp[p]), int(bp[p]))
		}
		for y := 0; y < h; y++ {
			o := 4 * (y*w + x)
			out.Pix[o+0] = table[s.rSum]
			out.Pix[o+1] = table[s.gSum]
			out.Pix[o+2] = table[s.bSum]
			out.Pix[o+3] = 0xff

			p := min(y+radius+1, h-1)*w + x
			s.slide(int(rp[p]), int(gp[p]), int(bp[p]))
		}
	}
	return out
}

// window is the ring of 2r+1 samples around the current pixel together with
// the running sums that make each slide O(1).
//
// sum is the triangular-weighted total of the window. outSum covers the
// samples at offsets -r..0 (weights shrink as the window advances) and inSum
// covers offsets 1..r (weights grow).
type window struct {
	radius int
	ring   [][3]int
	center int

	rSum, gSum, bSum          int
	rInSum, gInSum, bInSum    int
	rOutSum, gOutSum, bOutSum int
}

func newWindow(radius int) *window {
	return &window{radius: radius, ring: make([][3]int, 2*radius+1)}
}

func (s *window) reset() {
	s.center = s.radius
	s.rSum, s.gSum, s.bSum = 0, 0, 0
	s.rInSum, s.gInSum, s.bInSum = 0, 0, 0
	s.rOutSum, s.gOutSum, s.bOutSum = 0, 0, 0
}

// seed loads the sample at window offset i (-radius..radius).
func (s *window) seed(i, r, g, b int) {
	s.ring[i+s.radius] = [3]int{r, g, b}
	weight := s.radius + 1 - abs(i)
	s.rSum += r * weight
	s.gSum += g * weight
	s.bSum += b * weight
	if i > 0 {
		s.rInSum += r
		s.gInSum += g
		s.bInSum += b
	} else {
		s.rOutSum += r
		s.gOutSum += g
		s.bOutSum += b
	}
}

// slide advances the window by one pixel, admitting (r, g, b) at the leading
// edge and evicting the sample at the trailing edge.
func (s *window) slide(r, g, b int) {
	s.rSum -= s.rOutSum
	s.gSum -= s.gOutSum
	s.bSum -= s.bOutSum

	div := len(s.ring)
	tail := &s.ring[(s.center+div-s.radius)%div]
	s.rOutSum -= tail[0]
	s.gOutSum -= tail[1]
	s.bOutSum -= tail[2]

	*tail = [3]int{r, g, b}
	s.rInSum += r
	s.gInSum += g
	s.bInSum += b
	s.rSum += s.rInSum
	s.gSum += s.gInSum
	s.bSum += s.bInSum

	s.center = (s.center + 1) % div
	mid := s.ring[s.center]
	s.rOutSum += mid[0]
	s.gOutSum += mid[1]
	s.bOutSum += mid[2]
	s.rInSum -= mid[0]
	s.gInSum -= mid[1]
	s.bInSum -= mid[2]
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
