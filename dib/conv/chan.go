package conv

import (
	"math/bits"

	"dibsync.org/go/dib"
)

// chans holds the position and width of the red, green and blue
// channels of a direct pixel format.
type chans struct {
	shift [3]uint
	nbits [3]uint
	mask  [3]uint32
}

func chansOf(f dib.Format) chans {
	var c chans
	if f.Indexed() {
		return c
	}
	for i, m := range f.Masks() {
		if m == 0 {
			continue
		}
		c.shift[i] = uint(bits.TrailingZeros32(m))
		c.nbits[i] = uint(bits.OnesCount32(m))
		c.mask[i] = m
	}
	return c
}

// get extracts channel i of v, widened or narrowed to 8 bits.
func (c *chans) get(v uint32, i int) uint8 {
	x := (v & c.mask[i]) >> c.shift[i]
	n := c.nbits[i]
	if n <= 8 {
		return replbit[n][x]
	}
	return uint8(x >> (n - 8))
}

// put places the 8-bit intensity v in channel i.
func (c *chans) put(v uint8, i int) uint32 {
	n := c.nbits[i]
	var x uint32
	if n <= 8 {
		x = uint32(v) >> (8 - n)
	} else {
		x = uint32(v) << (n - 8)
		if n < 16 {
			x |= uint32(v) >> (16 - n)
		}
	}
	return x << c.shift[i] & c.mask[i]
}

func (c *chans) unpack(v uint32) dib.RGB {
	return dib.RGB{R: c.get(v, 0), G: c.get(v, 1), B: c.get(v, 2)}
}

func (c *chans) pack(rgb dib.RGB) uint32 {
	return c.put(rgb.R, 0) | c.put(rgb.G, 1) | c.put(rgb.B, 2)
}

// Pack returns the pixel value of color c in the direct format f.
// Channels narrower than 8 bits keep the high bits of c.
func Pack(f dib.Format, c dib.RGB) uint32 {
	ch := chansOf(f)
	return ch.pack(c)
}

// Unpack returns the color of pixel value v in the direct format f.
// Channels narrower than 8 bits are widened by bit replication,
// so that full intensity stays full intensity.
func Unpack(f dib.Format, v uint32) dib.RGB {
	ch := chansOf(f)
	return ch.unpack(v)
}

// Nearest returns the index of the entry in t closest to c, measured
// as squared Euclidean distance in red, green and blue.
// Ties go to the lowest index. An empty table yields 0.
func Nearest(t dib.ColorTable, c dib.RGB) int {
	best, bestd := 0, -1
	for i, e := range t {
		dr := int(e.R) - int(c.R)
		dg := int(e.G) - int(c.G)
		db := int(e.B) - int(c.B)
		d := dr*dr + dg*dg + db*db
		if bestd < 0 || d < bestd {
			best, bestd = i, d
			if d == 0 {
				break
			}
		}
	}
	return best
}
