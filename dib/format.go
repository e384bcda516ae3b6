package dib

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
)

// ErrUnsupportedFormat reports a bit depth or channel mask combination
// that no conversion routine handles.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

// Direction is the order in which the rows of a bitmap are stored.
type Direction int

const (
	BottomUp Direction = iota // first row in memory is the bottom of the picture
	TopDown                   // first row in memory is the top of the picture
)

func (d Direction) String() string {
	if d == TopDown {
		return "top-down"
	}
	return "bottom-up"
}

// A Format describes the memory layout of one pixel.
// Depth is one of 1, 4, 8, 15, 16, 24 or 32 bits per pixel.
// Depths of 8 and below are indexed: a pixel is an index into a color table
// and the masks are ignored. Deeper pixels are little-endian integers whose
// red, green and blue channels are selected by the masks.
// A Format is a value; it is never modified once built.
type Format struct {
	Depth int
	Red   uint32
	Green uint32
	Blue  uint32
	Dir   Direction
}

// Standard formats. All are bottom-up, like a DIB with a positive height;
// use WithDir for the other order.
var (
	Mono   = Format{Depth: 1}
	Index4 = Format{Depth: 4}
	Index8 = Format{Depth: 8}
	RGB555 = Format{Depth: 16, Red: 0x7C00, Green: 0x03E0, Blue: 0x001F}
	BGR555 = Format{Depth: 16, Red: 0x001F, Green: 0x03E0, Blue: 0x7C00}
	RGB565 = Format{Depth: 16, Red: 0xF800, Green: 0x07E0, Blue: 0x001F}
	BGR565 = Format{Depth: 16, Red: 0x001F, Green: 0x07E0, Blue: 0xF800}
	RGB24  = Format{Depth: 24, Red: 0xFF0000, Green: 0x00FF00, Blue: 0x0000FF} // bytes b, g, r
	BGR24  = Format{Depth: 24, Red: 0x0000FF, Green: 0x00FF00, Blue: 0xFF0000} // bytes r, g, b
	XRGB32 = Format{Depth: 32, Red: 0xFF0000, Green: 0x00FF00, Blue: 0x0000FF} // bytes b, g, r, x
	XBGR32 = Format{Depth: 32, Red: 0x0000FF, Green: 0x00FF00, Blue: 0xFF0000} // bytes r, g, b, x
)

// WithDir returns f with its row direction set to dir.
func (f Format) WithDir(dir Direction) Format {
	f.Dir = dir
	return f
}

// Indexed reports whether pixels of f are color table indices.
func (f Format) Indexed() bool {
	return f.Depth <= 8
}

// Storage returns the number of bits a pixel of f occupies in memory.
func (f Format) Storage() int {
	if f.Depth == 15 {
		return 16
	}
	return f.Depth
}

// Colors returns the number of entries a color table for f can use:
// 1<<Depth for indexed formats, 0 otherwise.
func (f Format) Colors() int {
	if !f.Indexed() {
		return 0
	}
	return 1 << f.Depth
}

// Compatible reports whether pixels of f and g have the same layout,
// so that rows can be copied between them without conversion.
// The row direction does not matter.
func (f Format) Compatible(g Format) bool {
	if f.Depth != g.Depth {
		return false
	}
	if f.Indexed() {
		return true
	}
	return f.Red == g.Red && f.Green == g.Green && f.Blue == g.Blue
}

// Masks returns the red, green and blue masks of f.
func (f Format) Masks() [3]uint32 {
	return [3]uint32{f.Red, f.Green, f.Blue}
}

// Valid reports whether f is a pixel layout the engine can convert.
func (f Format) Valid() error {
	switch f.Depth {
	default:
		return fmt.Errorf("%w: depth %d", ErrUnsupportedFormat, f.Depth)
	case 1, 4, 8:
		return nil
	case 15, 16, 24, 32:
	}
	limit := uint64(1)<<uint(f.Depth) - 1
	var all uint32
	for i, m := range f.Masks() {
		if m == 0 {
			return fmt.Errorf("%w: empty %s mask", ErrUnsupportedFormat, chanNames[i])
		}
		if uint64(m) > limit {
			return fmt.Errorf("%w: %s mask %#x exceeds %d bits", ErrUnsupportedFormat, chanNames[i], m, f.Depth)
		}
		v := m >> uint(bits.TrailingZeros32(m))
		if v&(v+1) != 0 {
			return fmt.Errorf("%w: %s mask %#x not contiguous", ErrUnsupportedFormat, chanNames[i], m)
		}
		if all&m != 0 {
			return fmt.Errorf("%w: overlapping masks", ErrUnsupportedFormat)
		}
		all |= m
	}
	return nil
}

var chanNames = [3]string{"red", "green", "blue"}

// String prints the pixel layout in channel notation, most significant
// bits first: "r5g6b5", "x8r8g8b8", "m8". The direction is not printed.
func (f Format) String() string {
	if f.Indexed() {
		return "m" + strconv.Itoa(f.Depth)
	}
	if f.Valid() != nil {
		return fmt.Sprintf("bad(%d:%#x/%#x/%#x)", f.Depth, f.Red, f.Green, f.Blue)
	}
	var buf []byte
	masks := f.Masks()
	run := 0
	cur := byte(0)
	flush := func() {
		if run > 0 {
			buf = append(buf, cur)
			buf = strconv.AppendInt(buf, int64(run), 10)
		}
	}
	for bit := f.Depth - 1; bit >= 0; bit-- {
		c := byte('x')
		for i, m := range masks {
			if m&(1<<uint(bit)) != 0 {
				c = "rgb"[i]
			}
		}
		if c != cur {
			flush()
			cur, run = c, 0
		}
		run++
	}
	flush()
	return string(buf)
}

// ParseFormat is the reverse of String: it turns a channel string
// such as "r5g6b5" or "x8b8g8r8" into a bottom-up Format.
// Indexed formats are written "m1", "m4" and "m8".
func ParseFormat(s string) (Format, error) {
	type field struct {
		c byte
		n int
	}
	var fields []field
	for i := 0; i < len(s); {
		c := s[i]
		j := i + 1
		for j < len(s) && '0' <= s[j] && s[j] <= '9' {
			j++
		}
		if j == i+1 {
			goto Malformed
		}
		n, err := strconv.Atoi(s[i+1 : j])
		if err != nil || n <= 0 || n > 32 {
			goto Malformed
		}
		switch c {
		default:
			goto Malformed
		case 'r', 'g', 'b', 'x', 'm':
		}
		fields = append(fields, field{c, n})
		i = j
	}
	if len(fields) == 1 && fields[0].c == 'm' {
		f := Format{Depth: fields[0].n}
		if !f.Indexed() {
			goto Malformed
		}
		return f, f.Valid()
	}
	{
		var f Format
		for _, fl := range fields {
			f.Depth += fl.n
		}
		shift := f.Depth
		for _, fl := range fields {
			shift -= fl.n
			m := uint32((uint64(1)<<uint(fl.n) - 1) << uint(shift))
			switch fl.c {
			case 'r':
				if f.Red != 0 {
					goto Malformed
				}
				f.Red = m
			case 'g':
				if f.Green != 0 {
					goto Malformed
				}
				f.Green = m
			case 'b':
				if f.Blue != 0 {
					goto Malformed
				}
				f.Blue = m
			case 'm':
				goto Malformed
			}
		}
		if err := f.Valid(); err != nil {
			return Format{}, fmt.Errorf("format %q: %w", s, err)
		}
		return f, nil
	}

Malformed:
	return Format{}, fmt.Errorf("malformed format descriptor %q", s)
}
