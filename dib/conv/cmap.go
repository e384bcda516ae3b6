package conv

import (
	"errors"
	"fmt"

	"dibsync.org/go/dib"
)

// Usage says how the color table of a bitmap header is to be read.
type Usage int

const (
	Explicit       Usage = iota // entries are colors
	PaletteIndexed              // entries index the palette selected into the target
)

func (u Usage) String() string {
	if u == PaletteIndexed {
		return "palette-indexed"
	}
	return "explicit"
}

// A Resolver maps colors to the pixel values of a target surface
// and reads the palette selected into it.
type Resolver interface {
	ResolveColor(c dib.RGB) uint32
	PaletteEntries(start, count int) (dib.ColorTable, error)
}

// Source is the color table of a bitmap: colors for Explicit usage,
// palette indices for PaletteIndexed.
type Source struct {
	Colors  dib.ColorTable
	Indices []uint16
}

// Len returns the number of entries in s for the given usage.
func (s Source) Len(usage Usage) int {
	if usage == PaletteIndexed {
		return len(s.Indices)
	}
	return len(s.Colors)
}

// A Map takes each value of an indexed pixel to a pixel value of
// the target surface.
type Map []uint32

// MaxEntries is the size of the largest color table.
const MaxEntries = 256

var ErrTableSize = errors.New("color table larger than 256 entries")

// Build returns a color map for the entries of src, resolving those in
// [start, end) through r; the rest are left zero for a later Refresh.
// depth is the depth of the target surface: on a 1-bit target each
// color becomes white if its channels sum to more than 255*1.5 and
// black otherwise. Palette indices past the end of the palette
// resolve as palette entry 0.
func Build(usage Usage, depth int, src Source, start, end int, r Resolver) (Map, error) {
	n := src.Len(usage)
	if n > MaxEntries {
		return nil, fmt.Errorf("conv: %d entries: %w", n, ErrTableSize)
	}
	m := make(Map, n)
	if err := m.Refresh(usage, depth, src, start, end, r); err != nil {
		return nil, err
	}
	return m, nil
}

// Refresh recomputes entries [start, end) of m from src,
// leaving all others as they were.
func (m Map) Refresh(usage Usage, depth int, src Source, start, end int, r Resolver) error {
	if n := src.Len(usage); n < end {
		end = n
	}
	if len(m) < end {
		end = len(m)
	}
	if start < 0 {
		start = 0
	}
	for i := start; i < end; i++ {
		c, err := sourceColor(usage, src, i, r)
		if err != nil {
			return fmt.Errorf("conv: color map entry %d: %w", i, err)
		}
		m[i] = physical(depth, c, r)
	}
	return nil
}

func sourceColor(usage Usage, src Source, i int, r Resolver) (dib.RGB, error) {
	if usage != PaletteIndexed {
		return src.Colors[i], nil
	}
	t, err := r.PaletteEntries(int(src.Indices[i]), 1)
	if err != nil || len(t) == 0 {
		t, err = r.PaletteEntries(0, 1)
		if err != nil {
			return dib.RGB{}, err
		}
		if len(t) == 0 {
			return dib.Black, nil
		}
	}
	return t[0], nil
}

func physical(depth int, c dib.RGB, r Resolver) uint32 {
	if depth == 1 {
		if 2*(int(c.R)+int(c.G)+int(c.B)) > 255*3 {
			return r.ResolveColor(dib.White)
		}
		return r.ResolveColor(dib.Black)
	}
	return r.ResolveColor(c)
}

// Colors resolves the entries of src to colors without mapping them
// to a surface, for reading a color table back.
func Colors(usage Usage, src Source, r Resolver) (dib.ColorTable, error) {
	n := src.Len(usage)
	t := make(dib.ColorTable, n)
	for i := range t {
		c, err := sourceColor(usage, src, i, r)
		if err != nil {
			return nil, err
		}
		t[i] = c
	}
	return t, nil
}

// A FormatResolver resolves colors to pixel values of a format:
// indexed formats take the nearest entry of Colors, direct formats
// pack the color into their masks. Colors also serves as the palette.
type FormatResolver struct {
	Format dib.Format
	Colors dib.ColorTable
}

func (r FormatResolver) ResolveColor(c dib.RGB) uint32 {
	if r.Format.Indexed() {
		return uint32(Nearest(r.Colors, c))
	}
	return Pack(r.Format, c)
}

func (r FormatResolver) PaletteEntries(start, count int) (dib.ColorTable, error) {
	if start < 0 || count < 0 || start+count > len(r.Colors) {
		return nil, fmt.Errorf("conv: color table entries %d+%d out of range [0,%d)", start, count, len(r.Colors))
	}
	return r.Colors[start : start+count], nil
}
