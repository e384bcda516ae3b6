// Package native provides the drawing surfaces that shadow DIB memory:
// an in-memory backend for any depth and a backend whose surfaces
// are shiny screen buffers.
package native

import (
	"fmt"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
)

// A Surface is a backend drawable. Its pixels are reached through Span
// and are in the surface's own format, which need not match the DIB
// it shadows.
type Surface interface {
	Format() dib.Format
	Bounds() dib.Rectangle
	Span() *conv.Span
	// Palette returns the colors of an indexed surface, nil otherwise.
	Palette() dib.ColorTable
}

// A Backend creates and destroys surfaces.
type Backend interface {
	NewSurface(width, height, depth int) (Surface, error)
	Release(s Surface)
}

// CopyRect copies r of src to dst with r.Min moved to dp.
// The rectangle is clipped to both surfaces; the formats must match.
func CopyRect(dst Surface, dp dib.Point, src Surface, r dib.Rectangle) error {
	delta := dp.Sub(r.Min)
	if !dib.RectClip(&r, src.Bounds()) {
		return nil
	}
	dr := r.Add(delta)
	if !dib.RectClip(&dr, dst.Bounds()) {
		return nil
	}
	sp := dr.Min.Sub(delta)
	return conv.CopyRect(dst.Span(), dr.Min, src.Span(), sp, dr.Dx(), dr.Dy())
}

// FillRect sets the pixels of r in s to the raw value v.
func FillRect(s Surface, r dib.Rectangle, v uint32) error {
	return conv.Fill(s.Span(), r, v)
}

// DrawPixel sets the pixel at p in s to the raw value v.
// Points outside the surface are ignored.
func DrawPixel(s Surface, p dib.Point, v uint32) {
	if p.In(s.Bounds()) {
		s.Span().SetPixel(p, v)
	}
}

// A Resolver turns colors into pixel values of a surface.
// Palette, if set, is the palette selected for palette-indexed color
// tables; it defaults to the surface's own palette.
type Resolver struct {
	Surface Surface
	Palette dib.ColorTable
}

func (r Resolver) ResolveColor(c dib.RGB) uint32 {
	f := r.Surface.Format()
	if f.Indexed() {
		return uint32(conv.Nearest(r.Surface.Palette(), c))
	}
	return conv.Pack(f, c)
}

func (r Resolver) PaletteEntries(start, count int) (dib.ColorTable, error) {
	pal := r.Palette
	if pal == nil {
		pal = r.Surface.Palette()
	}
	if pal == nil {
		pal = DefaultPalette(8)
	}
	if start < 0 || count < 0 || start+count > len(pal) {
		return nil, fmt.Errorf("native: palette entries %d+%d out of range [0,%d)", start, count, len(pal))
	}
	return pal[start : start+count], nil
}
