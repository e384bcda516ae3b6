package gdi

import (
	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/native"
	"dibsync.org/go/surface"
)

// A DC is a device context: a bitmap selected for drawing along with
// the state that places drawing requests on it.
type DC struct {
	Bitmap  *surface.Bitmap
	Origin  dib.Point      // device position of logical (0, 0)
	Palette dib.ColorTable // selected palette; nil selects the default
	Brush   dib.RGB        // solid pattern of pattern raster operations

	clip    dib.Rectangle
	clipped bool
}

// NewDC returns a device context with b selected and no clipping.
func NewDC(b *surface.Bitmap) *DC {
	return &DC{Bitmap: b}
}

// Bounds returns the rectangle of the selected bitmap.
func (dc *DC) Bounds() dib.Rectangle {
	if dc.Bitmap == nil {
		return dib.ZR
	}
	return dib.Rect(0, 0, dc.Bitmap.Width, dc.Bitmap.Height)
}

// SetClip restricts drawing to r, in device coordinates.
func (dc *DC) SetClip(r dib.Rectangle) {
	dc.clip = dib.Canon(r)
	dc.clipped = true
}

// ClearClip removes the clip rectangle.
func (dc *DC) ClearClip() {
	dc.clip, dc.clipped = dib.ZR, false
}

// ClipBox returns the device rectangle drawing is confined to.
func (dc *DC) ClipBox() dib.Rectangle {
	if !dc.clipped {
		return dc.Bounds()
	}
	return dc.clip.Intersect(dc.Bounds())
}

// LPtoDP converts pts from logical to device coordinates in place.
func (dc *DC) LPtoDP(pts []dib.Point) {
	for i := range pts {
		pts[i].X, pts[i].Y = dc.toDevice(pts[i].X, pts[i].Y)
	}
}

func (dc *DC) toDevice(x, y int) (int, int) {
	return x + dc.Origin.X, y + dc.Origin.Y
}

func (dc *DC) palette() dib.ColorTable {
	if dc == nil || dc.Palette == nil {
		return native.DefaultPalette(8)
	}
	return dc.Palette
}

// resolver returns r reading palette entries from the palette
// selected into dc. A nil r resolves colors to 32-bit values.
func (dc *DC) resolver(r conv.Resolver) conv.Resolver {
	if r == nil {
		r = conv.FormatResolver{Format: dib.XRGB32}
	}
	return selected{r, dc.palette()}
}

type selected struct {
	conv.Resolver
	pal dib.ColorTable
}

func (s selected) PaletteEntries(start, count int) (dib.ColorTable, error) {
	return conv.FormatResolver{Colors: s.pal}.PaletteEntries(start, count)
}
