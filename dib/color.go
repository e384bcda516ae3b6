package dib

import "image/color"

// RGB is an opaque 8-bit-per-channel color, the unit of DIB color tables.
type RGB struct {
	R, G, B uint8
}

func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	return r, g, b, 0xFFFF
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{0xFF, 0xFF, 0xFF}
)

// RGBModel converts any color to RGB, dropping alpha.
var RGBModel = color.ModelFunc(func(c color.Color) color.Color {
	if c, ok := c.(RGB); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
})

// A ColorTable maps pixel indices to colors.
type ColorTable []RGB

// Palette returns t as an image/color palette.
func (t ColorTable) Palette() color.Palette {
	p := make(color.Palette, len(t))
	for i, c := range t {
		p[i] = color.RGBA{c.R, c.G, c.B, 0xFF}
	}
	return p
}

// TableFromPalette converts p to a color table, dropping alpha.
func TableFromPalette(p color.Palette) ColorTable {
	t := make(ColorTable, len(p))
	for i, c := range p {
		t[i] = RGBModel.Convert(c).(RGB)
	}
	return t
}

// Clone returns a copy of t that shares no memory with it.
func (t ColorTable) Clone() ColorTable {
	if t == nil {
		return nil
	}
	return append(ColorTable(nil), t...)
}

// decodeQuads reads n four-byte entries (blue, green, red, reserved).
func decodeQuads(b []byte, n int) ColorTable {
	t := make(ColorTable, n)
	for i := range t {
		q := b[4*i:]
		t[i] = RGB{q[2], q[1], q[0]}
	}
	return t
}

// decodeTriples reads n three-byte entries (blue, green, red),
// the layout of core headers.
func decodeTriples(b []byte, n int) ColorTable {
	t := make(ColorTable, n)
	for i := range t {
		q := b[3*i:]
		t[i] = RGB{q[2], q[1], q[0]}
	}
	return t
}

// AppendQuads appends t to b in four-byte entry layout.
func (t ColorTable) AppendQuads(b []byte) []byte {
	for _, c := range t {
		b = append(b, c.B, c.G, c.R, 0)
	}
	return b
}
