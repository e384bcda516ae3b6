package native

import (
	"image/color/palette"

	"dibsync.org/go/dib"
)

var vga16 = dib.ColorTable{
	{0x00, 0x00, 0x00}, {0x80, 0x00, 0x00}, {0x00, 0x80, 0x00}, {0x80, 0x80, 0x00},
	{0x00, 0x00, 0x80}, {0x80, 0x00, 0x80}, {0x00, 0x80, 0x80}, {0xC0, 0xC0, 0xC0},
	{0x80, 0x80, 0x80}, {0xFF, 0x00, 0x00}, {0x00, 0xFF, 0x00}, {0xFF, 0xFF, 0x00},
	{0x00, 0x00, 0xFF}, {0xFF, 0x00, 0xFF}, {0x00, 0xFF, 0xFF}, {0xFF, 0xFF, 0xFF},
}

var cube256 = func() dib.ColorTable {
	t := dib.TableFromPalette(palette.WebSafe)
	// fill out the 216-color cube with a gray ramp
	for len(t) < 256 {
		v := uint8((len(t) - 216 + 1) * 255 / 41)
		t = append(t, dib.RGB{v, v, v})
	}
	return t
}()

// DefaultPalette returns the palette of an indexed surface of the given
// depth: black and white, the 16 VGA colors, or a 6×6×6 color cube
// followed by grays. Other depths have none.
func DefaultPalette(depth int) dib.ColorTable {
	switch depth {
	case 1:
		return dib.ColorTable{dib.Black, dib.White}
	case 4:
		return vga16.Clone()
	case 8:
		return cube256.Clone()
	}
	return nil
}
