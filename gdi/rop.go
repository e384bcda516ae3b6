package gdi

import (
	"errors"
	"fmt"

	"dibsync.org/go/dib/conv"
)

var ErrUnsupportedRop = errors.New("unsupported raster operation")

// A Rop is a ternary raster operation code. Bits 16 to 23 hold its
// truth table: bit 4*p+2*s+d is the result for pattern bit p,
// source bit s and destination bit d.
type Rop uint32

const (
	BLACKNESS   Rop = 0x00000042
	NOTSRCERASE Rop = 0x001100A6
	NOTSRCCOPY  Rop = 0x00330008
	SRCERASE    Rop = 0x00440328
	DSTINVERT   Rop = 0x00550009
	PATINVERT   Rop = 0x005A0049
	SRCINVERT   Rop = 0x00660046
	SRCAND      Rop = 0x008800C6
	MERGEPAINT  Rop = 0x00BB0226
	MERGECOPY   Rop = 0x00C000CA
	SRCCOPY     Rop = 0x00CC0020
	SRCPAINT    Rop = 0x00EE0086
	PATCOPY     Rop = 0x00F00021
	PATPAINT    Rop = 0x00FB0A09
	WHITENESS   Rop = 0x00FF0062
)

var ropNames = map[Rop]string{
	BLACKNESS:   "BLACKNESS",
	NOTSRCERASE: "NOTSRCERASE",
	NOTSRCCOPY:  "NOTSRCCOPY",
	SRCERASE:    "SRCERASE",
	DSTINVERT:   "DSTINVERT",
	PATINVERT:   "PATINVERT",
	SRCINVERT:   "SRCINVERT",
	SRCAND:      "SRCAND",
	MERGEPAINT:  "MERGEPAINT",
	MERGECOPY:   "MERGECOPY",
	SRCCOPY:     "SRCCOPY",
	SRCPAINT:    "SRCPAINT",
	PATCOPY:     "PATCOPY",
	PATPAINT:    "PATPAINT",
	WHITENESS:   "WHITENESS",
}

func (r Rop) String() string {
	if s, ok := ropNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Rop(%#08x)", uint32(r))
}

func (r Rop) code() uint8 {
	return uint8(r >> 16)
}

// UsesSource reports whether the result of r depends on the source.
func (r Rop) UsesSource() bool {
	c := r.code()
	return (c>>2)&0x33 != c&0x33
}

// UsesPattern reports whether the result of r depends on the pattern.
func (r Rop) UsesPattern() bool {
	c := r.code()
	return c>>4 != c&0x0F
}

// UsesDest reports whether the result of r depends on the destination.
func (r Rop) UsesDest() bool {
	c := r.code()
	return (c>>1)&0x55 != c&0x55
}

// sourceOp returns r as an operation on source and destination.
func (r Rop) sourceOp() (conv.BoolOp, error) {
	if r.UsesPattern() {
		return 0, fmt.Errorf("%w: %v combines source and pattern", ErrUnsupportedRop, r)
	}
	return conv.BoolOp(r.code() & 0x0F), nil
}

// patternOp returns r as an operation on pattern and destination,
// the pattern taking the place of the source.
func (r Rop) patternOp() (conv.BoolOp, error) {
	if r.UsesSource() {
		return 0, fmt.Errorf("%w: %v needs a source", ErrUnsupportedRop, r)
	}
	c := r.code()
	return conv.BoolOp(c&0x03 | (c>>2)&0x0C), nil
}
