package conv

import (
	"fmt"

	"dibsync.org/go/dib"
)

// A BoolOp is a boolean raster operation on a source and a destination
// pixel, given as its truth table: bit 2*s+d holds the result for
// source bit s and destination bit d.
type BoolOp uint8

const (
	OpClear    BoolOp = 0x0 // 0
	OpNor      BoolOp = 0x1 // ^(s | d)
	OpNotSandD BoolOp = 0x2 // ^s & d
	OpNotS     BoolOp = 0x3 // ^s
	OpSandNotD BoolOp = 0x4 // s & ^d
	OpNotD     BoolOp = 0x5 // ^d
	OpSxorD    BoolOp = 0x6 // s ^ d
	OpSandD    BoolOp = 0x8 // s & d
	OpD        BoolOp = 0xA // d
	OpNotSorD  BoolOp = 0xB // ^s | d
	OpS        BoolOp = 0xC // s
	OpSorD     BoolOp = 0xE // s | d
	OpSet      BoolOp = 0xF // all ones
)

// Apply computes the operation bitwise on s and d.
func (op BoolOp) Apply(s, d uint32) uint32 {
	var v uint32
	if op&1 != 0 {
		v |= ^s & ^d
	}
	if op&2 != 0 {
		v |= ^s & d
	}
	if op&4 != 0 {
		v |= s & ^d
	}
	if op&8 != 0 {
		v |= s & d
	}
	return v
}

// UsesSource reports whether the result depends on the source.
func (op BoolOp) UsesSource() bool {
	return op>>2 != op&3
}

// UsesDest reports whether the result depends on the destination.
func (op BoolOp) UsesDest() bool {
	return (op>>1)&5 != op&5
}

func storageMask(f dib.Format) uint32 {
	n := f.Storage()
	return uint32(uint64(1)<<uint(n) - 1)
}

// Fill sets every pixel of r in dst to the raw value v.
// r is clipped to dst; an empty result is a no-op.
func Fill(dst *Span, r dib.Rectangle, v uint32) error {
	if err := dst.check(); err != nil {
		return fmt.Errorf("conv: fill: %w", err)
	}
	if !dib.RectClip(&r, dst.Bounds()) {
		return nil
	}
	v &= storageMask(dst.Format)
	bpp := dst.Format.Storage()
	dx := r.Dx()
	off, step := dst.origin(r.Min.Y)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Pix[off:]
		switch bpp {
		case 1, 4:
			fillbits(row, r.Min.X, r.Max.X, uint8(v), bpp)
		case 8:
			p := row[r.Min.X : r.Min.X+dx]
			for i := range p {
				p[i] = uint8(v)
			}
		case 16:
			memsets(row[2*r.Min.X:], uint16(v), dx)
		case 24:
			memset24(row[3*r.Min.X:], v, dx)
		case 32:
			memsetl(row[4*r.Min.X:], v, dx)
		}
		off += step
	}
	return nil
}

// fillbits sets pixels x0 through x1-1 of a row of 1- or 4-bit pixels to v.
func fillbits(row []byte, x0, x1 int, v uint8, bpp int) {
	for d := bpp; d < 8; d *= 2 {
		v |= v << d
	}
	ppb := 8 / bpp // pixels per byte
	m := ppb - 1
	dx := x1 - x0

	// left edge
	np := x0 & m // pixels unused on the left of the first byte
	dx -= ppb - np
	nb := 8 - np*bpp // bits used on the right of the first byte
	lm := uint8(1)<<nb - 1

	// right edge
	np = x1 & m // pixels used on the left of the last byte
	dx -= np
	nb = 8 - np*bpp
	rm := ^(uint8(1)<<nb - 1)

	// lm and rm are 1 where bits are touched
	p := row[x0/ppb:]
	if dx < 0 {
		lm &= rm
		p[0] ^= (v ^ p[0]) & lm
		return
	}
	p[0] ^= (v ^ p[0]) & lm
	full := dx / ppb
	mid := p[1 : 1+full]
	for i := range mid {
		mid[i] = v
	}
	if rm != 0 {
		p[1+full] ^= (v ^ p[1+full]) & rm
	}
}

func memsets(p []byte, v uint16, n int) {
	p = p[:2*n]
	for i := 0; i < len(p); i += 2 {
		p[i] = uint8(v)
		p[i+1] = uint8(v >> 8)
	}
}

func memset24(p []byte, v uint32, n int) {
	a := uint8(v)
	b := uint8(v >> 8)
	c := uint8(v >> 16)
	p = p[:3*n]
	for j := 0; j < len(p); j += 3 {
		p[j] = a
		p[j+1] = b
		p[j+2] = c
	}
}

func memsetl(p []byte, v uint32, n int) {
	p = p[:4*n]
	for i := 0; i < len(p); i += 4 {
		put32(p[i:], v)
	}
}

// Apply replaces every pixel d of r in dst with op(v, d).
// r is clipped to dst.
func Apply(dst *Span, r dib.Rectangle, op BoolOp, v uint32) error {
	if err := dst.check(); err != nil {
		return fmt.Errorf("conv: apply: %w", err)
	}
	if !dib.RectClip(&r, dst.Bounds()) {
		return nil
	}
	switch op {
	case OpS:
		return Fill(dst, r, v)
	case OpClear:
		return Fill(dst, r, 0)
	case OpSet:
		return Fill(dst, r, ^uint32(0))
	}
	mask := storageMask(dst.Format)
	bpp := dst.Format.Storage()
	off, step := dst.origin(r.Min.Y)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Pix[off:]
		for x := r.Min.X; x < r.Max.X; x++ {
			putpix(row, x, bpp, op.Apply(v, getpix(row, x, bpp))&mask)
		}
		off += step
	}
	return nil
}

// Invert complements every bit of every pixel of r in dst.
func Invert(dst *Span, r dib.Rectangle) error {
	return Apply(dst, r, OpNotD, 0)
}

// Combine replaces each pixel of the width×height block of dst at dp
// with op applied to it and the corresponding pixel of src at sp.
// The two spans must have compatible formats.
func Combine(dst *Span, dp dib.Point, src *Span, sp dib.Point, width, height int, op BoolOp) error {
	if err := sameFormat(dst, dp, src, sp, width, height); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	if op == OpS {
		return CopyRect(dst, dp, src, sp, width, height)
	}
	mask := storageMask(dst.Format)
	bpp := dst.Format.Storage()
	so, ss := src.origin(sp.Y)
	do, ds := dst.origin(dp.Y)
	for y := 0; y < height; y++ {
		srow, drow := src.Pix[so:], dst.Pix[do:]
		for i := 0; i < width; i++ {
			s := getpix(srow, sp.X+i, bpp)
			d := getpix(drow, dp.X+i, bpp)
			putpix(drow, dp.X+i, bpp, op.Apply(s, d)&mask)
		}
		so += ss
		do += ds
	}
	return nil
}

// CopyRect copies the width×height block of src at sp to dst at dp.
// The formats must be compatible; the two spans may share memory.
func CopyRect(dst *Span, dp dib.Point, src *Span, sp dib.Point, width, height int) error {
	if err := sameFormat(dst, dp, src, sp, width, height); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	bpp := dst.Format.Storage()
	so, ss := src.origin(sp.Y)
	do, ds := dst.origin(dp.Y)
	if overlaps(dst, src) && dp.Y > sp.Y {
		// Copy from the far end so no source row is overwritten before it is read.
		so += (height - 1) * ss
		do += (height - 1) * ds
		ss, ds = -ss, -ds
	}
	for y := 0; y < height; y++ {
		copybits(dst.Pix[do:], dp.X, src.Pix[so:], sp.X, width, bpp)
		so += ss
		do += ds
	}
	return nil
}

func overlaps(a, b *Span) bool {
	return len(a.Pix) > 0 && len(b.Pix) > 0 && &a.Pix[0] == &b.Pix[0]
}

func sameFormat(dst *Span, dp dib.Point, src *Span, sp dib.Point, width, height int) error {
	if err := dst.check(); err != nil {
		return fmt.Errorf("conv: destination: %w", err)
	}
	if err := src.check(); err != nil {
		return fmt.Errorf("conv: source: %w", err)
	}
	if !src.Format.Compatible(dst.Format) {
		return fmt.Errorf("conv: %v and %v: %w", src.Format, dst.Format, ErrUnsupportedFormat)
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	sr := dib.Rect(sp.X, sp.Y, sp.X+width, sp.Y+height)
	dr := dib.Rect(dp.X, dp.Y, dp.X+width, dp.Y+height)
	if !dib.RectInRect(sr, src.Bounds()) || !dib.RectInRect(dr, dst.Bounds()) {
		return fmt.Errorf("conv: %v from %v into %v: %w", sr, src.Bounds(), dst.Bounds(), ErrBadRect)
	}
	return nil
}
