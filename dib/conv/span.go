package conv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"dibsync.org/go/dib"
)

var (
	ErrUnsupportedFormat = dib.ErrUnsupportedFormat
	ErrBadRect           = errors.New("rectangle outside pixel buffer")
	ErrBadSpan           = errors.New("malformed pixel buffer")
	ErrNoColorMap        = errors.New("indexed source needs a color map")
	ErrNoColorTable      = errors.New("indexed destination needs a color table")
)

// A Span is a block of pixel memory: Rows rows of Width pixels
// in Format, Stride bytes apart. Rows are stored in the order
// given by Format.Dir. Colors is the color table of an indexed span;
// it is consulted only when converting into the span.
type Span struct {
	Format dib.Format
	Pix    []byte
	Stride int
	Width  int
	Rows   int
	Colors dib.ColorTable
}

// NewSpan allocates a zeroed span with rows padded to 32 bits.
func NewSpan(f dib.Format, width, rows int) *Span {
	stride := dib.Stride(width, f.Depth)
	return &Span{
		Format: f,
		Pix:    make([]byte, stride*rows),
		Stride: stride,
		Width:  width,
		Rows:   rows,
	}
}

// Bounds returns the rectangle covered by the span, with the top row at y = 0.
func (s *Span) Bounds() dib.Rectangle {
	return dib.Rect(0, 0, s.Width, s.Rows)
}

// Row returns the bytes of row y, counted from the top.
func (s *Span) Row(y int) []byte {
	o := dib.RowOffset(s.Format.Dir, s.Stride, s.Rows, y)
	return s.Pix[o:min(o+s.Stride, len(s.Pix))]
}

// origin returns the offset of row y and the signed distance to the row below it.
func (s *Span) origin(y int) (off, step int) {
	if s.Format.Dir == dib.TopDown {
		return y * s.Stride, s.Stride
	}
	return (s.Rows - 1 - y) * s.Stride, -s.Stride
}

func (s *Span) check() error {
	if err := s.Format.Valid(); err != nil {
		return err
	}
	if s.Width < 0 || s.Rows < 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadSpan, s.Width, s.Rows)
	}
	if s.Rows == 0 || s.Width == 0 {
		return nil
	}
	if s.Stride < dib.BytesPerLine(s.Bounds(), s.Format.Storage()) {
		return fmt.Errorf("%w: stride %d too short for %d pixels of %v", ErrBadSpan, s.Stride, s.Width, s.Format)
	}
	if len(s.Pix) < s.Stride*(s.Rows-1)+dib.BytesPerLine(s.Bounds(), s.Format.Storage()) {
		return fmt.Errorf("%w: %d bytes for %d rows of %d", ErrBadSpan, len(s.Pix), s.Rows, s.Stride)
	}
	return nil
}

// getpix returns pixel x of row at bpp bits per pixel of storage.
func getpix(row []byte, x, bpp int) uint32 {
	switch bpp {
	case 1:
		return uint32(unpack1[row[x>>3]][x&7])
	case 4:
		return uint32(unpack4[row[x>>1]][x&1])
	case 8:
		return uint32(row[x])
	case 16:
		return uint32(binary.LittleEndian.Uint16(row[2*x:]))
	case 24:
		p := row[3*x : 3*x+3]
		return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	case 32:
		return binary.LittleEndian.Uint32(row[4*x:])
	}
	panic("conv: bad depth")
}

func putpix(row []byte, x, bpp int, v uint32) {
	switch bpp {
	case 1:
		sh := 7 - uint(x&7)
		row[x>>3] = row[x>>3]&^(1<<sh) | uint8(v&1)<<sh
	case 4:
		sh := 4 - 4*uint(x&1)
		row[x>>1] = row[x>>1]&^(0xF<<sh) | uint8(v&0xF)<<sh
	case 8:
		row[x] = uint8(v)
	case 16:
		binary.LittleEndian.PutUint16(row[2*x:], uint16(v))
	case 24:
		p := row[3*x : 3*x+3]
		p[0], p[1], p[2] = uint8(v), uint8(v>>8), uint8(v>>16)
	case 32:
		binary.LittleEndian.PutUint32(row[4*x:], v)
	default:
		panic("conv: bad depth")
	}
}

func put32(p []byte, v uint32) {
	binary.LittleEndian.PutUint32(p, v)
}

// Pixel returns the raw value of the pixel at p, which must lie in s.
func (s *Span) Pixel(p dib.Point) uint32 {
	return getpix(s.Row(p.Y), p.X, s.Format.Storage())
}

// SetPixel sets the raw value of the pixel at p, which must lie in s.
func (s *Span) SetPixel(p dib.Point, v uint32) {
	putpix(s.Row(p.Y), p.X, s.Format.Storage(), v)
}

// Color returns the color of the pixel at p. Indices past the end
// of the color table read as black.
func (s *Span) Color(p dib.Point) dib.RGB {
	v := s.Pixel(p)
	if !s.Format.Indexed() {
		return Unpack(s.Format, v)
	}
	if int(v) < len(s.Colors) {
		return s.Colors[v]
	}
	return dib.Black
}
