package dib

import (
	"encoding/binary"
	"fmt"
)

// Compression identifies how the pixel bits following a header are encoded.
type Compression uint32

const (
	CompressRGB       Compression = 0
	CompressRLE8      Compression = 1
	CompressRLE4      Compression = 2
	CompressBitfields Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressRGB:
		return "rgb"
	case CompressRLE8:
		return "rle8"
	case CompressRLE4:
		return "rle4"
	case CompressBitfields:
		return "bitfields"
	}
	return fmt.Sprintf("compression(%d)", uint32(c))
}

// Header sizes in bytes.
const (
	CoreHeaderSize = 12
	InfoHeaderSize = 40
	V4HeaderSize   = 108
	V5HeaderSize   = 124
	FileHeaderSize = 14
)

// Info is a decoded bitmap header together with its color table.
// A negative Height describes a top-down bitmap.
// Exactly one of Colors and Indices is set for indexed formats:
// Indices holds palette indices when the header was parsed with
// palette-relative colors.
type Info struct {
	HeaderSize  int
	Width       int
	Height      int
	BitCount    int
	Compression Compression
	SizeImage   int
	ColorsUsed  int
	Masks       [3]uint32
	Colors      ColorTable
	Indices     []uint16
}

// A FormatError reports that a header is malformed or describes
// something the engine cannot handle.
type FormatError string

func (e FormatError) Error() string { return "dib: invalid format: " + string(e) }

// NewInfo returns a header describing a width×height bitmap in format f.
func NewInfo(width, height int, f Format, colors ColorTable) *Info {
	h := height
	if f.Dir == TopDown {
		h = -height
	}
	info := &Info{
		HeaderSize: InfoHeaderSize,
		Width:      width,
		Height:     h,
		BitCount:   f.Storage(),
		SizeImage:  Stride(width, f.Depth) * height,
	}
	if f.Indexed() {
		info.Colors = colors.Clone()
		info.ColorsUsed = len(colors)
	} else if f.Masks() != defaultMasks(info.BitCount) {
		info.Compression = CompressBitfields
		info.Masks = f.Masks()
	}
	return info
}

func defaultMasks(bpp int) [3]uint32 {
	switch bpp {
	case 16:
		return RGB555.Masks()
	case 24, 32:
		return XRGB32.Masks()
	}
	return [3]uint32{}
}

// tableLen returns the number of color table entries following the header.
func (info *Info) tableLen() int {
	if info.BitCount > 8 {
		return info.ColorsUsed
	}
	max := 1 << uint(info.BitCount)
	if info.ColorsUsed == 0 || info.ColorsUsed > max {
		return max
	}
	return info.ColorsUsed
}

// ParseInfo decodes a bitmap header and its color table from b.
// If indices is set the color table holds 16-bit palette indices
// instead of colors. It returns the number of bytes consumed.
func ParseInfo(b []byte, indices bool) (*Info, int, error) {
	if len(b) < 4 {
		return nil, 0, FormatError("short header")
	}
	le := binary.LittleEndian
	size := int(le.Uint32(b))
	if len(b) < size {
		return nil, 0, FormatError(fmt.Sprintf("header size %d exceeds %d bytes", size, len(b)))
	}
	info := &Info{HeaderSize: size}
	entry := 4
	switch {
	case size == CoreHeaderSize:
		info.Width = int(le.Uint16(b[4:]))
		info.Height = int(le.Uint16(b[6:]))
		info.BitCount = int(le.Uint16(b[10:]))
		entry = 3
	case size >= InfoHeaderSize:
		info.Width = int(int32(le.Uint32(b[4:])))
		info.Height = int(int32(le.Uint32(b[8:])))
		info.BitCount = int(le.Uint16(b[14:]))
		info.Compression = Compression(le.Uint32(b[16:]))
		info.SizeImage = int(le.Uint32(b[20:]))
		info.ColorsUsed = int(le.Uint32(b[32:]))
	default:
		return nil, 0, FormatError(fmt.Sprintf("unknown header size %d", size))
	}
	if info.Width <= 0 || info.Height == 0 {
		return nil, 0, FormatError(fmt.Sprintf("bad dimensions %dx%d", info.Width, info.Height))
	}
	switch info.BitCount {
	default:
		return nil, 0, FormatError(fmt.Sprintf("unsupported bit count %d", info.BitCount))
	case 1, 4, 8, 16, 24, 32:
	}
	n := size
	info.Masks = defaultMasks(info.BitCount)
	if info.Compression == CompressBitfields {
		switch {
		case size >= 52:
			info.Masks = [3]uint32{le.Uint32(b[40:]), le.Uint32(b[44:]), le.Uint32(b[48:])}
		case len(b) >= n+12:
			info.Masks = [3]uint32{le.Uint32(b[n:]), le.Uint32(b[n+4:]), le.Uint32(b[n+8:])}
			n += 12
		default:
			return nil, 0, FormatError("short bitfield masks")
		}
	}
	ncolor := info.tableLen()
	if indices && info.BitCount <= 8 {
		if len(b) < n+2*ncolor {
			return nil, 0, FormatError("short palette index table")
		}
		info.Indices = make([]uint16, ncolor)
		for i := range info.Indices {
			info.Indices[i] = le.Uint16(b[n+2*i:])
		}
		n += 2 * ncolor
		return info, n, nil
	}
	if len(b) < n+entry*ncolor {
		return nil, 0, FormatError("short color table")
	}
	if info.BitCount <= 8 {
		if entry == 3 {
			info.Colors = decodeTriples(b[n:], ncolor)
		} else {
			info.Colors = decodeQuads(b[n:], ncolor)
		}
	}
	n += entry * ncolor
	return info, n, nil
}

// ParseFile decodes a bitmap file: the file header, the bitmap header
// and color table, and returns the info along with the pixel bits.
func ParseFile(b []byte) (*Info, []byte, error) {
	if len(b) < FileHeaderSize || b[0] != 'B' || b[1] != 'M' {
		return nil, nil, FormatError("not a bitmap file")
	}
	off := int(binary.LittleEndian.Uint32(b[10:]))
	info, n, err := ParseInfo(b[FileHeaderSize:], false)
	if err != nil {
		return nil, nil, err
	}
	if off == 0 {
		off = FileHeaderSize + n
	}
	if off > len(b) {
		return nil, nil, FormatError("pixel offset past end of file")
	}
	return info, b[off:], nil
}

// Format returns the pixel layout described by the header.
func (info *Info) Format() (Format, error) {
	f := Format{Depth: info.BitCount}
	if info.Height < 0 {
		f.Dir = TopDown
	}
	switch info.Compression {
	default:
		return Format{}, FormatError(fmt.Sprintf("unknown compression %d", info.Compression))
	case CompressRLE8, CompressRLE4:
		want := 8
		if info.Compression == CompressRLE4 {
			want = 4
		}
		if info.BitCount != want {
			return Format{}, FormatError(fmt.Sprintf("%v with bit count %d", info.Compression, info.BitCount))
		}
		if f.Dir == TopDown {
			return Format{}, FormatError("compressed bitmaps must be bottom-up")
		}
	case CompressBitfields:
		if info.BitCount != 16 && info.BitCount != 32 {
			return Format{}, FormatError(fmt.Sprintf("bitfields with bit count %d", info.BitCount))
		}
	case CompressRGB:
	}
	if !f.Indexed() {
		f.Red, f.Green, f.Blue = info.Masks[0], info.Masks[1], info.Masks[2]
		if info.Compression != CompressBitfields {
			m := defaultMasks(info.BitCount)
			f.Red, f.Green, f.Blue = m[0], m[1], m[2]
		}
	}
	if err := f.Valid(); err != nil {
		return Format{}, FormatError(err.Error())
	}
	return f, nil
}

// Rows returns the number of rows and their storage order.
func (info *Info) Rows() (int, Direction) {
	return Lines(info.Height)
}

// Stride returns the length of one stored row in bytes.
func (info *Info) Stride() int {
	return Stride(info.Width, info.BitCount)
}

// ImageSize returns the number of bytes of pixel data the header describes.
func (info *Info) ImageSize() int {
	if info.Compression == CompressRLE4 || info.Compression == CompressRLE8 {
		return info.SizeImage
	}
	rows, _ := info.Rows()
	return info.Stride() * rows
}

// Compressed reports whether the pixel bits are run-length encoded.
func (info *Info) Compressed() bool {
	return info.Compression == CompressRLE4 || info.Compression == CompressRLE8
}

// Marshal encodes info as a 40-byte header followed by its masks and
// color table.
func (info *Info) Marshal() []byte {
	le := binary.LittleEndian
	b := make([]byte, InfoHeaderSize, InfoHeaderSize+12+4*len(info.Colors))
	le.PutUint32(b[0:], InfoHeaderSize)
	le.PutUint32(b[4:], uint32(int32(info.Width)))
	le.PutUint32(b[8:], uint32(int32(info.Height)))
	le.PutUint16(b[12:], 1)
	le.PutUint16(b[14:], uint16(info.BitCount))
	le.PutUint32(b[16:], uint32(info.Compression))
	le.PutUint32(b[20:], uint32(info.SizeImage))
	ncolor := len(info.Colors)
	if info.Indices != nil {
		ncolor = len(info.Indices)
	}
	le.PutUint32(b[32:], uint32(ncolor))
	if info.Compression == CompressBitfields {
		for _, m := range info.Masks {
			b = le.AppendUint32(b, m)
		}
	}
	if info.Indices != nil {
		for _, x := range info.Indices {
			b = le.AppendUint16(b, x)
		}
		return b
	}
	return info.Colors.AppendQuads(b)
}

// AppendFile appends a complete bitmap file holding info and pix to b.
func (info *Info) AppendFile(b []byte, pix []byte) []byte {
	hdr := info.Marshal()
	off := FileHeaderSize + len(hdr)
	le := binary.LittleEndian
	b = append(b, 'B', 'M')
	b = le.AppendUint32(b, uint32(off+len(pix)))
	b = le.AppendUint32(b, 0)
	b = le.AppendUint32(b, uint32(off))
	b = append(b, hdr...)
	return append(b, pix...)
}
