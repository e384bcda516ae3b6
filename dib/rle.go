package dib

import "fmt"

// RLE escape codes, following a zero count byte.
const (
	rleEOL   = 0
	rleEOB   = 1
	rleDelta = 2
)

// DecodeRLE expands run-length encoded pixel bits into an uncompressed
// bottom-up buffer of width×height pixels at depth bpp (4 or 8).
//
// A pair n, v with n > 0 is a run of n pixels of value v; in 4-bit
// data v holds two pixels that alternate, high nibble first.
// A zero count introduces an escape: 0 ends a line, 1 ends the bitmap,
// 2 moves the pen right and up by the two bytes that follow, and any
// larger n is an absolute run of n pixels padded to a 16-bit boundary.
//
// Pixels that fall outside the bitmap are dropped and truncated input
// ends decoding early; neither is an error. Pixels never written
// are left zero.
func DecodeRLE(src []byte, width, height, bpp int) ([]byte, error) {
	if bpp != 4 && bpp != 8 {
		return nil, FormatError(fmt.Sprintf("run-length encoding with bit count %d", bpp))
	}
	if width <= 0 || height <= 0 {
		return nil, FormatError(fmt.Sprintf("bad dimensions %dx%d", width, height))
	}
	stride := Stride(width, bpp)
	dst := make([]byte, stride*height)
	d := rleDecoder{dst: dst, stride: stride, width: width, height: height, bpp: bpp}
	d.run(src)
	return dst, nil
}

type rleDecoder struct {
	dst    []byte
	stride int
	width  int
	height int
	bpp    int
	x, y   int
}

func (d *rleDecoder) set(v byte) {
	if d.x >= 0 && d.x < d.width && d.y >= 0 && d.y < d.height {
		o := d.y*d.stride + d.x*d.bpp/8
		if d.bpp == 8 {
			d.dst[o] = v
		} else if d.x&1 == 0 {
			d.dst[o] = d.dst[o]&0x0F | v<<4
		} else {
			d.dst[o] = d.dst[o]&0xF0 | v&0x0F
		}
	}
	d.x++
}

func (d *rleDecoder) run(src []byte) {
	for i := 0; i+1 < len(src); {
		n, v := int(src[i]), src[i+1]
		i += 2
		if n > 0 {
			for k := 0; k < n; k++ {
				if d.bpp == 8 {
					d.set(v)
				} else if k&1 == 0 {
					d.set(v >> 4)
				} else {
					d.set(v & 0x0F)
				}
			}
			continue
		}
		switch v {
		case rleEOL:
			d.x = 0
			d.y++
		case rleEOB:
			return
		case rleDelta:
			if i+1 >= len(src) {
				return
			}
			d.x += int(src[i])
			d.y += int(src[i+1])
			i += 2
		default:
			n := int(v)
			nbytes := n
			if d.bpp == 4 {
				nbytes = (n + 1) / 2
			}
			if i+nbytes > len(src) {
				nbytes = len(src) - i
				if d.bpp == 8 {
					n = nbytes
				} else if 2*nbytes < n {
					n = 2 * nbytes
				}
			}
			for k := 0; k < n; k++ {
				b := src[i+k*d.bpp/8]
				if d.bpp == 8 {
					d.set(b)
				} else if k&1 == 0 {
					d.set(b >> 4)
				} else {
					d.set(b & 0x0F)
				}
			}
			i += (nbytes + 1) &^ 1
		}
		if d.y >= d.height {
			return
		}
	}
}
