package conv

import (
	"fmt"
	"os"

	"dibsync.org/go/dib"
)

const _DBG = false

// class groups formats by storage size; each pair of classes
// has one row conversion routine.
type class int

const (
	c1 class = iota
	c4
	c8
	c16
	c24
	c32
	nclass
)

func classOf(f dib.Format) class {
	switch f.Storage() {
	case 1:
		return c1
	case 4:
		return c4
	case 8:
		return c8
	case 16:
		return c16
	case 24:
		return c24
	case 32:
		return c32
	}
	panic("conv: bad depth")
}

// rowctx carries what a row routine needs beyond the rows themselves.
// It is passed by value so that a conversion does not allocate.
type rowctx struct {
	sbpp   int
	dbpp   int
	sc     chans
	dc     chans
	m      Map
	colors dib.ColorTable
}

// lookup maps an indexed source value through the color map.
// Values past the end of the map use its first entry.
func (c *rowctx) lookup(v uint32) uint32 {
	if int(v) < len(c.m) {
		return c.m[v]
	}
	return c.m[0]
}

// A rowfunc converts n pixels starting at pixel sx of the source row s
// into the destination row d starting at pixel dx.
type rowfunc func(d []byte, dx int, s []byte, sx, n int, c rowctx)

var convtab = [nclass][nclass]rowfunc{
	c1:  {c1: rowmap, c4: rowmap, c8: rowmap, c16: rowmap, c24: rowmap, c32: rowmap1to32},
	c4:  {c1: rowmap, c4: rowmap, c8: rowmap, c16: rowmap, c24: rowmap, c32: rowmap4to32},
	c8:  {c1: rowmap, c4: rowmap, c8: rowmap, c16: rowmap, c24: rowmap, c32: rowmap8to32},
	c16: {c1: rowquant, c4: rowquant, c8: rowquant, c16: rowrepack, c24: rowrepack, c32: row16to32},
	c24: {c1: rowquant, c4: rowquant, c8: rowquant, c16: rowrepack, c24: rowrepack, c32: row24to32},
	c32: {c1: rowquant, c4: rowquant, c8: rowquant, c16: row32to16, c24: rowrepack, c32: row32to32},
}

// Convert converts the width×height block of src at sp into dst at dp.
// Coordinates count rows from the top of the picture whatever the
// storage order of either span.
//
// An indexed source needs m, which maps each source value to a destination
// pixel value. A direct source converting into an indexed destination
// is matched against dst.Colors by nearest color. Pixels are copied
// unchanged between compatible formats when no map is given.
//
// A non-positive width or height is a no-op. Convert does not allocate
// and reports an error rather than produce a wrong-looking result.
func Convert(dst *Span, dp dib.Point, src *Span, sp dib.Point, width, height int, m Map) error {
	if err := dst.check(); err != nil {
		return fmt.Errorf("conv: destination: %w", err)
	}
	if err := src.check(); err != nil {
		return fmt.Errorf("conv: source: %w", err)
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	sr := dib.Rect(sp.X, sp.Y, sp.X+width, sp.Y+height)
	dr := dib.Rect(dp.X, dp.Y, dp.X+width, dp.Y+height)
	if !dib.RectInRect(sr, src.Bounds()) || !dib.RectInRect(dr, dst.Bounds()) {
		return fmt.Errorf("conv: %v from %v into %v: %w", sr, src.Bounds(), dst.Bounds(), ErrBadRect)
	}
	fn, err := pick(dst, src, m)
	if err != nil {
		return err
	}
	c := rowctx{
		sbpp:   src.Format.Storage(),
		dbpp:   dst.Format.Storage(),
		sc:     chansOf(src.Format),
		dc:     chansOf(dst.Format),
		m:      m,
		colors: dst.Colors,
	}
	so, ss := src.origin(sp.Y)
	do, ds := dst.origin(dp.Y)
	for y := 0; y < height; y++ {
		fn(dst.Pix[do:], dp.X, src.Pix[so:], sp.X, width, c)
		so += ss
		do += ds
	}
	return nil
}

func pick(dst, src *Span, m Map) (rowfunc, error) {
	sf, df := src.Format, dst.Format
	switch {
	case sf.Compatible(df) && (!sf.Indexed() || m == nil):
		if _DBG {
			fmt.Fprintf(os.Stderr, "conv: copy %v\n", sf)
		}
		return rowcopy, nil
	case sf.Indexed():
		if len(m) == 0 {
			return nil, fmt.Errorf("conv: %v to %v: %w", sf, df, ErrNoColorMap)
		}
	case df.Indexed():
		if len(dst.Colors) == 0 {
			return nil, fmt.Errorf("conv: %v to %v: %w", sf, df, ErrNoColorTable)
		}
	case sf.Masks() == df.Masks():
		if _DBG {
			fmt.Fprintf(os.Stderr, "conv: passthrough %v to %v\n", sf, df)
		}
		return rowsame, nil
	}
	fn := convtab[classOf(sf)][classOf(df)]
	if fn == nil {
		return nil, fmt.Errorf("conv: %v to %v: %w", sf, df, ErrUnsupportedFormat)
	}
	if _DBG {
		fmt.Fprintf(os.Stderr, "conv: %v to %v class %d to %d\n", sf, df, classOf(sf), classOf(df))
	}
	return fn, nil
}

func rowcopy(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	copybits(d, dx, s, sx, n, c.dbpp)
}

// rowsame moves pixel values unchanged between direct formats
// that share masks but not storage size.
func rowsame(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	for i := 0; i < n; i++ {
		putpix(d, dx+i, c.dbpp, getpix(s, sx+i, c.sbpp))
	}
}

func rowmap(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	for i := 0; i < n; i++ {
		putpix(d, dx+i, c.dbpp, c.lookup(getpix(s, sx+i, c.sbpp)))
	}
}

func rowmap1to32(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	d = d[4*dx : 4*(dx+n)]
	for i := 0; i < n; i++ {
		x := sx + i
		put32(d[4*i:], c.lookup(uint32(unpack1[s[x>>3]][x&7])))
	}
}

func rowmap4to32(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	d = d[4*dx : 4*(dx+n)]
	for i := 0; i < n; i++ {
		x := sx + i
		put32(d[4*i:], c.lookup(uint32(unpack4[s[x>>1]][x&1])))
	}
}

func rowmap8to32(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	d = d[4*dx : 4*(dx+n)]
	s = s[sx : sx+n]
	for i, v := range s {
		put32(d[4*i:], c.lookup(uint32(v)))
	}
}

// rowquant matches direct source pixels against the destination color table.
// Runs of equal source values are matched once.
func rowquant(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	var last, idx uint32
	have := false
	for i := 0; i < n; i++ {
		v := getpix(s, sx+i, c.sbpp)
		if !have || v != last {
			idx = uint32(Nearest(c.colors, c.sc.unpack(v)))
			last, have = v, true
		}
		putpix(d, dx+i, c.dbpp, idx)
	}
}

func rowrepack(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	for i := 0; i < n; i++ {
		putpix(d, dx+i, c.dbpp, c.dc.pack(c.sc.unpack(getpix(s, sx+i, c.sbpp))))
	}
}

func row16to32(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	d = d[4*dx : 4*(dx+n)]
	s = s[2*sx : 2*(sx+n)]
	for i := 0; i < n; i++ {
		v := uint32(s[2*i]) | uint32(s[2*i+1])<<8
		put32(d[4*i:], c.dc.pack(c.sc.unpack(v)))
	}
}

func row24to32(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	d = d[4*dx : 4*(dx+n)]
	s = s[3*sx : 3*(sx+n)]
	for i := 0; i < n; i++ {
		p := s[3*i : 3*i+3]
		v := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
		put32(d[4*i:], c.dc.pack(c.sc.unpack(v)))
	}
}

func row32to16(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	d = d[2*dx : 2*(dx+n)]
	s = s[4*sx : 4*(sx+n)]
	for i := 0; i < n; i++ {
		v := c.dc.pack(c.sc.unpack(getpix(s, i, 32)))
		d[2*i] = uint8(v)
		d[2*i+1] = uint8(v >> 8)
	}
}

func row32to32(d []byte, dx int, s []byte, sx, n int, c rowctx) {
	d = d[4*dx : 4*(dx+n)]
	s = s[4*sx : 4*(sx+n)]
	for i := 0; i < n; i++ {
		put32(d[4*i:], c.dc.pack(c.sc.unpack(getpix(s, i, 32))))
	}
}

// copybits copies n pixels of bpp bits between rows of the same format.
// Partial bytes at either end are merged with masks; when source and
// destination start at different bit offsets within a byte the copy
// falls back to one pixel at a time. Overlapping rows are handled.
func copybits(d []byte, dx int, s []byte, sx, n, bpp int) {
	if n <= 0 {
		return
	}
	if bpp >= 8 {
		b := bpp / 8
		copy(d[dx*b:(dx+n)*b], s[sx*b:(sx+n)*b])
		return
	}
	ppb := 8 / bpp
	if dx%ppb != sx%ppb {
		if dx > sx {
			for i := n - 1; i >= 0; i-- {
				putpix(d, dx+i, bpp, getpix(s, sx+i, bpp))
			}
		} else {
			for i := 0; i < n; i++ {
				putpix(d, dx+i, bpp, getpix(s, sx+i, bpp))
			}
		}
		return
	}
	l := dib.BytesPerLine(dib.Rect(dx, 0, dx+n, 1), bpp)
	q := d[dx/ppb : dx/ppb+l]
	data := s[sx/ppb : sx/ppb+l]
	lpart := (dx % ppb) * bpp
	rpart := ((dx + n) % ppb) * bpp
	m := uint8(0xFF) >> lpart
	if l == 1 {
		if rpart != 0 {
			m ^= 0xFF >> rpart
		}
		q[0] ^= (data[0] ^ q[0]) & m
		return
	}
	mr := uint8(0xFF) ^ (0xFF >> rpart)
	first, last := 0, l
	if lpart != 0 {
		first = 1
	}
	if rpart != 0 {
		last = l - 1
	}
	// Write the edge that lies outside the source first.
	if dx > sx {
		if rpart != 0 {
			q[l-1] ^= (data[l-1] ^ q[l-1]) & mr
		}
		copy(q[first:last], data[first:last])
		if lpart != 0 {
			q[0] ^= (data[0] ^ q[0]) & m
		}
		return
	}
	if lpart != 0 {
		q[0] ^= (data[0] ^ q[0]) & m
	}
	copy(q[first:last], data[first:last])
	if rpart != 0 {
		q[l-1] ^= (data[l-1] ^ q[l-1]) & mr
	}
}
