package gdi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/native"
	"dibsync.org/go/surface"
)

func check(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %s", msg, err)
	}
}

// nop draws nothing but brings the destination surface up to date.
const nop Rop = 0x00AA0029

var (
	red   = dib.RGB{R: 0xFF}
	green = dib.RGB{G: 0xFF}
	blue  = dib.RGB{B: 0xFF}
)

func newEngine() *Engine {
	return New(Config{Protector: surface.Unprotected{}})
}

func create(t *testing.T, e *Engine, w, h int, f dib.Format, colors dib.ColorTable) *surface.Bitmap {
	t.Helper()
	b, err := e.CreateDIBSection(nil, dib.NewInfo(w, h, f, colors), conv.Explicit)
	check(t, err, "CreateDIBSection")
	return b
}

var topDown32 = dib.XRGB32.WithDir(dib.TopDown)

// setPixels sets b from 24-bit values, top row first.
func setPixels(t *testing.T, b *surface.Bitmap, pix []uint32) {
	t.Helper()
	info := dib.NewInfo(b.Width, b.Height, topDown32, nil)
	bits := make([]byte, info.ImageSize())
	for i, v := range pix {
		binary.LittleEndian.PutUint32(bits[4*i:], v)
	}
	n, err := SetDIBits(nil, b, 0, b.Height, bits, info, conv.Explicit)
	check(t, err, "SetDIBits")
	if n != b.Height {
		t.Fatalf("SetDIBits set %d lines; want %d", n, b.Height)
	}
}

// getPixels returns the 24-bit values of b, top row first.
func getPixels(t *testing.T, b *surface.Bitmap) []uint32 {
	t.Helper()
	info := dib.NewInfo(b.Width, b.Height, topDown32, nil)
	bits := make([]byte, info.ImageSize())
	n, err := GetDIBits(nil, b, 0, b.Height, bits, info, conv.Explicit)
	check(t, err, "GetDIBits")
	if n != b.Height {
		t.Fatalf("GetDIBits got %d lines; want %d", n, b.Height)
	}
	pix := make([]uint32, b.Width*b.Height)
	for i := range pix {
		pix[i] = binary.LittleEndian.Uint32(bits[4*i:]) & 0xFFFFFF
	}
	return pix
}

func pattern(w, h int) []uint32 {
	pix := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = uint32(x<<16 | y<<8 | 0x40)
		}
	}
	return pix
}

func TestRop(t *testing.T) {
	tests := []struct {
		rop           Rop
		src, pat, dst bool
		op            conv.BoolOp
	}{
		{SRCCOPY, true, false, false, conv.OpS},
		{SRCPAINT, true, false, true, conv.OpSorD},
		{SRCAND, true, false, true, conv.OpSandD},
		{SRCINVERT, true, false, true, conv.OpSxorD},
		{SRCERASE, true, false, true, conv.OpSandNotD},
		{NOTSRCCOPY, true, false, false, conv.OpNotS},
		{NOTSRCERASE, true, false, true, conv.OpNor},
		{MERGEPAINT, true, false, true, conv.OpNotSorD},
		{BLACKNESS, false, false, false, conv.OpClear},
		{WHITENESS, false, false, false, conv.OpSet},
		{DSTINVERT, false, false, true, conv.OpNotD},
		{PATCOPY, false, true, false, conv.OpS},
		{PATINVERT, false, true, true, conv.OpSxorD},
		{nop, false, false, true, conv.OpD},
	}
	for _, tt := range tests {
		if tt.rop.UsesSource() != tt.src || tt.rop.UsesPattern() != tt.pat || tt.rop.UsesDest() != tt.dst {
			t.Errorf("%v uses source %v pattern %v dest %v; want %v %v %v", tt.rop,
				tt.rop.UsesSource(), tt.rop.UsesPattern(), tt.rop.UsesDest(), tt.src, tt.pat, tt.dst)
		}
		var op conv.BoolOp
		var err error
		if tt.src {
			op, err = tt.rop.sourceOp()
		} else {
			op, err = tt.rop.patternOp()
		}
		if err != nil || op != tt.op {
			t.Errorf("%v as BoolOp = %#x, %v; want %#x", tt.rop, op, err, tt.op)
		}
	}
	for _, rop := range []Rop{MERGECOPY, PATPAINT} {
		if _, err := rop.sourceOp(); !errors.Is(err, ErrUnsupportedRop) {
			t.Errorf("%v: %v; want ErrUnsupportedRop", rop, err)
		}
	}
	if s := Rop(0x123456).String(); s != "Rop(0x00123456)" {
		t.Errorf("String = %q", s)
	}
}

func TestDC(t *testing.T) {
	e := newEngine()
	defer e.Close()
	dc := NewDC(create(t, e, 10, 8, dib.XRGB32, nil))
	if r := dc.ClipBox(); r != dib.Rect(0, 0, 10, 8) {
		t.Errorf("ClipBox = %v", r)
	}
	dc.SetClip(dib.Rect(12, 6, 4, -2))
	if r := dc.ClipBox(); r != dib.Rect(4, 0, 10, 6) {
		t.Errorf("clipped ClipBox = %v", r)
	}
	dc.ClearClip()
	if r := dc.ClipBox(); r != dib.Rect(0, 0, 10, 8) {
		t.Errorf("ClipBox after ClearClip = %v", r)
	}
	dc.Origin = dib.Pt(3, -1)
	pts := []dib.Point{{0, 0}, {2, 5}}
	dc.LPtoDP(pts)
	if want := []dib.Point{{3, -1}, {5, 4}}; !reflect.DeepEqual(pts, want) {
		t.Errorf("LPtoDP = %v; want %v", pts, want)
	}
}

func TestCreateDIBSection(t *testing.T) {
	be := new(native.MemBackend)
	e := New(Config{Backend: be, Protector: surface.Unprotected{}, Depth: 16})
	formats := []dib.Format{dib.Mono, dib.Index4, dib.Index8, dib.RGB555, dib.RGB565, dib.BGR565, dib.RGB24, dib.XRGB32, dib.XBGR32}
	var ids []surface.ID
	for _, f := range formats {
		b := create(t, e, 7, 3, f, nil)
		if b.Width != 7 || b.Height != 3 || b.State() != surface.AppMod {
			t.Errorf("%v: %dx%d in %v", f, b.Width, b.Height, b.State())
		}
		if s := b.Surface(); s == nil || s.Format().Depth != 16 {
			t.Errorf("%v: surface %v", f, s)
		}
		if f.Indexed() && len(b.Colors()) != f.Colors() {
			t.Errorf("%v: %d colors", f, len(b.Colors()))
		}
		ids = append(ids, b.ID)
	}
	if n := e.Registry().Len(); n != len(formats) {
		t.Errorf("%d bitmaps registered; want %d", n, len(formats))
	}
	check(t, e.DeleteBitmap(ids[0]), "DeleteBitmap")
	if err := e.DeleteBitmap(ids[0]); !errors.Is(err, surface.ErrNotFound) {
		t.Errorf("second DeleteBitmap: %v", err)
	}
	if be.Live() != len(formats)-1 {
		t.Errorf("%d live surfaces; want %d", be.Live(), len(formats)-1)
	}
	check(t, e.Close(), "Close")
	if be.Live() != 0 {
		t.Errorf("%d live surfaces after Close", be.Live())
	}

	e = newEngine()
	defer e.Close()
	bad := []*dib.Info{
		{HeaderSize: dib.InfoHeaderSize, Width: 4, Height: 4, BitCount: 8, Compression: dib.CompressRLE8},
		{HeaderSize: dib.InfoHeaderSize, Width: 0, Height: 4, BitCount: 8},
		{HeaderSize: dib.InfoHeaderSize, Width: 4, Height: 4, BitCount: 7},
	}
	for _, info := range bad {
		if _, err := e.CreateDIBSection(nil, info, conv.Explicit); err == nil {
			t.Errorf("CreateDIBSection(%+v) succeeded", info)
		}
	}
	if e.Registry().Len() != 0 {
		t.Errorf("failed creations left %d bitmaps", e.Registry().Len())
	}
}

// countingProtector counts the DIB memory it has handed out and not
// taken back.
type countingProtector struct {
	surface.Unprotected
	live int
}

func (p *countingProtector) Alloc(n int) ([]byte, error) {
	p.live++
	return make([]byte, n), nil
}

func (p *countingProtector) Free(b []byte) error {
	p.live--
	return nil
}

func TestCreateDIBSectionFrees(t *testing.T) {
	prot := new(countingProtector)
	e := New(Config{Protector: prot, Depth: 7})
	_, err := e.CreateDIBSection(nil, dib.NewInfo(4, 4, dib.XRGB32, nil), conv.Explicit)
	if err == nil {
		t.Fatalf("CreateDIBSection with no 7-bit surfaces succeeded")
	}
	if prot.live != 0 || e.Registry().Len() != 0 {
		t.Errorf("after failed surface: %d allocations, %d registered", prot.live, e.Registry().Len())
	}

	e = New(Config{Protector: prot})
	check(t, e.Close(), "Close")
	_, err = e.CreateDIBSection(nil, dib.NewInfo(4, 4, dib.XRGB32, nil), conv.Explicit)
	if !errors.Is(err, surface.ErrClosed) {
		t.Errorf("CreateDIBSection after Close: %v; want ErrClosed", err)
	}
	if prot.live != 0 {
		t.Errorf("after closed registry: %d allocations", prot.live)
	}
}

func TestCreateDIBSectionPaletteIndexed(t *testing.T) {
	e := newEngine()
	defer e.Close()
	dc := &DC{Palette: dib.ColorTable{red, green, blue}}
	info := dib.NewInfo(2, 2, dib.Index8, nil)
	info.Indices = []uint16{2, 0, 7}
	b, err := e.CreateDIBSection(dc, info, conv.PaletteIndexed)
	check(t, err, "CreateDIBSection")
	if c, want := b.Colors(), (dib.ColorTable{blue, red, red}); !reflect.DeepEqual(c, want) {
		t.Errorf("colors = %v; want %v", c, want)
	}
}

func TestSetGetDIBits(t *testing.T) {
	e := newEngine()
	defer e.Close()
	b := create(t, e, 3, 3, dib.XRGB32, nil)
	dc := NewDC(b)
	pix := pattern(3, 3)
	setPixels(t, b, pix)
	if got := getPixels(t, b); !reflect.DeepEqual(got, pix) {
		t.Fatalf("read back %x; want %x", got, pix)
	}
	if s := b.Stats(); s != (surface.Stats{}) {
		t.Errorf("copies before any drawing: %+v", s)
	}

	check(t, PatBlt(dc, 0, 0, 3, 3, DSTINVERT), "PatBlt")
	got := getPixels(t, b)
	for i := range got {
		if got[i] != ^pix[i]&0xFFFFFF {
			t.Fatalf("pixel %d = %#x after invert; want %#x", i, got[i], ^pix[i]&0xFFFFFF)
		}
	}
	if s := b.Stats(); s != (surface.Stats{ToSurface: 1, ToDIB: 1}) {
		t.Errorf("copies = %+v; want one each way", s)
	}

	// A partial write must keep the surface's other pixels.
	check(t, PatBlt(dc, 0, 0, 3, 3, DSTINVERT), "PatBlt")
	info := dib.NewInfo(3, 1, topDown32, nil)
	bits := make([]byte, info.ImageSize())
	n, err := SetDIBits(nil, b, 0, 1, bits, info, conv.Explicit)
	check(t, err, "SetDIBits")
	if n != 1 {
		t.Errorf("SetDIBits set %d lines; want 1", n)
	}
	if s := b.Stats(); s.ToDIB != 2 {
		t.Errorf("partial write made %d copies to DIB; want 2 in all", s.ToDIB)
	}
	want := append([]uint32{0, 0, 0}, pix[3:]...)
	if got := getPixels(t, b); !reflect.DeepEqual(got, want) {
		t.Errorf("after partial write: %x; want %x", got, want)
	}

	// A full write need not.
	check(t, PatBlt(dc, 0, 0, 3, 3, DSTINVERT), "PatBlt")
	setPixels(t, b, pix)
	if s := b.Stats(); s.ToDIB != 2 {
		t.Errorf("full write copied the surface: %+v", s)
	}
	if b.State() != surface.AppMod {
		t.Errorf("state after SetDIBits = %v; want AppMod", b.State())
	}
}

func TestSetDIBitsScans(t *testing.T) {
	e := newEngine()
	defer e.Close()
	b := create(t, e, 2, 3, dib.XRGB32, nil)
	info := dib.NewInfo(2, 3, dib.RGB24, nil)
	bits := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0, 0}
	n, err := SetDIBits(nil, b, 1, 1, bits, info, conv.Explicit)
	check(t, err, "SetDIBits")
	if n != 1 {
		t.Errorf("SetDIBits set %d lines; want 1", n)
	}
	want := []uint32{0, 0, 0x332211, 0x665544, 0, 0}
	if got := getPixels(t, b); !reflect.DeepEqual(got, want) {
		t.Errorf("pixels = %x; want %x", got, want)
	}
	if n, _ := SetDIBits(nil, b, 3, 1, bits, info, conv.Explicit); n != 0 {
		t.Errorf("set %d lines past the end", n)
	}
}

func TestSetDIBitsRLE(t *testing.T) {
	e := newEngine()
	defer e.Close()
	b := create(t, e, 4, 2, dib.XRGB32, nil)
	info := &dib.Info{
		HeaderSize:  dib.InfoHeaderSize,
		Width:       4,
		Height:      2,
		BitCount:    8,
		Compression: dib.CompressRLE8,
		Colors:      dib.ColorTable{dib.Black, red, green, blue},
	}
	rle := []byte{2, 1, 2, 2, 0, 0, 4, 3, 0, 1}
	n, err := SetDIBits(nil, b, 0, 0, rle, info, conv.Explicit)
	check(t, err, "SetDIBits")
	if n != 2 {
		t.Errorf("SetDIBits set %d lines; want 2", n)
	}
	want := []uint32{0xFF, 0xFF, 0xFF, 0xFF, 0xFF0000, 0xFF0000, 0xFF00, 0xFF00}
	if got := getPixels(t, b); !reflect.DeepEqual(got, want) {
		t.Errorf("pixels = %x; want %x", got, want)
	}
}

func TestSetDIBitsBadBits(t *testing.T) {
	e := newEngine()
	defer e.Close()
	b := create(t, e, 4, 4, dib.XRGB32, nil)
	check(t, PatBlt(NewDC(b), 0, 0, 4, 4, WHITENESS), "PatBlt")
	info := dib.NewInfo(4, 4, dib.XRGB32, nil)
	if _, err := SetDIBits(nil, b, 0, 4, make([]byte, 10), info, conv.Explicit); !errors.Is(err, conv.ErrBadSpan) {
		t.Errorf("short bits: %v", err)
	}
	if st := b.State(); st != surface.GdiMod {
		t.Errorf("failed SetDIBits left state %v; want GdiMod", st)
	}
}

func TestGetDIBitsInfo(t *testing.T) {
	e := newEngine()
	defer e.Close()
	b := create(t, e, 5, 2, dib.Index4, dib.ColorTable{red, green})
	var info dib.Info
	n, err := GetDIBits(nil, b, 0, 0, nil, &info, conv.Explicit)
	check(t, err, "GetDIBits")
	if n != 0 || info.Width != 5 || info.Height != 2 || info.BitCount != 4 || len(info.Colors) != 2 {
		t.Errorf("info = %+v", info)
	}

	mono := dib.NewInfo(5, 2, dib.Mono, nil)
	_, err = GetDIBits(nil, b, 0, 2, nil, mono, conv.Explicit)
	check(t, err, "GetDIBits")
	if len(mono.Colors) != 2 || mono.Colors[0] != dib.Black || mono.Colors[1] != dib.White {
		t.Errorf("mono colors = %v", mono.Colors)
	}

	dc := &DC{Palette: dib.ColorTable{blue, green, red}}
	pal := dib.NewInfo(5, 2, dib.Index4, nil)
	_, err = GetDIBits(dc, b, 0, 2, nil, pal, conv.PaletteIndexed)
	check(t, err, "GetDIBits")
	if want := []uint16{0, 1, 2}; !reflect.DeepEqual(pal.Indices, want) {
		t.Errorf("indices = %v; want %v", pal.Indices, want)
	}
}

func TestColorTable(t *testing.T) {
	e := newEngine()
	defer e.Close()
	b := create(t, e, 2, 1, dib.Index8, dib.ColorTable{dib.Black, dib.White})
	info := dib.NewInfo(2, 1, dib.Index8.WithDir(dib.TopDown), dib.ColorTable{dib.Black, dib.White})
	_, err := SetDIBits(nil, b, 0, 1, []byte{0, 1, 0, 0}, info, conv.Explicit)
	check(t, err, "SetDIBits")
	check(t, PatBlt(NewDC(b), 0, 0, 1, 1, nop), "PatBlt")

	n, err := SetDIBColorTable(b, 1, dib.ColorTable{red, green})
	check(t, err, "SetDIBColorTable")
	if n != 1 {
		t.Errorf("replaced %d entries; want 1", n)
	}
	if c := GetDIBColorTable(b, 0, 5); !reflect.DeepEqual(c, dib.ColorTable{dib.Black, red}) {
		t.Errorf("color table = %v", c)
	}
	if c := GetDIBColorTable(b, 2, 1); c != nil {
		t.Errorf("entries past the end: %v", c)
	}
	if got, want := getPixels(t, b), []uint32{0, 0xFF0000}; !reflect.DeepEqual(got, want) {
		t.Errorf("pixels = %x; want %x", got, want)
	}
}

func TestBitBlt(t *testing.T) {
	tests := []struct {
		x, y, w, h int
		xs, ys     int
		clip       dib.Rectangle
		origin     dib.Point
	}{
		{0, 0, 4, 4, 0, 0, dib.ZR, dib.ZP},
		{0, 0, 2, 2, 1, 1, dib.ZR, dib.ZP},
		{2, 2, 4, 4, 2, 2, dib.ZR, dib.ZP},
		{-1, 1, 3, 3, 0, 0, dib.ZR, dib.ZP},
		{0, 0, 4, 4, 1, -1, dib.ZR, dib.ZP},
		{0, 0, 4, 4, 0, 0, dib.Rect(1, 0, 3, 2), dib.ZP},
		{0, 0, 2, 2, 0, 0, dib.ZR, dib.Pt(1, 2)},
		{0, 0, 0, 4, 0, 0, dib.ZR, dib.ZP},
	}
	for _, onSurface := range []bool{false, true} {
		for _, tt := range tests {
			name := fmt.Sprintf("%+v/surface=%v", tt, onSurface)
			t.Run(name, func(t *testing.T) {
				e := newEngine()
				defer e.Close()
				src := NewDC(create(t, e, 4, 4, dib.XRGB32, nil))
				dst := NewDC(create(t, e, 4, 4, dib.XRGB32, nil))
				pix := pattern(4, 4)
				setPixels(t, src.Bitmap, pix)
				if onSurface {
					check(t, PatBlt(src, 0, 0, 4, 4, nop), "PatBlt")
				}
				if tt.clip != dib.ZR {
					dst.SetClip(tt.clip)
				}
				dst.Origin = tt.origin
				check(t, BitBlt(dst, tt.x, tt.y, tt.w, tt.h, src, tt.xs, tt.ys, SRCCOPY), "BitBlt")

				want := make([]uint32, 16)
				for py := 0; py < 4; py++ {
					for px := 0; px < 4; px++ {
						p := dib.Pt(px, py)
						blit := dib.Rect(tt.x, tt.y, tt.x+tt.w, tt.y+tt.h).Add(tt.origin)
						sp := p.Sub(blit.Min).Add(dib.Pt(tt.xs, tt.ys))
						if p.In(blit) && p.In(dst.ClipBox()) && sp.In(src.Bounds()) {
							want[py*4+px] = pix[sp.Y*4+sp.X]
						}
					}
				}
				if got := getPixels(t, dst.Bitmap); !reflect.DeepEqual(got, want) {
					t.Errorf("pixels = %x; want %x", got, want)
				}
			})
		}
	}
}

func TestBitBltRops(t *testing.T) {
	const s, d = 0xC0A050, 0xA05C30
	brush := dib.RGB{R: 0x12, G: 0x34, B: 0x56}
	tests := []struct {
		rop  Rop
		want uint32
	}{
		{SRCCOPY, s},
		{SRCPAINT, s | d},
		{SRCAND, s & d},
		{SRCINVERT, s ^ d},
		{SRCERASE, s &^ d},
		{NOTSRCCOPY, ^uint32(s)},
		{NOTSRCERASE, ^uint32(s | d)},
		{MERGEPAINT, ^uint32(s) | d},
		{BLACKNESS, 0},
		{WHITENESS, 0xFFFFFF},
		{DSTINVERT, ^uint32(d)},
		{PATCOPY, 0x123456},
		{PATINVERT, 0x123456 ^ d},
		{nop, d},
	}
	for _, tt := range tests {
		e := newEngine()
		src := NewDC(create(t, e, 2, 1, dib.XRGB32, nil))
		dst := NewDC(create(t, e, 2, 1, dib.XRGB32, nil))
		dst.Brush = brush
		setPixels(t, src.Bitmap, []uint32{s, s})
		setPixels(t, dst.Bitmap, []uint32{d, d})
		check(t, BitBlt(dst, 0, 0, 1, 1, src, 0, 0, tt.rop), tt.rop.String())
		want := []uint32{tt.want & 0xFFFFFF, d}
		if got := getPixels(t, dst.Bitmap); !reflect.DeepEqual(got, want) {
			t.Errorf("%v: pixels = %x; want %x", tt.rop, got, want)
		}
		e.Close()
	}
}

func TestBitBltErrors(t *testing.T) {
	e := newEngine()
	defer e.Close()
	a := NewDC(create(t, e, 2, 2, dib.XRGB32, nil))
	b := NewDC(create(t, e, 2, 2, dib.XRGB32, nil))
	if err := BitBlt(a, 0, 0, 2, 2, b, 0, 0, MERGECOPY); !errors.Is(err, ErrUnsupportedRop) {
		t.Errorf("MERGECOPY: %v", err)
	}
	if err := BitBlt(a, 0, 0, 2, 2, nil, 0, 0, SRCCOPY); !errors.Is(err, ErrNoSource) {
		t.Errorf("no source: %v", err)
	}
	if err := PatBlt(a, 0, 0, 2, 2, SRCCOPY); !errors.Is(err, ErrUnsupportedRop) {
		t.Errorf("PatBlt SRCCOPY: %v", err)
	}
	if err := BitBlt(a, 0, 0, 2, 2, nil, 0, 0, BLACKNESS); err != nil {
		t.Errorf("BLACKNESS without source: %v", err)
	}
	if err := BitBlt(a, 5, 5, 2, 2, b, 0, 0, SRCCOPY); err != nil {
		t.Errorf("blit outside destination: %v", err)
	}
	// BLACKNESS overwrote all of a, so nothing was copied to its surface.
	if s, st := a.Bitmap.Stats(), a.Bitmap.State(); s != (surface.Stats{}) || st != surface.GdiMod {
		t.Errorf("copies = %+v in %v; want none in GdiMod", s, st)
	}
}

func TestBitBltIndexed(t *testing.T) {
	e := newEngine()
	defer e.Close()
	colors := dib.ColorTable{red, green}
	src := NewDC(create(t, e, 2, 1, dib.Index8, colors))
	info := dib.NewInfo(2, 1, dib.Index8.WithDir(dib.TopDown), colors)
	_, err := SetDIBits(nil, src.Bitmap, 0, 1, []byte{0, 1, 0, 0}, info, conv.Explicit)
	check(t, err, "SetDIBits")
	dst := NewDC(create(t, e, 2, 1, dib.XRGB32, nil))
	check(t, BitBlt(dst, 0, 0, 2, 1, src, 0, 0, SRCCOPY), "BitBlt")
	if got, want := getPixels(t, dst.Bitmap), []uint32{0xFF0000, 0xFF00}; !reflect.DeepEqual(got, want) {
		t.Errorf("pixels = %x; want %x", got, want)
	}

	gray := NewDC(create(t, e, 2, 1, dib.XRGB32, nil))
	setPixels(t, gray.Bitmap, []uint32{0x101010, 0xF0F0F0})
	mono := NewDC(create(t, e, 2, 1, dib.Mono, dib.ColorTable{dib.Black, dib.White}))
	check(t, BitBlt(mono, 0, 0, 2, 1, gray, 0, 0, SRCCOPY), "BitBlt")
	minfo := dib.NewInfo(2, 1, dib.Mono, nil)
	bits := make([]byte, 4)
	_, err = GetDIBits(nil, mono.Bitmap, 0, 1, bits, minfo, conv.Explicit)
	check(t, err, "GetDIBits")
	if bits[0] != 0x40 {
		t.Errorf("mono bits = %#x; want 0x40", bits[0])
	}
}

func TestBitBltOverlap(t *testing.T) {
	e := newEngine()
	defer e.Close()
	dc := NewDC(create(t, e, 6, 2, dib.XRGB32, nil))
	pix := pattern(6, 2)
	setPixels(t, dc.Bitmap, pix)
	check(t, BitBlt(dc, 1, 0, 5, 2, dc, 0, 0, SRCCOPY), "BitBlt")
	want := make([]uint32, len(pix))
	for y := 0; y < 2; y++ {
		for x := 0; x < 6; x++ {
			want[y*6+x] = pix[y*6+max(x-1, 0)]
		}
	}
	if got := getPixels(t, dc.Bitmap); !reflect.DeepEqual(got, want) {
		t.Errorf("after shift: %x; want %x", got, want)
	}
	check(t, BitBlt(dc, 0, 0, 6, 2, dc, 0, 0, SRCINVERT), "BitBlt")
	if got := getPixels(t, dc.Bitmap); !reflect.DeepEqual(got, make([]uint32, 12)) {
		t.Errorf("after self xor: %x", got)
	}
}

func TestStretchBltSelf(t *testing.T) {
	tests := []struct {
		name           string
		w, h           int
		pix            []uint32
		x, y, dw, dh   int
		xs, ys, ws, hs int
		want           []uint32
	}{
		{"mirror", 4, 1, []uint32{10, 20, 30, 40}, 0, 0, 4, 1, 3, 0, -4, 1, []uint32{40, 30, 20, 10}},
		{"zoom", 2, 2, []uint32{11, 22, 33, 44}, 0, 0, 2, 2, 0, 0, 1, 1, []uint32{11, 11, 11, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			defer e.Close()
			dc := NewDC(create(t, e, tt.w, tt.h, dib.XRGB32, nil))
			setPixels(t, dc.Bitmap, tt.pix)
			if st := dc.Bitmap.State(); st != surface.AppMod {
				t.Fatalf("state after SetDIBits = %v; want AppMod", st)
			}
			err := StretchBlt(dc, tt.x, tt.y, tt.dw, tt.dh, dc, tt.xs, tt.ys, tt.ws, tt.hs, SRCCOPY)
			check(t, err, "StretchBlt")
			if got := dc.Bitmap.Stats().ToSurface; got != 1 {
				t.Errorf("%d copies to surface; want 1", got)
			}
			if got := getPixels(t, dc.Bitmap); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %d; want %d", got, tt.want)
			}
		})
	}
}

func TestStretchBlt(t *testing.T) {
	const a, b, c, d = 0xA, 0xB, 0xC, 0xD
	tests := []struct {
		name           string
		w, h           int
		xs, ys, ws, hs int
		dw, dh         int
		want           []uint32
	}{
		{"zoom", 4, 4, 0, 0, 2, 2, 4, 4, []uint32{
			a, a, b, b,
			a, a, b, b,
			c, c, d, d,
			c, c, d, d}},
		{"mirror", 4, 2, 1, 0, -2, 2, 4, 2, []uint32{
			b, b, a, a,
			d, d, c, c}},
		{"flip", 2, 2, 0, 1, 2, -2, 2, 2, []uint32{
			c, d,
			a, b}},
		{"shrink", 1, 1, 0, 0, 2, 2, 1, 1, []uint32{a}},
		{"wide", 4, 1, 0, 0, 2, 1, 4, 1, []uint32{a, a, b, b}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			defer e.Close()
			src := NewDC(create(t, e, 2, 2, dib.XRGB32, nil))
			setPixels(t, src.Bitmap, []uint32{a, b, c, d})
			dst := NewDC(create(t, e, tt.dw, tt.dh, dib.XRGB32, nil))
			check(t, StretchBlt(dst, 0, 0, tt.w, tt.h, src, tt.xs, tt.ys, tt.ws, tt.hs, SRCCOPY), "StretchBlt")
			if got := getPixels(t, dst.Bitmap); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pixels = %x; want %x", got, tt.want)
			}
		})
	}
}

func TestVisRects(t *testing.T) {
	d := Coords{X: 0, Y: 0, Width: 10, Height: 10}
	s := Coords{X: 5, Y: 5, Width: 10, Height: 10}
	if !VisRects(&d, dib.Rect(2, 2, 20, 20), &s, dib.Rect(0, 0, 12, 12)) {
		t.Fatal("nothing visible")
	}
	if d.Vis != dib.Rect(2, 2, 7, 7) || s.Vis != dib.Rect(7, 7, 12, 12) {
		t.Errorf("visible %v from %v", d.Vis, s.Vis)
	}

	d = Coords{X: 0, Y: 0, Width: 4, Height: 4}
	s = Coords{X: 0, Y: 0, Width: 2, Height: 2}
	if !VisRects(&d, dib.Rect(0, 0, 3, 4), &s, dib.Rect(0, 0, 2, 2)) {
		t.Fatal("nothing visible")
	}
	if d.Vis != dib.Rect(0, 0, 3, 4) || s.Vis != dib.Rect(0, 0, 2, 2) {
		t.Errorf("stretched: visible %v from %v", d.Vis, s.Vis)
	}

	d = Coords{X: 0, Y: 0, Width: 4, Height: 4}
	if VisRects(&d, dib.Rect(5, 5, 8, 8), nil, dib.ZR) {
		t.Errorf("clipped away but visible: %v", d.Vis)
	}
	d = Coords{X: 0, Y: 0, Width: 4, Height: 4}
	s = Coords{X: 9, Y: 0, Width: 4, Height: 4}
	if VisRects(&d, dib.Rect(0, 0, 8, 8), &s, dib.Rect(0, 0, 8, 8)) {
		t.Errorf("source outside bitmap but visible: %v", d.Vis)
	}
}

func TestStretchContainment(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	extent := func() int {
		n := rnd.Intn(40) + 1
		if rnd.Intn(4) == 0 {
			n = -n
		}
		return n
	}
	for i := 0; i < 10000; i++ {
		d := Coords{X: rnd.Intn(60) - 20, Y: rnd.Intn(60) - 20, Width: extent(), Height: extent()}
		s := Coords{X: rnd.Intn(60) - 20, Y: rnd.Intn(60) - 20, Width: extent(), Height: extent()}
		clip := dib.Rect(rnd.Intn(10), rnd.Intn(10), 20+rnd.Intn(20), 20+rnd.Intn(20))
		bounds := dib.Rect(0, 0, 1+rnd.Intn(30), 1+rnd.Intn(30))
		if !VisRects(&d, clip, &s, bounds) {
			continue
		}
		if !dib.RectInRect(d.Vis, d.Rect()) || !dib.RectInRect(d.Vis, clip) {
			t.Fatalf("%+v: destination %v escapes %v or clip %v", d, d.Vis, d.Rect(), clip)
		}
		if !dib.RectInRect(s.Vis, s.Rect()) || !dib.RectInRect(s.Vis, bounds) {
			t.Fatalf("%+v: source %v escapes %v or bounds %v", s, s.Vis, s.Rect(), bounds)
		}
		for _, x := range []int{d.Vis.Min.X, d.Vis.Max.X - 1} {
			if p := srcPos(x, d.X, d.Width, s.X, s.Width); p < s.Rect().Min.X || p >= s.Rect().Max.X {
				t.Fatalf("%+v from %+v: x %d samples %d outside %v", d, s, x, p, s.Rect())
			}
		}
	}
}

// Blits in opposite directions between the same two bitmaps must not deadlock.
func TestBlitLockOrder(t *testing.T) {
	e := newEngine()
	defer e.Close()
	a := NewDC(create(t, e, 8, 8, dib.XRGB32, nil))
	b := NewDC(create(t, e, 8, 8, dib.RGB565, nil))
	var wg sync.WaitGroup
	for _, pair := range [][2]*DC{{a, b}, {b, a}} {
		wg.Add(1)
		go func(dst, src *DC) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if err := BitBlt(dst, 0, 0, 8, 8, src, 0, 0, SRCINVERT); err != nil {
					t.Error(err)
					return
				}
			}
		}(pair[0], pair[1])
	}
	wg.Wait()
}
