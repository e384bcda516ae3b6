package gdi

import (
	"fmt"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/native"
	"dibsync.org/go/surface"
)

// scanRows returns the rows, counted from the top, of the scan lines
// [start, start+lines) of an image of height rows stored in order dir.
// Scan lines are counted in storage order. ok is false if none exist.
func scanRows(start, lines, height int, dir dib.Direction) (y0, n int, ok bool) {
	if start < 0 || lines <= 0 || start >= height {
		return 0, 0, false
	}
	n = min(lines, height-start)
	if dir == dib.TopDown {
		return start, n, true
	}
	return height - start - n, n, true
}

// SetDIBits sets scan lines [start, start+lines) of b from bits, which
// holds just those lines laid out as info describes, and returns the
// number of lines set. Run-length encoded bits always hold the whole
// image. Row y of the image lands on row y of b. For PaletteIndexed
// usage the color table indexes the palette selected into dc, which
// may be nil. The DIB memory is left authoritative.
func SetDIBits(dc *DC, b *surface.Bitmap, start, lines int, bits []byte, info *dib.Info, usage conv.Usage) (n int, err error) {
	f, err := info.Format()
	if err != nil {
		return 0, fmt.Errorf("gdi: SetDIBits: %w", err)
	}
	height, dir := info.Rows()
	if info.Compressed() {
		bits, err = dib.DecodeRLE(bits, info.Width, height, info.BitCount)
		if err != nil {
			return 0, fmt.Errorf("gdi: SetDIBits: %w", err)
		}
		start, lines = 0, height
	}
	y0, lines, ok := scanRows(start, lines, height, dir)
	if !ok || info.Width <= 0 {
		return 0, nil
	}
	src := &conv.Span{
		Format: f,
		Pix:    bits,
		Stride: dib.Stride(info.Width, f.Depth),
		Width:  info.Width,
		Rows:   lines,
	}
	r := dib.Rect(0, y0, info.Width, y0+lines).Intersect(dib.Rect(0, 0, b.Width, b.Height))
	if r.Empty() {
		return 0, nil
	}

	b.Lock(surface.AppMod, r == dib.Rect(0, 0, b.Width, b.Height))
	defer func() { b.Unlock(err == nil) }()
	var m conv.Map
	if f.Indexed() {
		cs := conv.Source{Colors: info.Colors, Indices: info.Indices}
		m, err = conv.Build(usage, b.Format.Depth, cs, 0, cs.Len(usage), dc.resolver(b.DIBResolver()))
		if err != nil {
			return 0, fmt.Errorf("gdi: SetDIBits: %w", err)
		}
	}
	err = conv.Convert(b.DIBSpan(), r.Min, src, dib.Pt(r.Min.X, r.Min.Y-y0), r.Dx(), r.Dy(), m)
	if err != nil {
		return 0, fmt.Errorf("gdi: SetDIBits: %w", err)
	}
	return r.Dy(), nil
}

// GetDIBits copies scan lines [start, start+lines) of b into bits laid
// out as info describes and returns the number of lines copied.
// If info.BitCount is zero info is filled in to describe b and nothing
// is copied. An indexed layout without a color table gets b's own when
// the depths agree and the default palette otherwise; for
// PaletteIndexed usage the table becomes the identity on the palette
// selected into dc. With bits nil only the color table is filled in.
func GetDIBits(dc *DC, b *surface.Bitmap, start, lines int, bits []byte, info *dib.Info, usage conv.Usage) (n int, err error) {
	if info.BitCount == 0 {
		*info = *dib.NewInfo(b.Width, b.Height, b.Format, b.Colors())
		return 0, nil
	}
	f, err := info.Format()
	if err != nil {
		return 0, fmt.Errorf("gdi: GetDIBits: %w", err)
	}
	if info.Compressed() {
		return 0, fmt.Errorf("gdi: GetDIBits: %w", dib.FormatError("cannot encode "+info.Compression.String()))
	}
	var colors dib.ColorTable
	if f.Indexed() {
		colors = tableFor(dc, b, f, info, usage)
	}
	if bits == nil {
		return 0, nil
	}
	height, dir := info.Rows()
	y0, lines, ok := scanRows(start, lines, height, dir)
	if !ok || info.Width <= 0 {
		return 0, nil
	}
	dst := &conv.Span{
		Format: f,
		Pix:    bits,
		Stride: dib.Stride(info.Width, f.Depth),
		Width:  info.Width,
		Rows:   lines,
		Colors: colors,
	}
	r := dib.Rect(0, y0, info.Width, y0+lines).Intersect(dib.Rect(0, 0, b.Width, b.Height))
	if r.Empty() {
		return 0, nil
	}

	b.Lock(surface.InSync, false)
	defer func() { b.Unlock(err == nil) }()
	src := b.DIBSpan()
	var m conv.Map
	if b.Format.Indexed() {
		res := conv.FormatResolver{Format: f, Colors: colors}
		m, err = conv.Build(conv.Explicit, f.Depth, conv.Source{Colors: src.Colors}, 0, len(src.Colors), res)
		if err != nil {
			return 0, fmt.Errorf("gdi: GetDIBits: %w", err)
		}
	}
	err = conv.Convert(dst, dib.Pt(r.Min.X, r.Min.Y-y0), src, r.Min, r.Dx(), r.Dy(), m)
	if err != nil {
		return 0, fmt.Errorf("gdi: GetDIBits: %w", err)
	}
	return r.Dy(), nil
}

// tableFor fills in the color table of info, an indexed layout,
// and returns the colors its pixel values stand for.
func tableFor(dc *DC, b *surface.Bitmap, f dib.Format, info *dib.Info, usage conv.Usage) dib.ColorTable {
	if usage == conv.PaletteIndexed {
		pal := dc.palette()
		n := min(len(pal), f.Colors())
		if len(info.Indices) == 0 {
			info.Indices = make([]uint16, n)
			for i := range info.Indices {
				info.Indices[i] = uint16(i)
			}
		}
		colors, err := conv.Colors(usage, conv.Source{Indices: info.Indices}, dc.resolver(nil))
		if err != nil {
			return pal[:n]
		}
		return colors
	}
	if len(info.Colors) == 0 {
		if b.Format.Indexed() && b.Format.Depth == f.Depth {
			info.Colors = b.Colors()
		} else {
			info.Colors = native.DefaultPalette(f.Depth)
		}
		info.ColorsUsed = len(info.Colors)
	}
	return info.Colors
}

// SetDIBColorTable replaces entries of b's color table from start on
// and returns how many were replaced. The surface is regenerated with
// the new colors the next time it is drawn to.
func SetDIBColorTable(b *surface.Bitmap, start int, colors dib.ColorTable) (int, error) {
	n, err := b.SetColors(start, colors)
	if err != nil {
		return 0, fmt.Errorf("gdi: SetDIBColorTable: %w", err)
	}
	return n, nil
}

// GetDIBColorTable returns up to n entries of b's color table from start on.
func GetDIBColorTable(b *surface.Bitmap, start, n int) dib.ColorTable {
	t := b.Colors()
	if start < 0 || start >= len(t) || n <= 0 {
		return nil
	}
	return t[start:min(start+n, len(t))]
}
