package gdi

import (
	"fmt"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/native"
	"dibsync.org/go/surface"
)

// BitBlt transfers the w×h block of src at (xs, ys) to dst at (x, y),
// combining source and destination with rop. Coordinates are logical.
// src may be nil if rop does not use a source.
func BitBlt(dst *DC, x, y, w, h int, src *DC, xs, ys int, rop Rop) error {
	return StretchBlt(dst, x, y, w, h, src, xs, ys, w, h, rop)
}

// StretchBlt transfers the ws×hs block of src at (xs, ys) to the w×h
// block of dst at (x, y), scaling it to fit. A negative extent mirrors
// that side. Only dst's clip applies; the source is clipped to its
// bitmap alone.
func StretchBlt(dst *DC, x, y, w, h int, src *DC, xs, ys, ws, hs int, rop Rop) error {
	if !rop.UsesSource() {
		return PatBlt(dst, x, y, w, h, rop)
	}
	op, err := rop.sourceOp()
	if err != nil {
		return fmt.Errorf("gdi: StretchBlt: %w", err)
	}
	if src == nil || src.Bitmap == nil || dst.Bitmap == nil {
		return fmt.Errorf("gdi: StretchBlt %v: %w", rop, ErrNoSource)
	}
	d := Coords{Width: w, Height: h}
	d.X, d.Y = dst.toDevice(x, y)
	s := Coords{Width: ws, Height: hs}
	s.X, s.Y = src.toDevice(xs, ys)
	if !VisRects(&d, dst.ClipBox(), &s, src.Bounds()) {
		return nil
	}
	if err := blit(dst, &d, src, &s, op); err != nil {
		return fmt.Errorf("gdi: StretchBlt %v: %w", rop, err)
	}
	return nil
}

// PatBlt combines the w×h block of dst at (x, y) with dst's brush
// using rop, which must not use a source.
func PatBlt(dst *DC, x, y, w, h int, rop Rop) (err error) {
	op, err := rop.patternOp()
	if err != nil {
		return fmt.Errorf("gdi: PatBlt: %w", err)
	}
	if dst.Bitmap == nil {
		return nil
	}
	d := Coords{Width: w, Height: h}
	d.X, d.Y = dst.toDevice(x, y)
	if !VisRects(&d, dst.ClipBox(), nil, dib.ZR) {
		return nil
	}
	b := dst.Bitmap
	b.Lock(surface.GdiMod, !op.UsesDest() && d.Vis == dst.Bounds())
	defer func() { b.Unlock(err == nil) }()
	ds := pixels(b)
	if op == conv.OpNotD {
		return conv.Invert(ds, d.Vis)
	}
	var v uint32
	if op.UsesSource() {
		v = conv.FormatResolver{Format: ds.Format, Colors: ds.Colors}.ResolveColor(dst.Brush)
	}
	return conv.Apply(ds, d.Vis, op, v)
}

func blit(dst *DC, d *Coords, src *DC, s *Coords, op conv.BoolOp) (err error) {
	db, sb := dst.Bitmap, src.Bitmap
	// A bitmap that is its own source must keep its pixels.
	lossy := !op.UsesDest() && d.Vis == dst.Bounds() && db != sb
	unlock := lockPair(db, lossy, sb)
	defer func() { unlock(err == nil) }()

	ds, ss := pixels(db), pixels(sb)
	w, h := d.Vis.Dx(), d.Vis.Dy()
	stretch := d.Width != s.Width || d.Height != s.Height
	if !stretch && op == conv.OpS && sameLayout(ds, ss) {
		if onSurface(db) && onSurface(sb) {
			return native.CopyRect(db.Surface(), d.Vis.Min, sb.Surface(), s.Vis)
		}
		return conv.CopyRect(ds, d.Vis.Min, ss, s.Vis.Min, w, h)
	}
	tmp, err := convertRect(ds, ss, s.Vis)
	if err != nil {
		return err
	}
	if stretch {
		tmp = resample(tmp, d, s)
	}
	return conv.Combine(ds, d.Vis.Min, tmp, dib.ZP, w, h, op)
}

// lockPair locks dst for drawing and src, if it is another bitmap,
// for reading. Bitmaps are always locked in ID order. The returned
// function unlocks both.
func lockPair(dst *surface.Bitmap, lossy bool, src *surface.Bitmap) func(commit bool) {
	if src == dst {
		dst.Lock(surface.GdiMod, lossy)
		return dst.Unlock
	}
	if src.ID.Less(dst.ID) {
		src.Lock(surface.InSync, false)
		dst.Lock(surface.GdiMod, lossy)
	} else {
		dst.Lock(surface.GdiMod, lossy)
		src.Lock(surface.InSync, false)
	}
	return func(commit bool) {
		dst.Unlock(commit)
		src.Unlock(commit)
	}
}

// onSurface reports whether the surface of a locked bitmap holds its
// current pixels. It does not if the DIB memory is ahead or the bitmap
// is untracked.
func onSurface(b *surface.Bitmap) bool {
	st := b.StateLocked()
	return st == surface.InSync || st == surface.GdiMod
}

// pixels returns the current pixels of a locked bitmap.
func pixels(b *surface.Bitmap) *conv.Span {
	if onSurface(b) {
		return b.Surface().Span()
	}
	return b.DIBSpan()
}

// sameLayout reports whether pixels of a and b mean the same thing.
func sameLayout(a, b *conv.Span) bool {
	if !a.Format.Compatible(b.Format) {
		return false
	}
	if !a.Format.Indexed() {
		return true
	}
	if len(a.Colors) != len(b.Colors) {
		return false
	}
	for i := range a.Colors {
		if a.Colors[i] != b.Colors[i] {
			return false
		}
	}
	return true
}

// convertRect returns r of src converted to the format of dst.
func convertRect(dst, src *conv.Span, r dib.Rectangle) (*conv.Span, error) {
	tmp := conv.NewSpan(dst.Format, r.Dx(), r.Dy())
	tmp.Colors = dst.Colors
	var m conv.Map
	if src.Format.Indexed() {
		var err error
		res := conv.FormatResolver{Format: dst.Format, Colors: dst.Colors}
		m, err = conv.Build(conv.Explicit, dst.Format.Depth, conv.Source{Colors: src.Colors}, 0, len(src.Colors), res)
		if err != nil {
			return nil, err
		}
	}
	if err := conv.Convert(tmp, dib.ZP, src, r.Min, r.Dx(), r.Dy(), m); err != nil {
		return nil, err
	}
	return tmp, nil
}

// resample stretches sp, which holds s.Vis, over d.Vis.
func resample(sp *conv.Span, d, s *Coords) *conv.Span {
	out := conv.NewSpan(sp.Format, d.Vis.Dx(), d.Vis.Dy())
	out.Colors = sp.Colors
	for y := d.Vis.Min.Y; y < d.Vis.Max.Y; y++ {
		sy := clamp(srcPos(y, d.Y, d.Height, s.Y, s.Height), s.Vis.Min.Y, s.Vis.Max.Y)
		for x := d.Vis.Min.X; x < d.Vis.Max.X; x++ {
			sx := clamp(srcPos(x, d.X, d.Width, s.X, s.Width), s.Vis.Min.X, s.Vis.Max.X)
			v := sp.Pixel(dib.Pt(sx, sy).Sub(s.Vis.Min))
			out.SetPixel(dib.Pt(x, y).Sub(d.Vis.Min), v)
		}
	}
	return out
}
