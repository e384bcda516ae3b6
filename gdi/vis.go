package gdi

import "dibsync.org/go/dib"

// Coords are one side of a blit in device coordinates. A negative
// Width or Height mirrors that side, which then runs from X down to
// X+Width+1. Vis is the part of the side that takes part in the blit,
// as computed by VisRects.
type Coords struct {
	X, Y          int
	Width, Height int
	Vis           dib.Rectangle
}

// Rect returns the rectangle c covers.
func (c *Coords) Rect() dib.Rectangle {
	r := dib.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
	if c.Width < 0 {
		r.Min.X, r.Max.X = c.X+c.Width+1, c.X+1
	}
	if c.Height < 0 {
		r.Min.Y, r.Max.Y = c.Y+c.Height+1, c.Y+1
	}
	return r
}

// VisRects computes the visible rectangles of a blit from src to dst:
// dst is clipped to clip and src, which may be nil, to bounds, the
// rectangle of its bitmap. When the two sides differ in size each
// visible rectangle is mapped onto the other side, widened by a pixel
// on every edge to absorb rounding, and intersected with it. VisRects
// reports whether anything is left to draw; Vis is always contained
// in the side's own rectangle.
func VisRects(dst *Coords, clip dib.Rectangle, src *Coords, bounds dib.Rectangle) bool {
	dst.Vis = dst.Rect().Intersect(clip)
	if src == nil {
		return !dst.Vis.Empty()
	}
	src.Vis = src.Rect().Intersect(bounds)
	if dst.Vis.Empty() || src.Vis.Empty() {
		return false
	}
	return intersectVis(dst, src)
}

func intersectVis(dst, src *Coords) bool {
	if src.Width == dst.Width && src.Height == dst.Height {
		d := dib.Pt(dst.X-src.X, dst.Y-src.Y)
		r := src.Vis.Add(d).Intersect(dst.Vis)
		if r.Empty() {
			dst.Vis, src.Vis = dib.ZR, dib.ZR
			return false
		}
		dst.Vis, src.Vis = r, r.Sub(d)
		return true
	}

	// source into destination space
	r := src.Vis.Sub(dib.Pt(src.X+mirrored(src.Width), src.Y+mirrored(src.Height)))
	r = dib.Canon(dib.Rect(
		r.Min.X*dst.Width/src.Width,
		r.Min.Y*dst.Height/src.Height,
		r.Max.X*dst.Width/src.Width,
		r.Max.Y*dst.Height/src.Height))
	r = r.Inset(-1).Add(dib.Pt(dst.X, dst.Y))
	dst.Vis = r.Intersect(dst.Vis)
	if dst.Vis.Empty() {
		src.Vis = dib.ZR
		return false
	}

	// and back
	r = dst.Vis.Sub(dib.Pt(dst.X+mirrored(dst.Width), dst.Y+mirrored(dst.Height)))
	r = dib.Canon(dib.Rect(
		src.X+r.Min.X*src.Width/dst.Width,
		src.Y+r.Min.Y*src.Height/dst.Height,
		src.X+r.Max.X*src.Width/dst.Width,
		src.Y+r.Max.Y*src.Height/dst.Height))
	src.Vis = r.Inset(-1).Intersect(src.Vis)
	if src.Vis.Empty() {
		dst.Vis = dib.ZR
		return false
	}
	return true
}

func mirrored(n int) int {
	if n < 0 {
		return 1
	}
	return 0
}

// srcPos returns the source coordinate sampled for destination
// coordinate d when [d0, d0+dw) is stretched from [s0, s0+sw).
// Either extent may be negative.
func srcPos(d, d0, dw, s0, sw int) int {
	t := d - d0
	if dw < 0 {
		t, dw = d0-d, -dw
	}
	if sw < 0 {
		return s0 - t*-sw/dw
	}
	return s0 + t*sw/dw
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v >= hi {
		return hi - 1
	}
	return v
}
