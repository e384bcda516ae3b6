package dib

import "image"

// A Point is an X, Y coordinate pair in device space.
// The coordinate system has X increasing to the right and Y increasing down,
// whatever order the rows of a bitmap are stored in.
type Point = image.Point

// A Rectangle is a rectangular area of a bitmap.
// By convention, the right (Max.X) and bottom (Max.Y)
// edges are excluded from the represented rectangle.
// If Min.X ≥ Max.X or Min.Y ≥ Max.Y, the rectangle contains no points.
type Rectangle = image.Rectangle

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Rect is shorthand for Rectangle{Min: Pt(x0, y0), Max: Pt(x1, y1)}.
// Unlike image.Rect, Rect does not swap coordinates
// to put them in canonical order.
func Rect(x0, y0, x1, y1 int) Rectangle {
	return Rectangle{Pt(x0, y0), Pt(x1, y1)}
}

// ZP is the zero Point.
var ZP Point

// ZR is the zero Rectangle.
var ZR Rectangle

// Canon returns r with its coordinates swapped as necessary
// so that Min ≤ Max.
func Canon(r Rectangle) Rectangle {
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// RectXRect reports whether r and s share any point.
func RectXRect(r, s Rectangle) bool {
	return r.Min.X < s.Max.X && s.Min.X < r.Max.X &&
		r.Min.Y < s.Max.Y && s.Min.Y < r.Max.Y
}

// RectClip clips *rp to b, reporting whether the result is non-empty.
// If it is empty, *rp is left unchanged.
func RectClip(rp *Rectangle, b Rectangle) bool {
	if !RectXRect(*rp, b) {
		return false
	}
	if rp.Min.X < b.Min.X {
		rp.Min.X = b.Min.X
	}
	if rp.Min.Y < b.Min.Y {
		rp.Min.Y = b.Min.Y
	}
	if rp.Max.X > b.Max.X {
		rp.Max.X = b.Max.X
	}
	if rp.Max.Y > b.Max.Y {
		rp.Max.Y = b.Max.Y
	}
	return true
}

// RectInRect reports whether r is entirely contained in s.
// An empty r is contained in any s.
func RectInRect(r, s Rectangle) bool {
	if r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y {
		return true
	}
	return s.Min.X <= r.Min.X && r.Max.X <= s.Max.X &&
		s.Min.Y <= r.Min.Y && r.Max.Y <= s.Max.Y
}
