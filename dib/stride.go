package dib

// WordsPerLine returns the number of 32-bit words
// touched by one scan line of r at the given depth.
func WordsPerLine(r Rectangle, depth int) int {
	return unitsPerLine(r, depth, 32)
}

// BytesPerLine returns the number of bytes
// touched by one scan line of r at the given depth.
func BytesPerLine(r Rectangle, depth int) int {
	return unitsPerLine(r, depth, 8)
}

func unitsPerLine(r Rectangle, depth, bitsperunit int) int {
	if depth <= 0 || depth > 32 {
		panic("invalid depth")
	}

	var l int
	if r.Min.X >= 0 {
		l = (r.Max.X*depth + bitsperunit - 1) / bitsperunit
		l -= (r.Min.X * depth) / bitsperunit
	} else {
		// make positive before divide
		t := (-r.Min.X*depth + bitsperunit - 1) / bitsperunit
		l = t + (r.Max.X*depth+bitsperunit-1)/bitsperunit
	}
	return l
}

// Stride returns the length in bytes of one row of a DIB
// width pixels wide at the given number of bits per pixel:
// ((width*bpp + 31) / 32) * 4, rows being padded to 32 bits.
func Stride(width, bpp int) int {
	if bpp == 15 {
		bpp = 16
	}
	return 4 * WordsPerLine(Rect(0, 0, width, 1), bpp)
}

// Lines splits the signed height stored in a DIB header
// into a row count and the order the rows are stored in.
// A negative height means the rows run top to bottom.
func Lines(height int) (int, Direction) {
	if height < 0 {
		return -height, TopDown
	}
	return height, BottomUp
}

// RowOffset returns the offset in bytes of row y,
// counted from the top of the picture, in a buffer holding
// rows rows of stride bytes stored in direction dir.
func RowOffset(dir Direction, stride, rows, y int) int {
	if dir == TopDown {
		return y * stride
	}
	return (rows - 1 - y) * stride
}
