package conv

// replbit[n][v] is the n-bit quantity v replicated to fill 8 bits.
var replbit [1 + 8][256]uint8

// unpack1[b][i] is the ith pixel, leftmost first, of the 1-bit byte b;
// unpack4 does the same for 4-bit bytes.
var unpack1 [256][8]uint8
var unpack4 [256][2]uint8

// replmul[n] has a one bit at each place the low bit of an n-bit
// pattern must land to replicate it across 16 bits.
// Only the top 8 bits of the product are used.
var replmul = [1 + 8]uint32{
	0,
	0b1111111111111111,
	0b0101010101010101,
	0b0010010010010010,
	0b0001000100010001,
	0b0000100001000010,
	0b0000010000010000,
	0b0000001000000100,
	0b0000000100000001,
}

func init() {
	mktables()
}

func mktables() {
	for i := uint32(0); i < 256; i++ {
		for j := uint32(0); j <= 8; j++ {
			small := i & (1<<j - 1)
			replbit[j][i] = uint8((small * replmul[j]) >> 8)
		}
	}
	for i := 0; i < 256; i++ {
		for j := uint(0); j < 8; j++ {
			unpack1[i][j] = uint8(i>>(7-j)) & 1
		}
		unpack4[i][0] = uint8(i >> 4)
		unpack4[i][1] = uint8(i) & 0xF
	}
}
