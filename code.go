package huffpack

import (
	"fmt"
	"strings"

	"github.com/chronos-tachyon/assert"
)

// MaxCodeSize is the longest Code that fits the one-byte length field of the
// compressed header.
const MaxCodeSize = 255

// Code represents a sequence of bits, at most MaxCodeSize long.
type Code struct {
	// Size holds the number of valid bits.
	Size byte

	// bits holds the actual values of the bits.  Bit i of the sequence is
	// stored at bits[i/64] bit (i%64), so the first bit is the least
	// significant bit of bits[0].
	bits [4]uint64
}

// MakeCode is a convenience function that constructs a Code from a string of
// '0' and '1' characters.
func MakeCode(str string) Code {
	assert.Assertf(len(str) <= MaxCodeSize, "len(str) %d > MaxCodeSize %d", len(str), MaxCodeSize)
	var hc Code
	for _, ch := range str {
		assert.Assertf(ch == '0' || ch == '1', "invalid character %q in code %q", ch, str)
		hc = hc.Append(uint(ch - '0'))
	}
	return hc
}

// Bit returns the i'th bit of the code, where bit 0 is emitted first.
func (hc Code) Bit(i int) uint {
	assert.Assertf(i >= 0 && i < int(hc.Size), "bit index %d out of range [0, %d)", i, hc.Size)
	return uint(hc.bits[i>>6]>>(uint(i)&63)) & 1
}

// Append returns a copy of this Code with one more bit at the end.
func (hc Code) Append(bit uint) Code {
	assert.Assertf(hc.Size < MaxCodeSize, "code already holds %d bits", hc.Size)
	i := uint(hc.Size)
	hc.bits[i>>6] |= uint64(bit&1) << (i & 63)
	hc.Size++
	return hc
}

// HasPrefix returns true iff the first prefix.Size bits of this Code equal
// prefix.
func (hc Code) HasPrefix(prefix Code) bool {
	if prefix.Size > hc.Size {
		return false
	}
	for i := 0; i < int(prefix.Size); i++ {
		if hc.Bit(i) != prefix.Bit(i) {
			return false
		}
	}
	return true
}

// String returns the string representation of this Code.
func (hc Code) String() string {
	var buf strings.Builder
	buf.Grow(int(hc.Size) + 2)
	buf.WriteByte('"')
	for i := 0; i < int(hc.Size); i++ {
		buf.WriteByte(byte('0' + hc.Bit(i)))
	}
	buf.WriteByte('"')
	return buf.String()
}

var _ fmt.Stringer = Code{}
