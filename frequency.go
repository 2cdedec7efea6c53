package huffpack

import (
	"io"
)

// Frequencies holds the number of occurrences of each Symbol in an input.
type Frequencies [NumSymbols]uint64

// Scan reads r to the end through a buffer of the given size and counts every
// byte.  A bufSize <= 0 selects the default.  An empty r yields all-zero
// counts; it is Encoder.Init that rejects those.
func Scan(r io.Reader, bufSize int) (Frequencies, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	var freqs Frequencies
	buf := make([]byte, bufSize)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			freqs[b]++
		}
		if err == io.EOF {
			return freqs, nil
		}
		if err != nil {
			return freqs, ioError("scan", err)
		}
	}
}

// Total returns the number of bytes that were counted.
func (freqs *Frequencies) Total() uint64 {
	var sum uint64
	for _, n := range freqs {
		sum += n
	}
	return sum
}

// Distinct returns the number of symbols with a nonzero count.
func (freqs *Frequencies) Distinct() int {
	var count int
	for _, n := range freqs {
		if n != 0 {
			count++
		}
	}
	return count
}
