package huffpack

import (
	"bufio"
	"io"
)

// BitReader delivers bits MSB-first from an underlying stream.
//
// It keeps one byte of lookahead beyond the byte currently being served, so
// that callers can ask IsLastByte before consuming the final byte's bits.
// The final byte of a compressed artifact carries padding, which must never
// be decoded.
//
// A BitReader owns its stream and closes it in Close.  It is not safe for
// concurrent use.
type BitReader struct {
	r        io.ReadCloser
	br       *bufio.Reader
	current  byte
	consumed byte
	ahead    byte
	hasAhead bool
	err      error
}

// NewBitReader returns a BitReader over r that reads through a buffer of the
// given size.  A bufSize <= 0 selects the default.  The first byte of
// lookahead is read immediately; a read failure other than end of stream is
// reported by the first ReadBit.
func NewBitReader(r io.ReadCloser, bufSize int) *BitReader {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	br := &BitReader{r: r, br: bufio.NewReaderSize(r, bufSize), consumed: 8}
	br.fill()
	return br
}

func (br *BitReader) fill() {
	b, err := br.br.ReadByte()
	switch {
	case err == nil:
		br.ahead = b
		br.hasAhead = true
	case err == io.EOF:
		br.ahead = 0
		br.hasAhead = false
	default:
		br.hasAhead = false
		br.err = ioError("read", err)
	}
}

// ReadBit returns the next bit, 0 or 1.
func (br *BitReader) ReadBit() (uint, error) {
	if br.consumed == 8 {
		if br.err != nil {
			return 0, br.err
		}
		if !br.hasAhead {
			return 0, kindError(KindUnexpectedEnd, "read bit", "no more bits in stream")
		}
		br.current = br.ahead
		br.consumed = 0
		br.fill()
	}
	bit := uint(br.current>>7) & 1
	br.current <<= 1
	br.consumed++
	return bit, nil
}

// ReadByte returns the next eight bits, most significant first.
func (br *BitReader) ReadByte() (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		b = (b << 1) | byte(bit)
	}
	return b, nil
}

// IsLastByte returns true iff the byte currently being served is the final
// byte of the stream.  Before the first ReadBit it reports whether the
// stream is empty.
func (br *BitReader) IsLastByte() bool {
	return !br.hasAhead && br.err == nil
}

// BitsConsumed returns how many bits of the current byte have been
// consumed, 0..8.  Before the first ReadBit it returns 8.
func (br *BitReader) BitsConsumed() byte {
	return br.consumed
}

// Close closes the underlying stream.
func (br *BitReader) Close() error {
	if err := br.r.Close(); err != nil {
		return ioError("close", err)
	}
	return nil
}
