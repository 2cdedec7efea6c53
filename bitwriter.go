package huffpack

import (
	"bufio"
	"io"

	"github.com/chronos-tachyon/assert"
)

// BitWriter packs bits MSB-first into bytes and writes them to an underlying
// stream.  The first bit written occupies bit 7 of the first byte.
//
// A full byte is only emitted once the next bit arrives, so at Close time
// there are always between 1 and 8 bits pending (unless nothing at all was
// written).  The number of pending bits is what Close reports.
//
// A BitWriter owns its stream and closes it in Close.  It is not safe for
// concurrent use.
type BitWriter struct {
	w      io.WriteCloser
	bw     *bufio.Writer
	next   byte
	filled byte
	total  uint64
	err    error
	closed bool
}

// NewBitWriter returns a BitWriter that writes to w through a buffer of the
// given size.  A bufSize <= 0 selects the default.
func NewBitWriter(w io.WriteCloser, bufSize int) *BitWriter {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &BitWriter{w: w, bw: bufio.NewWriterSize(w, bufSize)}
}

// WriteBit appends one bit, which must be 0 or 1.
func (bw *BitWriter) WriteBit(bit uint) error {
	assert.Assertf(bit <= 1, "bit %d is not 0 or 1", bit)
	assert.Assertf(!bw.closed, "WriteBit called after Close")
	if bw.err != nil {
		return bw.err
	}
	if bw.filled == 8 {
		if err := bw.bw.WriteByte(bw.next); err != nil {
			bw.err = ioError("write", err)
			return bw.err
		}
		bw.next = 0
		bw.filled = 0
	}
	bw.next = (bw.next << 1) | byte(bit)
	bw.filled++
	bw.total++
	return nil
}

// WriteByte appends the eight bits of b, most significant first.
func (bw *BitWriter) WriteByte(b byte) error {
	for i := 7; i >= 0; i-- {
		if err := bw.WriteBit(uint(b>>uint(i)) & 1); err != nil {
			return err
		}
	}
	return nil
}

// WriteCode appends every bit of hc in order.
func (bw *BitWriter) WriteCode(hc Code) error {
	for i := 0; i < int(hc.Size); i++ {
		if err := bw.WriteBit(hc.Bit(i)); err != nil {
			return err
		}
	}
	return nil
}

// BitsWritten returns the number of bits accepted so far.
func (bw *BitWriter) BitsWritten() uint64 {
	return bw.total
}

// Close pads the pending bits with zeroes up to a byte boundary, emits that
// byte, flushes, and closes the underlying stream.  It returns the number of
// bits of the final byte that carry data, in the range 1..8.
//
// The underlying stream is closed even when an earlier write failed.
func (bw *BitWriter) Close() (byte, error) {
	if bw.closed {
		return 0, ioError("close", errAlreadyClosed)
	}
	bw.closed = true

	valid := bw.filled
	err := bw.err
	if err == nil && bw.filled != 0 {
		if e := bw.bw.WriteByte(bw.next << (8 - bw.filled)); e != nil {
			err = ioError("write", e)
		}
	}
	if err == nil {
		if e := bw.bw.Flush(); e != nil {
			err = ioError("flush", e)
		}
	}
	if e := bw.w.Close(); e != nil && err == nil {
		err = ioError("close", e)
	}
	if valid == 0 {
		valid = 8
	}
	return valid, err
}
