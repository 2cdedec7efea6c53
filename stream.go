package huffpack

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Input is the source of an encode.  Encoding reads the input twice, once
// to count symbol frequencies and once to emit codes, so Open must return a
// fresh stream over the same bytes on every call.
type Input interface {
	Open() (io.ReadCloser, error)
}

// Output is the destination of an encode.  Create returns the stream that
// receives the artifact sequentially.  Patch is called only after that
// stream has been closed, and returns positional access used to fill in the
// first two header bytes.
type Output interface {
	Create() (io.WriteCloser, error)
	Patch() (PatchWriter, error)
}

// PatchWriter is positional, closable write access to a finished artifact.
type PatchWriter interface {
	io.WriterAt
	io.Closer
}

// FileInput is an Input that reads the named file.
type FileInput string

// Open opens the file for reading.
func (path FileInput) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// FileOutput is an Output that writes the named file, truncating it first.
type FileOutput string

// Create creates or truncates the file.
func (path FileOutput) Create() (io.WriteCloser, error) {
	f, err := os.Create(string(path))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// Patch reopens the file for positional writes.
func (path FileOutput) Patch() (PatchWriter, error) {
	f, err := os.OpenFile(string(path), os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// BytesInput is an Input over an in-memory byte slice.
type BytesInput []byte

// Open returns a reader over the bytes.
func (b BytesInput) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// BufferOutput is an Output that keeps the artifact in memory.  The zero
// value is ready to use.
type BufferOutput struct {
	data []byte
}

// Bytes returns the artifact written so far.
func (out *BufferOutput) Bytes() []byte {
	return out.data
}

// Create discards any previous contents.
func (out *BufferOutput) Create() (io.WriteCloser, error) {
	out.data = out.data[:0]
	return bufferStream{out}, nil
}

// Patch returns positional access to the current contents.
func (out *BufferOutput) Patch() (PatchWriter, error) {
	return bufferStream{out}, nil
}

type bufferStream struct {
	out *BufferOutput
}

func (s bufferStream) Write(p []byte) (int, error) {
	s.out.data = append(s.out.data, p...)
	return len(p), nil
}

func (s bufferStream) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(s.out.data)) {
		return 0, errors.Errorf("write at [%d, %d) outside buffer of %d bytes", off, off+int64(len(p)), len(s.out.data))
	}
	return copy(s.out.data[off:], p), nil
}

func (s bufferStream) Close() error {
	return nil
}

var (
	_ Input  = FileInput("")
	_ Input  = BytesInput(nil)
	_ Output = FileOutput("")
	_ Output = (*BufferOutput)(nil)
)

// countingReader and countingWriter track how many bytes pass through.

type countingReader struct {
	r io.Reader
	n uint64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += uint64(n)
	return n, err
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += uint64(n)
	return n, err
}
