package huffpack

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Stats describes one completed Encode or Decode.
type Stats struct {
	// InputBytes and OutputBytes count the bytes read from the input and
	// written to the output.
	InputBytes  uint64
	OutputBytes uint64

	// NumCodes is the number of entries in the artifact's code table.
	NumCodes int

	// HeaderBits and BodyBits split the artifact's meaningful bits between
	// the header (including the two leading bytes) and the coded body.
	HeaderBits uint64
	BodyBits   uint64

	// ValidBits is the number of meaningful bits in the artifact's final
	// byte, 1..8.
	ValidBits byte
}

// Reduction returns, for the Stats of an Encode, how much smaller the
// artifact is than the original as a percentage of the original.  It is
// negative when the artifact is larger.
func (s Stats) Reduction() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return 100 * (1 - float64(s.OutputBytes)/float64(s.InputBytes))
}

// Encode compresses in into out.
//
// The input is read twice: once to count frequencies, once to emit codes.
// The output stream is written sequentially and closed, and only then are
// its first two bytes patched with the number of valid bits in the final
// byte and the code count.  On failure, out may hold a truncated artifact
// that the caller should discard.
//
func Encode(in Input, out Output, o *Options) (Stats, error) {
	opts := checkOptions(o)
	var stats Stats

	// Pass 1: frequencies.

	var freqs Frequencies
	err := withInput(in, "scan", func(r io.Reader) error {
		var err error
		freqs, err = Scan(r, opts.BufferSize)
		return err
	})
	if err != nil {
		return stats, err
	}
	stats.InputBytes = freqs.Total()
	log.Debugf("scanned %d bytes, %d distinct symbols", stats.InputBytes, freqs.Distinct())

	var e Encoder
	if err := e.Init(&freqs); err != nil {
		return stats, err
	}
	stats.NumCodes = e.NumCodes()
	debugDump("code table", e)

	// Header and body.

	w, err := out.Create()
	if err != nil {
		return stats, ioError("create output", err)
	}
	bw := NewBitWriter(w, opts.BufferSize)
	headerBits, valid, err := writeArtifact(bw, &e, in, opts)
	if err != nil {
		return stats, err
	}
	stats.HeaderBits = headerBits
	total := bw.BitsWritten()
	stats.BodyBits = total - stats.HeaderBits
	stats.ValidBits = valid
	stats.OutputBytes = (total + 7) / 8

	// Patch bytes 0 and 1.

	if err := patchHeader(out, valid, e.NumCodes()); err != nil {
		return stats, err
	}
	log.Debugf("encoded %d bytes into %d bytes (%d valid bits in final byte)", stats.InputBytes, stats.OutputBytes, valid)
	return stats, nil
}

// writeArtifact writes the placeholder header, the code table and the body,
// then closes bw.  bw is closed on every path.
func writeArtifact(bw *BitWriter, e *Encoder, in Input, opts Options) (headerBits uint64, valid byte, err error) {
	defer func() {
		v, closeErr := bw.Close()
		if err == nil {
			valid, err = v, closeErr
		}
	}()

	if err := writeHeader(bw, e); err != nil {
		return 0, 0, err
	}
	headerBits = bw.BitsWritten()
	log.Debugf("header is %d bits", headerBits)

	err = withInput(in, "encode", func(r io.Reader) error {
		br := bufio.NewReaderSize(r, opts.BufferSize)
		for {
			b, err := br.ReadByte()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return ioError("read", err)
			}
			hc := e.codes[b]
			if hc.Size == 0 {
				return ioError("encode", errors.Errorf("symbol %d was not present during the frequency scan", b))
			}
			if err := bw.WriteCode(hc); err != nil {
				return err
			}
		}
	})
	return headerBits, 0, err
}

// writeHeader writes two zero placeholder bytes followed by one entry per
// coded Symbol in ascending order: the Symbol, the code length, and the
// code bits.
func writeHeader(bw *BitWriter, e *Encoder) error {
	if err := bw.WriteByte(0); err != nil {
		return err
	}
	if err := bw.WriteByte(0); err != nil {
		return err
	}
	for symbol := Symbol(0); symbol <= MaxSymbol; symbol++ {
		hc := e.codes[symbol]
		if hc.Size == 0 {
			continue
		}
		if err := bw.WriteByte(byte(symbol)); err != nil {
			return err
		}
		if err := bw.WriteByte(hc.Size); err != nil {
			return err
		}
		if err := bw.WriteCode(hc); err != nil {
			return err
		}
	}
	return nil
}

func patchHeader(out Output, valid byte, numCodes int) error {
	p, err := out.Patch()
	if err != nil {
		return ioError("open output for patch", err)
	}
	_, err = p.WriteAt([]byte{valid, byte(numCodes - 1)}, 0)
	closeErr := p.Close()
	if err != nil {
		return ioError("patch header", err)
	}
	if closeErr != nil {
		return ioError("close output", closeErr)
	}
	return nil
}

// withInput opens in, hands the stream to fn, and closes it again.
func withInput(in Input, op string, fn func(io.Reader) error) error {
	r, err := in.Open()
	if err != nil {
		return ioError("open input for "+op, err)
	}
	err = fn(r)
	closeErr := r.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return ioError("close input", closeErr)
	}
	return nil
}

// Decode decompresses the artifact read from r, writing the original bytes
// to w.  On failure, w may have received part of the output.
func Decode(r io.Reader, w io.Writer, o *Options) (Stats, error) {
	opts := checkOptions(o)
	var stats Stats

	cr := &countingReader{r: r}
	br := NewBitReader(io.NopCloser(cr), opts.BufferSize)
	defer br.Close()

	valid, numCodes, err := readPreamble(br)
	if err != nil {
		return stats, err
	}
	stats.ValidBits = valid
	stats.NumCodes = numCodes

	var d Decoder
	d.Init()
	var headerBits uint64 = 16
	for i := 0; i < numCodes; i++ {
		symbol, hc, err := readEntry(br)
		if err != nil {
			return stats, err
		}
		if err := d.AddCode(symbol, hc); err != nil {
			return stats, err
		}
		headerBits += 16 + uint64(hc.Size)
	}
	stats.HeaderBits = headerBits
	debugDump("code tree", d)

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, opts.BufferSize)
	bodyBits, err := decodeBody(br, &d, valid, bw)
	stats.BodyBits = bodyBits
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, ioError("flush", err)
	}
	stats.InputBytes = cr.n
	stats.OutputBytes = cw.n
	log.Debugf("decoded %d bytes into %d bytes", stats.InputBytes, stats.OutputBytes)
	return stats, nil
}

// readPreamble reads byte 0 (valid bits in the final byte) and byte 1 (code
// count minus one).
func readPreamble(br *BitReader) (byte, int, error) {
	valid, err := br.ReadByte()
	if err != nil {
		return 0, 0, headerError(err)
	}
	if valid < 1 || valid > 8 {
		return 0, 0, kindError(KindMalformedHeader, "read header", "valid bit count %d not in 1..8", valid)
	}
	count, err := br.ReadByte()
	if err != nil {
		return 0, 0, headerError(err)
	}
	return valid, int(count) + 1, nil
}

func headerError(err error) error {
	if KindOf(err) == KindUnexpectedEnd {
		return &Error{Kind: KindMalformedHeader, Op: "read header", Err: err}
	}
	return err
}

// readEntry reads one code table entry: Symbol, code length, code bits.
func readEntry(br *BitReader) (Symbol, Code, error) {
	symbol, err := br.ReadByte()
	if err != nil {
		return InvalidSymbol, Code{}, err
	}
	size, err := br.ReadByte()
	if err != nil {
		return InvalidSymbol, Code{}, err
	}
	if size == 0 {
		return InvalidSymbol, Code{}, kindError(KindInvalidCode, "read header", "symbol %d has an empty code", symbol)
	}
	var hc Code
	for i := byte(0); i < size; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			return InvalidSymbol, Code{}, err
		}
		hc = hc.Append(bit)
	}
	return Symbol(symbol), hc, nil
}

// decodeBody walks the tree once per output symbol until exactly valid bits
// of the final byte have been consumed.  The final byte may hold the tail of
// the header as well as body bits, so the count is taken from the reader's
// position inside that byte rather than from body bits alone.
func decodeBody(br *BitReader, d *Decoder, valid byte, w io.ByteWriter) (uint64, error) {
	var bodyBits uint64
	for {
		if br.IsLastByte() {
			lastBits := br.BitsConsumed()
			if lastBits == valid {
				return bodyBits, nil
			}
			if lastBits > valid {
				return bodyBits, kindError(KindUnexpectedEnd, "decode", "header extends past the last valid bit")
			}
		}

		cursor := d.root()
		for !d.isLeaf(cursor) {
			bit, err := br.ReadBit()
			if err != nil {
				return bodyBits, err
			}
			bodyBits++
			if br.IsLastByte() && br.BitsConsumed() > valid {
				return bodyBits, kindError(KindUnexpectedEnd, "decode", "body ends in the middle of a code")
			}
			cursor, err = d.step(cursor, bit)
			if err != nil {
				return bodyBits, err
			}
		}
		if err := w.WriteByte(byte(d.symbolAt(cursor))); err != nil {
			return bodyBits, ioError("write", err)
		}
	}
}

// EncodeFile compresses the file at inPath into a new file at outPath.
func EncodeFile(inPath, outPath string, o *Options) (Stats, error) {
	return Encode(FileInput(inPath), FileOutput(outPath), o)
}

// DecodeFile decompresses the artifact at inPath into a new file at
// outPath.
func DecodeFile(inPath, outPath string, o *Options) (stats Stats, err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return stats, ioError("open input", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return stats, ioError("create output", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = ioError("close output", closeErr)
		}
	}()

	return Decode(in, out, o)
}

// EncodeBytes compresses an in-memory input.
func EncodeBytes(data []byte) ([]byte, error) {
	var out BufferOutput
	if _, err := Encode(BytesInput(data), &out, nil); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeBytes decompresses an in-memory artifact.
func DecodeBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Decode(bytes.NewReader(data), &buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
