package huffpack

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pkg/errors"
)

func roundTrip(t *testing.T, input []byte) ([]byte, Stats) {
	t.Helper()
	var out BufferOutput
	stats, err := Encode(BytesInput(input), &out, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	artifact := append([]byte(nil), out.Bytes()...)

	var buf bytes.Buffer
	if _, err := Decode(bytes.NewReader(artifact), &buf, nil); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(input, buf.Bytes()) {
		t.Errorf("round trip mismatch:\n\texpect: %d bytes %q\n\tactual: %d bytes %q", len(input), abbrev(input), buf.Len(), abbrev(buf.Bytes()))
	}
	checkAccounting(t, artifact, stats)
	return artifact, stats
}

func checkAccounting(t *testing.T, artifact []byte, stats Stats) {
	t.Helper()
	if uint64(len(artifact)) != stats.OutputBytes {
		t.Errorf("artifact is %d bytes, stats say %d", len(artifact), stats.OutputBytes)
	}
	if artifact[0] != stats.ValidBits {
		t.Errorf("byte 0 is %d, stats say %d valid bits", artifact[0], stats.ValidBits)
	}
	if int(artifact[1])+1 != stats.NumCodes {
		t.Errorf("byte 1 is %d, stats say %d codes", artifact[1], stats.NumCodes)
	}
	total := stats.HeaderBits + stats.BodyBits
	if expect := 8*uint64(len(artifact)-1) + uint64(artifact[0]); total != expect {
		t.Errorf("wrote %d bits, but %d bytes with %d valid bits in the last hold %d", total, len(artifact), artifact[0], expect)
	}
}

func abbrev(b []byte) []byte {
	if len(b) > 32 {
		return b[:32]
	}
	return b
}

func TestEncode_SingleSymbolLayout(t *testing.T) {
	artifact, stats := roundTrip(t, []byte("AAAA"))

	// 16 header bits, 0x41, length 1, code "0", then body "0000": 37 bits.
	expect := []byte{5, 0, 0x41, 0x01, 0x00}
	if !bytes.Equal(expect, artifact) {
		t.Errorf("wrong artifact:\n\texpect: %#v\n\tactual: %#v", expect, artifact)
	}
	if stats.BodyBits != 4 {
		t.Errorf("expected 4 body bits, got %d", stats.BodyBits)
	}
}

func TestEncode_TwoSymbolLayout(t *testing.T) {
	artifact, _ := roundTrip(t, []byte("AB"))

	// entries 0x41/1/"0" and 0x42/1/"1", then body "01": 52 bits.
	expect := []byte{4, 1, 0x41, 0x01, 0x21, 0x00, 0xd0}
	if !bytes.Equal(expect, artifact) {
		t.Errorf("wrong artifact:\n\texpect: %#v\n\tactual: %#v", expect, artifact)
	}
}

func TestEncode_Skewed(t *testing.T) {
	input := []byte("ABBCCCDDDDEEEEE")
	artifact, stats := roundTrip(t, input)

	// C "00", A "010", B "011", D "10", E "11"
	if stats.HeaderBits != 108 {
		t.Errorf("expected 108 header bits, got %d", stats.HeaderBits)
	}
	if stats.BodyBits != 33 {
		t.Errorf("expected 33 body bits, got %d", stats.BodyBits)
	}
	if stats.BodyBits >= 8*uint64(len(input)) {
		t.Errorf("body of %d bits is not smaller than the %d input bits", stats.BodyBits, 8*len(input))
	}
	if len(artifact) != 18 || artifact[0] != 5 {
		t.Errorf("expected 18 bytes with 5 valid bits, got %d bytes with %d", len(artifact), artifact[0])
	}

	repeated := bytes.Repeat(input, 100)
	artifact, _ = roundTrip(t, repeated)
	if len(artifact) >= len(repeated) {
		t.Errorf("compressed size %d is not smaller than input size %d", len(artifact), len(repeated))
	}
}

func TestEncode_AllSymbols(t *testing.T) {
	input := make([]byte, NumSymbols)
	for i := range input {
		input[i] = byte(i)
	}
	rand.New(rand.NewSource(1)).Shuffle(len(input), func(i, j int) {
		input[i], input[j] = input[j], input[i]
	})

	artifact, stats := roundTrip(t, input)
	if stats.NumCodes != NumSymbols || artifact[1] != 0xff {
		t.Errorf("expected %d codes, got %d (byte 1 = %d)", NumSymbols, stats.NumCodes, artifact[1])
	}
	if stats.BodyBits != 8*NumSymbols {
		t.Errorf("expected every code to be 8 bits, got %d body bits", stats.BodyBits)
	}
	if len(artifact) < len(input) {
		t.Errorf("compressed size %d is smaller than input size %d despite header overhead", len(artifact), len(input))
	}
}

func TestEncode_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(0x5a025ca11825a5e7))
	input := make([]byte, 10000)
	rng.Read(input)

	artifact, _ := roundTrip(t, input)
	ratio := float64(len(artifact)) / float64(len(input))
	if ratio < 0.95 || ratio > 1.1 {
		t.Errorf("compressed size %d is not close to input size %d", len(artifact), len(input))
	}
}

func TestEncode_SingleSymbolRuns(t *testing.T) {
	for _, n := range []int{1, 2, 7, 8, 9, 1000} {
		input := bytes.Repeat([]byte{0x7f}, n)
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			_, stats := roundTrip(t, input)
			if stats.BodyBits != uint64(n) {
				t.Errorf("n=%d: expected %d body bits, got %d", n, n, stats.BodyBits)
			}
		})
	}
}

func TestEncode_RandomSkewed(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iteration := 0; iteration < 50; iteration++ {
		n := 1 + rng.Intn(4096)
		alphabet := 1 + rng.Intn(NumSymbols)
		input := make([]byte, n)
		for i := range input {
			// squaring skews the distribution toward low symbols
			x := rng.Float64()
			input[i] = byte(int(x * x * float64(alphabet)))
		}
		roundTrip(t, input)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	input := []byte("the quick brown fox jumps over the lazy dog")
	a, err := EncodeBytes(input)
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}
	b, err := EncodeBytes(input)
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("two encodings of the same input differ")
	}

	x, err := DecodeBytes(a)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	y, err := DecodeBytes(a)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if !bytes.Equal(x, y) || !bytes.Equal(x, input) {
		t.Errorf("decoding the same artifact twice gave different results")
	}
}

func TestEncode_SmallBuffers(t *testing.T) {
	input := bytes.Repeat([]byte("abracadabra "), 500)
	opts := &Options{BufferSize: 16}

	var out BufferOutput
	if _, err := Encode(BytesInput(input), &out, opts); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	var buf bytes.Buffer
	if _, err := Decode(bytes.NewReader(out.Bytes()), &buf, opts); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(input, buf.Bytes()) {
		t.Errorf("round trip mismatch with small buffers")
	}
}

func TestEncode_EmptyInput(t *testing.T) {
	_, err := EncodeBytes(nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if kind := KindOf(err); kind != KindEmptyInput {
		t.Errorf("expected KindEmptyInput, got %v", kind)
	}

	_, err = DecodeBytes(nil)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	type testRow struct {
		name     string
		artifact []byte
		expect   *Error
	}

	testData := [...]testRow{
		{"one-byte", []byte{5}, ErrMalformedHeader},
		{"zero-valid-bits", []byte{0, 0, 0x41, 0x01, 0x00}, ErrMalformedHeader},
		{"nine-valid-bits", []byte{9, 0, 0x41, 0x01, 0x00}, ErrMalformedHeader},
		{"truncated-entry", []byte{5, 0, 0x41}, ErrUnexpectedEnd},
		{"missing-entries", []byte{5, 3, 0x41, 0x01, 0x00}, ErrUnexpectedEnd},
		{"zero-length-code", []byte{5, 0, 0x41, 0x00, 0x00}, ErrInvalidCode},
		{"duplicate-code", []byte{4, 1, 0x41, 0x01, 0x21, 0x00, 0x80}, ErrInvalidCode},
		{"undefined-branch", []byte{5, 0, 0x41, 0x01, 0x40}, ErrInvalidCode},
		{"header-into-padding", []byte{1, 1, 0x41, 0x01, 0x21, 0x00, 0xd0}, ErrUnexpectedEnd},
	}
	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			_, err := DecodeBytes(row.artifact)
			if !errors.Is(err, row.expect) {
				t.Errorf("expected %v, got %v", row.expect, err)
			}
		})
	}
}

func TestDecode_TruncatedCode(t *testing.T) {
	artifact, err := EncodeBytes([]byte("ABBCCCDDDDEEEEE"))
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}

	// The final code, E = "11", sits in the last byte; claiming one valid
	// bit fewer splits it.
	artifact[0]--
	_, err = DecodeBytes(artifact)
	if !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("expected ErrUnexpectedEnd, got %v", err)
	}
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "input.txt")
	outPath := filepath.Join(dir, "output.huff")
	backPath := filepath.Join(dir, "output.txt")

	input := bytes.Repeat([]byte("It was the best of times, it was the worst of times.\n"), 64)
	if err := os.WriteFile(inPath, input, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	stats, err := EncodeFile(inPath, outPath, nil)
	if err != nil {
		t.Fatalf("EncodeFile failed: %v", err)
	}
	fi, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if uint64(fi.Size()) != stats.OutputBytes {
		t.Errorf("file is %d bytes, stats say %d", fi.Size(), stats.OutputBytes)
	}
	if stats.Reduction() <= 0 {
		t.Errorf("expected a positive reduction, got %f", stats.Reduction())
	}

	artifact, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	expect, err := EncodeBytes(input)
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}
	if !bytes.Equal(expect, artifact) {
		t.Errorf("file artifact differs from in-memory artifact")
	}

	dstats, err := DecodeFile(outPath, backPath, nil)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if dstats.InputBytes != stats.OutputBytes || dstats.OutputBytes != stats.InputBytes {
		t.Errorf("decode stats %+v do not mirror encode stats %+v", dstats, stats)
	}
	output, err := os.ReadFile(backPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(input, output) {
		t.Errorf("file round trip mismatch")
	}
}

func TestEncodeFile_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := EncodeFile(filepath.Join(dir, "nope"), filepath.Join(dir, "out"), nil)
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected the cause to be os.ErrNotExist, got %v", err)
	}
}

// changingInput returns different bytes on each Open.
type changingInput struct {
	opens    int
	contents [][]byte
	closed   int
}

func (in *changingInput) Open() (io.ReadCloser, error) {
	data := in.contents[in.opens%len(in.contents)]
	in.opens++
	return &trackingReader{Reader: bytes.NewReader(data), in: in}, nil
}

type trackingReader struct {
	*bytes.Reader
	in *changingInput
}

func (tr *trackingReader) Close() error {
	tr.in.closed++
	return nil
}

// trackingOutput records whether its stream was closed.
type trackingOutput struct {
	BufferOutput
	streamClosed bool
	patched      bool
}

func (out *trackingOutput) Create() (io.WriteCloser, error) {
	w, err := out.BufferOutput.Create()
	return &closeNotifier{WriteCloser: w, closed: &out.streamClosed}, err
}

func (out *trackingOutput) Patch() (PatchWriter, error) {
	out.patched = true
	return out.BufferOutput.Patch()
}

type closeNotifier struct {
	io.WriteCloser
	closed *bool
}

func (cn *closeNotifier) Close() error {
	*cn.closed = true
	return cn.WriteCloser.Close()
}

func TestEncode_InputChanged(t *testing.T) {
	in := &changingInput{contents: [][]byte{[]byte("AAAA"), []byte("AAB")}}
	out := &trackingOutput{}

	_, err := Encode(in, out, nil)
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
	if in.opens != 2 || in.closed != 2 {
		t.Errorf("expected input opened and closed twice, got %d opens and %d closes", in.opens, in.closed)
	}
	if !out.streamClosed {
		t.Errorf("output stream was not closed after a failed encode")
	}
	if out.patched {
		t.Errorf("header was patched after a failed encode")
	}
}

func TestEncode_PassesAndPatch(t *testing.T) {
	in := &changingInput{contents: [][]byte{[]byte("hello, world")}}
	out := &trackingOutput{}

	if _, err := Encode(in, out, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if in.opens != 2 || in.closed != 2 {
		t.Errorf("expected input opened and closed twice, got %d opens and %d closes", in.opens, in.closed)
	}
	if !out.streamClosed || !out.patched {
		t.Errorf("expected stream closed and header patched, got closed=%v patched=%v", out.streamClosed, out.patched)
	}
	if out.Bytes()[0] == 0 {
		t.Errorf("byte 0 was not patched")
	}
}

func TestBufferOutput_PatchOutOfRange(t *testing.T) {
	var out BufferOutput
	w, _ := out.Create()
	_, _ = w.Write([]byte{1})
	p, _ := out.Patch()
	if _, err := p.WriteAt([]byte{1, 2}, 0); err == nil {
		t.Errorf("expected an error patching past the end of the buffer")
	}
}
