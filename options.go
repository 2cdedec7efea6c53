package huffpack

// DefaultBufferSize is the size of the buffers placed between the bit-level
// readers and writers and the underlying streams.
const DefaultBufferSize = 32 << 10

// Options tunes Encode and Decode.  A nil *Options selects the defaults.
type Options struct {
	// BufferSize is the size in bytes of each stream buffer.  Values <= 0
	// select DefaultBufferSize.
	BufferSize int
}

// DefaultOptions returns the Options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{BufferSize: DefaultBufferSize}
}

func checkOptions(o *Options) Options {
	if o == nil {
		return *DefaultOptions()
	}
	out := *o
	if out.BufferSize <= 0 {
		out.BufferSize = DefaultBufferSize
	}
	return out
}
