package huffpack

// Symbol represents one input byte.  Negative symbols are not valid input;
// they mark internal tree nodes and the synthetic sibling leaf.
type Symbol int32

// NumSymbols is the size of the byte alphabet.
const NumSymbols = 256

// MaxSymbol is the maximum valid symbol.
const MaxSymbol = Symbol(NumSymbols - 1)

// InvalidSymbol is returned by some functions to clearly indicate that no
// symbol is being returned.
const InvalidSymbol = Symbol(-1)

// IsValid returns true iff this Symbol denotes an actual byte value.
func (s Symbol) IsValid() bool {
	return s >= 0 && s <= MaxSymbol
}
