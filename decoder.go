package huffpack

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/chronos-tachyon/assert"
)

// Decoder rebuilds a Huffman tree from (Symbol, Code) pairs and walks it one
// bit at a time.
type Decoder struct {
	nodes   []treeNode
	entries []decoderEntry
	seen    [NumSymbols]bool
	minSize byte
	maxSize byte
}

type decoderEntry struct {
	symbol Symbol
	code   Code
}

// Init resets this Decoder to a tree consisting of a bare internal root.
func (d *Decoder) Init() {
	*d = Decoder{
		nodes: []treeNode{makeInternal(0, nilNode, nilNode)},
	}
}

// AddCode adds one (Symbol, Code) pair to the tree, creating internal nodes
// along the code's path as needed.
//
// The pair is rejected if it would make a node a leaf twice, turn an
// internal node into a leaf, pass through an existing leaf, or give a
// Symbol a second code.
//
func (d *Decoder) AddCode(symbol Symbol, hc Code) error {
	assert.Assertf(symbol.IsValid(), "symbol %d out of range", symbol)
	if d.nodes == nil {
		d.Init()
	}
	if hc.Size == 0 {
		return kindError(KindInvalidCode, "add code", "symbol %d has an empty code", symbol)
	}
	if d.seen[symbol] {
		return kindError(KindInvalidCode, "add code", "symbol %d has more than one code", symbol)
	}

	cursor := int32(0)
	for i := 0; i < int(hc.Size); i++ {
		if d.nodes[cursor].leaf {
			return kindError(KindInvalidCode, "add code", "code %s for symbol %d extends the code of symbol %d", hc, symbol, d.nodes[cursor].symbol)
		}
		bit := hc.Bit(i)
		next := d.nodes[cursor].child(bit)
		if next == nilNode {
			d.nodes = append(d.nodes, makeInternal(0, nilNode, nilNode))
			next = int32(len(d.nodes) - 1)
			d.nodes[cursor].setChild(bit, next)
		}
		cursor = next
	}

	node := &d.nodes[cursor]
	if node.leaf {
		return kindError(KindInvalidCode, "add code", "code %s for symbol %d is already taken by symbol %d", hc, symbol, node.symbol)
	}
	if node.hasChildren() {
		return kindError(KindInvalidCode, "add code", "code %s for symbol %d is a prefix of another code", hc, symbol)
	}
	node.leaf = true
	node.symbol = symbol

	if len(d.entries) == 0 {
		d.minSize = hc.Size
		d.maxSize = hc.Size
	}
	if d.minSize > hc.Size {
		d.minSize = hc.Size
	}
	if d.maxSize < hc.Size {
		d.maxSize = hc.Size
	}
	d.entries = append(d.entries, decoderEntry{symbol, hc})
	d.seen[symbol] = true
	return nil
}

// Decode looks up a complete code.  It returns InvalidSymbol if hc does not
// lead exactly to a leaf.
func (d Decoder) Decode(hc Code) Symbol {
	if d.nodes == nil {
		return InvalidSymbol
	}
	cursor := d.root()
	for i := 0; i < int(hc.Size); i++ {
		var err error
		cursor, err = d.step(cursor, hc.Bit(i))
		if err != nil {
			return InvalidSymbol
		}
	}
	if !d.nodes[cursor].leaf {
		return InvalidSymbol
	}
	return d.nodes[cursor].symbol
}

// NumCodes returns the number of (Symbol, Code) pairs added so far.
func (d Decoder) NumCodes() int {
	return len(d.entries)
}

// MinSize is the bit length of the shortest legal code.
func (d Decoder) MinSize() byte {
	return d.minSize
}

// MaxSize is the bit length of the longest legal code.
func (d Decoder) MaxSize() byte {
	return d.maxSize
}

// Dump writes a programmer-readable debugging dump of the Decoder's current
// state to the given writer.
func (d Decoder) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("Decoder{\n")
	fmt.Fprintf(&buf, "\tMinSize() = %d\n", d.minSize)
	fmt.Fprintf(&buf, "\tMaxSize() = %d\n", d.maxSize)
	keys := make(byCode, len(d.entries))
	copy(keys, d.entries)
	keys.Sort()
	for _, entry := range keys {
		fmt.Fprintf(&buf, "\tDecode(%s) = %d\n", entry.code, entry.symbol)
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

func (d *Decoder) root() int32 {
	return 0
}

func (d *Decoder) isLeaf(index int32) bool {
	return d.nodes[index].leaf
}

func (d *Decoder) symbolAt(index int32) Symbol {
	return d.nodes[index].symbol
}

// step descends from nodes[index] along bit.  Descending into a child that
// no code defines is an error.
func (d *Decoder) step(index int32, bit uint) (int32, error) {
	next := d.nodes[index].child(bit)
	if next == nilNode {
		return nilNode, kindError(KindInvalidCode, "decode", "bit sequence does not match any code")
	}
	return next, nil
}

// type byCode {{{

type byCode []decoderEntry

func (list byCode) Sort() {
	sort.Sort(list)
}

func (list byCode) Len() int {
	return len(list)
}

func (list byCode) Swap(i, j int) {
	list[i], list[j] = list[j], list[i]
}

func (list byCode) Less(i, j int) bool {
	a, b := list[i].code, list[j].code
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	for k := 0; k < int(a.Size); k++ {
		if ab, bb := a.Bit(k), b.Bit(k); ab != bb {
			return ab < bb
		}
	}
	return false
}

var _ sort.Interface = byCode(nil)

// }}}
