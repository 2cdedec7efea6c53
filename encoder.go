package huffpack

import (
	"bytes"
	"container/heap"
	"fmt"
	"io"
	"math"

	"github.com/chronos-tachyon/assert"
)

// Encoder maps each Symbol of an input to its Huffman code.
type Encoder struct {
	codes     [NumSymbols]Code
	numCodes  int
	minSize   byte
	maxSize   byte
	synthetic Code
}

// Init initializes this Encoder from the frequency of each Symbol.  Symbols
// with a frequency of 0 receive no code.
//
// If only one Symbol occurs, a synthetic sibling leaf with count 0 is added
// as its right-hand neighbour, so that the lone Symbol is assigned the code
// "0" rather than an empty code.
//
func (e *Encoder) Init(freqs *Frequencies) error {
	nodes, root, err := buildTree(freqs)
	if err != nil {
		return err
	}

	var codes [NumSymbols]Code
	var synthetic Code
	var minSize, maxSize byte
	var numCodes int
	err = assignCodes(nodes, root, func(n *treeNode, hc Code) {
		if !n.symbol.IsValid() {
			synthetic = hc
			return
		}
		codes[n.symbol] = hc
		if numCodes == 0 {
			minSize = hc.Size
			maxSize = hc.Size
		}
		if minSize > hc.Size {
			minSize = hc.Size
		}
		if maxSize < hc.Size {
			maxSize = hc.Size
		}
		numCodes++
	})
	if err != nil {
		return err
	}

	*e = Encoder{
		codes:     codes,
		numCodes:  numCodes,
		minSize:   minSize,
		maxSize:   maxSize,
		synthetic: synthetic,
	}
	return nil
}

// Encode returns the Huffman code for a Symbol.  Symbols that did not occur
// in the input have a zero-length code.
func (e Encoder) Encode(symbol Symbol) Code {
	assert.Assertf(symbol.IsValid(), "symbol %d out of range", symbol)
	return e.codes[symbol]
}

// NumCodes returns the number of Symbols that were assigned a code.  The
// synthetic sibling leaf is not counted.
func (e Encoder) NumCodes() int {
	return e.numCodes
}

// MinSize is the bit length of the shortest legal code.
func (e Encoder) MinSize() byte {
	return e.minSize
}

// MaxSize is the bit length of the longest legal code.
func (e Encoder) MaxSize() byte {
	return e.maxSize
}

// SizeBySymbol returns an array containing the bit length for each Symbol in
// the alphabet, 0 for Symbols without a code.
func (e Encoder) SizeBySymbol() []byte {
	out := make([]byte, NumSymbols)
	for symbol := Symbol(0); symbol <= MaxSymbol; symbol++ {
		out[symbol] = e.codes[symbol].Size
	}
	return out
}

// Dump writes a programmer-readable debugging dump of the Encoder's current
// state to the given writer.
func (e Encoder) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("Encoder{\n")
	fmt.Fprintf(&buf, "\tMinSize() = %d\n", e.minSize)
	fmt.Fprintf(&buf, "\tMaxSize() = %d\n", e.maxSize)
	fmt.Fprintf(&buf, "\tNumCodes() = %d\n", e.numCodes)
	for symbol := Symbol(0); symbol <= MaxSymbol; symbol++ {
		hc := e.codes[symbol]
		if hc.Size != 0 {
			fmt.Fprintf(&buf, "\tEncode(%d) = %s\n", symbol, hc)
		}
	}
	if e.synthetic.Size != 0 {
		fmt.Fprintf(&buf, "\tsynthetic = %s\n", e.synthetic)
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

// buildTree builds the Huffman tree for freqs and returns its node arena
// and the index of the root.
//
// Ties on count are broken by arena index: leaves come first in ascending
// Symbol order, followed by internal nodes in order of creation.  The tree
// is therefore a pure function of freqs.
//
func buildTree(freqs *Frequencies) ([]treeNode, int32, error) {
	nodes := make([]treeNode, 0, 2*NumSymbols)
	for symbol := Symbol(0); symbol <= MaxSymbol; symbol++ {
		if count := freqs[symbol]; count != 0 {
			nodes = append(nodes, makeLeaf(symbol, count))
		}
	}

	switch len(nodes) {
	case 0:
		return nil, nilNode, kindError(KindEmptyInput, "build tree", "no symbols to encode")
	case 1:
		nodes = append(nodes, makeLeaf(InvalidSymbol, 0))
		nodes = append(nodes, makeInternal(nodes[0].count, 0, 1))
		return nodes, 2, nil
	}

	// Step 1: build a minheap of every leaf.

	h := nodeHeap{nodes: nodes, list: make([]int32, len(nodes))}
	for index := range h.list {
		h.list[index] = int32(index)
	}
	h.Init()

	// Step 2: pop the two smallest nodes, join them under a new internal
	// node, and push that back, until only the root remains.

	for h.Len() > 1 {
		a := heap.Pop(&h).(int32)
		b := heap.Pop(&h).(int32)

		// Compute sum using saturating addition
		sum := h.nodes[a].count + h.nodes[b].count
		if sum < h.nodes[a].count {
			sum = math.MaxUint64
		}

		h.nodes = append(h.nodes, makeInternal(sum, a, b))
		heap.Push(&h, int32(len(h.nodes)-1))
	}

	root := heap.Pop(&h).(int32)
	return h.nodes, root, nil
}

// assignCodes walks the tree rooted at nodes[root] depth first, appending a
// 0 bit for each left branch and a 1 bit for each right branch, and calls
// visit once for every leaf with that leaf's code.
//
// A leaf deeper than MaxCodeSize cannot be represented in the compressed
// header, and is reported as an error rather than truncated.
//
func assignCodes(nodes []treeNode, root int32, visit func(*treeNode, Code)) error {
	assert.Assertf(!nodes[root].leaf, "root %d is a leaf", root)

	// We use stackItem.x to keep track of where we are in the tree walk:
	//   x=0 → We just arrived at stackItem for the first time
	//   x=1 → We have already processed the left child
	//   x=2 → We have already processed both children
	//
	// Only internal nodes are ever pushed; leaves are visited directly.

	type stackItem struct {
		index int32
		code  Code
		x     byte
	}

	stack := make([]stackItem, 0, 64)

	stackPush := func(index int32, hc Code) {
		stack = append(stack, stackItem{index: index, code: hc})
	}

	stackPop := func() {
		stack[len(stack)-1] = stackItem{}
		stack = stack[:len(stack)-1]
	}

	processChild := func(parent *stackItem, bit uint) error {
		index := nodes[parent.index].child(bit)
		assert.Assertf(index != nilNode, "internal node %d lacks child %d", parent.index, bit)
		if parent.code.Size >= MaxCodeSize {
			return kindError(KindCodeTooLong, "assign codes", "code exceeds %d bits", MaxCodeSize)
		}
		hc := parent.code.Append(bit)
		node := &nodes[index]
		if node.leaf {
			visit(node, hc)
			return nil
		}
		stackPush(index, hc)
		return nil
	}

	// And now the tree-walking loop.
	stackPush(root, Code{})
	for len(stack) != 0 {
		top := &stack[len(stack)-1]
		x := top.x
		top.x++
		var err error
		switch x {
		case 0:
			err = processChild(top, 0)
		case 1:
			err = processChild(top, 1)
		case 2:
			stackPop()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// type nodeHeap {{{

type nodeHeap struct {
	nodes []treeNode
	list  []int32
}

func (h *nodeHeap) Init() {
	heap.Init(h)
}

func (h *nodeHeap) Len() int {
	return len(h.list)
}

func (h *nodeHeap) Swap(i, j int) {
	h.list[i], h.list[j] = h.list[j], h.list[i]
}

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.list[i], h.list[j]
	if ac, bc := h.nodes[a].count, h.nodes[b].count; ac != bc {
		return ac < bc
	}
	return a < b
}

func (h *nodeHeap) Push(x interface{}) {
	h.list = append(h.list, x.(int32))
}

func (h *nodeHeap) Pop() interface{} {
	last := len(h.list) - 1
	x := h.list[last]
	h.list = h.list[:last]
	return x
}

var _ heap.Interface = (*nodeHeap)(nil)

// }}}
