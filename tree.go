package huffpack

// nilNode marks an absent child in the node arena.
const nilNode = int32(-1)

// treeNode is one node of a Huffman tree stored in an arena ([]treeNode),
// with children referenced by index.
//
// Leaves carry a Symbol; the synthetic sibling leaf carries InvalidSymbol.
// Internal nodes always carry InvalidSymbol.
type treeNode struct {
	symbol Symbol
	count  uint64
	left   int32
	right  int32
	leaf   bool
}

func makeLeaf(symbol Symbol, count uint64) treeNode {
	return treeNode{symbol: symbol, count: count, left: nilNode, right: nilNode, leaf: true}
}

func makeInternal(count uint64, left int32, right int32) treeNode {
	return treeNode{symbol: InvalidSymbol, count: count, left: left, right: right}
}

// child returns the index of the child selected by bit: 0 is left, 1 is right.
func (n *treeNode) child(bit uint) int32 {
	if bit == 0 {
		return n.left
	}
	return n.right
}

func (n *treeNode) setChild(bit uint, index int32) {
	if bit == 0 {
		n.left = index
	} else {
		n.right = index
	}
}

func (n *treeNode) hasChildren() bool {
	return n.left != nilNode || n.right != nilNode
}
