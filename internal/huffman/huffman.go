// Package huffman implements canonical Huffman decoding as specified in
// RFC 1951 Section 3.2.2: a decode tree is built from an array of
// per-symbol code lengths, and symbols are decoded from a bit stream one
// bit at a time.
//
// Nodes live in an arena and refer to their children by index, so a Tree is
// a single allocation-friendly, cycle-free structure.  A Tree is immutable
// once Build returns and is safe for concurrent readers.
package huffman

import (
	"fmt"

	"github.com/chronos-tachyon/assert"

	"github.com/jkindrix/mxl/internal/bitstream"
)

// MaxCodeLen is the longest code length the DEFLATE format permits in any
// of its alphabets.  It also bounds the depth of any Tree built by this
// package, so Decode uses it as its traversal guard.
const MaxCodeLen = 15

const noChild = -1

type node struct {
	children [2]int32
	symbol   int32
	leaf     bool
}

// Tree is a canonical Huffman decode tree.  Index 0 is the root.
type Tree struct {
	nodes []node
}

// BuildError reports a code-length array which does not describe a valid
// canonical Huffman code.
type BuildError struct {
	Symbol  int
	Problem string
}

// Error fulfills the error interface.
func (err BuildError) Error() string {
	return fmt.Sprintf("invalid Huffman code lengths at symbol %d: %s", err.Symbol, err.Problem)
}

// DecodeError reports a bit sequence which does not resolve to any symbol
// of the Tree.
type DecodeError struct {
	Problem string
}

// Error fulfills the error interface.
func (err DecodeError) Error() string {
	return fmt.Sprintf("invalid Huffman code: %s", err.Problem)
}

var (
	_ error = BuildError{}
	_ error = DecodeError{}
)

// Build constructs the canonical decode tree for the given code lengths,
// index = symbol, value = code bit-length, 0 = symbol unused.  An all-zero
// input yields an empty tree whose Decode always fails.
//
// Over-subscribed length arrays (violating the Kraft inequality from
// above) are rejected here; incomplete arrays build a partial tree whose
// missing branches surface as DecodeErrors when reached.
func Build(codeLengths []byte) (*Tree, error) {
	// Count codes per length.
	var countBySize [MaxCodeLen + 1]uint32
	for symbol, size := range codeLengths {
		if size > MaxCodeLen {
			return nil, BuildError{Symbol: symbol, Problem: fmt.Sprintf("code length %d > %d", size, MaxCodeLen)}
		}
		countBySize[size]++
	}
	countBySize[0] = 0

	// Compute the first code value at each length.
	var nextCode [MaxCodeLen + 1]uint32
	code := uint32(0)
	for size := 1; size <= MaxCodeLen; size++ {
		code = (code + countBySize[size-1]) << 1
		nextCode[size] = code
	}

	tr := &Tree{nodes: make([]node, 1, 2*len(codeLengths))}
	tr.nodes[0] = newNode()

	// Walk symbols in index order, assigning sequential codes within each
	// length class.
	for symbol, size := range codeLengths {
		if size == 0 {
			continue
		}

		code := nextCode[size]
		nextCode[size]++

		if err := tr.insert(symbol, size, code); err != nil {
			return nil, err
		}
	}

	return tr, nil
}

func newNode() node {
	return node{
		children: [2]int32{noChild, noChild},
		symbol:   -1,
	}
}

func (tr *Tree) insert(symbol int, size byte, code uint32) error {
	cur := int32(0)

	// Descend from the most significant bit of the code to the least.
	for i := int(size) - 1; i >= 0; i-- {
		if tr.nodes[cur].leaf {
			return BuildError{Symbol: symbol, Problem: "over-subscribed code"}
		}

		bit := (code >> uint(i)) & 1
		child := tr.nodes[cur].children[bit]
		if child == noChild {
			child = int32(len(tr.nodes))
			tr.nodes = append(tr.nodes, newNode())
			tr.nodes[cur].children[bit] = child
		}
		cur = child
	}

	n := &tr.nodes[cur]
	if n.leaf || n.children[0] != noChild || n.children[1] != noChild {
		return BuildError{Symbol: symbol, Problem: "over-subscribed code"}
	}

	n.leaf = true
	n.symbol = int32(symbol)
	return nil
}

// IsEmpty returns true if the Tree holds no symbols at all.
func (tr *Tree) IsEmpty() bool {
	return len(tr.nodes) == 1 && !tr.nodes[0].leaf
}

// Decode walks from the root, consuming one bit at a time from r, until a
// leaf is reached, and returns the leaf's symbol.  It fails if a required
// child is absent or if traversal would exceed MaxCodeLen bits.
func (tr *Tree) Decode(r *bitstream.Reader) (uint32, error) {
	assert.NotNil(&r)

	cur := int32(0)
	for depth := 0; ; depth++ {
		n := tr.nodes[cur]
		if n.leaf {
			return uint32(n.symbol), nil
		}
		if depth >= MaxCodeLen {
			return 0, DecodeError{Problem: fmt.Sprintf("code exceeds %d bits", MaxCodeLen)}
		}

		bit, err := r.ReadBits(1)
		if err != nil {
			return 0, err
		}

		child := n.children[bit]
		if child == noChild {
			return 0, DecodeError{Problem: "no symbol assigned to this bit sequence"}
		}
		cur = child
	}
}
