package mxl

import (
	"fmt"
	"sync"

	"github.com/jkindrix/mxl/internal/huffman"
)

const (
	logicalNumLLCodes  = 286
	logicalNumDCodes   = 30
	physicalNumLLCodes = 288
	physicalNumDCodes  = 32
	physicalNumXCodes  = 19
)

// Transmission order of the code-length alphabet lengths.
// https://www.rfc-editor.org/rfc/rfc1951.html - Section 3.2.7
var scramble = [physicalNumXCodes]byte{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// Base value and extra-bit count for length symbols 257..285.
// https://www.rfc-editor.org/rfc/rfc1951.html - Section 3.2.5
var lengthBases = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtra = [29]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// Base value and extra-bit count for distance symbols 0..29.
var distanceBases = [30]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distanceExtra = [30]byte{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

var (
	fixedOnce    sync.Once
	fixedLL      *huffman.Tree
	fixedD       *huffman.Tree
	fixedLLSizes SizeList
	fixedDSizes  SizeList
)

// fixedTrees returns the two static Huffman trees used by fixed blocks.
// They are built on first use and immutable afterward, so concurrent
// decodes share them safely.
func fixedTrees() (*huffman.Tree, *huffman.Tree) {
	fixedOnce.Do(func() {
		// https://www.rfc-editor.org/rfc/rfc1951.html - Section 3.2.6
		sizes := make([]byte, physicalNumLLCodes)
		for i := 0; i < 144; i++ {
			sizes[i] = 8
		}
		for i := 144; i < 256; i++ {
			sizes[i] = 9
		}
		for i := 256; i < 280; i++ {
			sizes[i] = 7
		}
		for i := 280; i < 288; i++ {
			sizes[i] = 8
		}

		tr, err := huffman.Build(sizes)
		if err != nil {
			panic(fmt.Errorf("failed to build fixed literal/length tree: %w", err))
		}
		fixedLL = tr
		fixedLLSizes = sizes

		sizes = make([]byte, physicalNumDCodes)
		for i := 0; i < physicalNumDCodes; i++ {
			sizes[i] = 5
		}

		tr, err = huffman.Build(sizes)
		if err != nil {
			panic(fmt.Errorf("failed to build fixed distance tree: %w", err))
		}
		fixedD = tr
		fixedDSizes = sizes
	})
	return fixedLL, fixedD
}
