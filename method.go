package mxl

import (
	"fmt"
)

// Method identifies the compression method recorded for a ZIP archive
// member.  The values are the method numbers used on the wire.
type Method uint16

const (
	// StoreMethod indicates an uncompressed (stored) member.
	StoreMethod Method = 0

	// DeflateMethod indicates a DEFLATE-compressed member.
	DeflateMethod Method = 8
)

// IsSupported returns true if this engine can extract members recorded with
// this Method.
func (m Method) IsSupported() bool {
	return m == StoreMethod || m == DeflateMethod
}

// String returns the string representation of this Method constant.
func (m Method) String() string {
	switch m {
	case StoreMethod:
		return "store"
	case DeflateMethod:
		return "deflate"
	default:
		return fmt.Sprintf("method-%d", uint16(m))
	}
}

var _ fmt.Stringer = Method(0)
