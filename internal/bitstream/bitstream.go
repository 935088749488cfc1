// Package bitstream provides a sequential, least-significant-bit-first
// cursor over an in-memory byte buffer, matching the bit packing order of
// the DEFLATE wire format.
package bitstream

import (
	"fmt"

	"github.com/chronos-tachyon/assert"
)

const bitsPerByte = 8

// MaxReadBits is the largest number of bits which a single ReadBits call
// will serve.  The DEFLATE format never requires more than 25 bits per
// read.
const MaxReadBits = 25

// Reader is a bit cursor over an immutable byte buffer.  A Reader is owned
// exclusively by one decode operation and must not be shared across
// concurrent readers.
type Reader struct {
	buf       []byte
	byteIndex uint
	bitOffset byte
}

// OutOfDataError is returned when the buffer is exhausted before a
// requested read completes.
type OutOfDataError struct {
	Offset   uint64
	NeedBits uint
}

// Error fulfills the error interface.
func (err OutOfDataError) Error() string {
	return fmt.Sprintf("out of data at byte offset %d: need %d more bits", err.Offset, err.NeedBits)
}

var _ error = OutOfDataError{}

// New constructs a Reader positioned at the first bit of p.  The Reader
// never modifies p.
func New(p []byte) *Reader {
	return &Reader{buf: p}
}

// Offset returns the byte offset of the cursor, for error reporting.  A
// partially consumed byte counts as consumed.
func (r *Reader) Offset() uint64 {
	offset := uint64(r.byteIndex)
	if r.bitOffset != 0 {
		offset++
	}
	return offset
}

// ReadBits returns the next n bits as an unsigned integer, least
// significant bit first, consuming across byte boundaries transparently.
func (r *Reader) ReadBits(n byte) (uint32, error) {
	assert.Assertf(n <= MaxReadBits, "n %d > MaxReadBits %d", n, MaxReadBits)

	var out uint32
	for i := byte(0); i < n; i++ {
		if r.byteIndex >= uint(len(r.buf)) {
			return 0, OutOfDataError{Offset: r.Offset(), NeedBits: uint(n - i)}
		}

		bit := (r.buf[r.byteIndex] >> r.bitOffset) & 1
		out |= uint32(bit) << i

		r.bitOffset++
		if r.bitOffset == bitsPerByte {
			r.bitOffset = 0
			r.byteIndex++
		}
	}
	return out, nil
}

// AlignToByte discards any partially consumed byte.  Stored blocks and all
// ZIP header fields are byte oriented and must be read from a byte
// boundary.
func (r *Reader) AlignToByte() {
	if r.bitOffset != 0 {
		r.bitOffset = 0
		r.byteIndex++
	}
}

// ReadBytes aligns to a byte boundary and returns the next n raw bytes.
// The returned slice aliases the underlying buffer and must not be
// modified.
func (r *Reader) ReadBytes(n uint) ([]byte, error) {
	r.AlignToByte()

	if remaining := uint(len(r.buf)) - r.byteIndex; remaining < n {
		return nil, OutOfDataError{Offset: r.Offset(), NeedBits: (n - remaining) * bitsPerByte}
	}

	p := r.buf[r.byteIndex : r.byteIndex+n]
	r.byteIndex += n
	return p, nil
}
