package mxl

import (
	"fmt"
)

// CorruptInputError is returned when the input violates the DEFLATE or ZIP
// format standard: an invalid block type, a bad Huffman code, a stored-block
// length mismatch, or a declared length that would reach outside the
// produced output or the supplied buffer.
type CorruptInputError struct {
	Offset  uint64
	Problem string
}

// Error fulfills the error interface.
func (err CorruptInputError) Error() string {
	return fmt.Sprintf("corrupt input at/near byte offset %d: %s", err.Offset, err.Problem)
}

// TruncatedInputError is returned when the input ends before a required
// field has been fully read.
type TruncatedInputError struct {
	Offset   uint64
	NeedBits uint
}

// Error fulfills the error interface.
func (err TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input at byte offset %d: need %d more bits", err.Offset, err.NeedBits)
}

// UnsupportedMethodError is returned for archive members compressed with a
// method other than store (0) or deflate (8).
type UnsupportedMethodError struct {
	Method Method
}

// Error fulfills the error interface.
func (err UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported compression method %v", err.Method)
}

// FormatError is returned when the input does not carry the ZIP magic
// signature at all.
type FormatError struct {
	Problem string
}

// Error fulfills the error interface.
func (err FormatError) Error() string {
	return fmt.Sprintf("not a ZIP archive: %s", err.Problem)
}

// EntryError wraps a failure with the filename of the archive member which
// produced it.
type EntryError struct {
	Name string
	Err  error
}

// Error fulfills the error interface.
func (err EntryError) Error() string {
	return fmt.Sprintf("entry %q: %v", err.Name, err.Err)
}

// Unwrap returns the wrapped error.
func (err EntryError) Unwrap() error {
	return err.Err
}

var (
	_ error = CorruptInputError{}
	_ error = TruncatedInputError{}
	_ error = UnsupportedMethodError{}
	_ error = FormatError{}
	_ error = EntryError{}
)
