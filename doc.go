// Package mxl unpacks compressed music-notation archives.  It implements a
// DEFLATE (RFC 1951) decompressor and a ZIP container reader from the format
// specifications, producing the raw bytes of each archive member for
// downstream parsing.
//
// The engine is decode-only and treats every input as untrusted: malformed
// or truncated streams are reported as typed errors carrying the offending
// offset, never as out-of-bounds reads or silently truncated output.
package mxl
