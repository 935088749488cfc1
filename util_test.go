package mxl

import (
	"bytes"
	"compress/flate"
	"encoding/hex"
	"math/rand"
	"testing"
)

func mustDecodeHex(str string) []byte {
	raw, err := hex.DecodeString(str)
	if err != nil {
		panic(err)
	}
	return raw
}

// deflateBytes compresses p with the standard library's conformant DEFLATE
// encoder, producing a raw stream for round-trip testing.
func deflateBytes(tb testing.TB, p []byte, level int) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		tb.Fatalf("flate.NewWriter failed: %v", err)
	}
	if _, err := w.Write(p); err != nil {
		tb.Fatalf("flate.Writer.Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("flate.Writer.Close failed: %v", err)
	}
	return buf.Bytes()
}

func randomBytes(seed int64, n int) []byte {
	rng := rand.New(rand.NewSource(seed))
	p := make([]byte, n)
	rng.Read(p)
	return p
}

func repetitiveBytes(n int) []byte {
	const pattern = "<note><pitch><step>C</step><octave>4</octave></pitch></note>"
	p := make([]byte, n)
	for i := range p {
		p[i] = pattern[i%len(pattern)]
	}
	return p
}

// type bitWriter {{{

// bitWriter builds DEFLATE bit streams by hand: bits are packed into bytes
// least significant bit first, matching the wire format.
type bitWriter struct {
	buf   []byte
	cur   byte
	nbits byte
}

func (w *bitWriter) writeBit(bit byte) {
	w.cur |= (bit & 1) << w.nbits
	w.nbits++
	if w.nbits == 8 {
		w.buf = append(w.buf, w.cur)
		w.cur = 0
		w.nbits = 0
	}
}

// writeBits emits the low n bits of value, least significant first, the
// order used for header fields and extra bits.
func (w *bitWriter) writeBits(value uint32, n byte) {
	for i := byte(0); i < n; i++ {
		w.writeBit(byte(value >> i))
	}
}

// writeCode emits a Huffman code from its most significant bit to its
// least, the order in which codes appear on the wire.
func (w *bitWriter) writeCode(code uint32, size byte) {
	for i := int(size) - 1; i >= 0; i-- {
		w.writeBit(byte(code >> uint(i)))
	}
}

func (w *bitWriter) bytes() []byte {
	out := w.buf
	if w.nbits != 0 {
		out = append(out, w.cur)
	}
	return out
}

// }}}

// fixedLiteralCode returns the fixed-table Huffman code for a
// literal/length symbol, per RFC 1951 Section 3.2.6.
func fixedLiteralCode(symbol uint32) (code uint32, size byte) {
	switch {
	case symbol < 144:
		return 0x30 + symbol, 8
	case symbol < 256:
		return 0x190 + (symbol - 144), 9
	case symbol < 280:
		return symbol - 256, 7
	default:
		return 0xc0 + (symbol - 280), 8
	}
}
