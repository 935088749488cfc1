package mxl

import (
	"bytes"
	"compress/flate"
	"errors"
	"testing"
)

func TestInflateRoundTrip(t *testing.T) {
	type testRow struct {
		name    string
		payload []byte
		level   int
	}

	bigMixed := append(repetitiveBytes(150000), randomBytes(42, 80000)...)

	var testData = [...]testRow{
		{"empty", nil, flate.DefaultCompression},
		{"single-byte", []byte{0x7f}, flate.DefaultCompression},
		{"pangram", []byte("Sphinx of black quartz, judge my vow."), flate.DefaultCompression},
		{"repetitive", repetitiveBytes(4096), flate.BestCompression},
		{"high-entropy", randomBytes(1, 4096), flate.BestCompression},
		{"stored-blocks", bigMixed, flate.NoCompression},
		{"fastest", bigMixed, flate.BestSpeed},
		{"best", bigMixed, flate.BestCompression},
		{"huffman-only", bigMixed, flate.HuffmanOnly},
	}

	for _, vector := range testData {
		t.Run(vector.name, func(t *testing.T) {
			compressed := deflateBytes(t, vector.payload, vector.level)

			output, err := Inflate(compressed)
			if err != nil {
				t.Fatalf("Inflate failed: %v", err)
			}
			if !bytes.Equal(output, vector.payload) {
				t.Errorf("wrong output: lengths %d vs %d", len(output), len(vector.payload))
			}
		})
	}
}

func TestInflateStoredBlock(t *testing.T) {
	// BFINAL=1 BTYPE=00, LEN=5, NLEN=^5, then 5 raw bytes.
	compressed := mustDecodeHex("010500faff68656c6c6f")

	output, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if string(output) != "hello" {
		t.Errorf("output = %q, expected %q", output, "hello")
	}
}

func TestInflateFixedLiteralCoverage(t *testing.T) {
	var w bitWriter
	w.writeBits(0x3, 3) // BFINAL=1 BTYPE=01

	expected := make([]byte, 256)
	for symbol := uint32(0); symbol < 256; symbol++ {
		expected[symbol] = byte(symbol)
		w.writeCode(fixedLiteralCode(symbol))
	}
	w.writeCode(fixedLiteralCode(256)) // end of block

	output, err := Inflate(w.bytes())
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if !bytes.Equal(output, expected) {
		t.Errorf("round trip of the literal alphabet failed: %x", output)
	}
}

func TestInflateBackReferenceOverlap(t *testing.T) {
	// Literals "ab", then a back-reference with length 6 and distance 2.
	// The overlapping copy must replicate the pattern byte by byte.
	var w bitWriter
	w.writeBits(0x3, 3)
	w.writeCode(fixedLiteralCode('a'))
	w.writeCode(fixedLiteralCode('b'))
	w.writeCode(fixedLiteralCode(260)) // length 6, no extra bits
	w.writeCode(1, 5)                  // distance 2
	w.writeCode(fixedLiteralCode(256))

	output, err := Inflate(w.bytes())
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if string(output) != "abababab" {
		t.Errorf("output = %q, expected %q", output, "abababab")
	}
}

func TestInflateDistanceTooFar(t *testing.T) {
	// One literal, then a back-reference whose distance of 3 exceeds the
	// single byte of output produced so far.
	var w bitWriter
	w.writeBits(0x3, 3)
	w.writeCode(fixedLiteralCode('a'))
	w.writeCode(fixedLiteralCode(257)) // length 3
	w.writeCode(2, 5)                  // distance 3
	w.writeCode(fixedLiteralCode(256))

	_, err := Inflate(w.bytes())
	var corrupt CorruptInputError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptInputError, got %T: %v", err, err)
	}
}

func TestInflateReservedBlockType(t *testing.T) {
	var w bitWriter
	w.writeBits(0x7, 3) // BFINAL=1 BTYPE=11

	_, err := Inflate(w.bytes())
	var corrupt CorruptInputError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptInputError, got %T: %v", err, err)
	}
}

func TestInflateStoredLengthMismatch(t *testing.T) {
	// NLEN is not the complement of LEN.
	compressed := mustDecodeHex("010500fbff68656c6c6f")

	_, err := Inflate(compressed)
	var corrupt CorruptInputError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptInputError, got %T: %v", err, err)
	}
}

func TestInflateTruncated(t *testing.T) {
	type testRow struct {
		name  string
		level int
	}

	var testData = [...]testRow{
		{"stored", flate.NoCompression},
		{"fixed-or-dynamic", flate.DefaultCompression},
	}

	payload := repetitiveBytes(2048)
	for _, vector := range testData {
		t.Run(vector.name, func(t *testing.T) {
			compressed := deflateBytes(t, payload, vector.level)

			_, err := Inflate(compressed[:len(compressed)-1])
			if err == nil {
				t.Fatal("expected an error for a stream truncated by one byte")
			}
		})
	}

	_, err := Inflate(nil)
	var truncated TruncatedInputError
	if !errors.As(err, &truncated) {
		t.Fatalf("expected TruncatedInputError, got %T: %v", err, err)
	}
}

func TestInflateDynamicRepeatWithNoPreviousLength(t *testing.T) {
	// A dynamic block whose very first code-length symbol is 16, the
	// "repeat previous" escape, which has nothing to repeat.
	var w bitWriter
	w.writeBits(0x5, 3)  // BFINAL=1 BTYPE=10
	w.writeBits(0x0, 14) // HLIT=257 HDIST=1 HCLEN=4
	w.writeBits(0x1, 3)  // length of code-length symbol 16
	w.writeBits(0x0, 3)  // 17
	w.writeBits(0x0, 3)  // 18
	w.writeBits(0x1, 3)  // 0
	w.writeCode(1, 1)    // symbol 16

	_, err := Inflate(w.bytes())
	var corrupt CorruptInputError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptInputError, got %T: %v", err, err)
	}
}

func TestInflateEvents(t *testing.T) {
	compressed := mustDecodeHex("010500faff68656c6c6f")

	var eventTypes []EventType
	tracer := TracerFunc(func(event Event) {
		eventTypes = append(eventTypes, event.Type)
	})

	if _, err := Inflate(compressed, WithTracers(tracer)); err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}

	expected := []EventType{StreamBeginEvent, BlockBeginEvent, BlockEndEvent, StreamEndEvent}
	if len(eventTypes) != len(expected) {
		t.Fatalf("got %d events, expected %d", len(eventTypes), len(expected))
	}
	for index, eventType := range expected {
		if eventTypes[index] != eventType {
			t.Errorf("event #%d = %v, expected %v", index, eventTypes[index], eventType)
		}
	}
}

func BenchmarkInflate(b *testing.B) {
	payload := append(repetitiveBytes(1<<19), randomBytes(7, 1<<18)...)
	compressed := deflateBytes(b, payload, flate.DefaultCompression)

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		output, err := Inflate(compressed)
		if err != nil {
			b.Fatalf("Inflate failed: %v", err)
		}
		if len(output) != len(payload) {
			b.Errorf("wrong length: expected %d, got %d", len(payload), len(output))
		}
	}
}
