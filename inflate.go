package mxl

import (
	"encoding/binary"
	"fmt"

	buffer "github.com/chronos-tachyon/buffer/v3"

	"github.com/jkindrix/mxl/internal/bitstream"
	"github.com/jkindrix/mxl/internal/huffman"
)

// windowNumBits is the base-2 logarithm of the largest back-reference
// distance the DEFLATE format can encode (24577 + 8191 = 32768).
const windowNumBits = 15

// Inflate decompresses a raw DEFLATE stream (RFC 1951) and returns the
// decoded bytes.  The input is treated as untrusted: any truncation or
// structural violation is reported as a typed error, and no partial output
// is ever returned.
func Inflate(p []byte, opts ...Option) ([]byte, error) {
	var o options
	o.apply(opts)

	inf := &inflator{
		br:      bitstream.New(p),
		tracers: o.tracers,
	}
	inf.window.Init(windowNumBits)

	if err := inf.run(); err != nil {
		return nil, err
	}
	return inf.out, nil
}

type inflator struct {
	br      *bitstream.Reader
	out     []byte
	window  buffer.Window
	tracers []Tracer
}

func (inf *inflator) run() error {
	inf.sendEvent(Event{Type: StreamBeginEvent})

	for {
		isFinal, blockType, err := inf.readBlockHeader()
		if err != nil {
			return err
		}

		inf.sendEvent(Event{
			Type: BlockBeginEvent,
			Block: &BlockEvent{
				Type:    blockType,
				IsFinal: isFinal,
			},
		})

		switch blockType {
		case StoredBlock:
			err = inf.readStoredBlock()
		case FixedBlock:
			err = inf.readFixedBlock(isFinal)
		case DynamicBlock:
			err = inf.readDynamicBlock(isFinal)
		default:
			err = inf.corruptf("BTYPE 11 is reserved")
		}
		if err != nil {
			return err
		}

		inf.sendEvent(Event{
			Type: BlockEndEvent,
			Block: &BlockEvent{
				Type:    blockType,
				IsFinal: isFinal,
			},
		})

		if isFinal {
			break
		}
	}

	inf.sendEvent(Event{Type: StreamEndEvent})
	return nil
}

func (inf *inflator) readBlockHeader() (bool, BlockType, error) {
	out, err := inf.br.ReadBits(3)
	if err != nil {
		return false, InvalidBlock, inf.decodeError(err)
	}

	isFinal := (out & 0x01) != 0

	blockType := InvalidBlock
	switch out >> 1 {
	case 0:
		blockType = StoredBlock
	case 1:
		blockType = FixedBlock
	case 2:
		blockType = DynamicBlock
	}
	return isFinal, blockType, nil
}

func (inf *inflator) readStoredBlock() error {
	inf.br.AlignToByte()

	hdr, err := inf.br.ReadBytes(4)
	if err != nil {
		return inf.decodeError(err)
	}

	len0 := binary.LittleEndian.Uint16(hdr[0:2])
	len1 := binary.LittleEndian.Uint16(hdr[2:4])
	if len1 != ^len0 {
		return inf.corruptf("got LEN %#04x NLEN %#04x, expected NLEN %#04x", len0, len1, ^len0)
	}

	p, err := inf.br.ReadBytes(uint(len0))
	if err != nil {
		return inf.decodeError(err)
	}

	inf.writeBytes(p)
	return nil
}

func (inf *inflator) readFixedBlock(isFinal bool) error {
	hLL, hD := fixedTrees()

	inf.sendEvent(Event{
		Type: BlockTreesEvent,
		Block: &BlockEvent{
			Type:    FixedBlock,
			IsFinal: isFinal,
		},
		Trees: &TreesEvent{
			LiteralLengthSizes: fixedLLSizes,
			DistanceSizes:      fixedDSizes,
		},
	})

	return inf.decodeHuffmanBlock(hLL, hD)
}

func (inf *inflator) readDynamicBlock(isFinal bool) error {
	hLL, hD, err := inf.readDynamicTrees(isFinal)
	if err != nil {
		return err
	}
	return inf.decodeHuffmanBlock(hLL, hD)
}

func (inf *inflator) readDynamicTrees(isFinal bool) (*huffman.Tree, *huffman.Tree, error) {
	// https://www.rfc-editor.org/rfc/rfc1951.html - Section 3.2.7

	out, err := inf.br.ReadBits(14)
	if err != nil {
		return nil, nil, inf.decodeError(err)
	}

	numLL := 257 + uint(out&0x1f)
	numD := 1 + uint((out>>5)&0x1f)
	numX := 4 + uint((out>>10)&0x0f)

	if numLL > logicalNumLLCodes {
		return nil, nil, inf.corruptf("HLIT %d > %d", numLL, logicalNumLLCodes)
	}
	if numD > logicalNumDCodes {
		return nil, nil, inf.corruptf("HDIST %d > %d", numD, logicalNumDCodes)
	}

	var sX [physicalNumXCodes]byte
	for i := uint(0); i < numX; i++ {
		out, err = inf.br.ReadBits(3)
		if err != nil {
			return nil, nil, inf.decodeError(err)
		}
		sX[scramble[i]] = byte(out)
	}

	hX, err := huffman.Build(sX[:])
	if err != nil {
		return nil, nil, inf.corruptf("bad code-length alphabet: %v", err)
	}

	total := numLL + numD
	combined := make([]byte, total)
	for i := uint(0); i < total; {
		sym, err := hX.Decode(inf.br)
		if err != nil {
			return nil, nil, inf.decodeError(err)
		}

		i, err = inf.decodeCodeLength(sym, combined, i, total)
		if err != nil {
			return nil, nil, err
		}
	}

	sLL := make([]byte, physicalNumLLCodes)
	copy(sLL, combined[:numLL])

	sD := make([]byte, physicalNumDCodes)
	copy(sD, combined[numLL:])

	hLL, err := huffman.Build(sLL)
	if err != nil {
		return nil, nil, inf.corruptf("bad literal/length code: %v", err)
	}

	hD, err := huffman.Build(sD)
	if err != nil {
		return nil, nil, inf.corruptf("bad distance code: %v", err)
	}

	inf.sendEvent(Event{
		Type: BlockTreesEvent,
		Block: &BlockEvent{
			Type:    DynamicBlock,
			IsFinal: isFinal,
		},
		Trees: &TreesEvent{
			CodeCount:          uint16(numX),
			LiteralLengthCount: uint16(numLL),
			DistanceCount:      uint16(numD),
			CodeSizes:          sX[:],
			LiteralLengthSizes: sLL,
			DistanceSizes:      sD,
		},
	})

	return hLL, hD, nil
}

func (inf *inflator) decodeCodeLength(sym uint32, combined []byte, i uint, total uint) (uint, error) {
	switch {
	case sym < 16:
		// next output symbol has length of sym bits
		combined[i] = byte(sym)
		i++

	case sym == 16:
		// next 3 .. 6 output symbols have length equal to previous output symbol
		if i == 0 {
			return i, inf.corruptf("attempt to repeat -1'st length")
		}

		out, err := inf.br.ReadBits(2)
		if err != nil {
			return i, inf.decodeError(err)
		}

		count := 3 + uint(out)
		if count > (total - i) {
			return i, inf.corruptf("attempt to repeat %d times but only %d codes remain", count, total-i)
		}

		lastLength := combined[i-1]
		for count != 0 {
			combined[i] = lastLength
			i++
			count--
		}

	case sym == 17:
		// next 3 .. 10 output symbols have length of 0 bits
		out, err := inf.br.ReadBits(3)
		if err != nil {
			return i, inf.decodeError(err)
		}

		count := 3 + uint(out)
		if count > (total - i) {
			return i, inf.corruptf("attempt to repeat %d times but only %d codes remain", count, total-i)
		}

		i += count

	default:
		// next 11 .. 138 output symbols have length of 0 bits
		out, err := inf.br.ReadBits(7)
		if err != nil {
			return i, inf.decodeError(err)
		}

		count := 11 + uint(out)
		if count > (total - i) {
			return i, inf.corruptf("attempt to repeat %d times but only %d codes remain", count, total-i)
		}

		i += count
	}
	return i, nil
}

func (inf *inflator) decodeHuffmanBlock(hLL, hD *huffman.Tree) error {
	for {
		sym, err := hLL.Decode(inf.br)
		if err != nil {
			return inf.decodeError(err)
		}

		switch {
		case sym < 256:
			inf.writeByte(byte(sym))

		case sym == 256:
			return nil

		default:
			if err := inf.copyBackReference(sym, hD); err != nil {
				return err
			}
		}
	}
}

func (inf *inflator) copyBackReference(sym uint32, hD *huffman.Tree) error {
	if sym >= 257+uint32(len(lengthBases)) {
		return inf.corruptf("invalid literal/length symbol %d", sym)
	}

	length := uint(lengthBases[sym-257])
	if additionalBits := lengthExtra[sym-257]; additionalBits != 0 {
		out, err := inf.br.ReadBits(additionalBits)
		if err != nil {
			return inf.decodeError(err)
		}
		length += uint(out)
	}

	dsym, err := hD.Decode(inf.br)
	if err != nil {
		return inf.decodeError(err)
	}
	if dsym >= uint32(len(distanceBases)) {
		return inf.corruptf("invalid distance symbol %d", dsym)
	}

	distance := uint(distanceBases[dsym])
	if additionalBits := distanceExtra[dsym]; additionalBits != 0 {
		out, err := inf.br.ReadBits(additionalBits)
		if err != nil {
			return inf.decodeError(err)
		}
		distance += uint(out)
	}

	// Byte-by-byte copy: overlapping references (distance < length)
	// replicate the repeating pattern.
	for ; length != 0; length-- {
		ch, err := inf.window.LookupByte(distance)
		if err != nil {
			return inf.corruptf("distance %d exceeds the %d bytes of output produced so far", distance, inf.window.Size())
		}
		inf.writeByte(ch)
	}
	return nil
}

func (inf *inflator) writeByte(ch byte) {
	inf.out = append(inf.out, ch)
	_ = inf.window.WriteByte(ch)
}

func (inf *inflator) writeBytes(p []byte) {
	inf.out = append(inf.out, p...)
	_, _ = inf.window.Write(p)
}

func (inf *inflator) corruptf(format string, v ...interface{}) error {
	return CorruptInputError{
		Offset:  inf.br.Offset(),
		Problem: fmt.Sprintf(format, v...),
	}
}

// decodeError maps errors surfacing from the leaf packages onto the typed
// errors of the public API.
func (inf *inflator) decodeError(err error) error {
	switch e := err.(type) {
	case bitstream.OutOfDataError:
		return TruncatedInputError{Offset: e.Offset, NeedBits: e.NeedBits}
	case huffman.DecodeError:
		return CorruptInputError{Offset: inf.br.Offset(), Problem: e.Problem}
	}
	return err
}

func (inf *inflator) sendEvent(event Event) {
	if len(inf.tracers) == 0 {
		return
	}

	event.InputOffset = inf.br.Offset()
	event.OutputBytes = uint64(len(inf.out))
	for _, tr := range inf.tracers {
		tr.OnEvent(event)
	}
}
