package mxl

import (
	"encoding/binary"
	"fmt"
)

// ZIP container signatures.  All multi-byte integers in the container are
// little-endian.
const (
	localHeaderSignature     = 0x04034b50
	centralDirSignature      = 0x02014b50
	endOfCentralDirSignature = 0x06054b50
)

const (
	localHeaderFixedSize     = 30
	centralDirEntryFixedSize = 46
	endOfCentralDirFixedSize = 22

	// maxCommentSize bounds the backward scan for the end-of-central-
	// directory record: the archive comment field is at most 65535 bytes.
	maxCommentSize = 65535
)

// flagDataDescriptor is the general-purpose flag bit indicating that the
// member's sizes follow the data in a trailing data descriptor record
// instead of being recorded in the local file header.
const flagDataDescriptor = 0x0008

// Member is one extracted archive member.
type Member struct {
	Name string
	Data []byte
}

// Members is the ordered list of members extracted from one archive.  The
// order matches the central directory or, for archives with no central
// directory, local-file-header scan order.
type Members []Member

// Lookup returns the decompressed bytes of the named member.
func (members Members) Lookup(name string) ([]byte, bool) {
	for _, m := range members {
		if m.Name == name {
			return m.Data, true
		}
	}
	return nil, false
}

// Names returns the member filenames in archive order.
func (members Members) Names() []string {
	names := make([]string, len(members))
	for index, m := range members {
		names[index] = m.Name
	}
	return names
}

// IsMxl reports whether p begins with the ZIP local-file-header signature,
// the magic shared by .zip and .mxl containers.
func IsMxl(p []byte) bool {
	return len(p) >= 4 && binary.LittleEndian.Uint32(p[0:4]) == localHeaderSignature
}

// Unzip extracts every member of the ZIP container p and returns them in
// archive order.  Members are extracted via the central directory when one
// can be located, falling back to a sequential local-file-header scan
// otherwise.  Only the store and deflate compression methods are
// supported; the first failing member aborts the extraction.
func Unzip(p []byte, opts ...Option) (Members, error) {
	var o options
	o.apply(opts)

	if !IsMxl(p) {
		return nil, FormatError{Problem: "missing local file header signature"}
	}

	ux := &unzipper{
		buf:     p,
		tracers: o.tracers,
		opts:    opts,
	}

	if eocd, ok := ux.findEndOfCentralDir(); ok {
		return ux.extractFromCentralDir(eocd)
	}
	return ux.extractByScan()
}

type unzipper struct {
	buf     []byte
	tracers []Tracer
	opts    []Option
}

type endOfCentralDir struct {
	totalEntries uint16
	cdSize       uint32
	cdOffset     uint32
}

type centralDirEntry struct {
	name              string
	method            Method
	compressedSize    uint32
	uncompressedSize  uint32
	localHeaderOffset uint32
}

// findEndOfCentralDir scans backward from the end of the buffer for the
// end-of-central-directory signature.  The record may be displaced from the
// end by up to maxCommentSize bytes of archive comment.
func (ux *unzipper) findEndOfCentralDir() (endOfCentralDir, bool) {
	bufLen := uint(len(ux.buf))
	if bufLen < endOfCentralDirFixedSize {
		return endOfCentralDir{}, false
	}

	windowStart := uint(0)
	if bufLen > endOfCentralDirFixedSize+maxCommentSize {
		windowStart = bufLen - endOfCentralDirFixedSize - maxCommentSize
	}

	for offset := bufLen - endOfCentralDirFixedSize; ; offset-- {
		if binary.LittleEndian.Uint32(ux.buf[offset:offset+4]) == endOfCentralDirSignature {
			p := ux.buf[offset : offset+endOfCentralDirFixedSize]
			return endOfCentralDir{
				totalEntries: binary.LittleEndian.Uint16(p[10:12]),
				cdSize:       binary.LittleEndian.Uint32(p[12:16]),
				cdOffset:     binary.LittleEndian.Uint32(p[16:20]),
			}, true
		}
		if offset == windowStart {
			break
		}
	}
	return endOfCentralDir{}, false
}

func (ux *unzipper) extractFromCentralDir(eocd endOfCentralDir) (Members, error) {
	members := make(Members, 0, eocd.totalEntries)

	offset := uint(eocd.cdOffset)
	for n := uint16(0); n < eocd.totalEntries; n++ {
		entry, next, err := ux.parseCentralDirEntry(offset)
		if err != nil {
			return nil, err
		}

		data, err := ux.extractEntry(entry)
		if err != nil {
			return nil, EntryError{Name: entry.name, Err: err}
		}

		members = append(members, Member{Name: entry.name, Data: data})
		offset = next
	}
	return members, nil
}

func (ux *unzipper) parseCentralDirEntry(offset uint) (centralDirEntry, uint, error) {
	p, err := ux.slice(offset, centralDirEntryFixedSize)
	if err != nil {
		return centralDirEntry{}, 0, err
	}

	if binary.LittleEndian.Uint32(p[0:4]) != centralDirSignature {
		return centralDirEntry{}, 0, CorruptInputError{
			Offset:  uint64(offset),
			Problem: "missing central directory entry signature",
		}
	}

	nameLen := uint(binary.LittleEndian.Uint16(p[28:30]))
	extraLen := uint(binary.LittleEndian.Uint16(p[30:32]))
	commentLen := uint(binary.LittleEndian.Uint16(p[32:34]))

	rawName, err := ux.slice(offset+centralDirEntryFixedSize, nameLen)
	if err != nil {
		return centralDirEntry{}, 0, err
	}

	entry := centralDirEntry{
		name:              string(rawName),
		method:            Method(binary.LittleEndian.Uint16(p[10:12])),
		compressedSize:    binary.LittleEndian.Uint32(p[20:24]),
		uncompressedSize:  binary.LittleEndian.Uint32(p[24:28]),
		localHeaderOffset: binary.LittleEndian.Uint32(p[42:46]),
	}

	next := offset + centralDirEntryFixedSize + nameLen + extraLen + commentLen
	return entry, next, nil
}

// extractEntry jumps to the entry's local file header to locate the start
// of its data, then extracts compressedSize bytes.  Sizes come from the
// central directory, so members written by streaming producers (which
// record their sizes only in trailing data descriptors) extract correctly.
func (ux *unzipper) extractEntry(entry centralDirEntry) ([]byte, error) {
	offset := uint(entry.localHeaderOffset)

	p, err := ux.slice(offset, localHeaderFixedSize)
	if err != nil {
		return nil, err
	}

	if binary.LittleEndian.Uint32(p[0:4]) != localHeaderSignature {
		return nil, CorruptInputError{
			Offset:  uint64(offset),
			Problem: "missing local file header signature",
		}
	}

	nameLen := uint(binary.LittleEndian.Uint16(p[26:28]))
	extraLen := uint(binary.LittleEndian.Uint16(p[28:30]))

	dataStart := offset + localHeaderFixedSize + nameLen + extraLen
	return ux.extractData(entry, dataStart)
}

func (ux *unzipper) extractData(entry centralDirEntry, dataStart uint) ([]byte, error) {
	if !entry.method.IsSupported() {
		return nil, UnsupportedMethodError{Method: entry.method}
	}

	data, err := ux.slice(dataStart, uint(entry.compressedSize))
	if err != nil {
		return nil, err
	}

	ux.sendEntryEvent(EntryBeginEvent, entry)

	var out []byte
	if entry.method == DeflateMethod {
		out, err = Inflate(data, ux.opts...)
		if err != nil {
			return nil, err
		}
	} else {
		out = make([]byte, len(data))
		copy(out, data)
	}

	ux.sendEntryEvent(EntryEndEvent, entry)
	return out, nil
}

// extractByScan walks local file headers sequentially from offset 0.  It is
// the fallback for archives whose central directory is missing or
// unlocatable.
func (ux *unzipper) extractByScan() (Members, error) {
	var members Members

	offset := uint(0)
	for {
		if offset+4 > uint(len(ux.buf)) {
			break
		}
		if binary.LittleEndian.Uint32(ux.buf[offset:offset+4]) != localHeaderSignature {
			break
		}

		p, err := ux.slice(offset, localHeaderFixedSize)
		if err != nil {
			return nil, err
		}

		flags := binary.LittleEndian.Uint16(p[6:8])
		nameLen := uint(binary.LittleEndian.Uint16(p[26:28]))
		extraLen := uint(binary.LittleEndian.Uint16(p[28:30]))

		rawName, err := ux.slice(offset+localHeaderFixedSize, nameLen)
		if err != nil {
			return nil, err
		}

		entry := centralDirEntry{
			name:              string(rawName),
			method:            Method(binary.LittleEndian.Uint16(p[8:10])),
			compressedSize:    binary.LittleEndian.Uint32(p[18:22]),
			uncompressedSize:  binary.LittleEndian.Uint32(p[22:26]),
			localHeaderOffset: uint32(offset),
		}

		// Without a central directory, a data-descriptor member with no
		// size in its local header cannot be sized at all.
		if (flags&flagDataDescriptor) != 0 && entry.compressedSize == 0 {
			return nil, EntryError{
				Name: entry.name,
				Err: CorruptInputError{
					Offset:  uint64(offset),
					Problem: "member uses a data descriptor and the archive has no central directory",
				},
			}
		}

		dataStart := offset + localHeaderFixedSize + nameLen + extraLen
		data, err := ux.extractData(entry, dataStart)
		if err != nil {
			return nil, EntryError{Name: entry.name, Err: err}
		}

		members = append(members, Member{Name: entry.name, Data: data})
		offset = dataStart + uint(entry.compressedSize)
	}
	return members, nil
}

// slice bounds-checks a declared [offset, offset+length) range against the
// buffer and returns the corresponding subslice.
func (ux *unzipper) slice(offset, length uint) ([]byte, error) {
	bufLen := uint(len(ux.buf))
	end := offset + length
	if end < offset || offset > bufLen || end > bufLen {
		return nil, CorruptInputError{
			Offset:  uint64(offset),
			Problem: fmt.Sprintf("declared %d bytes at offset %d, but the archive is only %d bytes long", length, offset, bufLen),
		}
	}
	return ux.buf[offset:end], nil
}

func (ux *unzipper) sendEntryEvent(eventType EventType, entry centralDirEntry) {
	if len(ux.tracers) == 0 {
		return
	}

	event := Event{
		Type: eventType,
		Entry: &EntryEvent{
			Name:             entry.name,
			Method:           entry.method,
			CompressedSize:   entry.compressedSize,
			UncompressedSize: entry.uncompressedSize,
		},
	}
	for _, tr := range ux.tracers {
		tr.OnEvent(event)
	}
}
