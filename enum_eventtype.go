package mxl

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// EventType indicates the type of an Event.
type EventType byte

const (
	// StreamBeginEvent indicates that decoding of a DEFLATE stream has
	// started.
	StreamBeginEvent EventType = iota

	// BlockBeginEvent indicates that a block header was decoded.
	BlockBeginEvent

	// BlockTreesEvent indicates that the Huffman tree metadata for the
	// current block have been successfully processed.
	BlockTreesEvent

	// BlockEndEvent indicates that the data for the current block has been
	// successfully processed.
	BlockEndEvent

	// StreamEndEvent indicates that the final block of the stream has been
	// successfully processed.
	StreamEndEvent

	// EntryBeginEvent indicates that extraction of an archive member has
	// started.
	EntryBeginEvent

	// EntryEndEvent indicates that an archive member was successfully
	// extracted.
	EntryEndEvent
)

var eventTypeData = []enumhelper.EnumData{
	{GoName: "StreamBeginEvent", Name: "stream-begin"},
	{GoName: "BlockBeginEvent", Name: "block-begin"},
	{GoName: "BlockTreesEvent", Name: "block-trees"},
	{GoName: "BlockEndEvent", Name: "block-end"},
	{GoName: "StreamEndEvent", Name: "stream-end"},
	{GoName: "EntryBeginEvent", Name: "entry-begin"},
	{GoName: "EntryEndEvent", Name: "entry-end"},
}

// GoString returns the Go string representation of this EventType constant.
func (e EventType) GoString() string {
	return enumhelper.DereferenceEnumData("EventType", eventTypeData, uint(e)).GoName
}

// String returns the string representation of this EventType constant.
func (e EventType) String() string {
	return enumhelper.DereferenceEnumData("EventType", eventTypeData, uint(e)).Name
}

// MarshalJSON returns the JSON representation of this EventType constant.
func (e EventType) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("EventType", eventTypeData, uint(e))
}

var _ fmt.GoStringer = EventType(0)
var _ fmt.Stringer = EventType(0)
