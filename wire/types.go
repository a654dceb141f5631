package wire

import (
	"github.com/picowire/picowire/schema"
)

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType int32

const (
	WireVarint  WireType = 0 // varint-encoded integers and booleans
	WireFixed64 WireType = 1 // fixed 64-bit values, LSB first
	WireBytes   WireType = 2 // length-delimited payloads
	WireFixed32 WireType = 5 // fixed 32-bit values, LSB first

	// Wire types 3 and 4 are the deprecated group markers. They are not
	// supported; the raw decoder logs and skips them.
	WireStartGroup WireType = 3
	WireEndGroup   WireType = 4
)

// FieldNumber represents a protobuf field number
type FieldNumber uint32

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// Record is one raw wire record: a field number, a wire type and the
// undecoded payload. For WireVarint the payload is the decoded unsigned
// integer; for the other wire types it is the raw bytes (8 for fixed64,
// 4 for fixed32, the delimited payload for bytes).
type Record struct {
	FieldNumber FieldNumber
	WireType    WireType
	Data        interface{}
}

// fieldWireTypes maps each scalar type code to the wire type its payloads
// travel under. The skip code reserves numbers and never reaches the wire.
var fieldWireTypes = map[schema.TypeCode]WireType{
	schema.TypeVint2sc:  WireVarint,
	schema.TypeUvint:    WireVarint,
	schema.TypeZigzag:   WireVarint,
	schema.TypeBool:     WireVarint,
	schema.TypeSfixed32: WireFixed32,
	schema.TypeFixed32:  WireFixed32,
	schema.TypeSfixed64: WireFixed64,
	schema.TypeFixed64:  WireFixed64,
	schema.TypeFloat:    WireFixed32,
	schema.TypeDouble:   WireFixed64,
	schema.TypeBytes:    WireBytes,
	schema.TypeString:   WireBytes,
}

// TypeWireType returns the wire type carrying payloads of the given
// scalar type code.
func TypeWireType(t schema.TypeCode) WireType {
	return fieldWireTypes[t]
}
