package wire

// ===== FIELD HEADER CODEC =====

// EncodeHeader writes the tag header (field_number << 3) | wire_type as a
// varint.
func (e *Encoder) EncodeHeader(fieldNumber FieldNumber, wireType WireType) {
	e.EncodeVarint(uint64(MakeTag(fieldNumber, wireType)))
}

// DecodeHeader reads a tag header and splits it into field number and
// wire type. Reaching the end of input before the first byte surfaces a
// clean (non-partial) end of message.
func (d *Decoder) DecodeHeader() (FieldNumber, WireType, error) {
	tag, err := d.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	fieldNumber, wireType := ParseTag(Tag(tag))
	return fieldNumber, wireType, nil
}
