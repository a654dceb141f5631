package wire

import (
	"fmt"

	"github.com/picowire/picowire/schema"
)

// Encoder handles low-level protobuf wire format encoding
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0, 1024),
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Entry point for the API layer

// EncodeSchema walks the schema against a user value and returns the
// encoded bytes. Positional schemas consume a []interface{} in descriptor
// order; name-keyed schemas consume a map[string]interface{}.
func EncodeSchema(sch *schema.Schema, value interface{}) ([]byte, error) {
	e := NewEncoder()
	if err := e.EncodeWithSchema(sch, value); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeWithSchema appends the encoding of value to the encoder buffer.
func (e *Encoder) EncodeWithSchema(sch *schema.Schema, value interface{}) error {
	if sch.Named() {
		m, ok := value.(map[string]interface{})
		if !ok {
			return codecErrorf("name-keyed schema needs a map value, got %T", value)
		}
		return e.encodeMap(sch, m)
	}

	values, err := asList(value)
	if err != nil {
		return codecErrorf("positional schema needs a slice value, got %T", value)
	}
	return e.encodeSequence(sch, values)
}

// encodeSequence encodes a positional value. Skip slots do not consume an
// element; every other descriptor slot consumes exactly one.
func (e *Encoder) encodeSequence(sch *schema.Schema, values []interface{}) error {
	idx := 0
	for _, fld := range sch.Fields {
		for rep := uint32(0); rep < fld.Repeat; rep++ {
			fieldNumber := FieldNumber(fld.Number + rep)

			if fld.Type == schema.TypeSkip {
				continue
			}
			if idx >= len(values) {
				return codecErrorf("Insufficient parameters (empty fields not padded with nil)")
			}
			value := values[idx]
			idx++

			if err := e.encodeField(sch, fld, fieldNumber, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeMap encodes a name-keyed value. Missing keys are an error unless
// the schema allows sparse input, in which case they read as nil.
func (e *Encoder) encodeMap(sch *schema.Schema, m map[string]interface{}) error {
	for _, fld := range sch.Fields {
		if fld.Type == schema.TypeSkip {
			continue
		}
		value, present := m[fld.Name]
		if !present {
			if !sch.AllowSparse() {
				return codecErrorf("missing value for field %q", fld.Name)
			}
			value = nil
		}
		if err := e.encodeField(sch, fld, FieldNumber(fld.Number), value); err != nil {
			return err
		}
	}
	return nil
}

// encodeField emits header and payload for one field slot, honoring its
// cardinality prefix. A nil value is an error for required fields and
// emits nothing otherwise.
func (e *Encoder) encodeField(sch *schema.Schema, fld *schema.Field, fieldNumber FieldNumber, value interface{}) error {
	if value == nil {
		if fld.Prefix == schema.PrefixRequired {
			return codecErrorf("Required field %d cannot be nil", fieldNumber)
		}
		return nil
	}

	wireType := TypeWireType(fld.Type)

	switch fld.Prefix {
	case schema.PrefixRepeated:
		list, err := asList(value)
		if err != nil {
			return encodeError(fld, fieldNumber, err)
		}
		for _, elem := range list {
			e.EncodeHeader(fieldNumber, wireType)
			if err := e.encodePayload(sch, fld, elem); err != nil {
				return encodeError(fld, fieldNumber, err)
			}
		}

	case schema.PrefixPacked:
		list, err := asList(value)
		if err != nil {
			return encodeError(fld, fieldNumber, err)
		}
		// Pack all elements into one length-delimited payload.
		packed := NewEncoder()
		for _, elem := range list {
			if err := packed.encodePayload(sch, fld, elem); err != nil {
				return encodeError(fld, fieldNumber, err)
			}
		}
		e.EncodeHeader(fieldNumber, WireBytes)
		e.EncodeBytes(packed.Bytes())

	default:
		e.EncodeHeader(fieldNumber, wireType)
		if err := e.encodePayload(sch, fld, value); err != nil {
			return encodeError(fld, fieldNumber, err)
		}
	}

	return nil
}

// encodePayload emits a single payload, without header, for one element.
func (e *Encoder) encodePayload(sch *schema.Schema, fld *schema.Field, value interface{}) error {
	switch fld.Type {
	case schema.TypeVint2sc:
		n, err := asInt64(value)
		if err != nil {
			return err
		}
		e.EncodeVarint(EncodeTwosComplement(n, sch.Vint2scBits()))

	case schema.TypeUvint:
		n, err := asUint64(value)
		if err != nil {
			return err
		}
		e.EncodeVarint(n)

	case schema.TypeZigzag:
		n, err := asInt64(value)
		if err != nil {
			return err
		}
		e.EncodeVarint(EncodeZigZag64(n))

	case schema.TypeBool:
		b, err := asBool(value)
		if err != nil {
			return err
		}
		ve := NewVarintEncoder(e)
		ve.EncodeBool(b)

	case schema.TypeSfixed32:
		n, err := asInt64(value)
		if err != nil {
			return err
		}
		e.EncodeFixed32(uint32(int32(n)))

	case schema.TypeFixed32:
		n, err := asUint64(value)
		if err != nil {
			return err
		}
		e.EncodeFixed32(uint32(n))

	case schema.TypeSfixed64:
		n, err := asInt64(value)
		if err != nil {
			return err
		}
		e.EncodeFixed64(uint64(n))

	case schema.TypeFixed64:
		n, err := asUint64(value)
		if err != nil {
			return err
		}
		e.EncodeFixed64(n)

	case schema.TypeFloat:
		f, err := asFloat64(value)
		if err != nil {
			return err
		}
		fe := NewFixedEncoder(e)
		fe.EncodeFloat32(float32(f))

	case schema.TypeDouble:
		f, err := asFloat64(value)
		if err != nil {
			return err
		}
		fe := NewFixedEncoder(e)
		fe.EncodeFloat64(f)

	case schema.TypeBytes:
		if fld.Subschema != nil {
			me := NewMessageEncoder(e)
			return me.EncodeNested(fld.Subschema, value)
		}
		b, err := asBytes(value)
		if err != nil {
			return err
		}
		e.EncodeBytes(b)

	case schema.TypeString:
		s, err := asString(value)
		if err != nil {
			return err
		}
		be := NewBytesEncoder(e)
		be.EncodeString(s)

	default:
		return fmt.Errorf("unknown type code %q", string(fld.Type))
	}

	return nil
}

// encodeError wraps a payload-level failure with the field identity.
func encodeError(fld *schema.Field, fieldNumber FieldNumber, err error) error {
	if fld.Name != "" {
		return &CodecError{
			Msg: fmt.Sprintf("failed to encode field %d (%s)", fieldNumber, fld.Name),
			Err: err,
		}
	}
	return &CodecError{
		Msg: fmt.Sprintf("failed to encode field %d", fieldNumber),
		Err: err,
	}
}
