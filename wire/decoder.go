package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/picowire/picowire/schema"
)

// Decoder handles low-level protobuf wire format decoding
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new wire format decoder. The input buffer is
// borrowed for the lifetime of the decoder.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf: data,
		pos: 0,
	}
}

// readRaw reads exactly n raw bytes.
func (d *Decoder) readRaw(n int) ([]byte, error) {
	if d.pos >= len(d.buf) {
		return nil, &EndOfMessage{Partial: false}
	}
	if d.pos+n > len(d.buf) {
		return nil, &EndOfMessage{Partial: true}
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:])
	d.pos += n
	return out, nil
}

// Entry point for the API layer

// DecodeSchema breaks data down into raw records, groups them by field
// number and projects them through the schema. Positional schemas yield a
// []interface{} in descriptor order; name-keyed schemas yield a
// map[string]interface{}.
func DecodeSchema(sch *schema.Schema, data []byte) (interface{}, error) {
	records, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}

	// Multimap keyed by field number, record order preserved per key.
	// Field numbers present on the wire but absent from the schema stay
	// here unconsumed.
	byField := make(map[FieldNumber][]*Record)
	for i := range records {
		rec := &records[i]
		byField[rec.FieldNumber] = append(byField[rec.FieldNumber], rec)
	}

	if sch.Named() {
		result := make(map[string]interface{})
		for _, fld := range sch.Fields {
			if fld.Type == schema.TypeSkip {
				continue
			}
			value, err := decodeFieldRecords(sch, fld, FieldNumber(fld.Number), byField[FieldNumber(fld.Number)])
			if err != nil {
				return nil, err
			}
			result[fld.Name] = value
		}
		return result, nil
	}

	result := make([]interface{}, 0, len(sch.Fields))
	for _, fld := range sch.Fields {
		for rep := uint32(0); rep < fld.Repeat; rep++ {
			if fld.Type == schema.TypeSkip {
				continue
			}
			fieldNumber := FieldNumber(fld.Number + rep)
			value, err := decodeFieldRecords(sch, fld, fieldNumber, byField[fieldNumber])
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		}
	}
	return result, nil
}

// decodeFieldRecords turns the records collected for one field number
// into the field's user value. The transition is determined solely by the
// record count, the prefix and the presence of a subschema.
func decodeFieldRecords(sch *schema.Schema, fld *schema.Field, fieldNumber FieldNumber, recs []*Record) (interface{}, error) {
	if len(recs) == 0 {
		if fld.Prefix == schema.PrefixRequired {
			return nil, codecErrorf("Field %d is required but is empty", fieldNumber)
		}
		return nil, nil
	}

	switch fld.Prefix {
	case schema.PrefixRepeated:
		out := make([]interface{}, 0, len(recs))
		for _, rec := range recs {
			value, err := decodeScalar(sch, fld, rec)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", fieldNumber, err)
			}
			out = append(out, value)
		}
		return out, nil

	case schema.PrefixPacked:
		rec := recs[0]
		if len(recs) > 1 {
			log.Warning("multiple data found in a packed-repeated field")
			merged, err := concatRecords(recs)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", fieldNumber, err)
			}
			rec = merged
		}
		if rec.WireType != WireBytes {
			return nil, codecErrorf(
				"packed-repeated field %d has wire type %d, expected length-delimited",
				fieldNumber, rec.WireType)
		}
		elems, err := DecodeRawPacked(rec.Data.([]byte), TypeWireType(fld.Type), fieldNumber)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, 0, len(elems))
		for i := range elems {
			value, err := decodeScalar(sch, fld, &elems[i])
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", fieldNumber, err)
			}
			out = append(out, value)
		}
		return out, nil
	}

	rec := recs[0]
	if len(recs) > 1 {
		log.Warning("multiple data found in a non-repeated field")
		if fld.Subschema != nil {
			// Embedded messages merge: concatenate and decode once.
			merged, err := concatRecords(recs)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", fieldNumber, err)
			}
			rec = merged
		} else {
			// Scalars: last one wins.
			rec = recs[len(recs)-1]
		}
	}
	value, err := decodeScalar(sch, fld, rec)
	if err != nil {
		return nil, fmt.Errorf("field %d: %w", fieldNumber, err)
	}
	return value, nil
}

// concatRecords merges several length-delimited records for the same
// field into one record carrying the concatenated payload.
func concatRecords(recs []*Record) (*Record, error) {
	var payload []byte
	for _, rec := range recs {
		if rec.WireType != WireBytes {
			return nil, &TypeMismatchError{Expected: WireBytes, Actual: rec.WireType}
		}
		payload = append(payload, rec.Data.([]byte)...)
	}
	return &Record{
		FieldNumber: recs[0].FieldNumber,
		WireType:    WireBytes,
		Data:        payload,
	}, nil
}

// decodeScalar decodes one record through the field's scalar type, after
// checking that the record arrived under the expected wire type.
func decodeScalar(sch *schema.Schema, fld *schema.Field, rec *Record) (interface{}, error) {
	expected := TypeWireType(fld.Type)
	if rec.WireType != expected {
		return nil, &TypeMismatchError{Expected: expected, Actual: rec.WireType}
	}

	switch fld.Type {
	case schema.TypeVint2sc:
		return DecodeTwosComplement(rec.Data.(uint64), sch.Vint2scBits()), nil
	case schema.TypeUvint:
		return rec.Data.(uint64), nil
	case schema.TypeZigzag:
		return DecodeZigZag64(rec.Data.(uint64)), nil
	case schema.TypeBool:
		return rec.Data.(uint64) != 0, nil
	case schema.TypeSfixed32:
		return int32(binary.LittleEndian.Uint32(rec.Data.([]byte))), nil
	case schema.TypeFixed32:
		return binary.LittleEndian.Uint32(rec.Data.([]byte)), nil
	case schema.TypeSfixed64:
		return int64(binary.LittleEndian.Uint64(rec.Data.([]byte))), nil
	case schema.TypeFixed64:
		return binary.LittleEndian.Uint64(rec.Data.([]byte)), nil
	case schema.TypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(rec.Data.([]byte))), nil
	case schema.TypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(rec.Data.([]byte))), nil
	case schema.TypeBytes:
		if fld.Subschema != nil {
			md := NewMessageDecoder(NewDecoder(rec.Data.([]byte)))
			return md.DecodeNested(fld.Subschema)
		}
		return rec.Data.([]byte), nil
	case schema.TypeString:
		return string(rec.Data.([]byte)), nil
	}

	return nil, fmt.Errorf("unknown type code %q", string(fld.Type))
}
