package wire

import (
	"fmt"
)

// ===== SCHEMALESS RAW CODEC =====

// DecodeRecord reads the next wire record from the decoder. It returns
// (nil, nil) once the input is exhausted on a record boundary. Records
// with the deprecated group wire types 3 and 4 are logged and skipped.
func (d *Decoder) DecodeRecord() (*Record, error) {
	for {
		fieldNumber, wireType, err := d.DecodeHeader()
		if err != nil {
			if partial, ok := eom(err); ok {
				if !partial {
					// Clean end of message
					return nil, nil
				}
				return nil, &CodecError{
					Msg: "Unexpected end of message while decoding a field header",
					Err: err,
				}
			}
			return nil, err
		}

		switch wireType {
		case WireStartGroup, WireEndGroup:
			log.Warningf("ignoring unsupported wire type %d (field %d)", wireType, fieldNumber)
			continue
		}

		data, err := d.decodePayload(wireType)
		if err != nil {
			if _, ok := eom(err); ok {
				return nil, truncated(fieldNumber, err)
			}
			return nil, &CodecError{
				Msg: fmt.Sprintf("failed to decode field %d", fieldNumber),
				Err: err,
			}
		}

		return &Record{
			FieldNumber: fieldNumber,
			WireType:    wireType,
			Data:        data,
		}, nil
	}
}

// decodePayload reads one payload of the given wire type.
func (d *Decoder) decodePayload(wireType WireType) (interface{}, error) {
	switch wireType {
	case WireVarint:
		return d.DecodeVarint()
	case WireFixed64:
		return d.readRaw(8)
	case WireBytes:
		return d.DecodeBytes()
	case WireFixed32:
		return d.readRaw(4)
	default:
		return nil, fmt.Errorf("unknown wire type %d", wireType)
	}
}

// DecodeRaw breaks wire data down into its records without a schema.
func DecodeRaw(data []byte) ([]Record, error) {
	d := NewDecoder(data)
	var records []Record

	for {
		rec, err := d.DecodeRecord()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		records = append(records, *rec)
	}

	return records, nil
}

// DecodeRawPacked iterates headerless records of a fixed shape from a
// packed payload. The caller supplies the wire type and field number the
// records carry. Iteration stops cleanly when the buffer drains on a
// record boundary; mid-record truncation is an error.
func DecodeRawPacked(data []byte, wireType WireType, fieldNumber FieldNumber) ([]Record, error) {
	d := NewDecoder(data)
	var records []Record

	for d.pos < len(d.buf) {
		payload, err := d.decodePayload(wireType)
		if err != nil {
			if _, ok := eom(err); ok {
				return nil, truncated(fieldNumber, err)
			}
			return nil, &CodecError{
				Msg: fmt.Sprintf("failed to decode field %d", fieldNumber),
				Err: err,
			}
		}
		records = append(records, Record{
			FieldNumber: fieldNumber,
			WireType:    wireType,
			Data:        payload,
		})
	}

	return records, nil
}

// EncodeRaw re-encodes raw records back to wire format. Fixed 32- and
// 64-bit records must carry exactly 4 or 8 payload bytes.
func EncodeRaw(records []Record) ([]byte, error) {
	e := NewEncoder()

	for _, rec := range records {
		switch rec.WireType {
		case WireVarint:
			v, err := asUint64(rec.Data)
			if err != nil {
				return nil, fmt.Errorf("field %d: %v", rec.FieldNumber, err)
			}
			e.EncodeHeader(rec.FieldNumber, rec.WireType)
			e.EncodeVarint(v)
		case WireFixed64:
			b, err := rawPayload(rec.Data, 8)
			if err != nil {
				return nil, fmt.Errorf("field %d: %v", rec.FieldNumber, err)
			}
			e.EncodeHeader(rec.FieldNumber, rec.WireType)
			e.buf = append(e.buf, b...)
		case WireBytes:
			b, err := asBytes(rec.Data)
			if err != nil {
				return nil, fmt.Errorf("field %d: %v", rec.FieldNumber, err)
			}
			e.EncodeHeader(rec.FieldNumber, rec.WireType)
			e.EncodeBytes(b)
		case WireFixed32:
			b, err := rawPayload(rec.Data, 4)
			if err != nil {
				return nil, fmt.Errorf("field %d: %v", rec.FieldNumber, err)
			}
			e.EncodeHeader(rec.FieldNumber, rec.WireType)
			e.buf = append(e.buf, b...)
		default:
			return nil, fmt.Errorf("unknown wire type %d", rec.WireType)
		}
	}

	return e.Bytes(), nil
}

// rawPayload checks that a fixed-width record payload is a byte slice of
// the exact length its wire type demands.
func rawPayload(data interface{}, length int) ([]byte, error) {
	b, ok := data.([]byte)
	if !ok {
		return nil, fmt.Errorf("expected a bytes payload, got %T", data)
	}
	if len(b) != length {
		return nil, fmt.Errorf("expected a bytes payload of length %d, got %d", length, len(b))
	}
	return b, nil
}
