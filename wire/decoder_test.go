package wire

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/picowire/picowire/schema"
)

func TestDecodeSchema_WireVectors(t *testing.T) {
	cases := []struct {
		name     string
		fmtstr   string
		hex      string
		expected []interface{}
	}{
		{
			name:     "small_unsigned_varint",
			fmtstr:   "V",
			hex:      "08 96 01",
			expected: []interface{}{uint64(150)},
		},
		{
			name:     "string_after_skip",
			fmtstr:   "xU",
			hex:      "12 07 74 65 73 74 69 6e 67",
			expected: []interface{}{"testing"},
		},
		{
			name:     "packed_repeated_varint",
			fmtstr:   "x3#V",
			hex:      "22 06 03 8e 02 9e a7 05",
			expected: []interface{}{[]interface{}{uint64(3), uint64(270), uint64(86942)}},
		},
		{
			name:     "nested_message",
			fmtstr:   "x2[V]",
			hex:      "1a 03 08 96 01",
			expected: []interface{}{[]interface{}{uint64(150)}},
		},
		{
			name:   "fixed_mix",
			fmtstr: "iIfqQd",
			hex: "0d ff ff ff ff 15 01 00 00 00 1d 00 00 80 3f" +
				" 21 cc e3 23 20 fd ff ff ff 29 d2 02 96 49 00 00 00 00" +
				" 31 18 2d 44 54 fb 21 09 40",
			expected: []interface{}{
				int32(-1), uint32(1), float32(1.0),
				int64(-12345678900), uint64(1234567890), math.Pi,
			},
		},
		{
			name:     "field_seek",
			fmtstr:   "V2@2U@10U@20",
			hex:      "10 01 18 02 52 05 74 65 73 74 31 a2 01 05 74 65 73 74 32",
			expected: []interface{}{uint64(1), uint64(2), "test1", "test2"},
		},
		{
			name:     "zigzag",
			fmtstr:   "z",
			hex:      "08 03",
			expected: []interface{}{int64(-2)},
		},
		{
			name:     "bool_nonzero_is_true",
			fmtstr:   "b",
			hex:      "08 96 01",
			expected: []interface{}{true},
		},
		{
			name:     "absent_optional_is_nil",
			fmtstr:   "VV",
			hex:      "10 02",
			expected: []interface{}{nil, uint64(2)},
		},
		{
			name:     "unknown_fields_ignored",
			fmtstr:   "V",
			hex:      "08 01 10 02 1a 01 58",
			expected: []interface{}{uint64(1)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sch := mustFormat(t, tc.fmtstr)
			value, err := DecodeSchema(sch, unhex(t, tc.hex))
			if err != nil {
				t.Fatalf("DecodeSchema failed: %v", err)
			}
			if !reflect.DeepEqual(value, tc.expected) {
				t.Errorf("DecodeSchema = %#v, want %#v", value, tc.expected)
			}
		})
	}
}

func TestDecodeSchema_TwosComplement(t *testing.T) {
	sch := mustFormat(t, "t")

	t.Run("default_width_64", func(t *testing.T) {
		value, err := DecodeSchema(sch, unhex(t, "08 ff ff ff ff ff ff ff ff ff 01"))
		if err != nil {
			t.Fatalf("DecodeSchema failed: %v", err)
		}
		if !reflect.DeepEqual(value, []interface{}{int64(-1)}) {
			t.Errorf("DecodeSchema = %#v, want [-1]", value)
		}
	})

	t.Run("width_32", func(t *testing.T) {
		if err := sch.SetVint2scBits(32); err != nil {
			t.Fatalf("SetVint2scBits failed: %v", err)
		}
		defer sch.SetVint2scBits(64)

		value, err := DecodeSchema(sch, unhex(t, "08 ff ff ff ff 0f"))
		if err != nil {
			t.Fatalf("DecodeSchema failed: %v", err)
		}
		if !reflect.DeepEqual(value, []interface{}{int64(-1)}) {
			t.Errorf("DecodeSchema = %#v, want [-1]", value)
		}
	})
}

func TestDecodeSchema_RequiredField(t *testing.T) {
	sch := mustFormat(t, "*V")

	_, err := DecodeSchema(sch, nil)
	var ce *CodecError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CodecError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error %q does not mention the required field", err)
	}
}

func TestDecodeSchema_Truncated(t *testing.T) {
	sch := mustFormat(t, "xU")

	_, err := DecodeSchema(sch, unhex(t, "12 07 74 65 73 74 69"))
	if err == nil || !strings.Contains(err.Error(), "Unexpected end of message") {
		t.Errorf("expected an end of message error, got %v", err)
	}
}

func TestDecodeSchema_WireTypeMismatch(t *testing.T) {
	sch := mustFormat(t, "V")

	// Field 1 arrives length-delimited instead of as a varint
	encoder := NewEncoder()
	encoder.EncodeHeader(1, WireBytes)
	encoder.EncodeBytes([]byte("oops"))

	_, err := DecodeSchema(sch, encoder.Bytes())
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %T: %v", err, err)
	}
	if tm.Expected != WireVarint || tm.Actual != WireBytes {
		t.Errorf("mismatch detail = (%d, %d), want (0, 2)", tm.Expected, tm.Actual)
	}
}

func TestDecodeSchema_RepeatedField(t *testing.T) {
	sch := mustFormat(t, "+V")

	encoder := NewEncoder()
	for _, v := range []uint64{1, 2, 3} {
		encoder.EncodeHeader(1, WireVarint)
		encoder.EncodeVarint(v)
	}

	value, err := DecodeSchema(sch, encoder.Bytes())
	if err != nil {
		t.Fatalf("DecodeSchema failed: %v", err)
	}
	expected := []interface{}{[]interface{}{uint64(1), uint64(2), uint64(3)}}
	if !reflect.DeepEqual(value, expected) {
		t.Errorf("DecodeSchema = %#v, want %#v", value, expected)
	}
}

func TestDecodeSchema_LastOneWins(t *testing.T) {
	sch := mustFormat(t, "V")

	// Two records for the same singular scalar field
	encoder := NewEncoder()
	encoder.EncodeHeader(1, WireVarint)
	encoder.EncodeVarint(1)
	encoder.EncodeHeader(1, WireVarint)
	encoder.EncodeVarint(2)

	value, err := DecodeSchema(sch, encoder.Bytes())
	if err != nil {
		t.Fatalf("DecodeSchema failed: %v", err)
	}
	if !reflect.DeepEqual(value, []interface{}{uint64(2)}) {
		t.Errorf("DecodeSchema = %#v, want the last record to win", value)
	}
}

func TestDecodeSchema_NestedMerge(t *testing.T) {
	sch := mustFormat(t, "[VU]")

	// Two records for the same embedded message merge by concatenation
	first := NewEncoder()
	first.EncodeHeader(1, WireVarint)
	first.EncodeVarint(150)

	second := NewEncoder()
	second.EncodeHeader(2, WireBytes)
	second.EncodeBytes([]byte("merged"))

	encoder := NewEncoder()
	encoder.EncodeHeader(1, WireBytes)
	encoder.EncodeBytes(first.Bytes())
	encoder.EncodeHeader(1, WireBytes)
	encoder.EncodeBytes(second.Bytes())

	value, err := DecodeSchema(sch, encoder.Bytes())
	if err != nil {
		t.Fatalf("DecodeSchema failed: %v", err)
	}
	expected := []interface{}{[]interface{}{uint64(150), "merged"}}
	if !reflect.DeepEqual(value, expected) {
		t.Errorf("DecodeSchema = %#v, want %#v", value, expected)
	}
}

func TestDecodeSchema_PackedConcatenation(t *testing.T) {
	sch := mustFormat(t, "#V")

	// Two packed payloads for the same field decode as one sequence
	firstHalf := NewEncoder()
	firstHalf.EncodeVarint(1)
	firstHalf.EncodeVarint(2)

	secondHalf := NewEncoder()
	secondHalf.EncodeVarint(3)

	encoder := NewEncoder()
	encoder.EncodeHeader(1, WireBytes)
	encoder.EncodeBytes(firstHalf.Bytes())
	encoder.EncodeHeader(1, WireBytes)
	encoder.EncodeBytes(secondHalf.Bytes())

	value, err := DecodeSchema(sch, encoder.Bytes())
	if err != nil {
		t.Fatalf("DecodeSchema failed: %v", err)
	}
	expected := []interface{}{[]interface{}{uint64(1), uint64(2), uint64(3)}}
	if !reflect.DeepEqual(value, expected) {
		t.Errorf("DecodeSchema = %#v, want %#v", value, expected)
	}
}

func TestDecodeSchema_PackedNeedsLengthDelimited(t *testing.T) {
	sch := mustFormat(t, "#V")

	// A bare varint record where a packed payload is expected
	encoder := NewEncoder()
	encoder.EncodeHeader(1, WireVarint)
	encoder.EncodeVarint(1)

	_, err := DecodeSchema(sch, encoder.Bytes())
	var ce *CodecError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CodecError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "length-delimited") {
		t.Errorf("error %q does not mention length-delimited", err)
	}
}

func TestDecodeSchema_Map(t *testing.T) {
	sch := mustFields(t, []schema.KVField{
		{Name: "id", Spec: "V"},
		{Name: "tags", Spec: "+U@3"},
		{Name: "body", Spec: "[", Nested: []schema.KVField{
			{Name: "value", Spec: "V"},
		}},
	})

	encoder := NewEncoder()
	encoder.EncodeHeader(1, WireVarint)
	encoder.EncodeVarint(7)
	encoder.EncodeHeader(3, WireBytes)
	encoder.EncodeBytes([]byte("alpha"))
	encoder.EncodeHeader(3, WireBytes)
	encoder.EncodeBytes([]byte("beta"))

	nested := NewEncoder()
	nested.EncodeHeader(1, WireVarint)
	nested.EncodeVarint(150)
	encoder.EncodeHeader(4, WireBytes)
	encoder.EncodeBytes(nested.Bytes())

	value, err := DecodeSchema(sch, encoder.Bytes())
	if err != nil {
		t.Fatalf("DecodeSchema failed: %v", err)
	}

	expected := map[string]interface{}{
		"id":   uint64(7),
		"tags": []interface{}{"alpha", "beta"},
		"body": map[string]interface{}{"value": uint64(150)},
	}
	if !reflect.DeepEqual(value, expected) {
		t.Errorf("DecodeSchema = %#v, want %#v", value, expected)
	}
}

func TestDecodeSchema_EmptyInput(t *testing.T) {
	sch := mustFormat(t, "VU")

	value, err := DecodeSchema(sch, nil)
	if err != nil {
		t.Fatalf("DecodeSchema failed: %v", err)
	}
	if !reflect.DeepEqual(value, []interface{}{nil, nil}) {
		t.Errorf("DecodeSchema = %#v, want all nils", value)
	}
}
