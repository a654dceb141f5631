package picowire

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/picowire/picowire/schema"
	"github.com/picowire/picowire/wire"
)

func TestPicowire_Parse(t *testing.T) {
	proto := NewPicowire()

	t.Run("empty_data", func(t *testing.T) {
		result, err := proto.Parse([]byte{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if len(result) != 0 {
			t.Errorf("Expected empty result, got %v", result)
		}
	})

	t.Run("simple_varint", func(t *testing.T) {
		// Field 1 = varint 42
		data, err := EncodeRaw([]wire.Record{
			{FieldNumber: 1, WireType: wire.WireVarint, Data: uint64(42)},
		})
		if err != nil {
			t.Fatalf("EncodeRaw failed: %v", err)
		}

		result, err := proto.Parse(data)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		expected := map[string]interface{}{
			"field_1": map[string]interface{}{
				"type":  "varint",
				"value": uint64(42),
			},
		}

		if !reflect.DeepEqual(result, expected) {
			t.Errorf("Expected %v, got %v", expected, result)
		}
	})

	t.Run("multiple_fields", func(t *testing.T) {
		data, err := EncodeRaw([]wire.Record{
			{FieldNumber: 1, WireType: wire.WireVarint, Data: uint64(123)},
			{FieldNumber: 2, WireType: wire.WireBytes, Data: []byte("hello")},
		})
		if err != nil {
			t.Fatalf("EncodeRaw failed: %v", err)
		}

		result, err := proto.Parse(data)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if len(result) != 2 {
			t.Fatalf("Expected 2 fields, got %d", len(result))
		}
		strField := result["field_2"].(map[string]interface{})
		if strField["type"] != "bytes" || !bytes.Equal(strField["value"].([]byte), []byte("hello")) {
			t.Errorf("Unexpected field_2: %v", strField)
		}
	})
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		fmtstr string
		values []interface{}
	}{
		{"varint", "V", []interface{}{150}},
		{"skip_string", "xU", []interface{}{"testing"}},
		{"packed", "x3#V", []interface{}{[]interface{}{3, 270, 86942}}},
		{"nested", "x2[V]", []interface{}{[]interface{}{150}}},
	}

	expected := [][]interface{}{
		{uint64(150)},
		{"testing"},
		{[]interface{}{uint64(3), uint64(270), uint64(86942)}},
		{[]interface{}{uint64(150)}},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.fmtstr, tc.values...)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			decoded, err := Decode(tc.fmtstr, data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if !reflect.DeepEqual(decoded, expected[i]) {
				t.Errorf("Round trip yielded %#v, want %#v", decoded, expected[i])
			}
		})
	}
}

func TestWire_ModeMismatch(t *testing.T) {
	positional, err := NewWire("V")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := positional.EncodeMap(map[string]interface{}{"a": 1}); err == nil {
		t.Error("expected an error encoding a map with a positional schema")
	}
	if _, err := positional.DecodeMap(nil); err == nil {
		t.Error("expected an error decoding to a map with a positional schema")
	}

	named, err := NewWireFromFields([]schema.KVField{{Name: "a", Spec: "V"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := named.Encode(1); err == nil {
		t.Error("expected an error encoding positional values with a name-keyed schema")
	}
	if _, err := named.Decode(nil); err == nil {
		t.Error("expected an error decoding positionally with a name-keyed schema")
	}
}

func TestWire_BadFormatString(t *testing.T) {
	_, err := NewWire("VU@1")
	if err == nil || !strings.Contains(err.Error(), "Multiple definitions found") {
		t.Errorf("expected a multiple definitions error, got %v", err)
	}
}

func TestWire_TruncatedInput(t *testing.T) {
	w, err := NewWire("xU")
	if err != nil {
		t.Fatal(err)
	}

	_, err = w.Decode([]byte{0x12, 0x07, 0x74, 0x65, 0x73, 0x74, 0x69})
	if err == nil || !strings.Contains(err.Error(), "Unexpected end of message") {
		t.Errorf("expected an end of message error, got %v", err)
	}
}

func TestPicowire_MarshalUnmarshalWithSchema(t *testing.T) {
	proto := NewPicowire()

	err := proto.RegisterMessage("User", []schema.KVField{
		{Name: "id", Spec: "V"},
		{Name: "name", Spec: "U"},
		{Name: "active", Spec: "b"},
	})
	if err != nil {
		t.Fatalf("RegisterMessage failed: %v", err)
	}

	input := map[string]interface{}{
		"id":     uint64(12345),
		"name":   "John Doe",
		"active": true,
	}

	data, err := proto.MarshalWithSchema(input, "User")
	if err != nil {
		t.Fatalf("MarshalWithSchema failed: %v", err)
	}

	output, err := proto.UnmarshalWithSchema(data, "User")
	if err != nil {
		t.Fatalf("UnmarshalWithSchema failed: %v", err)
	}

	if !reflect.DeepEqual(output, input) {
		t.Errorf("Round trip yielded %#v, want %#v", output, input)
	}

	t.Run("unknown_message", func(t *testing.T) {
		_, err := proto.MarshalWithSchema(input, "Nope")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected a not found error, got %v", err)
		}
	})
}

func TestPicowire_LoadSchemaFromFile(t *testing.T) {
	proto := NewPicowire()

	path := filepath.Join(t.TempDir(), "schemas.json")
	content := `{"Point": "V2", "Blob": "xa"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := proto.LoadSchemaFromFile(path); err != nil {
		t.Fatalf("LoadSchemaFromFile failed: %v", err)
	}

	t.Run("missing_file", func(t *testing.T) {
		err := proto.LoadSchemaFromFile(filepath.Join(t.TempDir(), "nope.json"))
		if err == nil {
			t.Error("expected an error for a missing schema file")
		}
	})

	t.Run("bad_schema", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(bad, []byte(`{"Broken": "VU@1"}`), 0o644); err != nil {
			t.Fatal(err)
		}
		err := proto.LoadSchemaFromFile(bad)
		if err == nil || !strings.Contains(err.Error(), "Multiple definitions found") {
			t.Errorf("expected a compile error, got %v", err)
		}
	})
}

func TestRawRoundTrip_PackageLevel(t *testing.T) {
	// Re-encoding a raw breakdown must reproduce the input bytes exactly
	original, err := Encode("iIfqQd", -1, 1, 1.0, int64(-12345678900), 1234567890, 3.141592653589793)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	records, err := DecodeRaw(original)
	if err != nil {
		t.Fatalf("DecodeRaw failed: %v", err)
	}

	reencoded, err := EncodeRaw(records)
	if err != nil {
		t.Fatalf("EncodeRaw failed: %v", err)
	}

	if !bytes.Equal(reencoded, original) {
		t.Errorf("raw round trip = %x, want %x", reencoded, original)
	}
}
