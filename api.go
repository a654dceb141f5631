package picowire

import (
	"fmt"

	"github.com/picowire/picowire/registry"
	"github.com/picowire/picowire/schema"
	"github.com/picowire/picowire/wire"
)

// Picowire is the main interface for the library.
type Picowire interface {
	// Parse parses the given data into a map of string to interface.
	// This is used when the schema is not known.
	Parse(data []byte) (map[string]interface{}, error)

	// MarshalWithSchema marshals data using a registered message schema
	MarshalWithSchema(data map[string]interface{}, messageName string) ([]byte, error)

	// UnmarshalWithSchema unmarshals data using a registered message schema
	UnmarshalWithSchema(data []byte, messageName string) (map[string]interface{}, error)

	// UnmarshalToStruct unmarshals wire data into a Go struct using reflection
	UnmarshalToStruct(data []byte, messageName string, v interface{}) error

	// RegisterMessage compiles a key-value field list and registers it
	// under messageName
	RegisterMessage(messageName string, fields []schema.KVField) error

	// LoadSchemaFromFile loads named format-string definitions from a
	// JSON schema file
	LoadSchemaFromFile(path string) error
}

type picowire struct {
	registry *registry.Registry
}

// NewPicowire creates a Picowire instance with an empty schema registry.
func NewPicowire() Picowire {
	return &picowire{registry: registry.NewRegistry()}
}

// Parse implements Picowire - parses wire data without schema knowledge.
func (p *picowire) Parse(data []byte) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if len(data) == 0 {
		return result, nil
	}

	records, err := wire.DecodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode field: %v", err)
	}

	for _, rec := range records {
		// Use the field number as key since we don't have a schema
		fieldKey := fmt.Sprintf("field_%d", rec.FieldNumber)

		var typeName string
		switch rec.WireType {
		case wire.WireVarint:
			typeName = "varint"
		case wire.WireFixed64:
			typeName = "fixed64"
		case wire.WireBytes:
			typeName = "bytes"
		case wire.WireFixed32:
			typeName = "fixed32"
		default:
			typeName = "unknown"
		}

		result[fieldKey] = map[string]interface{}{
			"type":  typeName,
			"value": rec.Data,
		}
	}

	return result, nil
}

// RegisterMessage compiles a key-value field list and registers it.
func (p *picowire) RegisterMessage(messageName string, fields []schema.KVField) error {
	return p.registry.RegisterFields(messageName, fields)
}

// LoadSchemaFromFile loads named format-string definitions from a JSON file.
func (p *picowire) LoadSchemaFromFile(path string) error {
	return p.registry.LoadSchemaFile(path)
}

// MarshalWithSchema marshals data using a registered message schema.
func (p *picowire) MarshalWithSchema(data map[string]interface{}, messageName string) ([]byte, error) {
	sch, err := p.registry.GetSchema(messageName)
	if err != nil {
		return nil, fmt.Errorf("message schema not found: %v", err)
	}
	if !sch.Named() {
		return nil, fmt.Errorf("message %q is positional, it cannot marshal a map", messageName)
	}
	return wire.EncodeSchema(sch, data)
}

// UnmarshalWithSchema unmarshals data using a registered message schema.
func (p *picowire) UnmarshalWithSchema(data []byte, messageName string) (map[string]interface{}, error) {
	sch, err := p.registry.GetSchema(messageName)
	if err != nil {
		return nil, fmt.Errorf("message schema not found: %v", err)
	}
	if !sch.Named() {
		return nil, fmt.Errorf("message %q is positional, it cannot unmarshal to a map", messageName)
	}
	value, err := wire.DecodeSchema(sch, data)
	if err != nil {
		return nil, err
	}
	return value.(map[string]interface{}), nil
}

// UnmarshalToStruct unmarshals wire data into a Go struct using reflection.
func (p *picowire) UnmarshalToStruct(data []byte, messageName string, v interface{}) error {
	result, err := p.UnmarshalWithSchema(data, messageName)
	if err != nil {
		return err
	}
	return mapToStruct(result, v)
}

// ===== SCHEMA-BOUND CODEC =====

// Wire binds a compiled schema to the encoder and decoder. A Wire is safe
// for concurrent use once its settings are in place.
type Wire struct {
	sch *schema.Schema
}

// NewWire compiles a format string into a positional codec.
func NewWire(fmtstr string) (*Wire, error) {
	sch, err := schema.ParseFormat(fmtstr)
	if err != nil {
		return nil, err
	}
	return &Wire{sch: sch}, nil
}

// NewWireFromFields compiles a key-value field list into a name-keyed
// codec.
func NewWireFromFields(fields []schema.KVField) (*Wire, error) {
	sch, err := schema.ParseFields(fields)
	if err != nil {
		return nil, err
	}
	return &Wire{sch: sch}, nil
}

// Schema returns the compiled schema backing this codec.
func (w *Wire) Schema() *schema.Schema { return w.sch }

// SetVint2scBits sets the two's complement width used by 't' fields.
func (w *Wire) SetVint2scBits(bits uint) error { return w.sch.SetVint2scBits(bits) }

// SetAllowSparse makes map encoding treat missing keys as nil.
func (w *Wire) SetAllowSparse(allow bool) { w.sch.SetAllowSparse(allow) }

// Encode encodes positional values against a format-string schema.
func (w *Wire) Encode(values ...interface{}) ([]byte, error) {
	if w.sch.Named() {
		return nil, fmt.Errorf("name-keyed schema cannot encode positional values, use EncodeMap")
	}
	return wire.EncodeSchema(w.sch, values)
}

// Decode decodes wire data into positional values.
func (w *Wire) Decode(data []byte) ([]interface{}, error) {
	if w.sch.Named() {
		return nil, fmt.Errorf("name-keyed schema cannot decode positional values, use DecodeMap")
	}
	value, err := wire.DecodeSchema(w.sch, data)
	if err != nil {
		return nil, err
	}
	return value.([]interface{}), nil
}

// EncodeMap encodes a name-keyed value against a key-value schema.
func (w *Wire) EncodeMap(m map[string]interface{}) ([]byte, error) {
	if !w.sch.Named() {
		return nil, fmt.Errorf("positional schema cannot encode a map, use Encode")
	}
	return wire.EncodeSchema(w.sch, m)
}

// DecodeMap decodes wire data into a name-keyed map.
func (w *Wire) DecodeMap(data []byte) (map[string]interface{}, error) {
	if !w.sch.Named() {
		return nil, fmt.Errorf("positional schema cannot decode to a map, use Decode")
	}
	value, err := wire.DecodeSchema(w.sch, data)
	if err != nil {
		return nil, err
	}
	return value.(map[string]interface{}), nil
}

// ===== PACKAGE-LEVEL CONVENIENCE =====

// Encode compiles fmtstr and encodes the given values in one call.
func Encode(fmtstr string, values ...interface{}) ([]byte, error) {
	w, err := NewWire(fmtstr)
	if err != nil {
		return nil, err
	}
	return w.Encode(values...)
}

// Decode compiles fmtstr and decodes data in one call.
func Decode(fmtstr string, data []byte) ([]interface{}, error) {
	w, err := NewWire(fmtstr)
	if err != nil {
		return nil, err
	}
	return w.Decode(data)
}

// EncodeRaw encodes a sequence of raw wire records. Useful for working
// with messages whose schema is unknown.
func EncodeRaw(records []wire.Record) ([]byte, error) {
	return wire.EncodeRaw(records)
}

// DecodeRaw breaks wire data down into raw records. Useful for analyzing
// messages whose schema is unknown.
func DecodeRaw(data []byte) ([]wire.Record, error) {
	return wire.DecodeRaw(data)
}
