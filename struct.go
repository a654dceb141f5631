package picowire

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/picowire/picowire/schema"
)

// The struct adapter lowers a tagged Go struct into the key-value dialect
// so record types can be declared once and reflected into a schema. Each
// exported field carries a `pw:"name,spec"` tag where spec is a one-field
// format fragment; fields whose fragment opens a group ('[') nest through
// their struct (or slice-of-struct) type.

// NewWireFromStruct reflects the tagged struct type of v into a
// name-keyed codec.
func NewWireFromStruct(v interface{}) (*Wire, error) {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, errors.New("v must be a struct or a pointer to a struct")
	}
	fields, err := structFields(rt)
	if err != nil {
		return nil, err
	}
	return NewWireFromFields(fields)
}

// EncodeStruct lowers a tagged struct value to a name-keyed map and
// encodes it.
func (w *Wire) EncodeStruct(v interface{}) ([]byte, error) {
	m, err := structToMap(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return w.EncodeMap(m)
}

// DecodeStruct decodes wire data and populates the tagged struct pointed
// to by v.
func (w *Wire) DecodeStruct(data []byte, v interface{}) error {
	m, err := w.DecodeMap(data)
	if err != nil {
		return err
	}
	return mapToStruct(m, v)
}

// structFields builds the key-value field list for a struct type.
func structFields(rt reflect.Type) ([]schema.KVField, error) {
	var fields []schema.KVField

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag, ok := sf.Tag.Lookup("pw")
		if !ok || tag == "-" {
			continue
		}

		name, spec, found := strings.Cut(tag, ",")
		if !found || name == "" || spec == "" {
			return nil, fmt.Errorf("field %s: pw tag needs \"name,spec\"", sf.Name)
		}

		kv := schema.KVField{Name: name, Spec: spec}

		if strings.HasSuffix(spec, "[") {
			elem := sf.Type
			for elem.Kind() == reflect.Ptr || elem.Kind() == reflect.Slice {
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct {
				return nil, fmt.Errorf("field %s: group fragment %q needs a struct type", sf.Name, spec)
			}
			nested, err := structFields(elem)
			if err != nil {
				return nil, err
			}
			kv.Nested = nested
		}

		fields = append(fields, kv)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("struct %s has no pw-tagged fields", rt.Name())
	}
	return fields, nil
}

// structToMap lowers a struct value to the name-keyed shape the encoder
// consumes. Nested structs become maps, slices stay slices.
func structToMap(rv reflect.Value) (map[string]interface{}, error) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct value, got %s", rv.Kind())
	}

	rt := rv.Type()
	result := make(map[string]interface{})

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag, ok := sf.Tag.Lookup("pw")
		if !ok || tag == "-" {
			continue
		}
		name, spec, found := strings.Cut(tag, ",")
		if !found {
			continue
		}

		value, err := lowerValue(rv.Field(i), strings.HasSuffix(spec, "["))
		if err != nil {
			return nil, fmt.Errorf("field %s: %v", sf.Name, err)
		}
		result[name] = value
	}

	return result, nil
}

// lowerValue converts one struct field value for the encoder.
func lowerValue(rv reflect.Value, nested bool) (interface{}, error) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := lowerValue(rv.Index(i), nested)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}

	if nested {
		return structToMap(rv)
	}
	return rv.Interface(), nil
}

// mapToStruct uses reflection to copy map values to struct fields
func mapToStruct(data map[string]interface{}, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.New("v must be a pointer to a struct")
	}

	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		// Try to find matching data by tag name first, then by field
		// name variants
		var value interface{}
		var found bool

		if tag, ok := fieldType.Tag.Lookup("pw"); ok && tag != "-" {
			name, _, _ := strings.Cut(tag, ",")
			if val, ok := data[name]; ok {
				value = val
				found = true
			}
		}

		if !found {
			if val, ok := data[fieldType.Name]; ok {
				value = val
				found = true
			}
		}

		if !found {
			if val, ok := data[strings.ToLower(fieldType.Name)]; ok {
				value = val
				found = true
			}
		}

		if !found {
			if val, ok := data[toSnakeCase(fieldType.Name)]; ok {
				value = val
				found = true
			}
		}

		if !found || value == nil {
			continue
		}

		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set field %s: %v", fieldType.Name, err)
		}
	}

	return nil
}

// setFieldValue sets a struct field value with appropriate type conversion
func setFieldValue(field reflect.Value, value interface{}) error {
	rv := reflect.ValueOf(value)

	switch field.Kind() {
	case reflect.String:
		if rv.Kind() == reflect.String {
			field.SetString(rv.String())
		} else {
			return fmt.Errorf("cannot convert %T to string", value)
		}
	case reflect.Bool:
		if rv.Kind() == reflect.Bool {
			field.SetBool(rv.Bool())
		} else {
			return fmt.Errorf("cannot convert %T to bool", value)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			field.SetInt(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			field.SetInt(int64(rv.Uint()))
		default:
			return fmt.Errorf("cannot convert %T to int", value)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch rv.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			field.SetUint(rv.Uint())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			field.SetUint(uint64(rv.Int()))
		default:
			return fmt.Errorf("cannot convert %T to uint", value)
		}
	case reflect.Float32, reflect.Float64:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			field.SetFloat(rv.Float())
		default:
			return fmt.Errorf("cannot convert %T to float", value)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.Uint8 {
			if b, ok := value.([]byte); ok {
				field.SetBytes(b)
				return nil
			}
			return fmt.Errorf("cannot convert %T to bytes", value)
		}
		list, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("cannot convert %T to slice", value)
		}
		out := reflect.MakeSlice(field.Type(), len(list), len(list))
		for i, elem := range list {
			if err := setFieldValue(out.Index(i), elem); err != nil {
				return err
			}
		}
		field.Set(out)
	case reflect.Struct:
		m, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot convert %T to struct", value)
		}
		return mapToStruct(m, field.Addr().Interface())
	case reflect.Ptr:
		elem := reflect.New(field.Type().Elem())
		if err := setFieldValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}

	return nil
}

// toSnakeCase converts CamelCase to snake_case
func toSnakeCase(s string) string {
	var out strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out.WriteByte('_')
			}
			out.WriteByte(byte(r - 'A' + 'a'))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}
