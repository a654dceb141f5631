package wire

import (
	"fmt"
	"math"
	"reflect"
)

// Value coercion helpers. Encoding accepts any Go integer flavor for the
// integer type codes, so values arriving from JSON (float64) or from
// reflection-lowered structs do not need pre-conversion by the caller.

// asInt64 coerces a value to a signed integer.
func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		if math.Trunc(n) != n {
			return 0, fmt.Errorf("cannot encode non-integral number %v as integer", n)
		}
		return int64(n), nil
	case float32:
		if math.Trunc(float64(n)) != float64(n) {
			return 0, fmt.Errorf("cannot encode non-integral number %v as integer", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("cannot encode %T as integer", v)
}

// asUint64 coerces a value to an unsigned integer.
func asUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	}
	n, err := asInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("cannot encode negative number %d as unsigned integer", n)
	}
	return uint64(n), nil
}

// asFloat64 coerces a value to a float.
func asFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	}
	n, err := asInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot encode %T as float", v)
	}
	return float64(n), nil
}

// asBool coerces a value to a boolean. Numbers count as true when
// non-zero.
func asBool(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if n, err := asInt64(v); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("cannot encode %T as bool", v)
}

// asBytes coerces a value to a byte slice.
func asBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("cannot encode %T as bytes", v)
}

// asString coerces a value to a string.
func asString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", fmt.Errorf("cannot encode %T as string", v)
}

// asList normalizes a repeated-field value to a slice of elements. Any
// slice or array type is accepted.
func asList(v interface{}) ([]interface{}, error) {
	if l, ok := v.([]interface{}); ok {
		return l, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("repeated field needs a slice value, got %T", v)
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
