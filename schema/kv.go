package schema

import (
	"strconv"
)

// ===== KEY-VALUE DIALECT =====

// KVField is one entry of the key-value dialect: a field name plus a
// one-field fragment of the format-string grammar. A fragment ending in
// '[' opens a group whose members are carried in Nested; an entry with an
// empty Spec and a non-nil Nested is a group with no prefix.
type KVField struct {
	Name   string
	Spec   string
	Nested []KVField
}

// ParseFields compiles a key-value field list into a schema. Decoded
// values of such a schema are maps keyed by field name.
func ParseFields(fields []KVField) (*Schema, error) {
	sch, err := parseFields(fields)
	if err != nil {
		return nil, err
	}
	if err := checkOverlap(sch.Fields); err != nil {
		return nil, err
	}
	return sch, nil
}

func parseFields(kvs []KVField) (*Schema, error) {
	var fields []*Field
	fieldNumber := uint32(1)

	for _, kv := range kvs {
		fld, err := parseKVField(kv, &fieldNumber)
		if err != nil {
			return nil, err
		}
		if err := checkField(fld); err != nil {
			return nil, err
		}
		fields = append(fields, fld)
	}

	return &Schema{Fields: fields, named: true}, nil
}

// parseKVField compiles a single entry, advancing the field number
// counter past it.
func parseKVField(kv KVField, fieldNumber *uint32) (*Field, error) {
	spec := kv.Spec
	ptr := 0

	prefix := PrefixNone
	if ptr < len(spec) {
		switch spec[ptr] {
		case '*':
			prefix = PrefixRequired
			ptr++
		case '+':
			prefix = PrefixRepeated
			ptr++
		case '#':
			prefix = PrefixPacked
			ptr++
		}
	}

	// Group forms: a fragment ending in '[', or a bare nested list.
	if ptr >= len(spec) || spec[ptr] == '[' {
		if ptr < len(spec) && spec[ptr] == '[' {
			ptr++
		}
		if ptr != len(spec) {
			return nil, badFormat("trailing fragment %q in field %q", spec[ptr:], kv.Name)
		}
		if kv.Nested == nil {
			return nil, badFormat("field %q opens a group but carries no nested fields", kv.Name)
		}
		if kv.Name == "" {
			return nil, badFormat("nested field needs a name")
		}
		sub, err := parseFields(kv.Nested)
		if err != nil {
			return nil, err
		}
		if err := checkOverlap(sub.Fields); err != nil {
			return nil, err
		}
		fld := &Field{
			Number:    *fieldNumber,
			Type:      TypeBytes,
			Prefix:    prefix,
			Repeat:    1,
			Subschema: sub,
			Name:      kv.Name,
		}
		*fieldNumber++
		return fld, nil
	}

	if kv.Nested != nil {
		return nil, badFormat("field %q carries nested fields but %q does not open a group",
			kv.Name, spec)
	}

	c := spec[ptr]
	tc := TypeCode(c)
	if alias, ok := typeAliases[c]; ok {
		tc = alias
	} else if !tc.IsValid() {
		return nil, badFormat("invalid type %q in field %q", string(c), kv.Name)
	}
	ptr++

	repeat := uint32(1)
	if digits := scanDigits(spec, ptr); digits != "" {
		n, err := strconv.ParseUint(digits, 10, 32)
		if err != nil || n == 0 {
			return nil, badFormat("bad repeat count %q in field %q", digits, kv.Name)
		}
		// Copies reserve consecutive field numbers; only skip slots may
		// be copied in the key-value dialect, a named field is one slot.
		if tc != TypeSkip {
			return nil, badFormat("copy count is only allowed for skip fields, found %q in field %q",
				string(c)+digits, kv.Name)
		}
		repeat = uint32(n)
		ptr += len(digits)
	}

	fld := &Field{
		Number: *fieldNumber,
		Type:   tc,
		Prefix: prefix,
		Repeat: repeat,
		Name:   kv.Name,
	}

	if tc != TypeSkip && kv.Name == "" {
		return nil, badFormat("field number %d needs a name", fld.Number)
	}

	if ptr < len(spec) && spec[ptr] == '@' {
		ptr++
		digits := scanDigits(spec, ptr)
		if digits == "" {
			return nil, badFormat("field seek without a target in field %q", kv.Name)
		}
		n, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			return nil, badFormat("bad field seek %q in field %q", digits, kv.Name)
		}
		if err := checkSeekTarget(n); err != nil {
			return nil, err
		}
		fld.Number = uint32(n)
		ptr += len(digits)
	}

	if ptr != len(spec) {
		return nil, badFormat("trailing fragment %q in field %q", spec[ptr:], kv.Name)
	}

	*fieldNumber = fld.Number + repeat
	return fld, nil
}
