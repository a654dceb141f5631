package schema

import (
	"strconv"
)

// ===== FORMAT-STRING DIALECT =====

// ParseFormat compiles a format string into a schema. The grammar is a
// sequence of fields, each an optional prefix ('*' required, '+' repeated,
// '#' packed-repeated) followed by either a bracketed subschema or a
// single type character with an optional repeat count and an optional
// '@N' field seek:
//
//	schema := field*
//	field  := prefix? ( '[' schema ']' ('@' digits)? | scalar )
//	scalar := type_char digits? ('@' digits)?
//
// A seek on a scalar places that field at number N; a seek after a
// bracketed group applies to the field following the group.
func ParseFormat(fmtstr string) (*Schema, error) {
	sch, err := parseFormat(fmtstr, 0)
	if err != nil {
		return nil, err
	}
	if err := checkOverlap(sch.Fields); err != nil {
		return nil, err
	}
	return sch, nil
}

// parseFormat parses one nesting level. base is the absolute offset of
// fmtstr within the outermost format string, used in error positions.
func parseFormat(fmtstr string, base int) (*Schema, error) {
	var fields []*Field
	ptr := 0
	fieldNumber := uint32(1) // field number 0 is invalid on the wire

	for ptr < len(fmtstr) {
		prefix := PrefixNone
		switch fmtstr[ptr] {
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

		if ptr >= len(fmtstr) {
			return nil, badFormat("dangling prefix on position %d", base+ptr)
		}

		if fmtstr[ptr] == '[' {
			end := matchBrace(fmtstr, ptr)
			if end < 0 {
				return nil, badFormat("unmatched brace on position %d", base+ptr)
			}
			sub, err := parseFormat(fmtstr[ptr+1:end], base+ptr+1)
			if err != nil {
				return nil, err
			}
			if err := checkOverlap(sub.Fields); err != nil {
				return nil, err
			}
			fld := &Field{
				Number:    fieldNumber,
				Type:      TypeBytes,
				Prefix:    prefix,
				Repeat:    1,
				Subschema: sub,
			}
			if err := checkField(fld); err != nil {
				return nil, err
			}
			fields = append(fields, fld)
			ptr = end + 1
			fieldNumber++

			// A seek after a group applies to the next field.
			if seek, n, err := parseSeek(fmtstr, &ptr, base); err != nil {
				return nil, err
			} else if seek {
				fieldNumber = n
			}
			continue
		}

		fld, err := parseScalar(fmtstr, &ptr, base, &fieldNumber)
		if err != nil {
			return nil, err
		}
		fld.Prefix = prefix
		if err := checkField(fld); err != nil {
			return nil, err
		}
		fields = append(fields, fld)
	}

	return &Schema{Fields: fields}, nil
}

// parseScalar consumes one scalar token at *ptr and advances the running
// field number counter past it.
func parseScalar(fmtstr string, ptr *int, base int, fieldNumber *uint32) (*Field, error) {
	c := fmtstr[*ptr]
	tc := TypeCode(c)
	if alias, ok := typeAliases[c]; ok {
		tc = alias
	} else if !tc.IsValid() {
		return nil, badFormat("invalid token on position %d", base+*ptr)
	}
	*ptr++

	repeat := uint32(1)
	if digits := scanDigits(fmtstr, *ptr); digits != "" {
		n, err := strconv.ParseUint(digits, 10, 32)
		if err != nil || n == 0 {
			return nil, badFormat("bad repeat count %q on position %d", digits, base+*ptr)
		}
		repeat = uint32(n)
		*ptr += len(digits)
	}

	fld := &Field{
		Number: *fieldNumber,
		Type:   tc,
		Repeat: repeat,
	}

	if seek, n, err := parseSeek(fmtstr, ptr, base); err != nil {
		return nil, err
	} else if seek {
		fld.Number = n
	}

	*fieldNumber = fld.Number + repeat
	return fld, nil
}

// parseSeek consumes an optional '@N' directive at *ptr.
func parseSeek(fmtstr string, ptr *int, base int) (bool, uint32, error) {
	if *ptr >= len(fmtstr) || fmtstr[*ptr] != '@' {
		return false, 0, nil
	}
	*ptr++
	digits := scanDigits(fmtstr, *ptr)
	if digits == "" {
		return false, 0, badFormat("field seek without a target on position %d", base+*ptr)
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return false, 0, badFormat("bad field seek %q on position %d", digits, base+*ptr)
	}
	if err := checkSeekTarget(n); err != nil {
		return false, 0, err
	}
	*ptr += len(digits)
	return true, uint32(n), nil
}

// checkField enforces the per-descriptor invariants shared by both
// dialects.
func checkField(f *Field) error {
	if f.Prefix == PrefixPacked {
		if f.Subschema != nil {
			return badFormat(
				"packed-repeated field %d cannot carry a nested message", f.Number)
		}
		if !f.Type.IsPackable() {
			return badFormat(
				"packed-repeated field %d must have a fixed or varint wire type", f.Number)
		}
	}
	if uint64(f.Number)+uint64(f.Repeat)-1 > MaxFieldNumber {
		return badFormat("field %d repeated %d times exceeds the maximum field number",
			f.Number, f.Repeat)
	}
	return nil
}

// matchBrace returns the index of the bracket matching fmtstr[start], or
// -1 when the brackets are unbalanced.
func matchBrace(fmtstr string, start int) int {
	if fmtstr[start] != '[' {
		return -1
	}
	depth := 1
	for i := start + 1; i < len(fmtstr); i++ {
		switch fmtstr[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// scanDigits returns the run of ASCII digits starting at pos.
func scanDigits(s string, pos int) string {
	end := pos
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[pos:end]
}
