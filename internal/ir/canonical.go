package ir

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// MarshalCanonical encodes v as RFC 8785 canonical JSON. Chain hashes and
// the JSON wire format are both built on it, so equal chains always yield
// equal bytes.
//
// Compared with encoding/json:
//  1. object keys are ordered by UTF-16 code units
//  2. only '"', '\\' and control characters are escaped (no HTML or
//     U+2028/U+2029 escaping)
//  3. strings must be valid UTF-8 and are written byte for byte
//  4. floats are rejected
//
// Strings are not normalized here; Normalize does that when a value is
// recorded, so the encoding never alters an argument.
//
// v may be an IRValue tree or any Go shape FromGo accepts.
func MarshalCanonical(v any) ([]byte, error) {
	iv, ok := v.(IRValue)
	if !ok {
		var err error
		if iv, err = FromGo(v); err != nil {
			return nil, fmt.Errorf("canonical JSON: %w", err)
		}
	}
	return appendCanonical(nil, iv)
}

func appendCanonical(dst []byte, v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, errors.New("nil IRValue")
	case IRNull:
		return append(dst, "null"...), nil
	case IRString:
		return appendCanonicalString(dst, string(val))
	case IRInt:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case IRBool:
		return strconv.AppendBool(dst, bool(val)), nil
	case IRArray:
		return appendCanonicalArray(dst, val)
	case IRObject:
		return appendCanonicalObject(dst, val)
	default:
		return nil, fmt.Errorf("unknown IRValue %T", v)
	}
}

func appendCanonicalArray(dst []byte, arr IRArray) ([]byte, error) {
	dst = append(dst, '[')
	for i, elem := range arr {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendCanonical(dst, elem); err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	return append(dst, ']'), nil
}

func appendCanonicalObject(dst []byte, obj IRObject) ([]byte, error) {
	dst = append(dst, '{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendCanonicalString(dst, k); err != nil {
			return nil, fmt.Errorf("object key: %w", err)
		}
		dst = append(dst, ':')
		if dst, err = appendCanonical(dst, obj[k]); err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
	}
	return append(dst, '}'), nil
}

func marshalCanonicalArray(arr IRArray) ([]byte, error) {
	return appendCanonicalArray(nil, arr)
}

func marshalCanonicalObject(obj IRObject) ([]byte, error) {
	return appendCanonicalObject(nil, obj)
}

const hexDigits = "0123456789abcdef"

// appendCanonicalString writes s as a JSON string literal.
func appendCanonicalString(dst []byte, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, unserializable("string %q is not valid UTF-8", s)
	}
	dst = append(dst, '"')
	for _, r := range s {
		switch {
		case r == '"':
			dst = append(dst, '\\', '"')
		case r == '\\':
			dst = append(dst, '\\', '\\')
		case r == '\b':
			dst = append(dst, '\\', 'b')
		case r == '\f':
			dst = append(dst, '\\', 'f')
		case r == '\n':
			dst = append(dst, '\\', 'n')
		case r == '\r':
			dst = append(dst, '\\', 'r')
		case r == '\t':
			dst = append(dst, '\\', 't')
		case r < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[r>>4], hexDigits[r&0xf])
		default:
			dst = utf8.AppendRune(dst, r)
		}
	}
	return append(dst, '"'), nil
}
