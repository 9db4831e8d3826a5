package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// IRValue is a sealed interface representing the argument values a chain step
// may carry. Only IRNull, IRString, IRInt, IRBool, IRArray, and IRObject
// implement it. Every member has an exact representation in the structured
// mapping, JSON, and YAML encodings.
//
// NO IRFloat - floats do not round-trip identically between JSON and YAML and
// would make chain hashes unstable.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a null argument (e.g. where("deleted_at", nil)).
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value in the IR.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value in the IR.
// Always int64, never float64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value in the IR.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// NewIRArray creates an IRArray from values.
func NewIRArray(vals ...IRValue) IRArray {
	return IRArray(vals)
}

// IRPair represents a key-value pair for typed IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// O is a shorthand for IRPair.
// Example: NewIRObjectFromPairs(O("status", IRString("paid")), O("limit", IRInt(5)))
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// NewIRObjectFromPairs creates an IRObject from typed key-value pairs.
func NewIRObjectFromPairs(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// Equal reports whether two IR values are structurally identical.
// A nil IRValue only equals another nil.
func Equal(a, b IRValue) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRInt:
		bv, ok := b.(IRInt)
		return ok && av == bv
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case IRObject:
		bv, ok := b.(IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// UnmarshalJSON implements json.Unmarshaler for IRObject.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*obj = make(IRObject, len(raw))
	for k, v := range raw {
		val, err := UnmarshalIRValue(v)
		if err != nil {
			return fmt.Errorf("IRObject key %q: %w", k, err)
		}
		(*obj)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for IRArray.
func (arr *IRArray) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(IRArray, len(raw))
	for i, v := range raw {
		val, err := UnmarshalIRValue(v)
		if err != nil {
			return fmt.Errorf("IRArray index %d: %w", i, err)
		}
		(*arr)[i] = val
	}
	return nil
}

// MarshalJSON implements json.Marshaler for IRObject with RFC 8785 key order.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	return marshalCanonicalObject(obj)
}

// MarshalJSON implements json.Marshaler for IRArray.
func (arr IRArray) MarshalJSON() ([]byte, error) {
	return marshalCanonicalArray(arr)
}

// UnmarshalIRValue deserializes one JSON value into an IRValue.
// Numbers are decoded with UseNumber so large integers keep full precision;
// any number with a fraction or exponent is rejected.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	return FromGo(raw)
}

// FromGo converts a Go value into an IRValue.
//
// Accepted inputs: nil, IRValue, string, bool, every signed and unsigned
// integer kind that fits int64, json.Number holding an integer, []any,
// []string, []int, []int64, map[string]any, map[string]string, and
// map[any]any with string keys (as produced by some YAML decoders).
// Anything else fails with an UNSERIALIZABLE_ARGUMENT error. The result
// is passed through Normalize.
func FromGo(v any) (IRValue, error) {
	raw, err := fromGo(v)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

// fromGo converts without normalizing.
func fromGo(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int, int8, int16, int32, int64:
		return IRInt(reflect.ValueOf(val).Int()), nil
	case uint, uint8, uint16, uint32, uint64:
		return fromUint(reflect.ValueOf(val).Uint())
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, unserializable("floats are not representable in a chain: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, unserializable("number out of int64 range: %s", s)
		}
		return IRInt(n), nil
	case float32, float64:
		return nil, unserializable("floats are not representable in a chain: %v", val)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := fromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case []string:
		return arrayOf(val, func(x string) IRValue { return IRString(x) }), nil
	case []int:
		return arrayOf(val, func(x int) IRValue { return IRInt(x) }), nil
	case []int64:
		return arrayOf(val, func(x int64) IRValue { return IRInt(x) }), nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := fromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	case map[string]string:
		obj := make(IRObject, len(val))
		for k, s := range val {
			obj[k] = IRString(s)
		}
		return obj, nil
	case map[any]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, unserializable("object key %v (%T) is not a string", k, k)
			}
			irElem, err := fromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", key, err)
			}
			obj[key] = irElem
		}
		return obj, nil
	default:
		return nil, unserializable("unsupported argument type %T", v)
	}
}

func arrayOf[T any](xs []T, conv func(T) IRValue) IRArray {
	arr := make(IRArray, len(xs))
	for i, x := range xs {
		arr[i] = conv(x)
	}
	return arr
}

func fromUint(n uint64) (IRValue, error) {
	if n > 1<<63-1 {
		return nil, unserializable("number out of int64 range: %d", n)
	}
	return IRInt(int64(n)), nil
}

// FromGoArgs converts a variadic argument list into an IRArray.
// The error names the offending argument position.
func FromGoArgs(args []any) (IRArray, error) {
	out := make(IRArray, len(args))
	for i, a := range args {
		v, err := FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ToGo converts an IRValue into plain Go values: nil, string, int64, bool,
// []any and map[string]any. Used where a library needs native types
// (YAML emitters, database drivers).
func ToGo(v IRValue) any {
	switch val := v.(type) {
	case nil, IRNull:
		return nil
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRBool:
		return bool(val)
	case IRArray:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case IRObject:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// Normalize checks that v is a complete value tree and returns a copy with
// every string and object key in Unicode NFC. Every recorded argument goes
// through it, so the JSON, YAML and mapping forms all carry the same bytes.
//
// A nil member, a string that is not valid UTF-8, or two object keys that
// become equal under NFC fail with UNSERIALIZABLE_ARGUMENT.
func Normalize(v IRValue) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, unserializable("nil IRValue")
	case IRNull, IRInt, IRBool:
		return val, nil
	case IRString:
		s, err := normalizeString(string(val))
		if err != nil {
			return nil, err
		}
		return IRString(s), nil
	case IRArray:
		out := make(IRArray, len(val))
		for i, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case IRObject:
		out := make(IRObject, len(val))
		for _, k := range val.SortedKeys() {
			key, err := normalizeString(k)
			if err != nil {
				return nil, fmt.Errorf("object key: %w", err)
			}
			if _, dup := out[key]; dup {
				return nil, unserializable("object keys collide under NFC: %q", key)
			}
			n, err := Normalize(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			out[key] = n
		}
		return out, nil
	default:
		return nil, unserializable("unsupported IRValue %T", v)
	}
}

func normalizeString(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", unserializable("string %q is not valid UTF-8", s)
	}
	return norm.NFC.String(s), nil
}

func unserializable(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeUnserializableArgument,
		Message: fmt.Sprintf(format, args...),
		Step:    -1,
	}
}
