package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+FF61 sorts before U+10000 in UTF-8 but after it in UTF-16
	// (surrogate 0xD800 < 0xFF61).
	obj := IRObject{
		"\uff61":     IRInt(1),
		"\U00010000": IRInt(2),
		"a":          IRInt(3),
	}

	assert.Equal(t, []string{"a", "\U00010000", "\uff61"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"a", "aa", -1},
		{"A", "a", -1},
		{"", "a", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b IRValue
		want bool
	}{
		{"same string", IRString("x"), IRString("x"), true},
		{"different string", IRString("x"), IRString("y"), false},
		{"string vs int", IRString("1"), IRInt(1), false},
		{"null", IRNull{}, IRNull{}, true},
		{"null vs nil", IRNull{}, nil, false},
		{"nil vs nil", nil, nil, true},
		{"arrays", IRArray{IRInt(1), IRInt(2)}, IRArray{IRInt(1), IRInt(2)}, true},
		{"array order", IRArray{IRInt(1), IRInt(2)}, IRArray{IRInt(2), IRInt(1)}, false},
		{"array length", IRArray{IRInt(1)}, IRArray{IRInt(1), IRInt(1)}, false},
		{"nil array vs empty", IRArray(nil), IRArray{}, true},
		{"objects", IRObject{"a": IRBool(true)}, IRObject{"a": IRBool(true)}, true},
		{"object missing key", IRObject{"a": IRBool(true)}, IRObject{"b": IRBool(true)}, false},
		{"nested", IRObject{"a": IRArray{IRNull{}}}, IRObject{"a": IRArray{IRNull{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestFromGoAcceptedTypes(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "paid", IRString("paid")},
		{"bool", true, IRBool(true)},
		{"int", 10, IRInt(10)},
		{"int32", int32(-3), IRInt(-3)},
		{"uint8", uint8(7), IRInt(7)},
		{"uint64", uint64(42), IRInt(42)},
		{"json number", json.Number("12"), IRInt(12)},
		{"ir passthrough", IRString("x"), IRString("x")},
		{"slice any", []any{"a", 1}, IRArray{IRString("a"), IRInt(1)}},
		{"slice string", []string{"a", "b"}, IRArray{IRString("a"), IRString("b")}},
		{"slice int", []int{1, 2}, IRArray{IRInt(1), IRInt(2)}},
		{"map any", map[string]any{"k": 1}, IRObject{"k": IRInt(1)}},
		{"map string", map[string]string{"k": "v"}, IRObject{"k": IRString("v")}},
		{"map any any", map[any]any{"k": nil}, IRObject{"k": IRNull{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestFromGoRejectsUnserializable(t *testing.T) {
	type custom struct{ A int }

	tests := []struct {
		name  string
		input any
	}{
		{"float64", 3.14},
		{"float32", float32(1)},
		{"json float", json.Number("1.5")},
		{"json exponent", json.Number("1e3")},
		{"struct", custom{A: 1}},
		{"channel", make(chan int)},
		{"nested float", []any{"a", 2.5}},
		{"non-string key", map[any]any{1: "x"}},
		{"huge uint", uint64(1 << 63)},
		{"invalid utf8", "p\xffid"},
		{"invalid utf8 in slice", []string{"ok", "\xff"}},
		{"invalid utf8 key", map[string]any{"\xff": 1}},
		{"colliding keys", map[string]any{"e\u0301": 1, "\u00e9": 2}},
		{"nested nil", IRArray{IRInt(1), nil}},
		{"nil in object", IRObject{"a": IRArray{nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGo(tt.input)
			require.Error(t, err)
			assert.True(t, IsCode(err, ErrCodeUnserializableArgument), "got %v", err)
		})
	}
}

func TestFromGoArgsNamesPosition(t *testing.T) {
	_, err := FromGoArgs([]any{"ok", 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 1")
	assert.True(t, IsCode(err, ErrCodeUnserializableArgument))

	args, err := FromGoArgs([]any{"status", "paid"})
	require.NoError(t, err)
	assert.Equal(t, IRArray{IRString("status"), IRString("paid")}, args)
}

func TestFromGoNormalizesToNFC(t *testing.T) {
	got, err := FromGo(map[string]any{
		"cafe\u0301": []any{"e\u0301", IRString("e\u0301")},
	})
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"caf\u00e9": IRArray{IRString("\u00e9"), IRString("\u00e9")},
	}, got)
}

func TestNormalize(t *testing.T) {
	in := IRArray{IRString("e\u0301"), IRObject{"k": IRNull{}}, IRInt(3), IRBool(true)}

	got, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, IRArray{IRString("\u00e9"), IRObject{"k": IRNull{}}, IRInt(3), IRBool(true)}, got)
	assert.Equal(t, IRString("e\u0301"), in[0], "input is not modified")

	again, err := Normalize(got)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = Normalize(nil)
	assert.True(t, IsCode(err, ErrCodeUnserializableArgument))

	_, err = Normalize(IRObject{"a": IRArray{IRString("x"), nil}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["a"]: array[1]`)
}

func TestToGo(t *testing.T) {
	v := IRObject{
		"s": IRString("x"),
		"n": IRInt(3),
		"b": IRBool(false),
		"z": IRNull{},
		"a": IRArray{IRInt(1)},
	}

	got := ToGo(v)
	assert.Equal(t, map[string]any{
		"s": "x",
		"n": int64(3),
		"b": false,
		"z": nil,
		"a": []any{int64(1)},
	}, got)
}

func TestUnmarshalIRValue(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"a":[1,"x",true,null],"big":9007199254740993}`))
	require.NoError(t, err)

	want := IRObject{
		"a":   IRArray{IRInt(1), IRString("x"), IRBool(true), IRNull{}},
		"big": IRInt(9007199254740993),
	}
	assert.True(t, Equal(want, v))
}

func TestUnmarshalRejectsFloats(t *testing.T) {
	for _, input := range []string{`1.5`, `[1, 2.0]`, `{"a": 1e2}`} {
		_, err := UnmarshalIRValue([]byte(input))
		assert.Error(t, err, input)
	}
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	original := IRObject{
		"name":  IRString("cart"),
		"count": IRInt(5),
		"tags":  IRArray{IRString("a"), IRNull{}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `{"count":5,"name":"cart","tags":["a",null]}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, Equal(original, decoded))
}
