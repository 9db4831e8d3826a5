package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	cases := map[string]struct {
		in   any
		want string
	}{
		"null":             {IRNull{}, "null"},
		"untyped nil":      {nil, "null"},
		"empty string":     {IRString(""), `""`},
		"negative":         {IRInt(-100), "-100"},
		"int64 max":        {IRInt(1<<63 - 1), "9223372036854775807"},
		"bools":            {IRArray{IRBool(true), IRBool(false)}, "[true,false]"},
		"empty containers": {IRArray{IRArray{}, IRObject{}}, "[[],{}]"},
		"nested keys":      {IRObject{"z": IRObject{"b": IRInt(1), "a": IRInt(2)}, "a": IRInt(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
		"go map":           {map[string]any{"b": 1, "a": []any{"x"}}, `{"a":["x"],"b":1}`},
		"step":             {IRObject{"where": IRArray{IRString("status"), IRString("paid")}}, `{"where":["status","paid"]}`},

		// strings
		"html left alone":  {IRString("a < b && c > d"), `"a < b && c > d"`},
		"quote":            {IRString(`say "hi"`), `"say \"hi\""`},
		"backslash":        {IRString(`C:\tmp`), `"C:\\tmp"`},
		"short escapes":    {IRString("\b\f\n\r\t"), `"\b\f\n\r\t"`},
		"control":          {IRString("\x01\x1f"), `"\u0001\u001f"`},
		"del kept":         {IRString("\x7f"), "\"\x7f\""},
		"line separators":  {IRString("a\u2028b\u2029c"), "\"a\u2028b\u2029c\""},
		"literal escape":   {IRString(`\u2028`), `"\\u2028"`},
		"astral":           {IRString("\U0001F600"), "\"\U0001F600\""},
		"decomposed kept":  {IRString("e\u0301"), "\"e\u0301\""},
		"composed kept":    {IRString("\u00e9"), "\"\u00e9\""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := MarshalCanonical(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestMarshalCanonical_KeyOrderIsUTF16(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16, where the
	// astral character becomes the surrogate pair D83D DE00.
	obj := IRObject{"\uff61": IRInt(1), "\U0001F600": IRInt(2)}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uff61\":1}", string(got))
}

func TestMarshalCanonical_Errors(t *testing.T) {
	cases := map[string]any{
		"float":          3.14,
		"float in map":   map[string]any{"price": 9.99},
		"nil in array":   IRArray{IRString("a"), nil},
		"nil in object":  IRObject{"a": nil},
		"unsupported go": struct{}{},
		"invalid utf8":   IRString("p\xffid"),
		"invalid key":    IRObject{"\xff": IRInt(1)},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MarshalCanonical(in)
			assert.Error(t, err)
		})
	}

	_, err := MarshalCanonical(2.5)
	assert.True(t, IsCode(err, ErrCodeUnserializableArgument))

	_, err = MarshalCanonical(IRString("a\xffb"))
	assert.True(t, IsCode(err, ErrCodeUnserializableArgument))
}

func TestMarshalCanonical_Stable(t *testing.T) {
	obj := IRObject{
		"where": IRArray{IRString("status"), IRString("paid")},
		"limit": IRArray{IRInt(10)},
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestIRObject_MarshalJSONIsCanonical(t *testing.T) {
	obj := IRObject{"b": IRInt(1), "a": IRString("<x>")}

	got, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x>","b":1}`, string(got))
}
