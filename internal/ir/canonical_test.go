package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(-7), "-7"},
		{"bool", IRBool(false), "false"},
		{"decimal keeps digits", MustIRDecimal("10.50"), `"10.50"`},
		{"decimal exponent expanded", MustIRDecimal("1.5E+3"), `"1500"`},
		{"date", IRTemporal{Kind: TemporalDate, Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}, `"2024-03-01"`},
		{"go string", "x", `"x"`},
		{"go int", 3, "3"},
		{"string slice", []string{"b", "a"}, `["b","a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalKeyOrder(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zeta":  int64(1),
		"alpha": map[string]any{"b": true, "a": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":"x","b":true},"zeta":1}`, string(got))

	// U+10000 encodes as a surrogate pair (0xD800...) and sorts before U+E000
	// in UTF-16 order, although UTF-8 byte order says the opposite.
	got, err = MarshalCanonical(IRObject{"\uE000": IRInt(1), "\U00010000": IRInt(2)})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(got))
}

func TestMarshalCanonicalRejectsNullAndFloats(t *testing.T) {
	for _, v := range []any{nil, IRNull{}, 1.5, float32(2)} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%#v", v)
	}

	_, err := MarshalCanonical(map[string]any{"k": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"k"`)
}

func TestMarshalCanonicalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html not escaped", "<a> & <b>", `"<a> & <b>"`},
		{"control escaped", "a\nb", `"a\nb"`},
		{"quote escaped", `say "hi"`, `"say \"hi\""`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator literal", "a\u2029b", "\"a\u2029b\""},
		{"escaped backslash kept", `\u2028`, `"\\u2028"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed, err := MarshalCanonical(IRObject{"caf\u00e9": IRString("caf\u00e9")})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(IRObject{"cafe\u0301": IRString("cafe\u0301")})
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}
