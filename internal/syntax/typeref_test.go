package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		in         string
		name       string
		params     int
		nullable   bool
		collection bool
		str        string
	}{
		{in: "Foo", name: "Foo", str: "Foo"},
		{in: "acme.people.Foo", name: "acme.people.Foo", str: "acme.people.Foo"},
		{in: "Foo[]", name: "Array", params: 1, collection: true, str: "Foo[]"},
		{in: "Foo?", name: "Foo", nullable: true, str: "Foo?"},
		{in: "Array<Foo>", name: "Array", params: 1, collection: true, str: "Foo[]"},
		{in: "Map<String, acme.Foo[]>", name: "Map", params: 2, str: "Map<String, acme.Foo[]>"},
		{in: "Stream<Foo>", name: "Stream", params: 1, str: "Stream<Foo>"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := ParseTypeRef(tt.in, Pos{Source: "a.taxi", Line: 3, Column: 5})
			require.NoError(t, err)
			assert.Equal(t, tt.name, ref.Name)
			assert.Len(t, ref.Params, tt.params)
			assert.Equal(t, tt.nullable, ref.Nullable)
			assert.Equal(t, tt.collection, ref.IsCollection())
			assert.Equal(t, tt.str, ref.String())
			assert.Equal(t, 3, ref.Pos.Line)
		})
	}
}

func TestParseTypeRefNestedArray(t *testing.T) {
	ref := MustParseTypeRef("Foo[][]")
	require.True(t, ref.IsCollection())
	inner := ref.Member()
	require.True(t, inner.IsCollection())
	assert.Equal(t, "Foo", inner.Member().Name)
}

func TestParseTypeRefErrors(t *testing.T) {
	for _, in := range []string{"", "Array<Foo", "Foo>", ".Foo", "Map<,>", "Foo[x]"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTypeRef(in, NoPos)
			assert.Error(t, err)
		})
	}
}

func TestPosString(t *testing.T) {
	assert.Equal(t, "-", NoPos.String())
	assert.Equal(t, "a.taxi:2:4", Pos{Source: "a.taxi", Line: 2, Column: 4}.String())
	assert.True(t, Pos{Source: "a", Line: 1}.Before(Pos{Source: "a", Line: 2}))
	assert.False(t, Pos{Source: "b", Line: 1}.Before(Pos{Source: "a", Line: 2}))
}
