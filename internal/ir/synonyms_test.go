package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynonymsAreTransitive(t *testing.T) {
	r := NewSynonymRegistry()
	r.Register("a.A.One", "b.B.Un", "a.A")
	r.Register("b.B.Un", "c.C.Eins", "b.B")

	assert.Equal(t, []QualifiedName{"b.B.Un", "c.C.Eins"}, r.Synonyms("a.A.One"))
	assert.Equal(t, []QualifiedName{"b.B.Un"}, r.Direct("a.A.One"))
	assert.Equal(t, []QualifiedName{"a.A.One", "b.B.Un"}, r.Synonyms("c.C.Eins"))
}

func TestSynonymsTerminateOnCycles(t *testing.T) {
	r := NewSynonymRegistry()
	r.Register("a.A.One", "b.B.Un", "a.A")
	r.Register("b.B.Un", "c.C.Eins", "b.B")
	r.Register("c.C.Eins", "a.A.One", "c.C")

	assert.Equal(t, []QualifiedName{"b.B.Un", "c.C.Eins"}, r.Synonyms("a.A.One"))
}

func TestSynonymProvenanceFirstWins(t *testing.T) {
	r := NewSynonymRegistry()
	r.Register("a.A.One", "b.B.Un", "a.A")
	r.Register("b.B.Un", "a.A.One", "b.B")

	p, ok := r.Provenance("b.B.Un", "a.A.One")
	assert.True(t, ok)
	assert.Equal(t, "a.A", p)

	r.Register("x.X.Self", "x.X.Self", "x.X")
	assert.Empty(t, r.Synonyms("x.X.Self"))
}

func TestSynonymMerge(t *testing.T) {
	r := NewSynonymRegistry()
	other := NewSynonymRegistry()
	other.Register("a.A.One", "b.B.Un", "a.A")
	r.Merge(other)
	r.Merge(nil)
	assert.Equal(t, []QualifiedName{"a.A.One", "b.B.Un"}, r.Names())
}
