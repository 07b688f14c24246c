package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/diag"
)

func TestValidateDiscriminatorValid(t *testing.T) {
	doc := mustCompile(t, `
		types: {
			Animal: {modifiers: ["abstract"], discriminator: "kind", fields: kind: "String"}
			Dog: {inherits: ["Animal"], fields: barks: "Boolean"}
		}
	`)
	animal := doc.ObjectType("Animal")
	require.NotNil(t, animal)
	assert.Equal(t, "kind", animal.Definition().Discriminator)
}

func TestValidateDiscriminatorRequiresAbstract(t *testing.T) {
	_, diags := compileCUE(t, `
		types: Shape: {discriminator: "kind", fields: kind: "String"}
	`)
	assert.Equal(t,
		[]string{"Type Shape declares a discriminator, so it must be abstract"},
		messages(diags.Errors()))
}

func TestValidateDiscriminatorFieldMissing(t *testing.T) {
	_, diags := compileCUE(t, `
		types: Shape: {modifiers: ["abstract"], discriminator: "kind", fields: sides: "Int"}
	`)
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diag.NotDefined, errs[0].Code)
	assert.Equal(t, "Discriminator field kind is not defined on Shape", errs[0].Message)
}

func TestValidateInvalidModifier(t *testing.T) {
	_, diags := compileCUE(t, `types: Shape: {modifiers: ["sealed"], fields: sides: "Int"}`)
	assert.Equal(t, []string{"Modifier sealed is not valid on a type"}, messages(diags.Errors()))
}

func TestValidateSynonymTargets(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
		msg  string
	}{
		{
			name: "not an enum",
			src: `
				types: Thing: inherits: ["String"]
				enums: E: values: [{name: "A", synonyms: ["Thing.X"]}]`,
			code: diag.StructuralError,
			msg:  "Synonym of E.A refers to Thing, which is not an enum",
		},
		{
			name: "missing value",
			src: `
				enums: F: values: ["B"]
				enums: E: values: [{name: "A", synonyms: ["F.Z"]}]`,
			code: diag.NotDefined,
			msg:  "Synonym of E.A refers to F.Z, which is not defined",
		},
		{
			name: "not qualified",
			src:  `enums: E: values: [{name: "A", synonyms: ["Plain"]}]`,
			code: diag.StructuralError,
			msg:  "Synonym Plain of E.A must be written as Enum.Value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := compileCUE(t, tt.src)
			errs := diags.Errors()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.msg, errs[0].Message)
		})
	}
}

func TestValidateSynonymUndefinedEnum(t *testing.T) {
	_, diags := compileCUE(t, `enums: E: values: [{name: "A", synonyms: ["Nowhere.X"]}]`)
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diag.NotDefined, errs[0].Code)
	assert.Contains(t, errs[0].Message, "Nowhere is not defined")
}
