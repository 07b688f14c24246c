// Package cuetree decodes parse trees written as CUE values into
// syntax.Document nodes.
//
// The grammar front end is not part of this module. Fixtures, golden
// scenarios and the taxic CLI describe documents in CUE instead, using one
// struct per document:
//
//	namespace: "acme"
//	imports: ["base.Name"]
//	types: Person: fields: {
//		name: "Name"
//		age:  {type: "Age?", column: 2}
//	}
//	enums: Country: values: ["NZ", {name: "UK", synonyms: ["Region.GB"]}]
//	queries: [{find: ["Person[]"], as: {fields: name: "Name"}}]
//
// Positions come from the CUE source so that compiler diagnostics point at
// the fixture line that declared the node.
//
// The decoder is strict about shape (missing required keys, two accessors
// on one field) and returns a *DecodeError for those. It never judges
// meaning: unknown type names, bad operators and the like are left for the
// compiler to report.
package cuetree
