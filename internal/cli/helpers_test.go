package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const peopleSrc = `namespace: "acme"
types: {
	Name: inherits: ["String"]
	Person: fields: {
		name: "Name"
		age:  "Int"
	}
}
`

const brokenSrc = `namespace: "acme"
types: Person: fields: name: "Nmae"
`

// mismatchSrc is a TypeMismatch: an error by default, a warning with
// --type-checker warning.
const mismatchSrc = `types: Age: fields: years: {type: "Int", by: {lit: "old"}}
`

const shopSrc = `namespace: "shop"
types: {
	PersonId: inherits: ["String"]
	Person: fields: {
		id:  "PersonId"
		age: "Int"
	}
	Order: fields: {
		buyer: "PersonId"
		total: "Decimal"
	}
}
views: Spend: finds: [{
	types: ["Person[]", "Order[]"]
	where: {op: ">=", left: {path: "age"}, right: {value: 18}}
	as: fields: {
		who:   {type: "PersonId", attr: "Person::id"}
		total: by: {call: "sumOver", args: [{attr: "Order::total"}]}
	}
}]
`

// writeFiles creates files (relative path -> content) in a fresh temp dir
// and returns the dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
