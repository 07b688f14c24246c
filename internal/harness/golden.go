package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/taxilang/taxilang-sub000/internal/ir"
)

// Snapshot captures what a scenario compiled to. It serializes with
// canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Document     *ir.Document
	Diagnostics  []string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. The document is described with ir.Describe; diagnostics
// are rendered without positions so that snapshots do not depend on where
// the sources live.
func (s *Snapshot) toCanonicalMap() map[string]any {
	out := map[string]any{
		"scenario": s.ScenarioName,
		"document": ir.Describe(s.Document),
	}
	if len(s.Diagnostics) > 0 {
		diags := make([]any, len(s.Diagnostics))
		for i, d := range s.Diagnostics {
			diags[i] = d
		}
		out["diagnostics"] = diags
	}
	return out
}

// SnapshotOf builds the snapshot of a scenario result.
func SnapshotOf(name string, result *Result) *Snapshot {
	s := &Snapshot{ScenarioName: name, Document: result.Document}
	for _, d := range result.Diagnostics.Sorted() {
		s.Diagnostics = append(s.Diagnostics, fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message))
	}
	return s
}

// MarshalSnapshot renders a snapshot as canonical JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(SnapshotOf(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
