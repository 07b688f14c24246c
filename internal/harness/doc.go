// Package harness provides conformance testing for the Taxi compiler.
//
// The harness compiles CUE parse-tree sources, then checks the compiled
// document and its diagnostics against assertions written in YAML.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	imports:
//	  - base.cue
//	sources:
//	  - people.cue
//	options:
//	  partial: false
//	  type_checker: warning
//	data:
//	  acme.Person:
//	    - { id: "p1", age: 30 }
//	assertions:
//	  - type: no_errors
//	  - type: field_type
//	    name: acme.Person
//	    field: age
//	    expect: acme.Age
//	  - type: view_rows
//	    name: acme.Adults
//	    rows:
//	      - { id: "p1" }
//
// Source and import paths are relative to the scenario file.
//
// # Assertion Types
//
//   - no_errors: No error-severity diagnostics were reported
//   - error_count: Exactly count error diagnostics were reported
//   - diagnostic: A diagnostic with the code (and message substring) exists
//   - type_exists: The document defines name, optionally of kind
//   - field_type: Field field of model name has type expect
//   - base_primitive: Type name has base primitive expect
//   - view_sql: The SQL of view name contains contains
//   - view_rows: View name, run over data, returns exactly rows
//
// # Deterministic Testing
//
// Every scenario compiles with sequential synthesized names
// (AnonymousQuery$1, ...) so that golden snapshots of the described
// document are stable. View rows run against an in-memory SQLite database
// isolated per scenario.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
