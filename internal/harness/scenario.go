package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

// Scenario defines a conformance test scenario: sources to compile and
// assertions on what the compiler produced.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Imports lists CUE sources compiled first, into a document the
	// sources may import types from.
	Imports []string `yaml:"imports,omitempty"`

	// Sources lists the CUE sources under test.
	Sources []string `yaml:"sources"`

	// Options configures the compiler.
	Options Options `yaml:"options,omitempty"`

	// Data holds table rows per model type, keyed by qualified type name.
	// Used by view_rows assertions.
	Data map[string][]map[string]any `yaml:"data,omitempty"`

	// Assertions validate the compiled document and its diagnostics.
	Assertions []Assertion `yaml:"assertions"`
}

// Options mirrors the compiler options a scenario may set.
type Options struct {
	// Partial keeps the best-effort document when errors are reported.
	Partial bool `yaml:"partial,omitempty"`

	// TypeChecker is disabled, warning or error. Defaults to error.
	TypeChecker string `yaml:"type_checker,omitempty"`

	// MaxDepth bounds nested resolution. Zero keeps the compiler default.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// Assertion validates the compiled document or its diagnostics.
type Assertion struct {
	// Type specifies the assertion type; see the Assert constants.
	Type string `yaml:"type"`

	// Name is the qualified type or view name (type_exists, field_type,
	// base_primitive, view_sql, view_rows).
	Name string `yaml:"name,omitempty"`

	// Code is the expected diagnostic code (diagnostic).
	Code string `yaml:"code,omitempty"`

	// Message is a substring of the expected diagnostic message (diagnostic).
	Message string `yaml:"message,omitempty"`

	// Severity is error or warning (diagnostic). Empty matches either.
	Severity string `yaml:"severity,omitempty"`

	// Count is the expected number of error diagnostics (error_count).
	Count int `yaml:"count,omitempty"`

	// Kind is the expected type kind: object, enum, alias, union... (type_exists).
	Kind string `yaml:"kind,omitempty"`

	// Field is the field name (field_type).
	Field string `yaml:"field,omitempty"`

	// Expect is the expected qualified type name (field_type, base_primitive).
	Expect string `yaml:"expect,omitempty"`

	// Contains is a substring of the expected SQL (view_sql).
	Contains string `yaml:"contains,omitempty"`

	// Rows are the expected view rows, in order (view_rows).
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertNoErrors      = "no_errors"
	AssertErrorCount    = "error_count"
	AssertDiagnostic    = "diagnostic"
	AssertTypeExists    = "type_exists"
	AssertFieldType     = "field_type"
	AssertBasePrimitive = "base_primitive"
	AssertViewSQL       = "view_sql"
	AssertViewRows      = "view_rows"
)

// LoadScenario reads and parses a scenario YAML file, resolving source
// paths relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for _, paths := range [][]string{scenario.Sources, scenario.Imports} {
		for i, p := range paths {
			if !filepath.IsAbs(p) {
				paths[i] = filepath.Join(base, p)
			}
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("sources list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range append(append([]string{}, s.Imports...), s.Sources...) {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", p)
		}
	}

	if _, err := typecheck.ParseMode(s.Options.TypeChecker); err != nil {
		return fmt.Errorf("options: %w", err)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNoErrors:
	case AssertErrorCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for error_count", index)
		}
	case AssertDiagnostic:
		if a.Code == "" && a.Message == "" {
			return fmt.Errorf("assertions[%d]: code or message is required for diagnostic", index)
		}
		if a.Severity != "" && a.Severity != "error" && a.Severity != "warning" {
			return fmt.Errorf("assertions[%d]: severity must be error or warning", index)
		}
	case AssertTypeExists:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for type_exists", index)
		}
	case AssertFieldType:
		if a.Name == "" || a.Field == "" || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: name, field and expect are required for field_type", index)
		}
	case AssertBasePrimitive:
		if a.Name == "" || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: name and expect are required for base_primitive", index)
		}
	case AssertViewSQL:
		if a.Name == "" || a.Contains == "" {
			return fmt.Errorf("assertions[%d]: name and contains are required for view_sql", index)
		}
	case AssertViewRows:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for view_rows", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
