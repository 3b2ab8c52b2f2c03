package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stlc/internal/compiler"
)

// Scenario defines a conformance test scenario.
// A scenario compiles one traffic profile and checks the outcome: which
// diagnostics were reported, the shape of the program and the peak rates of
// the rate graph.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profile is the path to the profile to compile, relative to the
	// scenario file location.
	Profile string `yaml:"profile"`

	// Factor is the global rate multiplier. Zero means 1.
	Factor float64 `yaml:"factor,omitempty"`

	// LineSpeed is the port line speed in bits/sec. Zero means 10 Gb/s.
	LineSpeed float64 `yaml:"line_speed,omitempty"`

	// Expect is the expected compilation outcome.
	Expect ExpectClause `yaml:"expect"`

	// Assertions validate the program and the rate graph.
	// Supported types: max_pps, max_bps, max_bps_l1, expected_duration,
	// event_count, compacted_id, diagnostic
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected compilation outcome.
type ExpectClause struct {
	// OK is true when compilation is expected to succeed.
	OK bool `yaml:"ok"`

	// Errors lists the expected error codes, in report order.
	Errors []string `yaml:"errors,omitempty"`

	// Warnings lists the expected warning codes, in report order.
	Warnings []string `yaml:"warnings,omitempty"`

	// StreamCount is the expected number of compiled streams.
	StreamCount *int `yaml:"stream_count,omitempty"`

	// AllContinuous is the expected all-continuous flag of the program.
	AllContinuous *bool `yaml:"all_continuous,omitempty"`

	// LoopDetected is the expected loop flag of the rate graph.
	LoopDetected *bool `yaml:"loop_detected,omitempty"`
}

// Assertion validates one property of the result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "max_pps", "max_bps", "max_bps_l1": peak rate equals Value
	// - "expected_duration": duration equals Value, or is unbounded if Infinite
	// - "event_count": the rate graph holds Count events
	// - "compacted_id": stream Stream was compacted to ID
	// - "diagnostic": a diagnostic with Code was reported for stream Stream
	Type string `yaml:"type"`

	// Value is the expected number (rate and duration assertions).
	Value *float64 `yaml:"value,omitempty"`

	// Tolerance is the allowed absolute difference from Value.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Infinite expects an unbounded duration (expected_duration).
	Infinite bool `yaml:"infinite,omitempty"`

	// Count is the expected event count (event_count).
	Count *int `yaml:"count,omitempty"`

	// Stream is an original stream id (compacted_id, diagnostic).
	Stream *int `yaml:"stream,omitempty"`

	// ID is the expected compacted id (compacted_id).
	ID *int `yaml:"id,omitempty"`

	// Code is the expected diagnostic code (diagnostic).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertMaxPPS           = "max_pps"
	AssertMaxBPS           = "max_bps"
	AssertMaxBPSL1         = "max_bps_l1"
	AssertExpectedDuration = "expected_duration"
	AssertEventCount       = "event_count"
	AssertCompactedID      = "compacted_id"
	AssertDiagnostic       = "diagnostic"
)

// LoadScenario reads and parses a scenario YAML file.
// The profile path is resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the profile path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Profile != "" && !filepath.IsAbs(scenario.Profile) && basePath != "" {
		scenario.Profile = filepath.Join(basePath, scenario.Profile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files in dir, sorted by name.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Profile == "" {
		return fmt.Errorf("profile is required")
	}

	if s.Factor < 0 {
		return fmt.Errorf("factor must not be negative")
	}

	if s.LineSpeed < 0 {
		return fmt.Errorf("line_speed must not be negative")
	}

	if s.Expect.OK && len(s.Expect.Errors) > 0 {
		return fmt.Errorf("expect.errors must be empty when expect.ok is true")
	}

	for i, code := range s.Expect.Errors {
		if compiler.Code(code).IsWarning() {
			return fmt.Errorf("expect.errors[%d]: %s is a warning code", i, code)
		}
	}

	for i, code := range s.Expect.Warnings {
		if !compiler.Code(code).IsWarning() {
			return fmt.Errorf("expect.warnings[%d]: %s is not a warning code", i, code)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion[%d]: %w", i, err)
		}
	}

	return nil
}

// validateAssertion checks that an assertion has the fields its type needs.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertMaxPPS, AssertMaxBPS, AssertMaxBPSL1:
		if a.Value == nil {
			return fmt.Errorf("%s requires value", a.Type)
		}
	case AssertExpectedDuration:
		if a.Value == nil && !a.Infinite {
			return fmt.Errorf("%s requires value or infinite", a.Type)
		}
	case AssertEventCount:
		if a.Count == nil {
			return fmt.Errorf("%s requires count", a.Type)
		}
	case AssertCompactedID:
		if a.Stream == nil || a.ID == nil {
			return fmt.Errorf("%s requires stream and id", a.Type)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("%s requires code", a.Type)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative")
	}
	return nil
}
