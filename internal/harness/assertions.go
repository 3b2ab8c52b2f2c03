package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/stlc/internal/compiler"
)

// AssertionError is returned when an assertion fails.
// It includes the reported diagnostics to help debug the failure.
type AssertionError struct {
	Type        string // Assertion type for categorization
	Expected    string // Human-readable expected outcome
	Actual      string // Human-readable actual outcome
	Diagnostics compiler.Diagnostics
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if n := len(e.Diagnostics.Errors) + len(e.Diagnostics.Warnings); n > 0 {
		fmt.Fprintf(&buf, "\nDiagnostics:\n")
		for _, d := range e.Diagnostics.Errors {
			fmt.Fprintf(&buf, "  %s\n", d.Error())
		}
		for _, d := range e.Diagnostics.Warnings {
			fmt.Fprintf(&buf, "  %s\n", d.Error())
		}
	}

	return buf.String()
}

// checkExpect compares the compilation outcome with the expect clause.
func checkExpect(result *Result, expect ExpectClause) []string {
	var errors []string
	fail := func(typ, expected, actual string) {
		errors = append(errors, (&AssertionError{
			Type:        typ,
			Expected:    expected,
			Actual:      actual,
			Diagnostics: result.Diagnostics,
		}).Error())
	}

	ok := result.Program != nil
	if ok != expect.OK {
		fail("ok", fmt.Sprintf("ok=%t", expect.OK), fmt.Sprintf("ok=%t", ok))
	}

	if got := codesOf(result.Diagnostics.Errors); !equalCodes(got, expect.Errors) {
		fail("errors", formatCodes(expect.Errors), formatCodes(got))
	}
	if got := codesOf(result.Diagnostics.Warnings); !equalCodes(got, expect.Warnings) {
		fail("warnings", formatCodes(expect.Warnings), formatCodes(got))
	}

	if expect.StreamCount != nil {
		got := 0
		if result.Program != nil {
			got = result.Program.Len()
		}
		if got != *expect.StreamCount {
			fail("stream_count", fmt.Sprint(*expect.StreamCount), fmt.Sprint(got))
		}
	}

	if expect.AllContinuous != nil {
		if result.Program == nil {
			fail("all_continuous", fmt.Sprint(*expect.AllContinuous), "no program")
		} else if result.Program.AllContinuous != *expect.AllContinuous {
			fail("all_continuous", fmt.Sprint(*expect.AllContinuous), fmt.Sprint(result.Program.AllContinuous))
		}
	}

	if expect.LoopDetected != nil {
		if result.Graph == nil {
			fail("loop_detected", fmt.Sprint(*expect.LoopDetected), "no rate graph")
		} else if result.Graph.LoopDetected() != *expect.LoopDetected {
			fail("loop_detected", fmt.Sprint(*expect.LoopDetected), fmt.Sprint(result.Graph.LoopDetected()))
		}
	}

	return errors
}

// assertRate checks one of the peak rates of the rate graph.
func assertRate(result *Result, a Assertion) error {
	if result.Graph == nil {
		return errNoGraph(a.Type)
	}
	var got float64
	switch a.Type {
	case AssertMaxPPS:
		got = result.Graph.MaxPPS()
	case AssertMaxBPS:
		got = result.Graph.MaxBPS()
	case AssertMaxBPSL1:
		got = result.Graph.MaxBPSL1()
	}
	if !within(got, *a.Value, a.Tolerance) {
		return &AssertionError{
			Type:     a.Type,
			Expected: formatValue(*a.Value, a.Tolerance),
			Actual:   fmt.Sprint(got),
		}
	}
	return nil
}

// assertDuration checks the expected duration of the rate graph.
func assertDuration(result *Result, a Assertion) error {
	if result.Graph == nil {
		return errNoGraph(a.Type)
	}
	got := result.Graph.ExpectedDuration()
	if a.Infinite {
		if !math.IsInf(got, 1) {
			return &AssertionError{Type: a.Type, Expected: "unbounded", Actual: fmt.Sprint(got)}
		}
		return nil
	}
	if math.IsInf(got, 1) || !within(got, *a.Value, a.Tolerance) {
		return &AssertionError{
			Type:     a.Type,
			Expected: formatValue(*a.Value, a.Tolerance),
			Actual:   fmt.Sprint(got),
		}
	}
	return nil
}

// assertEventCount checks the number of rate events.
func assertEventCount(result *Result, a Assertion) error {
	if result.Graph == nil {
		return errNoGraph(a.Type)
	}
	if got := len(result.Graph.Events()); got != *a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(got)}
	}
	return nil
}

// assertCompactedID checks the compacted id assigned to an original stream id.
func assertCompactedID(result *Result, a Assertion) error {
	expected := fmt.Sprintf("stream %d compacted to %d", *a.Stream, *a.ID)
	if result.Program == nil {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "no program", Diagnostics: result.Diagnostics}
	}
	for _, e := range result.Program.Entries {
		if e.OriginalID != *a.Stream {
			continue
		}
		if e.Stream.ID != *a.ID {
			return &AssertionError{
				Type:     a.Type,
				Expected: expected,
				Actual:   fmt.Sprintf("stream %d compacted to %d", *a.Stream, e.Stream.ID),
			}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: "stream not in program"}
}

// assertDiagnostic checks that a diagnostic with the given code was reported,
// optionally for a given stream.
func assertDiagnostic(result *Result, a Assertion) error {
	all := append(append([]*compiler.Diagnostic{}, result.Diagnostics.Errors...), result.Diagnostics.Warnings...)
	for _, d := range all {
		if string(d.Code) != a.Code {
			continue
		}
		if a.Stream == nil || d.StreamID == *a.Stream {
			return nil
		}
	}

	expected := a.Code
	if a.Stream != nil {
		expected = fmt.Sprintf("%s for stream %d", a.Code, *a.Stream)
	}
	return &AssertionError{
		Type:        a.Type,
		Expected:    expected,
		Actual:      "not reported",
		Diagnostics: result.Diagnostics,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertMaxPPS, AssertMaxBPS, AssertMaxBPSL1:
			err = assertRate(result, assertion)
		case AssertExpectedDuration:
			err = assertDuration(result, assertion)
		case AssertEventCount:
			err = assertEventCount(result, assertion)
		case AssertCompactedID:
			err = assertCompactedID(result, assertion)
		case AssertDiagnostic:
			err = assertDiagnostic(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func errNoGraph(typ string) error {
	return &AssertionError{Type: typ, Expected: "a rate graph", Actual: "compilation failed"}
}

func within(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

func formatValue(v, tolerance float64) string {
	if tolerance == 0 {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%v ± %v", v, tolerance)
}

func codesOf(diags []*compiler.Diagnostic) []string {
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = string(d.Code)
	}
	return codes
}

func equalCodes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatCodes(codes []string) string {
	if len(codes) == 0 {
		return "none"
	}
	return strings.Join(codes, ", ")
}
