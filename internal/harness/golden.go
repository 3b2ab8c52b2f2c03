package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
)

// Snapshot captures the deterministic outcome of a scenario execution:
// diagnostic codes, the compacted program and the rate graph summary.
// Floats are encoded as shortest round-trip strings so the snapshot can use
// canonical JSON.
func Snapshot(result *Result) ([]byte, error) {
	snap := map[string]any{
		"scenario": result.Scenario,
		"ok":       result.Program != nil,
		"errors":   diagnosticList(result.Diagnostics.Errors),
		"warnings": diagnosticList(result.Diagnostics.Warnings),
	}

	if p := result.Program; p != nil {
		entries := make([]any, len(p.Entries))
		for i, e := range p.Entries {
			entries[i] = map[string]any{
				"original_id": e.OriginalID,
				"id":          e.Stream.ID,
				"next_id":     e.Stream.NextID,
				"kind":        e.Stream.Kind().String(),
			}
		}
		snap["program"] = map[string]any{
			"all_continuous": p.AllContinuous,
			"factor":         ir.CanonicalFloat(p.Factor),
			"streams":        entries,
		}
	}

	if g := result.Graph; g != nil {
		snap["graph"] = map[string]any{
			"max_pps":           ir.CanonicalFloat(g.MaxPPS()),
			"max_bps":           ir.CanonicalFloat(g.MaxBPS()),
			"max_bps_l1":        ir.CanonicalFloat(g.MaxBPSL1()),
			"expected_duration": ir.CanonicalFloat(g.ExpectedDuration()),
			"events":            len(g.Events()),
			"loop_detected":     g.LoopDetected(),
		}
	}

	return ir.MarshalCanonical(snap)
}

func diagnosticList(diags []*compiler.Diagnostic) []any {
	out := make([]any, len(diags))
	for i, d := range diags {
		out[i] = map[string]any{
			"code":      string(d.Code),
			"stream_id": d.StreamID,
		}
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
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

// AssertGolden compares an existing result's snapshot against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
