// Package harness provides conformance testing for traffic profiles.
//
// The harness loads a profile, compiles it, builds its rate graph and checks
// the outcome against the scenario's expectations. Scenarios double as
// executable documentation of how the compiler treats a given stream set.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	profile: profiles/chain.yaml
//	factor: 2
//	line_speed: 10000000000
//	expect:
//	  ok: false
//	  errors: [E202]
//	  warnings: [W301]
//	  stream_count: 3
//	  all_continuous: false
//	  loop_detected: true
//	assertions:
//	  - type: max_pps
//	    value: 1000
//	  - type: expected_duration
//	    infinite: true
//	  - type: compacted_id
//	    stream: 700
//	    id: 0
//	  - type: diagnostic
//	    code: E202
//	    stream: 10
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - max_pps, max_bps, max_bps_l1: a peak rate of the rate graph
//   - expected_duration: the last event time, or unbounded
//   - event_count: the number of rate events
//   - compacted_id: the dense id assigned to an original stream id
//   - diagnostic: a diagnostic code reported, optionally for one stream
//
// # Deterministic Testing
//
// Each harness records runs into its own in-memory SQLite database using
// sequential run ids (testutil.SequentialIDGenerator) and a fake clock
// (testutil.DeterministicClock), so snapshots are identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/chain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        fmt.Println(msg)
//	    }
//	}
package harness
