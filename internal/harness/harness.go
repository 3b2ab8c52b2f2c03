package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/profile"
	"github.com/roach88/stlc/internal/rategraph"
	"github.com/roach88/stlc/internal/store"
	"github.com/roach88/stlc/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a private in-memory history store with
// deterministic run ids and timestamps.
type Harness struct {
	store  *store.Store
	logger *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the compiler and rate graph builder.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness backed by a fresh in-memory database.
func New(opts ...Option) (*Harness, error) {
	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewSequentialIDGenerator("run")),
		store.WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	h := &Harness{store: st, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Close releases the in-memory database.
func (h *Harness) Close() error {
	return h.store.Close()
}

// Store returns the history store the harness records into.
func (h *Harness) Store() *store.Store {
	return h.store
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Load the profile
//  2. Compile it with the scenario's factor and line speed
//  3. Build the rate graph when compilation succeeded
//  4. Record the run in the history store
//  5. Check the expect clause and evaluate assertions
//
// A returned error means the scenario could not be executed at all;
// mismatches are reported through Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	prof, errs := profile.Load(scenario.Profile, profile.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load profile: %w", errs[0])
	}
	hash, err := prof.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash profile: %w", err)
	}

	factor := scenario.Factor
	if factor == 0 {
		factor = 1
	}
	lineSpeed := scenario.LineSpeed
	if lineSpeed == 0 {
		lineSpeed = ir.DefaultLineSpeed
	}

	result := NewResult(scenario.Name)
	c := compiler.New(
		compiler.WithFactor(factor),
		compiler.WithLineSpeed(lineSpeed),
		compiler.WithLogger(h.logger),
	)
	result.Program, result.Diagnostics = c.Compile(prof.Streams)

	run := store.NewRun(scenario.Profile, hash, factor, result.Program, result.Diagnostics)
	if result.Program != nil {
		g, err := rategraph.Build(prof.Streams,
			rategraph.WithLineSpeed(lineSpeed),
			rategraph.WithLogger(h.logger),
		)
		if err != nil {
			result.AddError(fmt.Sprintf("rate graph: %v", err))
		} else {
			result.Graph = g
			run.SetPeak(g.MaxPPS(), g.MaxBPS())
		}
	}

	result.Run, err = h.store.RecordRun(ctx, run)
	if err != nil {
		return nil, err
	}

	for _, msg := range checkExpect(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// Run executes a scenario in a fresh harness.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New()
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.Run(context.Background(), scenario)
}
