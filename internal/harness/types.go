package harness

import (
	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/rategraph"
	"github.com/roach88/stlc/internal/store"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Scenario is the name of the executed scenario.
	Scenario string `json:"scenario"`

	// Pass indicates overall test success.
	// True if the expect clause and all assertions match.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Program is the compiled program, nil when compilation failed.
	Program *ir.Program `json:"-"`

	// Diagnostics holds every finding of the compilation.
	Diagnostics compiler.Diagnostics `json:"diagnostics"`

	// Graph is the rate graph, nil when compilation failed.
	Graph *rategraph.Graph `json:"graph,omitempty"`

	// Run is the compile history record written for this execution.
	Run store.Run `json:"run"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
