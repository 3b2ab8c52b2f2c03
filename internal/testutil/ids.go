package testutil

import "fmt"

// SequentialIDGenerator generates run ids "run-0001", "run-0002", ...
//
// This enables deterministic test execution and golden snapshot comparison
// of compile history.
//
// Thread-safety: not safe for concurrent use.
type SequentialIDGenerator struct {
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. An empty prefix means "run".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id.
//
// Implements store.IDGenerator interface.
func (g *SequentialIDGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
