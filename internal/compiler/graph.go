package compiler

import (
	"github.com/roach88/stlc/internal/ir"
)

// deadEnd is the arena index of the shared dead-end marker.
const deadEnd = -1

// node wraps one enabled descriptor. Its arena index is its compacted id.
type node struct {
	stream  ir.Stream
	next    int
	parents []int
}

// Graph is the dependency graph of one compilation.
//
// Nodes live in an arena indexed by compacted id; edges and parent lists are
// arena indices. A Graph is never mutated after BuildGraph returns.
type Graph struct {
	nodes []node
	index map[int]int
	roots []int
}

// BuildGraph runs the allocate and direct passes over the enabled streams.
//
// Allocate assigns compacted ids 0..N-1 in input order and rejects duplicate
// ids and continuous streams that chain to another stream. Direct resolves
// each next_id and records parents. Streams with more than one parent are
// reported as warnings. The returned graph is nil when any error was found.
func BuildGraph(streams []ir.Stream) (*Graph, Diagnostics) {
	var diags Diagnostics
	g := &Graph{index: make(map[int]int, len(streams))}
	disabled := make(map[int]bool)

	// allocate
	for _, s := range streams {
		if !s.Enabled {
			disabled[s.ID] = true
			continue
		}
		if _, dup := g.index[s.ID]; dup {
			diags.add(newDiagnostic(CodeDuplicateStreamID, s.ID,
				"duplicate stream id %d", s.ID))
			continue
		}
		if s.Kind() == ir.KindContinuous && s.HasNext() && s.NextID != s.ID {
			d := newDiagnostic(CodeInvalidContinuousSuccessor, s.ID,
				"continuous stream cannot point to another stream (next_id %d)", s.NextID)
			d.NextID = s.NextID
			diags.add(d)
		}
		g.index[s.ID] = len(g.nodes)
		g.nodes = append(g.nodes, node{stream: s, next: deadEnd})
		if s.SelfStart {
			g.roots = append(g.roots, len(g.nodes)-1)
		}
	}
	if !diags.OK() {
		return nil, diags
	}

	// direct
	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.stream.HasNext() {
			continue
		}
		target, ok := g.index[n.stream.NextID]
		if !ok {
			diags.add(DanglingReference(n.stream.ID, n.stream.NextID, disabled[n.stream.NextID]))
			continue
		}
		n.next = target
		g.nodes[target].parents = append(g.nodes[target].parents, i)
	}
	if !diags.OK() {
		return nil, diags
	}

	for _, n := range g.nodes {
		if len(n.parents) > 1 {
			diags.add(newDiagnostic(CodeMultipleParents, n.stream.ID,
				"stream is the successor of %d streams: %v", len(n.parents), g.originalIDs(n.parents)))
		}
	}
	return g, diags
}

// DanglingReference reports that streamID names a successor that is not an
// enabled stream. disabled tells whether nextID exists but is disabled.
func DanglingReference(streamID, nextID int, disabled bool) *Diagnostic {
	reason := "does not exist"
	if disabled {
		reason = "is disabled"
	}
	d := newDiagnostic(CodeDanglingReference, streamID, "next stream %d %s", nextID, reason)
	d.NextID = nextID
	return d
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// CompactedID returns the compacted id assigned to an original id.
func (g *Graph) CompactedID(originalID int) (int, bool) {
	i, ok := g.index[originalID]
	return i, ok
}

// Stream returns the descriptor at a compacted id.
func (g *Graph) Stream(compactedID int) ir.Stream {
	return g.nodes[compactedID].stream
}

// Next returns the compacted id of the successor, or ir.NoNext for a dead end.
func (g *Graph) Next(compactedID int) int {
	if n := g.nodes[compactedID].next; n != deadEnd {
		return n
	}
	return ir.NoNext
}

// Parents returns the compacted ids of the streams pointing at compactedID.
func (g *Graph) Parents(compactedID int) []int {
	return g.nodes[compactedID].parents
}

// Roots returns the compacted ids of self-starting streams in input order.
func (g *Graph) Roots() []int {
	return g.roots
}

func (g *Graph) originalIDs(idx []int) []int {
	ids := make([]int, len(idx))
	for i, j := range idx {
		ids[i] = g.nodes[j].stream.ID
	}
	return ids
}
