package compiler

// Validate checks that every node is reachable from a root.
//
// The walk is iterative and marks a node when it is pushed, so shared tails
// are traversed once. All unreachable streams are reported, in input order.
// The graph is not modified; running Validate twice gives the same result.
func (g *Graph) Validate() Diagnostics {
	var diags Diagnostics
	visited := make([]bool, len(g.nodes))
	stack := make([]int, 0, len(g.roots))

	for _, r := range g.roots {
		if !visited[r] {
			visited[r] = true
			stack = append(stack, r)
		}
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next := g.nodes[cur].next
		if next == deadEnd || visited[next] {
			continue
		}
		visited[next] = true
		stack = append(stack, next)
	}

	for i, seen := range visited {
		if !seen {
			id := g.nodes[i].stream.ID
			diags.add(newDiagnostic(CodeUnreachableStream, id,
				"stream %d is not reachable from any self-start stream", id))
		}
	}
	return diags
}
