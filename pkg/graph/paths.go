package graph

import "errors"

// ErrNotAcyclic is returned by [Paths.CausalOrder] when the directed part
// of the graph contains a cycle and no valid variable ordering exists.
var ErrNotAcyclic = errors.New("directed subgraph contains a cycle")

// Paths answers reachability queries over a graph's directed edges.
// It holds no state beyond the graph reference; construct one per query
// batch with [Graph.Paths]. Results reflect the graph at call time.
type Paths struct {
	g *Graph
}

// Paths returns a reachability helper for the graph.
func (g *Graph) Paths() *Paths { return &Paths{g: g} }

// ExistsDirectedPath reports whether a directed path from --> ... --> to
// exists using only fully directed edges. A path of length zero does not
// count: ExistsDirectedPath(x, x) is false unless x lies on a cycle.
func (p *Paths) ExistsDirectedPath(from, to string) bool {
	visited := map[string]bool{}
	stack := p.g.ChildrenOf(from)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, p.g.ChildrenOf(cur)...)
	}
	return false
}

// IsAncestorOf reports whether a is b or has a directed path to b.
func (p *Paths) IsAncestorOf(a, b string) bool {
	return a == b || p.ExistsDirectedPath(a, b)
}

// IsDescendantOf reports whether a is b or is reachable from b by a
// directed path.
func (p *Paths) IsDescendantOf(a, b string) bool {
	return p.IsAncestorOf(b, a)
}

// AncestorsOf returns the set of ancestors of name (excluding name itself).
func (p *Paths) AncestorsOf(name string) map[string]bool {
	out := map[string]bool{}
	stack := p.g.ParentsOf(name)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[cur] || cur == name {
			continue
		}
		out[cur] = true
		stack = append(stack, p.g.ParentsOf(cur)...)
	}
	return out
}

// DescendantsOf returns the set of descendants of name (excluding name).
func (p *Paths) DescendantsOf(name string) map[string]bool {
	out := map[string]bool{}
	stack := p.g.ChildrenOf(name)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[cur] || cur == name {
			continue
		}
		out[cur] = true
		stack = append(stack, p.g.ChildrenOf(cur)...)
	}
	return out
}

// HasDirectedCycle reports whether the directed subgraph contains a cycle.
func (p *Paths) HasDirectedCycle() bool {
	_, err := p.CausalOrder(p.g.NodeNames())
	return err != nil
}

// CausalOrder returns a variable ordering in which every directed edge
// points forward. The ordering is stable with respect to prefer: among the
// nodes eligible at each step, the one appearing earliest in prefer is
// chosen. Undirected and circle edges impose no constraint.
//
// Returns ErrNotAcyclic if the directed subgraph has a cycle.
func (p *Paths) CausalOrder(prefer []string) ([]string, error) {
	placed := make(map[string]bool, len(prefer))
	order := make([]string, 0, len(prefer))

	eligible := func(name string) bool {
		for _, par := range p.g.ParentsOf(name) {
			if !placed[par] {
				return false
			}
		}
		return true
	}

	for len(order) < len(prefer) {
		advanced := false
		for _, name := range prefer {
			if placed[name] || !eligible(name) {
				continue
			}
			placed[name] = true
			order = append(order, name)
			advanced = true
			break
		}
		if !advanced {
			return nil, ErrNotAcyclic
		}
	}
	return order, nil
}
