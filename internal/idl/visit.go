package idl

import "github.com/carp-rpc/carp/internal/idl/name"

// ReferenceGraph accumulates the edges GatherReferences emits across a
// set of modules: referrer -> the qualified names it mentions (spec
// §4.1: "gather_references(referrer, sink) -> edge emission into a
// reference graph"). The code generator in internal/gen does not
// consult it.
type ReferenceGraph struct {
	edges map[string][]name.External
	order []string
}

// NewReferenceGraph returns an empty graph.
func NewReferenceGraph() *ReferenceGraph {
	return &ReferenceGraph{edges: make(map[string][]name.External)}
}

// Edge implements ReferenceSink.
func (g *ReferenceGraph) Edge(referrer name.External, target name.External) {
	key := referrer.String()
	if _, ok := g.edges[key]; !ok {
		g.order = append(g.order, key)
	}
	g.edges[key] = append(g.edges[key], target)
}

// Targets returns the qualified names referrer mentions, in the order
// GatherReferences visited them.
func (g *ReferenceGraph) Targets(referrer name.External) []name.External {
	return append([]name.External(nil), g.edges[referrer.String()]...)
}

// Referrers returns every referrer that emitted at least one edge, in
// first-visited order.
func (g *ReferenceGraph) Referrers() []string {
	return append([]string(nil), g.order...)
}

// Visit walks every declared type of m and records the edges its
// GatherReferences emits into g.
func Visit(m Module, g *ReferenceGraph) {
	m.GatherReferences(m.Name, g)
}

// TopologicalOrder returns the referrers of g in dependency order (a
// referrer after everything it targets), or ok=false if a cycle makes
// that impossible. Self-edges and edges leaving the referrer set (e.g.
// to a type outside the modules being generated) are ignored for
// ordering purposes.
func TopologicalOrder(g *ReferenceGraph) (order []string, ok bool) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g.order))
	var out []string
	var visit func(string) bool
	visit = func(n string) bool {
		switch state[n] {
		case done:
			return true
		case visiting:
			return false
		}
		state[n] = visiting
		for _, t := range g.edges[n] {
			key := t.String()
			if _, known := g.edges[key]; !known {
				continue
			}
			if key == n {
				continue
			}
			if !visit(key) {
				return false
			}
		}
		state[n] = done
		out = append(out, n)
		return true
	}
	for _, n := range g.order {
		if !visit(n) {
			return nil, false
		}
	}
	return out, true
}
