// Package graph provides a small in-memory directed graph used to track
// which pages reference which static assets, and which legacy files inherit
// from which. Edges point from dependent to dependency, so Predecessors of a
// node answers "who needs to be rebuilt when this changes".
package graph

import "git.home.luguber.info/inful/docforge/internal/util/sets"

// Digraph is a directed graph over comparable node values.
type Digraph[N comparable] struct {
	succ map[N]sets.Set[N]
	pred map[N]sets.Set[N]
}

// New returns an empty directed graph.
func New[N comparable]() *Digraph[N] {
	return &Digraph[N]{
		succ: make(map[N]sets.Set[N]),
		pred: make(map[N]sets.Set[N]),
	}
}

// AddEdge inserts a u->v edge, creating both nodes as needed.
func (g *Digraph[N]) AddEdge(u, v N) {
	if g.succ[u] == nil {
		g.succ[u] = sets.New[N]()
	}
	if g.pred[v] == nil {
		g.pred[v] = sets.New[N]()
	}
	g.succ[u].Add(v)
	g.pred[v].Add(u)
}

// RemoveNode drops a node and every edge touching it. Removing a node that
// was never added is a no-op.
func (g *Digraph[N]) RemoveNode(n N) {
	for v := range g.succ[n] {
		g.pred[v].Delete(n)
	}
	for u := range g.pred[n] {
		g.succ[u].Delete(n)
	}
	delete(g.succ, n)
	delete(g.pred, n)
}

// Predecessors returns every node with an edge into n.
func (g *Digraph[N]) Predecessors(n N) []N {
	return g.pred[n].Values()
}

// Successors returns every node n has an edge to.
func (g *Digraph[N]) Successors(n N) []N {
	return g.succ[n].Values()
}

// HasEdge reports whether a u->v edge exists.
func (g *Digraph[N]) HasEdge(u, v N) bool {
	return g.succ[u].Has(v)
}
