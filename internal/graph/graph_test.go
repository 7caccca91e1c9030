package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigraphEdges(t *testing.T) {
	g := New[string]()
	g.AddEdge("page.txt", "logo.png")
	g.AddEdge("page.txt", "diagram.png")
	g.AddEdge("other.txt", "logo.png")

	assert.True(t, g.HasEdge("page.txt", "logo.png"))
	assert.False(t, g.HasEdge("logo.png", "page.txt"))

	dependents := g.Predecessors("logo.png")
	sort.Strings(dependents)
	assert.Equal(t, []string{"other.txt", "page.txt"}, dependents)

	uses := g.Successors("page.txt")
	sort.Strings(uses)
	assert.Equal(t, []string{"diagram.png", "logo.png"}, uses)
}

func TestDigraphRemoveNode(t *testing.T) {
	g := New[string]()
	g.AddEdge("a", "x")
	g.AddEdge("b", "x")

	g.RemoveNode("a")
	assert.False(t, g.HasEdge("a", "x"))
	assert.Equal(t, []string{"b"}, g.Predecessors("x"))

	// Removing an unknown node is a no-op.
	g.RemoveNode("never-added")
	assert.Equal(t, []string{"b"}, g.Predecessors("x"))
}
