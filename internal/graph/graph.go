package graph

import (
	"fmt"
	"strings"
)

// Graph holds uniquely keyed nodes and an ordered list of edges.
// It has a single writer and is not safe for concurrent use.
type Graph struct {
	nodes   map[string]*Node
	order   []*Node
	byLabel map[string][]*Node
	edges   []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		byLabel: make(map[string][]*Node),
	}
}

// AddNode inserts a node unless one with the same id exists.
// The first insertion wins; later calls never update kind, label, origin or size.
func (g *Graph) AddNode(id string, kind Kind, label string, origin Origin, size int) bool {
	if _, ok := g.nodes[id]; ok {
		return false
	}
	if size < 0 {
		size = 0
	}
	n := &Node{ID: id, Kind: kind, Label: label, Origin: origin, Size: size}
	g.nodes[id] = n
	g.order = append(g.order, n)
	g.byLabel[label] = append(g.byLabel[label], n)
	return true
}

// AddEdge appends an edge. Duplicates are kept.
func (g *Graph) AddEdge(src, dst string, kind Relation) {
	g.edges = append(g.edges, Edge{Src: src, Dst: dst, Kind: kind})
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.order
}

// Edges returns edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// WithLabel returns the nodes carrying label, in insertion order.
func (g *Graph) WithLabel(label string) []*Node {
	return g.byLabel[label]
}

// Summary holds node and edge counts grouped by kind.
type Summary struct {
	Nodes       int              `json:"nodes"`
	Edges       int              `json:"edges"`
	NodesByKind map[Kind]int     `json:"nodes_by_kind"`
	EdgesByKind map[Relation]int `json:"edges_by_kind"`
}

// Summary counts nodes and edges by kind.
func (g *Graph) Summary() Summary {
	s := Summary{
		Nodes:       len(g.order),
		Edges:       len(g.edges),
		NodesByKind: make(map[Kind]int),
		EdgesByKind: make(map[Relation]int),
	}
	for _, n := range g.order {
		s.NodesByKind[n.Kind]++
	}
	for _, e := range g.edges {
		s.EdgesByKind[e.Kind]++
	}
	return s
}

// String renders the summary the way the CLI prints it.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Nodes: %d {", s.Nodes)
	first := true
	for _, k := range Kinds {
		if c := s.NodesByKind[k]; c > 0 {
			if !first {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %d", k, c)
			first = false
		}
	}
	fmt.Fprintf(&b, "}\n  Edges: %d {", s.Edges)
	first = true
	for _, r := range Relations {
		if c := s.EdgesByKind[r]; c > 0 {
			if !first {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %d", r, c)
			first = false
		}
	}
	b.WriteString("}")
	return b.String()
}
