// Package resolve links call sites and base classes to graph nodes by name.
//
// Resolution is purely syntactic. A dotted name is matched against node
// labels already present in the graph, so the outcome depends on the order
// in which files are walked: a definition walked later than its caller is
// not found, and the caller is linked to a synthesized external node
// instead. A bare name can also attach to an unrelated symbol that happens
// to share it. Both behaviors keep the graph connected and are expected.
package resolve

import (
	"strings"

	"callmap/internal/graph"
	"callmap/internal/syntax"
)

// DottedName extracts "a.b.c" from a name or attribute chain.
// An attribute on an unresolvable expression yields the attribute alone.
// Any other expression shape is not resolvable.
func DottedName(expr syntax.Node) (string, bool) {
	switch e := expr.(type) {
	case *syntax.Name:
		if e.ID == "" {
			return "", false
		}
		return e.ID, true
	case *syntax.Attribute:
		if sub, ok := DottedName(e.Value); ok {
			return sub + "." + e.Attr, true
		}
		if e.Attr == "" {
			return "", false
		}
		return e.Attr, true
	default:
		return "", false
	}
}

// LastSegment returns the part after the final dot.
func LastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

// Resolver resolves call targets for one file.
type Resolver struct {
	g      *graph.Graph
	fileID string
}

// New creates a resolver for the file whose id is fileID.
func New(g *graph.Graph, fileID string) *Resolver {
	return &Resolver{g: g, fileID: fileID}
}

// Target returns the id of the node a call to name most plausibly refers to.
//
// Precedence: a class or function labeled with the full dotted name; then
// one labeled with the last segment, preferring the current file; then a
// new external function placeholder keyed by the full name. An undotted
// name is its own last segment and goes straight to the second step, so
// the current file is preferred for it too.
func (r *Resolver) Target(name string) string {
	if strings.IndexByte(name, '.') >= 0 {
		for _, n := range r.g.WithLabel(name) {
			if callable(n) {
				return n.ID
			}
		}
	}

	short := LastSegment(name)
	var other string
	for _, n := range r.g.WithLabel(short) {
		if !callable(n) {
			continue
		}
		if graph.IsUnder(n.ID, r.fileID) {
			return n.ID
		}
		if other == "" {
			other = n.ID
		}
	}
	if other != "" {
		return other
	}

	id := graph.ExternalID(graph.KindFunction, name)
	r.g.AddNode(id, graph.KindFunction, short, graph.OriginExternal, 0)
	return id
}

func callable(n *graph.Node) bool {
	return n.Kind == graph.KindClass || n.Kind == graph.KindFunction
}
