// Package walker populates a graph from one file's syntax tree.
package walker

import (
	"path/filepath"

	"callmap/internal/graph"
	"callmap/internal/resolve"
	"callmap/internal/syntax"
)

// Walker walks a single file. Create one per file; the graph is shared.
type Walker struct {
	g        *graph.Graph
	relPath  string
	fileID   string
	resolver *resolve.Resolver
	scope    []string
}

// New creates a walker for the file at relPath (relative to the project root).
func New(g *graph.Graph, relPath string) *Walker {
	fileID := graph.FileID(relPath)
	return &Walker{
		g:        g,
		relPath:  relPath,
		fileID:   fileID,
		resolver: resolve.New(g, fileID),
	}
}

// FileID returns the id of the file node this walker creates.
func (w *Walker) FileID() string {
	return w.fileID
}

// Walk adds the file node and everything reachable from mod.
// lines is the file's line count.
func (w *Walker) Walk(mod *syntax.Module, lines int) {
	w.g.AddNode(w.fileID, graph.KindFile, filepath.Base(w.relPath), graph.OriginOwn, lines)
	w.push(w.fileID)
	w.visitAll(mod.Body)
	w.pop()
}

func (w *Walker) current() string {
	if len(w.scope) == 0 {
		return w.fileID
	}
	return w.scope[len(w.scope)-1]
}

func (w *Walker) push(id string) { w.scope = append(w.scope, id) }

func (w *Walker) pop() { w.scope = w.scope[:len(w.scope)-1] }

func (w *Walker) visitAll(nodes []syntax.Node) {
	for _, n := range nodes {
		w.visit(n)
	}
}

// visit dispatches on node type. Only definitions and imports produce
// graph entities here; calls are collected per function by scan.
func (w *Walker) visit(n syntax.Node) {
	switch n := n.(type) {
	case *syntax.Import:
		w.visitImport(n)
	case *syntax.ImportFrom:
		w.visitImportFrom(n)
	case *syntax.ClassDef:
		w.visitClass(n)
	case *syntax.FunctionDef:
		w.visitFunction(n)
	case *syntax.Call:
		w.visit(n.Func)
		w.visitAll(n.Args)
	case *syntax.Attribute:
		w.visit(n.Value)
	case *syntax.Other:
		w.visitAll(n.Children)
	case *syntax.Module:
		w.visitAll(n.Body)
	case *syntax.Name, nil:
	}
}

func (w *Walker) visitImport(n *syntax.Import) {
	for _, mod := range n.Modules {
		w.addImport(mod)
	}
}

func (w *Walker) visitImportFrom(n *syntax.ImportFrom) {
	if n.Module == "" {
		return
	}
	w.addImport(n.Module)
}

func (w *Walker) addImport(mod string) {
	if mod == "" {
		return
	}
	id := graph.ExternalID(graph.KindFile, mod)
	w.g.AddNode(id, graph.KindFile, mod, graph.OriginExternal, 0)
	w.g.AddEdge(w.current(), id, graph.RelationImports)
}

func (w *Walker) visitClass(n *syntax.ClassDef) {
	id := graph.ScopedID(w.current(), graph.KindClass, n.Name)
	w.g.AddNode(id, graph.KindClass, n.Name, graph.OriginOwn, syntax.Size(n.StartLine, n.EndLine))
	w.g.AddEdge(w.current(), id, graph.RelationHas)

	for _, base := range n.Bases {
		name, ok := resolve.DottedName(base)
		if !ok {
			continue
		}
		baseID := graph.ExternalID(graph.KindClass, name)
		w.g.AddNode(baseID, graph.KindClass, name, graph.OriginExternal, 0)
		w.g.AddEdge(id, baseID, graph.RelationIs)
	}

	w.push(id)
	w.visitAll(n.Body)
	w.pop()
}

func (w *Walker) visitFunction(n *syntax.FunctionDef) {
	id := graph.ScopedID(w.current(), graph.KindFunction, n.Name)
	w.g.AddNode(id, graph.KindFunction, n.Name, graph.OriginOwn, syntax.Size(n.StartLine, n.EndLine))
	w.g.AddEdge(w.current(), id, graph.RelationHas)

	w.push(id)
	w.scanAll(n.Params)
	w.scanAll(n.Body)
	w.scanAll(n.Decorators)
	w.scan(n.Returns)
	// Nested definitions and imports get their own pass so that their
	// calls are attributed to their own scope.
	w.visitAll(n.Body)
	w.pop()
}

func (w *Walker) scanAll(nodes []syntax.Node) {
	for _, n := range nodes {
		w.scan(n)
	}
}

// scan records call edges in pre-order, stopping at nested definitions.
func (w *Walker) scan(n syntax.Node) {
	switch n := n.(type) {
	case *syntax.Call:
		w.addCall(n)
		w.scan(n.Func)
		w.scanAll(n.Args)
	case *syntax.Attribute:
		w.scan(n.Value)
	case *syntax.Other:
		w.scanAll(n.Children)
	case *syntax.ClassDef, *syntax.FunctionDef:
	case *syntax.Module:
		w.scanAll(n.Body)
	case *syntax.Name, *syntax.Import, *syntax.ImportFrom, nil:
	}
}

func (w *Walker) addCall(c *syntax.Call) {
	name, ok := resolve.DottedName(c.Func)
	if !ok {
		return
	}
	target := w.resolver.Target(name)
	w.g.AddEdge(w.current(), target, graph.RelationCalls)
}
