// Package scanner parses source files with tree-sitter and lowers the
// concrete trees into the syntax package's node types.
package scanner

import (
	"fmt"
	"strconv"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"callmap/internal/syntax"
)

// lowerFunc converts one tree-sitter node. It returns nil for nodes that
// carry nothing of interest (comments).
type lowerFunc func(c *converter, n *tree_sitter.Node) syntax.Node

type treeSitterParser struct {
	lang   *tree_sitter.Language
	lower  lowerFunc
	reject map[string]bool
}

// newParser creates a parser for grammar. Nodes of the reject kinds are
// accepted by the grammar but not by the language itself.
func newParser(grammar unsafe.Pointer, lower lowerFunc, reject ...string) *treeSitterParser {
	p := &treeSitterParser{
		lang:   tree_sitter.NewLanguage(grammar),
		lower:  lower,
		reject: make(map[string]bool, len(reject)),
	}
	for _, kind := range reject {
		p.reject[kind] = true
	}
	return p
}

// Parse parses src. Trees containing ERROR or MISSING nodes, or nodes of a
// rejected kind, fail with syntax.ErrSyntax so the caller can skip the file.
func (p *treeSitterParser) Parse(src []byte) (*syntax.Module, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.lang); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: parser returned no tree", syntax.ErrSyntax)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w at line %d", syntax.ErrSyntax, firstErrorLine(root))
	}
	if bad := p.findRejected(root); bad != nil {
		return nil, fmt.Errorf("%w at line %d: unsupported %s", syntax.ErrSyntax, line(bad.StartPosition()), bad.Kind())
	}

	c := &converter{src: src, lower: p.lower}
	return &syntax.Module{Body: c.children(root)}, nil
}

func firstErrorLine(n *tree_sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return line(n.StartPosition())
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstErrorLine(child)
		}
	}
	return line(n.StartPosition())
}

func (p *treeSitterParser) findRejected(n *tree_sitter.Node) *tree_sitter.Node {
	if len(p.reject) == 0 {
		return nil
	}
	if p.reject[n.Kind()] {
		return n
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if bad := p.findRejected(n.NamedChild(i)); bad != nil {
			return bad
		}
	}
	return nil
}

type converter struct {
	src   []byte
	lower lowerFunc
}

func (c *converter) node(n *tree_sitter.Node) syntax.Node {
	if n == nil {
		return nil
	}
	return c.lower(c, n)
}

// children lowers the named children of n, dropping nil results.
func (c *converter) children(n *tree_sitter.Node) []syntax.Node {
	if n == nil {
		return nil
	}
	var out []syntax.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if lowered := c.node(n.NamedChild(i)); lowered != nil {
			out = append(out, lowered)
		}
	}
	return out
}

func (c *converter) field(n *tree_sitter.Node, name string) syntax.Node {
	return c.node(n.ChildByFieldName(name))
}

func (c *converter) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(c.src)
}

func (c *converter) fieldText(n *tree_sitter.Node, name string) string {
	return c.text(n.ChildByFieldName(name))
}

// other is the fallback for kinds without a dedicated rule.
func (c *converter) other(n *tree_sitter.Node) syntax.Node {
	return &syntax.Other{Kind: n.Kind(), Children: c.children(n)}
}

// hasToken reports whether n has an anonymous child token of the given kind,
// e.g. "async".
func hasToken(n *tree_sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == kind {
			return true
		}
	}
	return false
}

// line converts a zero-based tree-sitter row to a one-based line number.
func line(p tree_sitter.Point) int {
	return int(p.Row) + 1
}

func span(n *tree_sitter.Node) (int, int) {
	return line(n.StartPosition()), line(n.EndPosition())
}

// unquote strips string literal quotes, falling back to the raw text.
func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
