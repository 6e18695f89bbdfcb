package scanner

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"callmap/internal/syntax"
)

func lowerPython(c *converter, n *tree_sitter.Node) syntax.Node {
	switch n.Kind() {
	case "comment":
		return nil
	case "import_statement":
		imp := &syntax.Import{}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			switch child.Kind() {
			case "dotted_name":
				imp.Modules = append(imp.Modules, pyDotted(c, child))
			case "aliased_import":
				imp.Modules = append(imp.Modules, pyDotted(c, child.ChildByFieldName("name")))
			}
		}
		return imp
	case "future_import_statement":
		return &syntax.ImportFrom{Module: "__future__"}
	case "import_from_statement":
		return &syntax.ImportFrom{Module: pyFromModule(c, n.ChildByFieldName("module_name"))}
	case "decorated_definition":
		def := c.field(n, "definition")
		var decorators []syntax.Node
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child.Kind() == "decorator" && child.NamedChildCount() > 0 {
				if expr := c.node(child.NamedChild(0)); expr != nil {
					decorators = append(decorators, expr)
				}
			}
		}
		switch d := def.(type) {
		case *syntax.FunctionDef:
			d.Decorators = decorators
		case *syntax.ClassDef:
			d.Decorators = decorators
		case nil:
			return c.other(n)
		}
		return def
	case "class_definition":
		start, end := line(n.StartPosition()), pyEndLine(n)
		cls := &syntax.ClassDef{
			Name:      c.fieldText(n, "name"),
			Body:      c.children(n.ChildByFieldName("body")),
			StartLine: start,
			EndLine:   end,
		}
		if supers := n.ChildByFieldName("superclasses"); supers != nil {
			for i := uint(0); i < supers.NamedChildCount(); i++ {
				base := supers.NamedChild(i)
				// metaclass=... and other keywords are not bases
				if base.Kind() == "keyword_argument" || base.Kind() == "comment" {
					continue
				}
				cls.Bases = append(cls.Bases, c.node(base))
			}
		}
		return cls
	case "function_definition":
		start, end := line(n.StartPosition()), pyEndLine(n)
		return &syntax.FunctionDef{
			Name:      c.fieldText(n, "name"),
			Async:     hasToken(n, "async"),
			Params:    pyParams(c, n.ChildByFieldName("parameters")),
			Body:      c.children(n.ChildByFieldName("body")),
			Returns:   c.field(n, "return_type"),
			StartLine: start,
			EndLine:   end,
		}
	case "call":
		call := &syntax.Call{Func: c.field(n, "function")}
		if args := n.ChildByFieldName("arguments"); args != nil {
			if args.Kind() == "argument_list" {
				call.Args = c.children(args)
			} else if arg := c.node(args); arg != nil {
				call.Args = []syntax.Node{arg}
			}
		}
		return call
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return c.node(n.NamedChild(0))
		}
		return c.other(n)
	case "identifier":
		return &syntax.Name{ID: c.text(n)}
	case "attribute":
		return &syntax.Attribute{
			Value: c.field(n, "object"),
			Attr:  c.fieldText(n, "attribute"),
		}
	default:
		return c.other(n)
	}
}

// pyDotted joins the identifiers of a dotted_name, ignoring any spacing
// around the dots.
func pyDotted(c *converter, n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind() != "dotted_name" {
		return c.text(n)
	}
	parts := make([]string, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		parts = append(parts, c.text(n.NamedChild(i)))
	}
	return strings.Join(parts, ".")
}

// pyFromModule returns the module of a from-import. A relative import
// yields the module after the dots, or "" for a bare "from . import x".
func pyFromModule(c *converter, n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "dotted_name":
		return pyDotted(c, n)
	case "relative_import":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if child := n.NamedChild(i); child.Kind() == "dotted_name" {
				return pyDotted(c, child)
			}
		}
	}
	return ""
}

// pyEndLine returns the last line of n that holds code. A block's extent
// runs over comments indented at its level after the last statement, and
// those do not count.
func pyEndLine(n *tree_sitter.Node) int {
	for {
		var last *tree_sitter.Node
		for i := n.ChildCount(); i > 0; i-- {
			if child := n.Child(i - 1); child != nil && child.Kind() != "comment" {
				last = child
				break
			}
		}
		if last == nil {
			return line(n.EndPosition())
		}
		n = last
	}
}

// pyParams returns the expressions of a parameter list (annotations and
// default values) grouped the way Python's own ast orders them: positional
// annotations, the *args annotation, keyword-only annotations, keyword-only
// defaults, the **kwargs annotation, then positional defaults.
func pyParams(c *converter, n *tree_sitter.Node) []syntax.Node {
	if n == nil {
		return nil
	}
	var posAnn, varAnn, kwAnn, kwDefaults, kwargAnn, defaults []syntax.Node
	add := func(dst *[]syntax.Node, expr syntax.Node) {
		if expr != nil {
			*dst = append(*dst, expr)
		}
	}

	kwOnly := false
	for i := uint(0); i < n.NamedChildCount(); i++ {
		p := n.NamedChild(i)
		switch p.Kind() {
		case "keyword_separator", "list_splat_pattern":
			kwOnly = true
		case "typed_parameter":
			ann := c.field(p, "type")
			switch p.NamedChild(0).Kind() {
			case "list_splat_pattern":
				add(&varAnn, ann)
				kwOnly = true
			case "dictionary_splat_pattern":
				add(&kwargAnn, ann)
			default:
				if kwOnly {
					add(&kwAnn, ann)
				} else {
					add(&posAnn, ann)
				}
			}
		case "default_parameter":
			if kwOnly {
				add(&kwDefaults, c.field(p, "value"))
			} else {
				add(&defaults, c.field(p, "value"))
			}
		case "typed_default_parameter":
			if kwOnly {
				add(&kwAnn, c.field(p, "type"))
				add(&kwDefaults, c.field(p, "value"))
			} else {
				add(&posAnn, c.field(p, "type"))
				add(&defaults, c.field(p, "value"))
			}
		}
	}

	var out []syntax.Node
	for _, group := range [][]syntax.Node{posAnn, varAnn, kwAnn, kwDefaults, kwargAnn, defaults} {
		out = append(out, group...)
	}
	return out
}
