package scanner

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"callmap/internal/syntax"
)

// lowerJS handles both the JavaScript and TypeScript grammars; the
// TypeScript one is a superset for everything lowered here.
func lowerJS(c *converter, n *tree_sitter.Node) syntax.Node {
	switch n.Kind() {
	case "comment":
		return nil
	case "import_statement":
		src := n.ChildByFieldName("source")
		if src == nil {
			return c.other(n)
		}
		return &syntax.Import{Modules: []string{unquote(c.text(src))}}
	case "class_declaration", "abstract_class_declaration", "class":
		name := n.ChildByFieldName("name")
		if name == nil {
			return c.other(n)
		}
		start, end := span(n)
		cls := &syntax.ClassDef{
			Name:      c.text(name),
			Body:      c.children(n.ChildByFieldName("body")),
			StartLine: start,
			EndLine:   end,
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			switch child.Kind() {
			case "decorator":
				if child.NamedChildCount() > 0 {
					cls.Decorators = append(cls.Decorators, c.node(child.NamedChild(0)))
				}
			case "class_heritage":
				cls.Bases = append(cls.Bases, jsHeritage(c, child)...)
			}
		}
		return cls
	case "interface_declaration":
		start, end := span(n)
		cls := &syntax.ClassDef{
			Name:      c.fieldText(n, "name"),
			StartLine: start,
			EndLine:   end,
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if child := n.NamedChild(i); child.Kind() == "extends_type_clause" {
				cls.Bases = append(cls.Bases, c.children(child)...)
			}
		}
		return cls
	case "function_declaration", "generator_function_declaration", "method_definition":
		start, end := span(n)
		return &syntax.FunctionDef{
			Name:      c.fieldText(n, "name"),
			Async:     hasToken(n, "async"),
			Params:    c.children(n.ChildByFieldName("parameters")),
			Body:      jsBody(c, n.ChildByFieldName("body")),
			StartLine: start,
			EndLine:   end,
		}
	case "variable_declarator":
		// const handler = async () => {...} names the function after the binding.
		name, value := n.ChildByFieldName("name"), n.ChildByFieldName("value")
		if name == nil || value == nil || name.Kind() != "identifier" {
			return c.other(n)
		}
		switch value.Kind() {
		case "arrow_function", "function_expression", "function", "generator_function":
			start, end := span(n)
			params := value.ChildByFieldName("parameters")
			if params == nil {
				params = value.ChildByFieldName("parameter")
			}
			return &syntax.FunctionDef{
				Name:      c.text(name),
				Async:     hasToken(value, "async"),
				Params:    jsBody(c, params),
				Body:      jsBody(c, value.ChildByFieldName("body")),
				StartLine: start,
				EndLine:   end,
			}
		}
		return c.other(n)
	case "call_expression":
		call := &syntax.Call{Func: c.field(n, "function")}
		call.Args = jsBody(c, n.ChildByFieldName("arguments"))
		return call
	case "new_expression":
		call := &syntax.Call{Func: c.field(n, "constructor")}
		call.Args = jsBody(c, n.ChildByFieldName("arguments"))
		return call
	case "identifier", "type_identifier", "this", "super":
		return &syntax.Name{ID: c.text(n)}
	case "member_expression":
		return &syntax.Attribute{
			Value: c.field(n, "object"),
			Attr:  c.fieldText(n, "property"),
		}
	case "nested_type_identifier":
		return &syntax.Attribute{
			Value: c.field(n, "module"),
			Attr:  c.fieldText(n, "name"),
		}
	default:
		return c.other(n)
	}
}

// jsBody lowers a block-like node into its statements, or wraps a single
// expression (an arrow function's expression body, a lone parameter).
func jsBody(c *converter, n *tree_sitter.Node) []syntax.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "statement_block", "formal_parameters", "arguments", "class_body":
		return c.children(n)
	}
	if lowered := c.node(n); lowered != nil {
		return []syntax.Node{lowered}
	}
	return nil
}

// jsHeritage extracts base expressions from a class_heritage node. In
// JavaScript the expression is a direct child; TypeScript wraps it in
// extends_clause and lists implemented interfaces in implements_clause.
func jsHeritage(c *converter, n *tree_sitter.Node) []syntax.Node {
	var bases []syntax.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "extends_clause":
			if v := c.field(child, "value"); v != nil {
				bases = append(bases, v)
			}
		case "implements_clause":
			bases = append(bases, c.children(child)...)
		case "comment":
		default:
			if v := c.node(child); v != nil {
				bases = append(bases, v)
			}
		}
	}
	return bases
}
