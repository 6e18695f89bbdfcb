package scanner

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"callmap/internal/syntax"
)

// lowerGo maps Go declarations onto the shared model: named types become
// classes whose embedded types are bases, functions and methods become
// functions declared at file scope.
func lowerGo(c *converter, n *tree_sitter.Node) syntax.Node {
	switch n.Kind() {
	case "comment":
		return nil
	case "import_declaration":
		imp := &syntax.Import{}
		goImportSpecs(c, n, imp)
		return imp
	case "type_declaration":
		var specs []syntax.Node
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child.Kind() == "type_spec" || child.Kind() == "type_alias" {
				specs = append(specs, goTypeSpec(c, child))
			}
		}
		if len(specs) == 1 {
			return specs[0]
		}
		return &syntax.Other{Kind: n.Kind(), Children: specs}
	case "function_declaration", "method_declaration":
		start, end := span(n)
		params := c.children(n.ChildByFieldName("parameters"))
		if recv := n.ChildByFieldName("receiver"); recv != nil {
			params = append(c.children(recv), params...)
		}
		return &syntax.FunctionDef{
			Name:      c.fieldText(n, "name"),
			Params:    params,
			Body:      c.children(n.ChildByFieldName("body")),
			StartLine: start,
			EndLine:   end,
		}
	case "call_expression":
		return &syntax.Call{
			Func: c.field(n, "function"),
			Args: c.children(n.ChildByFieldName("arguments")),
		}
	case "identifier", "field_identifier", "type_identifier", "package_identifier":
		return &syntax.Name{ID: c.text(n)}
	case "selector_expression":
		return &syntax.Attribute{
			Value: c.field(n, "operand"),
			Attr:  c.fieldText(n, "field"),
		}
	case "qualified_type":
		return &syntax.Attribute{
			Value: c.field(n, "package"),
			Attr:  c.fieldText(n, "name"),
		}
	case "pointer_type":
		if n.NamedChildCount() == 1 {
			return c.node(n.NamedChild(0))
		}
		return c.other(n)
	default:
		return c.other(n)
	}
}

func goImportSpecs(c *converter, n *tree_sitter.Node, imp *syntax.Import) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "import_spec":
			if path := child.ChildByFieldName("path"); path != nil {
				imp.Modules = append(imp.Modules, unquote(c.text(path)))
			}
		case "import_spec_list":
			goImportSpecs(c, child, imp)
		}
	}
}

func goTypeSpec(c *converter, n *tree_sitter.Node) *syntax.ClassDef {
	start, end := span(n)
	cls := &syntax.ClassDef{
		Name:      c.fieldText(n, "name"),
		StartLine: start,
		EndLine:   end,
	}
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return cls
	}
	switch typ.Kind() {
	case "struct_type":
		for i := uint(0); i < typ.NamedChildCount(); i++ {
			list := typ.NamedChild(i)
			if list.Kind() != "field_declaration_list" {
				continue
			}
			for j := uint(0); j < list.NamedChildCount(); j++ {
				field := list.NamedChild(j)
				// embedded fields carry a type but no name
				if field.Kind() != "field_declaration" || field.ChildByFieldName("name") != nil {
					continue
				}
				if base := c.field(field, "type"); base != nil {
					cls.Bases = append(cls.Bases, base)
				}
			}
		}
	case "interface_type":
		for i := uint(0); i < typ.NamedChildCount(); i++ {
			elem := typ.NamedChild(i)
			if elem.Kind() == "type_elem" && elem.NamedChildCount() == 1 {
				if base := c.node(elem.NamedChild(0)); base != nil {
					cls.Bases = append(cls.Bases, base)
				}
			}
		}
	default:
		// Named non-struct types ("type ID string") are not inheritance.
	}
	return cls
}
