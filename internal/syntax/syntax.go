// Package syntax defines the language-neutral syntax tree the walker consumes.
//
// Providers in internal/scanner lower a concrete parse tree into these
// types. The set of node types is closed: every Node is one of the
// structs below, and consumers switch over them exhaustively.
package syntax

import "errors"

// ErrSyntax is returned by a Parser when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// Parser turns source text into a Module.
type Parser interface {
	Parse(src []byte) (*Module, error)
}

// Node is a syntax tree node.
type Node interface {
	node()
}

// Module is the root of one file.
type Module struct {
	Body []Node
}

// Import is the plain form, "import a.b, c". Modules holds dotted names.
type Import struct {
	Modules []string
}

// ImportFrom is the "from m import x" form. Module is empty when the
// statement names no module, e.g. "from . import x".
type ImportFrom struct {
	Module string
}

// ClassDef is a class (or type) definition.
type ClassDef struct {
	Name       string
	Bases      []Node
	Decorators []Node
	Body       []Node
	StartLine  int
	EndLine    int
}

// FunctionDef is a function or method definition, synchronous or not.
type FunctionDef struct {
	Name       string
	Async      bool
	Params     []Node
	Body       []Node
	Decorators []Node
	Returns    Node
	StartLine  int
	EndLine    int
}

// Call is a call expression.
type Call struct {
	Func Node
	Args []Node
}

// Name is a bare identifier reference.
type Name struct {
	ID string
}

// Attribute is "Value.Attr".
type Attribute struct {
	Value Node
	Attr  string
}

// Other is any construct the walker has no dedicated rule for.
// Its children are still visited.
type Other struct {
	Kind     string
	Children []Node
}

func (*Module) node()      {}
func (*Import) node()      {}
func (*ImportFrom) node()  {}
func (*ClassDef) node()    {}
func (*FunctionDef) node() {}
func (*Call) node()        {}
func (*Name) node()        {}
func (*Attribute) node()   {}
func (*Other) node()       {}

// Size returns the inclusive line extent of a definition.
func Size(start, end int) int {
	if end < start {
		end = start
	}
	return end - start + 1
}

// LineCount counts lines the way an editor does: a final line without a
// trailing newline still counts.
func LineCount(src []byte) int {
	n := 0
	for _, c := range src {
		if c == '\n' {
			n++
		}
	}
	if len(src) > 0 && src[len(src)-1] != '\n' {
		n++
	}
	return n
}
