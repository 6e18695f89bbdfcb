package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"callmap/internal/syntax"
)

// Language maps source file extensions to syntax-tree providers.
type Language struct {
	Name    string
	parsers map[string]syntax.Parser // extension -> parser
}

var languages = map[string]*Language{
	"python": {
		Name: "python",
		parsers: map[string]syntax.Parser{
			// print and exec statements parse, but only as Python 2
			".py": newParser(tree_sitter_python.Language(), lowerPython, "print_statement", "exec_statement"),
		},
	},
	"javascript": {
		Name: "javascript",
		parsers: map[string]syntax.Parser{
			".js":  newParser(tree_sitter_javascript.Language(), lowerJS),
			".mjs": newParser(tree_sitter_javascript.Language(), lowerJS),
			".cjs": newParser(tree_sitter_javascript.Language(), lowerJS),
			".jsx": newParser(tree_sitter_javascript.Language(), lowerJS),
		},
	},
	"typescript": {
		Name: "typescript",
		parsers: map[string]syntax.Parser{
			".ts":  newParser(tree_sitter_typescript.LanguageTypescript(), lowerJS),
			".mts": newParser(tree_sitter_typescript.LanguageTypescript(), lowerJS),
			".cts": newParser(tree_sitter_typescript.LanguageTypescript(), lowerJS),
			".tsx": newParser(tree_sitter_typescript.LanguageTSX(), lowerJS),
		},
	},
	"go": {
		Name: "go",
		parsers: map[string]syntax.Parser{
			".go": newParser(tree_sitter_go.Language(), lowerGo),
		},
	},
}

// Lookup returns the language registered under name.
func Lookup(name string) (*Language, error) {
	l, ok := languages[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return l, nil
}

// Names lists the registered languages.
func Names() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions lists the file extensions recognized for the language.
func (l *Language) Extensions() []string {
	exts := make([]string, 0, len(l.parsers))
	for ext := range l.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Matches reports whether path has one of the language's extensions.
func (l *Language) Matches(path string) bool {
	_, ok := l.parsers[filepath.Ext(path)]
	return ok
}

// ParserFor returns the parser for path's extension.
func (l *Language) ParserFor(path string) (syntax.Parser, error) {
	p, ok := l.parsers[filepath.Ext(path)]
	if !ok {
		return nil, fmt.Errorf("%s: no %s parser for extension %q", path, l.Name, filepath.Ext(path))
	}
	return p, nil
}
