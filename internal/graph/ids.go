package graph

import (
	"path/filepath"
	"strings"
)

// ScopedID builds the id of a construct declared inside parent,
// e.g. "file:pkg/a.py::class:Foo::function:run".
func ScopedID(parent string, kind Kind, name string) string {
	return parent + "::" + string(kind) + ":" + name
}

// FileID builds the id of a walked file from its root-relative path.
func FileID(relPath string) string {
	return "file:" + filepath.ToSlash(relPath)
}

// DirID builds the id of a directory from its root-relative segments.
func DirID(segments ...string) string {
	return "dir:" + strings.Join(segments, "/")
}

// ExternalID builds the flat id of a referenced-but-not-walked entity.
// Every reference to the same dotted name converges on one node.
func ExternalID(kind Kind, dotted string) string {
	return string(kind) + ":" + dotted
}

// IsUnder reports whether id is scope itself or nested anywhere below it.
func IsUnder(id, scope string) bool {
	return id == scope || strings.HasPrefix(id, scope+"::")
}
