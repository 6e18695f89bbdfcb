package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callmap/internal/graph"
	"callmap/internal/syntax"
)

func TestDottedName(t *testing.T) {
	tests := []struct {
		name   string
		expr   syntax.Node
		want   string
		wantOK bool
	}{
		{"name", &syntax.Name{ID: "foo"}, "foo", true},
		{"attribute", &syntax.Attribute{Value: &syntax.Name{ID: "self"}, Attr: "run"}, "self.run", true},
		{"chain", &syntax.Attribute{
			Value: &syntax.Attribute{Value: &syntax.Name{ID: "pkg"}, Attr: "mod"},
			Attr:  "Foo",
		}, "pkg.mod.Foo", true},
		{"attribute on call", &syntax.Attribute{
			Value: &syntax.Call{Func: &syntax.Name{ID: "make"}},
			Attr:  "run",
		}, "run", true},
		{"attribute on subscript", &syntax.Attribute{
			Value: &syntax.Other{Kind: "subscript"},
			Attr:  "run",
		}, "run", true},
		{"call result", &syntax.Call{Func: &syntax.Name{ID: "f"}}, "", false},
		{"literal", &syntax.Other{Kind: "string"}, "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DottedName(tt.expr)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "Foo", LastSegment("pkg.mod.Foo"))
	assert.Equal(t, "Foo", LastSegment("Foo"))
}

func newGraph() *graph.Graph {
	g := graph.New()
	g.AddNode("file:lib.py", graph.KindFile, "lib.py", graph.OriginOwn, 10)
	g.AddNode("file:lib.py::class:pkg.mod.Foo", graph.KindClass, "pkg.mod.Foo", graph.OriginOwn, 3)
	g.AddNode("file:lib.py::function:Foo", graph.KindFunction, "Foo", graph.OriginOwn, 2)
	g.AddNode("file:main.py", graph.KindFile, "main.py", graph.OriginOwn, 10)
	g.AddNode("file:main.py::function:Foo", graph.KindFunction, "Foo", graph.OriginOwn, 2)
	return g
}

func TestTargetFullNameWins(t *testing.T) {
	g := newGraph()
	r := New(g, "file:main.py")
	assert.Equal(t, "file:lib.py::class:pkg.mod.Foo", r.Target("pkg.mod.Foo"))
}

func TestTargetPrefersSameFile(t *testing.T) {
	g := newGraph()
	assert.Equal(t, "file:main.py::function:Foo", New(g, "file:main.py").Target("Foo"))
	assert.Equal(t, "file:lib.py::function:Foo", New(g, "file:lib.py").Target("Foo"))
	assert.Equal(t, "file:main.py::function:Foo", New(g, "file:main.py").Target("self.Foo"))
}

func TestTargetFallsBackToFirstMatch(t *testing.T) {
	g := newGraph()
	r := New(g, "file:other.py")
	assert.Equal(t, "file:lib.py::function:Foo", r.Target("obj.Foo"))
}

func TestTargetIgnoresNonCallableLabels(t *testing.T) {
	g := graph.New()
	g.AddNode("file:os", graph.KindFile, "os", graph.OriginExternal, 0)
	g.AddNode("dir:os", graph.KindDir, "os", graph.OriginOwn, 0)

	r := New(g, "file:a.py")
	assert.Equal(t, "function:os", r.Target("os"))
}

func TestTargetSynthesizesPlaceholder(t *testing.T) {
	g := graph.New()
	r := New(g, "file:a.py")

	id := r.Target("requests.get")
	assert.Equal(t, "function:requests.get", id)

	n, ok := g.Node(id)
	require.True(t, ok)
	assert.Equal(t, graph.KindFunction, n.Kind)
	assert.Equal(t, "get", n.Label)
	assert.Equal(t, graph.OriginExternal, n.Origin)
	assert.Equal(t, 0, n.Size)

	// the placeholder is now a candidate for later short-name lookups
	assert.Equal(t, "function:requests.get", r.Target("session.get"))
	assert.Len(t, g.Nodes(), 1)
}

func TestTargetDependsOnInsertionOrder(t *testing.T) {
	g := graph.New()
	r := New(g, "file:a.py")
	assert.Equal(t, "function:g", r.Target("g"))

	// a definition added later does not displace the earlier placeholder
	g.AddNode("file:b.py::function:g", graph.KindFunction, "g", graph.OriginOwn, 2)
	assert.Equal(t, "function:g", r.Target("g"))
}
