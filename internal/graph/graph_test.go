package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeFirstWriterWins(t *testing.T) {
	g := New()

	require.True(t, g.AddNode("file:a.py::function:run", KindFunction, "run", OriginOwn, 12))
	require.False(t, g.AddNode("file:a.py::function:run", KindClass, "other", OriginExternal, 3))

	n, ok := g.Node("file:a.py::function:run")
	require.True(t, ok)
	assert.Equal(t, KindFunction, n.Kind)
	assert.Equal(t, "run", n.Label)
	assert.Equal(t, OriginOwn, n.Origin)
	assert.Equal(t, 12, n.Size)
	assert.Len(t, g.Nodes(), 1)
	assert.Len(t, g.WithLabel("other"), 0)
}

func TestAddNodeClampsNegativeSize(t *testing.T) {
	g := New()
	g.AddNode("x", KindFile, "x", OriginOwn, -4)
	n, _ := g.Node("x")
	assert.Equal(t, 0, n.Size)
}

func TestEdgesKeepOrderAndDuplicates(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", RelationCalls)
	g.AddEdge("a", "c", RelationHas)
	g.AddEdge("a", "b", RelationCalls)

	assert.Equal(t, []Edge{
		{Src: "a", Dst: "b", Kind: RelationCalls},
		{Src: "a", Dst: "c", Kind: RelationHas},
		{Src: "a", Dst: "b", Kind: RelationCalls},
	}, g.Edges())
}

func TestNodesAndLabelsInInsertionOrder(t *testing.T) {
	g := New()
	g.AddNode("file:b.py::function:run", KindFunction, "run", OriginOwn, 1)
	g.AddNode("file:a.py", KindFile, "a.py", OriginOwn, 1)
	g.AddNode("file:a.py::function:run", KindFunction, "run", OriginOwn, 1)

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"file:b.py::function:run", "file:a.py", "file:a.py::function:run"}, ids)

	runs := g.WithLabel("run")
	require.Len(t, runs, 2)
	assert.Equal(t, "file:b.py::function:run", runs[0].ID)
	assert.Equal(t, "file:a.py::function:run", runs[1].ID)
}

func TestSummary(t *testing.T) {
	g := New()
	g.AddNode("dir:p", KindDir, "p", OriginOwn, 0)
	g.AddNode("file:p/a.py", KindFile, "a.py", OriginOwn, 3)
	g.AddNode("file:p/a.py::function:f", KindFunction, "f", OriginOwn, 2)
	g.AddNode("function:g", KindFunction, "g", OriginExternal, 0)
	g.AddEdge("dir:p", "file:p/a.py", RelationHas)
	g.AddEdge("file:p/a.py", "file:p/a.py::function:f", RelationHas)
	g.AddEdge("file:p/a.py::function:f", "function:g", RelationCalls)

	s := g.Summary()
	assert.Equal(t, 4, s.Nodes)
	assert.Equal(t, 3, s.Edges)
	assert.Equal(t, map[Kind]int{KindDir: 1, KindFile: 1, KindFunction: 2}, s.NodesByKind)
	assert.Equal(t, map[Relation]int{RelationHas: 2, RelationCalls: 1}, s.EdgesByKind)
	assert.Equal(t, "  Nodes: 4 {dir: 1, file: 1, function: 2}\n  Edges: 3 {calls: 1, has: 2}", s.String())
}

func TestIDs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"scoped", ScopedID("file:pkg/a.py", KindClass, "Foo"), "file:pkg/a.py::class:Foo"},
		{"nested", ScopedID(ScopedID("file:a.py", KindClass, "Foo"), KindFunction, "run"), "file:a.py::class:Foo::function:run"},
		{"file", FileID("pkg/sub/a.py"), "file:pkg/sub/a.py"},
		{"dir", DirID("pkg", "sub"), "dir:pkg/sub"},
		{"single dir", DirID("pkg"), "dir:pkg"},
		{"external class", ExternalID(KindClass, "abc.ABC"), "class:abc.ABC"},
		{"external module", ExternalID(KindFile, "os.path"), "file:os.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestSiblingFilesDoNotCollide(t *testing.T) {
	a := ScopedID(FileID("a.py"), KindFunction, "run")
	b := ScopedID(FileID("b.py"), KindFunction, "run")
	assert.NotEqual(t, a, b)
}

func TestIsUnder(t *testing.T) {
	assert.True(t, IsUnder("file:a.py", "file:a.py"))
	assert.True(t, IsUnder("file:a.py::class:A::function:f", "file:a.py"))
	assert.False(t, IsUnder("file:a.pyx::function:f", "file:a.py"))
	assert.False(t, IsUnder("function:f", "file:a.py"))
}
