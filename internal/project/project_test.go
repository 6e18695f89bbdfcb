package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callmap/internal/graph"
	"callmap/internal/scanner"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func pythonOptions(t *testing.T) Options {
	t.Helper()
	lang, err := scanner.Lookup("python")
	require.NoError(t, err)
	return Options{Language: lang, RespectGitignore: true}
}

func relFiles(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func callEdges(g *graph.Graph) [][2]string {
	var out [][2]string
	for _, e := range g.Edges() {
		if e.Kind == graph.RelationCalls {
			out = append(out, [2]string{e.Src, e.Dst})
		}
	}
	return out
}

func TestResolveDirectory(t *testing.T) {
	tmp := t.TempDir()
	writeFiles(t, tmp, map[string]string{
		"proj/z.py":          "",
		"proj/a.py":          "",
		"proj/pkg/m.py":      "",
		"proj/pkg/b/n.py":    "",
		"proj/notes.txt":     "",
		"proj/pkg/script.js": "",
	})

	layout, err := Resolve(filepath.Join(tmp, "proj"), pythonOptions(t))
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(layout.Target), layout.Root)
	assert.Equal(t, "proj", filepath.Base(layout.Target))
	assert.Equal(t, []string{
		"proj/a.py",
		"proj/pkg/b/n.py",
		"proj/pkg/m.py",
		"proj/z.py",
	}, relFiles(t, layout.Root, layout.Files))
}

func TestResolveSingleFile(t *testing.T) {
	tmp := t.TempDir()
	writeFiles(t, tmp, map[string]string{"x/y/z.py": "def f():\n    pass\n"})

	opts := pythonOptions(t)
	layout, err := Resolve(filepath.Join(tmp, "x", "y", "z.py"), opts)
	require.NoError(t, err)
	require.Len(t, layout.Files, 1)
	assert.Equal(t, []string{"y/z.py"}, relFiles(t, layout.Root, layout.Files))

	res, err := NewBuilder(opts).Build(context.Background(), filepath.Join(tmp, "x", "y", "z.py"))
	require.NoError(t, err)

	_, ok := res.Graph.Node("file:y/z.py")
	assert.True(t, ok)
	dir, ok := res.Graph.Node("dir:y")
	require.True(t, ok)
	assert.Equal(t, "y", dir.Label)
	assert.Contains(t, res.Graph.Edges(), graph.Edge{Src: "dir:y", Dst: "file:y/z.py", Kind: graph.RelationHas})
}

func TestResolveMissingTarget(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope"), pythonOptions(t))
	assert.Error(t, err)
}

func TestResolveNoLanguage(t *testing.T) {
	_, err := Resolve(t.TempDir(), Options{})
	assert.Error(t, err)
}

func TestResolveGitignoreAndExclude(t *testing.T) {
	tmp := t.TempDir()
	writeFiles(t, tmp, map[string]string{
		"proj/.gitignore":      "build/\nskip.py\n",
		"proj/keep.py":         "",
		"proj/skip.py":         "",
		"proj/build/gen.py":    "",
		"proj/tests/t_main.py": "",
		"proj/src/app.py":      "",
	})
	proj := filepath.Join(tmp, "proj")

	opts := pythonOptions(t)
	layout, err := Resolve(proj, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"proj/keep.py",
		"proj/src/app.py",
		"proj/tests/t_main.py",
	}, relFiles(t, layout.Root, layout.Files))

	opts.Exclude = []string{"tests/"}
	layout, err = Resolve(proj, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"proj/keep.py",
		"proj/src/app.py",
	}, relFiles(t, layout.Root, layout.Files))

	opts = pythonOptions(t)
	opts.RespectGitignore = false
	layout, err = Resolve(proj, opts)
	require.NoError(t, err)
	assert.Len(t, layout.Files, 5)
}

func TestSeed(t *testing.T) {
	root := filepath.FromSlash("/work")
	g := graph.New()
	err := Seed(g, root, []string{
		filepath.FromSlash("/work/a/b/c.py"),
		filepath.FromSlash("/work/a/d.py"),
		filepath.FromSlash("/work/top.py"),
	})
	require.NoError(t, err)

	var dirs []string
	for _, n := range g.Nodes() {
		assert.Equal(t, graph.KindDir, n.Kind)
		dirs = append(dirs, n.ID)
	}
	assert.Equal(t, []string{"dir:a", "dir:a/b"}, dirs)

	b, _ := g.Node("dir:a/b")
	assert.Equal(t, "b", b.Label)

	assert.Equal(t, []graph.Edge{
		{Src: "dir:a", Dst: "dir:a/b", Kind: graph.RelationHas},
		{Src: "dir:a/b", Dst: "file:a/b/c.py", Kind: graph.RelationHas},
		{Src: "dir:a", Dst: "file:a/d.py", Kind: graph.RelationHas},
	}, g.Edges())
}

func TestBuildFilesWalkOrder(t *testing.T) {
	proj := t.TempDir()
	writeFiles(t, proj, map[string]string{
		"a.py": "from b import g\n\ndef f():\n    g()\n",
		"b.py": "def g():\n    pass\n",
	})
	a := filepath.Join(proj, "a.py")
	b := filepath.Join(proj, "b.py")
	builder := NewBuilder(pythonOptions(t))

	t.Run("caller first", func(t *testing.T) {
		res, err := builder.BuildFiles(context.Background(), proj, []string{a, b})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.py", "b.py"}, res.Walked)
		assert.Equal(t, [][2]string{
			{"file:a.py::function:f", "function:g"},
		}, callEdges(res.Graph))

		placeholder, ok := res.Graph.Node("function:g")
		require.True(t, ok)
		assert.Equal(t, graph.OriginExternal, placeholder.Origin)
		assert.Equal(t, "g", placeholder.Label)
		assert.Contains(t, res.Graph.Edges(), graph.Edge{Src: "file:a.py", Dst: "file:b", Kind: graph.RelationImports})
	})

	t.Run("callee first", func(t *testing.T) {
		res, err := builder.BuildFiles(context.Background(), proj, []string{b, a})
		require.NoError(t, err)
		assert.Equal(t, [][2]string{
			{"file:a.py::function:f", "file:b.py::function:g"},
		}, callEdges(res.Graph))
		_, ok := res.Graph.Node("function:g")
		assert.False(t, ok)
	})
}

func TestBuildSkipsUnparsableFile(t *testing.T) {
	tmp := t.TempDir()
	writeFiles(t, tmp, map[string]string{
		"proj/pkg/good.py": "def ok():\n    pass\n",
		"proj/pkg/bad.py":  "def broken(:\n",
	})

	res, err := NewBuilder(pythonOptions(t)).Build(context.Background(), filepath.Join(tmp, "proj"))
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "proj/pkg/bad.py", filepath.ToSlash(res.Skipped[0].Path))
	assert.Equal(t, []string{"proj/pkg/good.py"}, res.Walked)

	for _, n := range res.Graph.Nodes() {
		assert.NotContains(t, n.ID, "bad.py")
	}
	for _, e := range res.Graph.Edges() {
		assert.NotContains(t, e.Dst, "bad.py")
	}
	assert.Contains(t, res.Graph.Edges(), graph.Edge{Src: "dir:proj/pkg", Dst: "file:proj/pkg/good.py", Kind: graph.RelationHas})
}

func TestBuildFileSizeWithoutTrailingNewline(t *testing.T) {
	proj := t.TempDir()
	writeFiles(t, proj, map[string]string{"m.py": "x = 1\ny = 2\nz = 3"})

	res, err := NewBuilder(pythonOptions(t)).BuildFiles(context.Background(), proj, []string{filepath.Join(proj, "m.py")})
	require.NoError(t, err)
	n, ok := res.Graph.Node("file:m.py")
	require.True(t, ok)
	assert.Equal(t, 3, n.Size)
	assert.Equal(t, "m.py", n.Label)
}

func TestBuildCancelled(t *testing.T) {
	proj := t.TempDir()
	writeFiles(t, proj, map[string]string{"m.py": "pass\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(pythonOptions(t)).BuildFiles(ctx, proj, []string{filepath.Join(proj, "m.py")})
	assert.ErrorIs(t, err, context.Canceled)
}
