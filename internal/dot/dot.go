// Package dot renders a graph as Graphviz DOT.
package dot

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"callmap/internal/graph"
)

const header = `digraph callgraph {
  rankdir=LR;
  node [fontname=Helvetica fontsize=10];
  edge [fontname=Helvetica fontsize=8];

`

var shapes = map[graph.Kind]string{
	graph.KindDir:      "folder",
	graph.KindFile:     "note",
	graph.KindClass:    "box",
	graph.KindFunction: "ellipse",
}

var ownColors = map[graph.Kind]string{
	graph.KindDir:      "#cccccc",
	graph.KindFile:     "#aaddff",
	graph.KindClass:    "#ffddaa",
	graph.KindFunction: "#ddffdd",
}

const externalColor = "#d0d0d0"

var edgeStyles = map[graph.Relation]string{
	graph.RelationImports: `style=dashed color="#6666cc" fontcolor="#6666cc"`,
	graph.RelationCalls:   `color="#cc3333" fontcolor="#cc3333"`,
	graph.RelationHas:     `style=dotted color="#666666" fontcolor="#666666"`,
	graph.RelationIs:      `style=bold color="#33aa33" fontcolor="#33aa33"`,
}

// Write renders g to w: nodes in insertion order, then edges.
func Write(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(header)
	for _, n := range g.Nodes() {
		fmt.Fprintf(bw, "  %s %s;\n", quote(n.ID), nodeAttrs(n))
	}
	bw.WriteString("\n")
	for _, e := range g.Edges() {
		// Endpoints are quoted whether or not the node exists.
		fmt.Fprintf(bw, "  %s -> %s %s;\n", quote(e.Src), quote(e.Dst), edgeAttrs(e))
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// Render returns the DOT text of g.
func Render(g *graph.Graph) string {
	var buf bytes.Buffer
	_ = Write(&buf, g)
	return buf.String()
}

// WriteFile renders g to path.
func WriteFile(path string, g *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Dimensions scales a node's width and height with its line count.
func Dimensions(size int) (width, height float64) {
	width = clamp(0.5+float64(size)/50, 0.5, 3.0)
	height = clamp(0.3+float64(size)/80, 0.3, 2.0)
	return width, height
}

func nodeAttrs(n *graph.Node) string {
	shape, ok := shapes[n.Kind]
	if !ok {
		shape = "ellipse"
	}
	color := externalColor
	if n.Origin == graph.OriginOwn {
		if c, ok := ownColors[n.Kind]; ok {
			color = c
		} else {
			color = "#ffffff"
		}
	}
	w, h := Dimensions(n.Size)
	return fmt.Sprintf(`[label=%s shape=%s style=filled fillcolor="%s" origin="%s" loc=%d width=%.2f height=%.2f]`,
		quote(n.Label), shape, color, n.Origin, n.Size, w, h)
}

func edgeAttrs(e graph.Edge) string {
	style := edgeStyles[e.Kind]
	if style == "" {
		return fmt.Sprintf("[label=%s]", quote(string(e.Kind)))
	}
	return fmt.Sprintf("[label=%s %s]", quote(string(e.Kind)), style)
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
