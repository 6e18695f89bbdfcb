package project

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"callmap/internal/graph"
	"callmap/internal/metrics"
	"callmap/internal/syntax"
	"callmap/internal/walker"
)

// Skipped records a file that contributed nothing to the graph.
type Skipped struct {
	Path string
	Err  error
}

// Result is the outcome of one build.
type Result struct {
	Graph    *graph.Graph
	Layout   *Layout
	Walked   []string // root-relative paths, in walk order
	Skipped  []Skipped
	Duration time.Duration
}

// Builder turns a target path into a graph.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build resolves target, then parses and walks every discovered file.
func (b *Builder) Build(ctx context.Context, target string) (*Result, error) {
	layout, err := Resolve(target, b.opts)
	if err != nil {
		return nil, err
	}
	res, err := b.BuildFiles(ctx, layout.Root, layout.Files)
	if err != nil {
		return nil, err
	}
	res.Layout = layout
	return res, nil
}

type parsedFile struct {
	path  string
	rel   string
	mod   *syntax.Module
	lines int
}

// BuildFiles builds a graph from files, walked in the order given, with
// ids relative to root.
//
// All files are parsed before anything is added to the graph, so a file
// that fails to parse leaves no trace, not even its directory edge.
func (b *Builder) BuildFiles(ctx context.Context, root string, files []string) (*Result, error) {
	start := time.Now()
	res := &Result{Graph: graph.New()}

	var parsed []parsedFile
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		pf, err := b.parse(path)
		if err != nil {
			log.Printf("[build] Warning: skipping %s: %v", rel, err)
			res.Skipped = append(res.Skipped, Skipped{Path: rel, Err: err})
			metrics.FilesSkipped.Inc()
			continue
		}
		pf.rel = rel
		parsed = append(parsed, pf)
		metrics.FilesParsed.Inc()
	}

	paths := make([]string, len(parsed))
	for i, pf := range parsed {
		paths[i] = pf.path
	}
	if err := Seed(res.Graph, root, paths); err != nil {
		return nil, err
	}

	for _, pf := range parsed {
		walker.New(res.Graph, pf.rel).Walk(pf.mod, pf.lines)
		res.Walked = append(res.Walked, filepath.ToSlash(pf.rel))
	}

	res.Duration = time.Since(start)
	metrics.Observe(res.Graph.Summary(), res.Duration)
	return res, nil
}

func (b *Builder) parse(path string) (parsedFile, error) {
	parser, err := b.opts.Language.ParserFor(path)
	if err != nil {
		return parsedFile{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return parsedFile{}, fmt.Errorf("failed to read file: %w", err)
	}
	mod, err := parser.Parse(src)
	if err != nil {
		return parsedFile{}, err
	}
	return parsedFile{path: path, mod: mod, lines: syntax.LineCount(src)}, nil
}
