// Package project discovers the files to analyze and seeds the directory
// structure of the graph.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"callmap/internal/graph"
	"callmap/internal/scanner"
)

// Options controls file discovery.
type Options struct {
	Language         *scanner.Language
	RespectGitignore bool
	Exclude          []string // gitignore-syntax patterns, relative to the target
}

// Layout is a resolved analysis target.
type Layout struct {
	Target string   // absolute path of the file or directory analyzed
	Root   string   // ids are relative to this directory
	Files  []string // absolute paths in discovery order
}

// Resolve locates target and lists the files to analyze.
//
// A directory target is rooted at its parent so its own name shows up as
// the top-level directory node. A single file is rooted two levels up so
// its immediate directory is kept as well.
func Resolve(target string, opts Options) (*Layout, error) {
	if opts.Language == nil {
		return nil, fmt.Errorf("no language configured")
	}
	abs, info, err := locate(target)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return &Layout{
			Target: abs,
			Root:   filepath.Dir(filepath.Dir(abs)),
			Files:  []string{abs},
		}, nil
	}

	files, err := discover(abs, opts)
	if err != nil {
		return nil, err
	}
	return &Layout{
		Target: abs,
		Root:   filepath.Dir(abs),
		Files:  files,
	}, nil
}

// locate resolves target as given, then relative to the working directory.
func locate(target string) (string, os.FileInfo, error) {
	abs, err := filepath.Abs(target)
	if err == nil {
		if resolved, evalErr := filepath.EvalSymlinks(abs); evalErr == nil {
			abs = resolved
		}
		if info, statErr := os.Stat(abs); statErr == nil {
			return abs, info, nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	alt := filepath.Join(cwd, target)
	info, err := os.Stat(alt)
	if err != nil {
		return "", nil, fmt.Errorf("target %s not found: %w", target, err)
	}
	return alt, info, nil
}

// discover walks dir recursively. WalkDir visits entries in lexical order,
// so files come out sorted component by component.
func discover(dir string, opts Options) ([]string, error) {
	matcher, err := newMatcher(dir, opts)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if matcher.excluded(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !opts.Language.Matches(path) {
			return nil
		}
		if matcher.excluded(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

type matcher struct {
	rules []*ignore.GitIgnore
}

func newMatcher(dir string, opts Options) (*matcher, error) {
	m := &matcher{}
	if opts.RespectGitignore {
		path := filepath.Join(dir, ".gitignore")
		if _, err := os.Stat(path); err == nil {
			gi, err := ignore.CompileIgnoreFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			m.rules = append(m.rules, gi)
		}
	}
	if len(opts.Exclude) > 0 {
		m.rules = append(m.rules, ignore.CompileIgnoreLines(opts.Exclude...))
	}
	return m, nil
}

func (m *matcher) excluded(rel string) bool {
	for _, gi := range m.rules {
		if gi.MatchesPath(rel) || gi.MatchesPath(strings.TrimSuffix(rel, "/")) {
			return true
		}
	}
	return false
}

// Seed adds directory nodes for every directory between root and each
// file, with has edges from parent to child directory and from a file's
// directory to the file. The file nodes themselves are added by the walker.
func Seed(g *graph.Graph, root string, files []string) error {
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", f, err)
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		dirs := parts[:len(parts)-1]
		for i := range dirs {
			id := graph.DirID(dirs[:i+1]...)
			if g.AddNode(id, graph.KindDir, dirs[i], graph.OriginOwn, 0) && i > 0 {
				g.AddEdge(graph.DirID(dirs[:i]...), id, graph.RelationHas)
			}
		}
		if len(dirs) > 0 {
			g.AddEdge(graph.DirID(dirs...), graph.FileID(rel), graph.RelationHas)
		}
	}
	return nil
}
