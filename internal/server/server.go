// Package server exposes graph builds over the Model Context Protocol.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"callmap/internal/config"
	"callmap/internal/graph"
	"callmap/internal/metrics"
	"callmap/internal/project"
	"callmap/internal/scanner"
	"callmap/internal/store"
	"callmap/util"
)

const cacheSize = 32

const defaultSystemPrompt = `# callmap

callmap builds a call and containment graph of a source tree from syntax
alone and renders it as Graphviz DOT.

- Call build_graph first; later tools reuse the cached build until files change.
- When builds are archived, get_archived_dot returns the last archived build
  without parsing anything.
- Call targets are resolved heuristically by name. A call can be linked to an
  unrelated symbol with the same name, and calls to definitions in files
  walked later point at external placeholder nodes.
- Node ids are hierarchical: file:pkg/a.py::class:Foo::function:run.
`

// Server serves callmap tools over stdio.
type Server struct {
	mcpServer    *mcp.Server
	cfg          *config.Config
	store        *store.Store
	cache        *lru.Cache[string, *cacheEntry]
	systemPrompt string
}

type cacheEntry struct {
	fingerprint uint64
	result      *project.Result
}

// New creates a server. st may be nil, in which case builds are not archived.
func New(cfg *config.Config, st *store.Store, version string) (*Server, error) {
	cache, err := lru.New[string, *cacheEntry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create build cache: %w", err)
	}
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "callmap",
			Version: version,
		}, nil),
		cfg:          cfg,
		store:        st,
		cache:        cache,
		systemPrompt: defaultSystemPrompt,
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// build returns the graph for path, reusing a cached build while the
// discovered files are unchanged.
func (s *Server) build(ctx context.Context, path, language string, force bool) (*project.Result, bool, error) {
	opts, layout, err := s.resolve(path, language)
	if err != nil {
		return nil, false, err
	}
	lang := opts.Language
	key := cacheKey(layout.Target, lang.Name)
	fp := util.Fingerprint(layout.Files)
	if entry, ok := s.cache.Get(key); ok && !force && entry.fingerprint == fp {
		metrics.CacheHits.Inc()
		return entry.result, true, nil
	}

	res, err := project.NewBuilder(opts).BuildFiles(ctx, layout.Root, layout.Files)
	if err != nil {
		return nil, false, err
	}
	res.Layout = layout
	s.cache.Add(key, &cacheEntry{fingerprint: fp, result: res})

	if s.store != nil {
		run, err := s.store.SaveRun(ctx, layout.Target, lang.Name, res.Graph)
		if err != nil {
			log.Printf("[server] Warning: failed to archive build: %v", err)
		} else {
			log.Printf("[server] Archived build of %s as run %s", layout.Target, run.ID)
		}
	}
	return res, false, nil
}

// resolve applies the server defaults to a tool's path and language and
// locates the target.
func (s *Server) resolve(path, language string) (project.Options, *project.Layout, error) {
	if path == "" {
		root, err := util.FindGitRoot("")
		if err != nil {
			return project.Options{}, nil, fmt.Errorf("failed to determine project root: %w", err)
		}
		path = root
	}
	if language == "" {
		language = s.cfg.Language
	}
	lang, err := scanner.Lookup(language)
	if err != nil {
		return project.Options{}, nil, err
	}
	opts, err := s.cfg.ProjectOptions()
	if err != nil {
		return project.Options{}, nil, err
	}
	opts.Language = lang

	layout, err := project.Resolve(path, opts)
	if err != nil {
		return project.Options{}, nil, err
	}
	return opts, layout, nil
}

// archived loads the most recent archived build of path without
// rebuilding.
func (s *Server) archived(ctx context.Context, path, language string) (*store.Run, *graph.Graph, error) {
	if s.store == nil {
		return nil, nil, errors.New("no SQLite archive configured")
	}
	_, layout, err := s.resolve(path, language)
	if err != nil {
		return nil, nil, err
	}
	run, err := s.store.LatestRun(ctx, layout.Target)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.store.LoadRun(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, g, nil
}

func cacheKey(target, language string) string {
	return strings.Join([]string{language, target}, "\x00")
}
