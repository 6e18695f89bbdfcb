package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"callmap/internal/dot"
	"callmap/internal/graph"
	"callmap/internal/store"
)

// Arguments structs

type BuildGraphArgs struct {
	Path     string `json:"path,omitempty" jsonschema:"Directory or file to analyze; defaults to the enclosing git repository"`
	Language string `json:"language,omitempty" jsonschema:"Source language: python, javascript, typescript or go"`
	Output   string `json:"output,omitempty" jsonschema:"If set, the DOT graph is also written to this file"`
	Force    bool   `json:"force,omitempty" jsonschema:"Rebuild even if no files changed since the last build"`
}

type GetDotArgs struct {
	Path     string `json:"path,omitempty" jsonschema:"Directory or file to analyze; defaults to the enclosing git repository"`
	Language string `json:"language,omitempty" jsonschema:"Source language: python, javascript, typescript or go"`
}

type SymbolArgs struct {
	Path     string `json:"path,omitempty" jsonschema:"Directory or file to analyze; defaults to the enclosing git repository"`
	Language string `json:"language,omitempty" jsonschema:"Source language: python, javascript, typescript or go"`
	Symbol   string `json:"symbol" jsonschema:"Node id, or a label such as a function or class name"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "build_graph",
		Description: "Builds the call graph of a source tree and returns node and edge counts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BuildGraphArgs) (*mcp.CallToolResult, any, error) {
		res, cached, err := s.build(ctx, args.Path, args.Language, args.Force)
		if err != nil {
			return errorResult(fmt.Sprintf("Build failed: %v", err)), nil, nil
		}
		if args.Output != "" {
			if err := dot.WriteFile(args.Output, res.Graph); err != nil {
				return errorResult(fmt.Sprintf("Write failed: %v", err)), nil, nil
			}
		}

		skipped := make([]map[string]string, 0, len(res.Skipped))
		for _, sk := range res.Skipped {
			skipped = append(skipped, map[string]string{"path": sk.Path, "error": sk.Err.Error()})
		}
		result := map[string]any{
			"root":             res.Layout.Root,
			"files":            len(res.Walked),
			"skipped":          skipped,
			"summary":          res.Graph.Summary(),
			"cached":           cached,
			"duration_seconds": res.Duration.Seconds(),
		}
		if args.Output != "" {
			result["output"] = args.Output
		}
		return jsonResult(result), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_dot",
		Description: "Returns the call graph of a source tree as Graphviz DOT",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetDotArgs) (*mcp.CallToolResult, any, error) {
		res, _, err := s.build(ctx, args.Path, args.Language, false)
		if err != nil {
			return errorResult(fmt.Sprintf("Build failed: %v", err)), nil, nil
		}
		return textResult(dot.Render(res.Graph)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_archived_dot",
		Description: "Returns the most recent archived build of a source tree as Graphviz DOT",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetDotArgs) (*mcp.CallToolResult, any, error) {
		run, g, err := s.archived(ctx, args.Path, args.Language)
		if errors.Is(err, store.ErrNoRun) {
			return textResult("No archived build found. Call build_graph first."), nil, nil
		}
		if err != nil {
			return errorResult(fmt.Sprintf("Load failed: %v", err)), nil, nil
		}
		return textResult(fmt.Sprintf("// run %s (%s, %s)\n%s",
			run.ID, run.Language, run.CreatedAt.Format(time.RFC3339), dot.Render(g))), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_callers",
		Description: "Lists the scopes whose call sites were linked to a symbol",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SymbolArgs) (*mcp.CallToolResult, any, error) {
		res, _, err := s.build(ctx, args.Path, args.Language, false)
		if err != nil {
			return errorResult(fmt.Sprintf("Build failed: %v", err)), nil, nil
		}
		links := callers(res.Graph, args.Symbol)
		if len(links) == 0 {
			return textResult("No callers found."), nil, nil
		}
		return jsonResult(links), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_callees",
		Description: "Lists the targets a symbol's call sites were linked to",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SymbolArgs) (*mcp.CallToolResult, any, error) {
		res, _, err := s.build(ctx, args.Path, args.Language, false)
		if err != nil {
			return errorResult(fmt.Sprintf("Build failed: %v", err)), nil, nil
		}
		links := callees(res.Graph, args.Symbol)
		if len(links) == 0 {
			return textResult("No callees found."), nil, nil
		}
		return jsonResult(links), nil, nil
	})
}

// Link is one end of a calls edge, with the number of call sites.
type Link struct {
	ID     string       `json:"id"`
	Label  string       `json:"label"`
	Kind   graph.Kind   `json:"kind"`
	Origin graph.Origin `json:"origin"`
	Calls  int          `json:"calls"`
}

func callers(g *graph.Graph, symbol string) []Link {
	return collect(g, symbol, func(e graph.Edge) (string, string) { return e.Dst, e.Src })
}

func callees(g *graph.Graph, symbol string) []Link {
	return collect(g, symbol, func(e graph.Edge) (string, string) { return e.Src, e.Dst })
}

// collect walks calls edges; ends splits an edge into the endpoint matched
// against symbol and the endpoint reported.
func collect(g *graph.Graph, symbol string, ends func(graph.Edge) (string, string)) []Link {
	var links []Link
	index := make(map[string]int)
	for _, e := range g.Edges() {
		if e.Kind != graph.RelationCalls {
			continue
		}
		match, other := ends(e)
		if !matches(g, match, symbol) {
			continue
		}
		if i, ok := index[other]; ok {
			links[i].Calls++
			continue
		}
		link := Link{ID: other, Calls: 1}
		if n, ok := g.Node(other); ok {
			link.Label, link.Kind, link.Origin = n.Label, n.Kind, n.Origin
		}
		index[other] = len(links)
		links = append(links, link)
	}
	return links
}

func matches(g *graph.Graph, id, symbol string) bool {
	if id == symbol {
		return true
	}
	n, ok := g.Node(id)
	return ok && n.Label == symbol
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Encoding failed: %v", err))
	}
	return textResult(string(jsonBytes))
}
