package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"callmap/internal/graph"
)

const (
	guidelinesURI     = "callmap://usage-guidelines"
	graphModelURI     = "callmap://graph-model"
	schemaURIPrefix   = "callmap://schemas/"
	schemaURITemplate = schemaURIPrefix + "{tool_name}"
)

var kindDocs = map[graph.Kind]string{
	graph.KindDir:      "a directory between the project root and a source file",
	graph.KindFile:     "a walked source file, or an imported module when external",
	graph.KindClass:    "a class (or struct, interface) definition, or a base class when external",
	graph.KindFunction: "a function or method, or an unresolved call target when external",
}

var relationDocs = map[graph.Relation]string{
	graph.RelationImports: "file or function imports a module",
	graph.RelationCalls:   "function contains a call site linked to the target by name",
	graph.RelationHas:     "containment: dir to dir or file, file or class to its definitions",
	graph.RelationIs:      "class inherits from or embeds the target",
}

// graphModel describes the node and edge vocabulary of every graph.
type graphModel struct {
	Kinds     []modelEntry `json:"node_kinds"`
	Relations []modelEntry `json:"edge_kinds"`
	Origins   []modelEntry `json:"origins"`
	IDFormats []modelEntry `json:"id_formats"`
}

type modelEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func buildGraphModel() graphModel {
	var m graphModel
	for _, k := range graph.Kinds {
		m.Kinds = append(m.Kinds, modelEntry{Name: string(k), Description: kindDocs[k]})
	}
	for _, r := range graph.Relations {
		m.Relations = append(m.Relations, modelEntry{Name: string(r), Description: relationDocs[r]})
	}
	m.Origins = []modelEntry{
		{Name: string(graph.OriginOwn), Description: "defined in the walked tree; size is its line count"},
		{Name: string(graph.OriginExternal), Description: "only referenced; size is 0"},
	}
	m.IDFormats = []modelEntry{
		{Name: graph.DirID("pkg", "sub"), Description: "directory, slash-joined from the root"},
		{Name: graph.FileID("pkg/a.py"), Description: "source file, slash path from the root"},
		{Name: graph.ScopedID(graph.FileID("pkg/a.py"), graph.KindClass, "Foo"), Description: "definition nested in its enclosing scope"},
		{Name: graph.ExternalID(graph.KindFunction, "os.path.join"), Description: "external node keyed by its dotted name"},
	}
	return m
}

// guidelines renders the usage prompt followed by the graph vocabulary.
func guidelines(prompt string, m graphModel) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n## Node kinds\n\n")
	for _, e := range m.Kinds {
		fmt.Fprintf(&b, "- `%s`: %s\n", e.Name, e.Description)
	}
	b.WriteString("\n## Edge kinds\n\n")
	for _, e := range m.Relations {
		fmt.Fprintf(&b, "- `%s`: %s\n", e.Name, e.Description)
	}
	b.WriteString("\n## Ids\n\n")
	for _, e := range m.IDFormats {
		fmt.Fprintf(&b, "- `%s`: %s\n", e.Name, e.Description)
	}
	return b.String()
}

func (s *Server) registerResources() {
	model := buildGraphModel()
	guide := guidelines(s.systemPrompt, model)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         guidelinesURI,
		Name:        "Usage Guidelines",
		Description: "How to use the callmap tools and read their graphs",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return resourceText(guidelinesURI, "text/markdown", guide), nil
	})

	modelJSON, err := json.MarshalIndent(model, "", "  ")
	if err == nil {
		s.mcpServer.AddResource(&mcp.Resource{
			URI:         graphModelURI,
			Name:        "Graph Model",
			Description: "Node kinds, edge kinds, origins and id formats as JSON",
			MIMEType:    "application/json",
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return resourceText(graphModelURI, "application/json", string(modelJSON)), nil
		})
	}

	schemas := toolSchemas()
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaURITemplate,
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		name := strings.TrimPrefix(uri, schemaURIPrefix)
		schema, ok := schemas[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", name)
		}
		return resourceText(uri, "application/schema+json", schema), nil
	})
}

func resourceText(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

// toolSchemas maps each tool name to the JSON schema of its arguments.
// A schema that fails to generate is left out.
func toolSchemas() map[string]string {
	schemas := make(map[string]string)
	addSchema[BuildGraphArgs](schemas, "build_graph")
	addSchema[GetDotArgs](schemas, "get_dot")
	addSchema[GetDotArgs](schemas, "get_archived_dot")
	addSchema[SymbolArgs](schemas, "find_callers")
	addSchema[SymbolArgs](schemas, "find_callees")
	return schemas
}

func addSchema[T any](schemas map[string]string, tool string) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return
	}
	schemas[tool] = string(data)
}
