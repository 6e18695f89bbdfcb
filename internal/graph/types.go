package graph

// Kind is the syntactic category of a node.
type Kind string

const (
	KindDir      Kind = "dir"
	KindFile     Kind = "file"
	KindClass    Kind = "class"
	KindFunction Kind = "function"
)

// Kinds lists node kinds in reporting order.
var Kinds = []Kind{KindDir, KindFile, KindClass, KindFunction}

// Origin records whether a node was walked or only referenced.
type Origin string

const (
	OriginOwn      Origin = "own"
	OriginExternal Origin = "external"
)

// Node represents a directory, file, class or function in the graph.
type Node struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Label  string `json:"label"`
	Origin Origin `json:"origin"`
	Size   int    `json:"size"` // source lines, 0 when unknown
}

// Relation is the kind of an edge.
type Relation string

// Edge represents a relationship between two nodes.
type Edge struct {
	Src  string   `json:"src"`
	Dst  string   `json:"dst"`
	Kind Relation `json:"kind"`
}

const (
	RelationImports Relation = "imports"
	RelationCalls   Relation = "calls"
	RelationHas     Relation = "has"
	RelationIs      Relation = "is"
)

// Relations lists edge kinds in reporting order.
var Relations = []Relation{RelationImports, RelationCalls, RelationHas, RelationIs}
