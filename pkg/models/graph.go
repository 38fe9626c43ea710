package models

// GraphNode is a module in the dependency graph.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// GraphEdge is a dependency from SourceID to TargetID.
type GraphEdge struct {
	ID       string `json:"id"`
	SourceID string `json:"source"`
	TargetID string `json:"target"`
}

// Graph is a deduplicated dependency graph. Nodes and edges are kept in
// first-seen order but carry set semantics.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Clone returns a copy of g with its own backing arrays.
func (g Graph) Clone() Graph {
	out := Graph{}
	if g.Nodes != nil {
		out.Nodes = append(make([]GraphNode, 0, len(g.Nodes)), g.Nodes...)
	}
	if g.Edges != nil {
		out.Edges = append(make([]GraphEdge, 0, len(g.Edges)), g.Edges...)
	}
	return out
}
