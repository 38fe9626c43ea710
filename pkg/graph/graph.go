// Package graph builds module dependency graphs.
package graph

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// Builder accumulates a deduplicated graph. Nodes and edges keep
// first-seen order.
type Builder struct {
	nodes []models.GraphNode
	edges []models.GraphEdge
	seenN map[string]struct{}
	seenE map[string]struct{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: []models.GraphNode{},
		edges: []models.GraphEdge{},
		seenN: map[string]struct{}{},
		seenE: map[string]struct{}{},
	}
}

// AddNode adds a module path. Adding a known path is a no-op.
func (b *Builder) AddNode(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if _, ok := b.seenN[path]; ok {
		return nil
	}
	b.seenN[path] = struct{}{}
	b.nodes = append(b.nodes, models.GraphNode{ID: path, Label: Label(path)})
	return nil
}

// AddEdge adds a dependency from src to dst. Both endpoints must already be
// nodes of the graph.
func (b *Builder) AddEdge(src, dst string) error {
	if _, ok := b.seenN[src]; !ok {
		return fmt.Errorf("edge %s: unknown source %q", EdgeID(src, dst), src)
	}
	if _, ok := b.seenN[dst]; !ok {
		return fmt.Errorf("edge %s: unknown target %q", EdgeID(src, dst), dst)
	}
	id := EdgeID(src, dst)
	if _, ok := b.seenE[id]; ok {
		return nil
	}
	b.seenE[id] = struct{}{}
	b.edges = append(b.edges, models.GraphEdge{ID: id, SourceID: src, TargetID: dst})
	return nil
}

// Graph returns the accumulated graph. The result shares no memory with b.
func (b *Builder) Graph() models.Graph {
	return models.Graph{Nodes: b.nodes, Edges: b.edges}.Clone()
}

// Build turns per-module dependency lists into a graph with one node per
// distinct module path and one edge per distinct (module, dependency) pair.
func Build(deps []models.ModuleDependencies) (models.Graph, error) {
	b := NewBuilder()
	for _, m := range deps {
		if err := b.AddNode(m.ModulePath); err != nil {
			return models.Graph{}, err
		}
		for _, d := range m.Dependencies {
			if err := b.AddNode(d); err != nil {
				return models.Graph{}, fmt.Errorf("dependency of %s: %w", m.ModulePath, err)
			}
			if err := b.AddEdge(m.ModulePath, d); err != nil {
				return models.Graph{}, err
			}
		}
	}
	return b.Graph(), nil
}

// EdgeID is the stable identifier of the edge src -> dst.
func EdgeID(src, dst string) string {
	return src + "->" + dst
}

// Label is the final path segment of a module path.
func Label(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ValidatePath rejects module paths that cannot name a node.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty module path", models.ErrMalformedInput)
	}
	for _, r := range path {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: module path %q contains whitespace or control characters", models.ErrMalformedInput, path)
		}
	}
	if strings.HasSuffix(path, "/") {
		return fmt.Errorf("%w: module path %q ends with /", models.ErrMalformedInput, path)
	}
	if strings.HasPrefix(path, "/") || strings.Contains(path, "//") {
		return fmt.Errorf("%w: module path %q has an empty segment", models.ErrMalformedInput, path)
	}
	return nil
}

// Validate reports the first edge whose endpoints are not both nodes.
func Validate(g models.Graph) error {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range g.Edges {
		if _, ok := ids[e.SourceID]; !ok {
			return fmt.Errorf("dangling edge %s: missing source", e.ID)
		}
		if _, ok := ids[e.TargetID]; !ok {
			return fmt.Errorf("dangling edge %s: missing target", e.ID)
		}
	}
	return nil
}

// Equal reports whether a and b hold the same node and edge sets,
// regardless of order.
func Equal(a, b models.Graph) bool {
	return sameSet(nodeKeys(a.Nodes), nodeKeys(b.Nodes)) &&
		sameSet(edgeKeys(a.Edges), edgeKeys(b.Edges))
}

func nodeKeys(nodes []models.GraphNode) map[string]struct{} {
	m := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		m[n.ID+"\x00"+n.Label] = struct{}{}
	}
	return m
}

func edgeKeys(edges []models.GraphEdge) map[string]struct{} {
	m := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		m[e.ID+"\x00"+e.SourceID+"\x00"+e.TargetID] = struct{}{}
	}
	return m
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
