package graph

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

func TestBuildScenario(t *testing.T) {
	g, err := Build([]models.ModuleDependencies{
		{ModulePath: "a", Dependencies: []string{"b", "b"}},
		{ModulePath: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := models.Graph{
		Nodes: []models.GraphNode{{ID: "a", Label: "a"}, {ID: "b", Label: "b"}},
		Edges: []models.GraphEdge{{ID: "a->b", SourceID: "a", TargetID: "b"}},
	}
	if !reflect.DeepEqual(g, want) {
		t.Errorf("Build =\n%+v\nwant\n%+v", g, want)
	}
}

func TestBuildEmpty(t *testing.T) {
	g, err := Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Nodes == nil || g.Edges == nil {
		t.Error("empty graph should have non-nil slices")
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
}

func TestBuildLabelsAndTargetsOnly(t *testing.T) {
	g, err := Build([]models.ModuleDependencies{
		{ModulePath: "github.com/acme/app", Dependencies: []string{"github.com/acme/lib/util"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(g.Nodes))
	}
	if g.Nodes[0].Label != "app" || g.Nodes[1].Label != "util" {
		t.Errorf("labels = %q, %q", g.Nodes[0].Label, g.Nodes[1].Label)
	}
}

func TestBuildSelfEdge(t *testing.T) {
	g, err := Build([]models.ModuleDependencies{{ModulePath: "a", Dependencies: []string{"a"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 1 || len(g.Edges) != 1 {
		t.Fatalf("got %d nodes %d edges, want 1/1", len(g.Nodes), len(g.Edges))
	}
	if e := g.Edges[0]; e.SourceID != "a" || e.TargetID != "a" || e.ID != "a->a" {
		t.Errorf("self edge = %+v", e)
	}
}

func TestBuildMalformedPaths(t *testing.T) {
	tests := []struct {
		name string
		deps []models.ModuleDependencies
	}{
		{"empty source", []models.ModuleDependencies{{ModulePath: ""}}},
		{"empty dependency", []models.ModuleDependencies{{ModulePath: "a", Dependencies: []string{""}}}},
		{"space", []models.ModuleDependencies{{ModulePath: "a b"}}},
		{"control", []models.ModuleDependencies{{ModulePath: "a\x01"}}},
		{"trailing slash", []models.ModuleDependencies{{ModulePath: "a/"}}},
		{"empty segment", []models.ModuleDependencies{{ModulePath: "a//b"}}},
		{"leading slash", []models.ModuleDependencies{{ModulePath: "/a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.deps)
			if !errors.Is(err, models.ErrMalformedInput) {
				t.Errorf("err = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestBuilderRefusesUnknownEndpoints(t *testing.T) {
	b := NewBuilder()
	if err := b.AddNode("a"); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEdge("a", "b"); err == nil {
		t.Error("expected error for unknown target")
	}
	if err := b.AddEdge("x", "a"); err == nil {
		t.Error("expected error for unknown source")
	}
	if g := b.Graph(); len(g.Edges) != 0 {
		t.Errorf("refused edges should not be recorded: %+v", g.Edges)
	}
}

func TestBuildIdempotentUnderPermutationAndDuplication(t *testing.T) {
	deps := []models.ModuleDependencies{
		{ModulePath: "app", Dependencies: []string{"lib/a", "lib/b"}},
		{ModulePath: "lib/a", Dependencies: []string{"lib/b", "std"}},
		{ModulePath: "lib/b", Dependencies: []string{"std"}},
		{ModulePath: "tools", Dependencies: []string{"app", "tools"}},
	}
	base, err := Build(deps)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 30; i++ {
		var mixed []models.ModuleDependencies
		for _, d := range deps {
			ds := append([]string(nil), d.Dependencies...)
			ds = append(ds, ds...)
			rng.Shuffle(len(ds), func(a, b int) { ds[a], ds[b] = ds[b], ds[a] })
			mixed = append(mixed, models.ModuleDependencies{ModulePath: d.ModulePath, Dependencies: ds})
			if rng.Intn(2) == 0 {
				mixed = append(mixed, models.ModuleDependencies{ModulePath: d.ModulePath, Dependencies: ds[:len(ds)/2]})
			}
		}
		rng.Shuffle(len(mixed), func(a, b int) { mixed[a], mixed[b] = mixed[b], mixed[a] })

		g, err := Build(mixed)
		if err != nil {
			t.Fatal(err)
		}
		if !Equal(g, base) {
			t.Fatalf("iteration %d: graph differs\n got %+v\nwant %+v", i, g, base)
		}
		if err := Validate(g); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
	}
}

func TestValidateDetectsDangling(t *testing.T) {
	g := models.Graph{
		Nodes: []models.GraphNode{{ID: "a", Label: "a"}},
		Edges: []models.GraphEdge{{ID: "a->b", SourceID: "a", TargetID: "b"}},
	}
	if err := Validate(g); err == nil {
		t.Error("expected dangling edge error")
	}
}

func TestEqual(t *testing.T) {
	a := models.Graph{
		Nodes: []models.GraphNode{{ID: "x", Label: "x"}, {ID: "y", Label: "y"}},
		Edges: []models.GraphEdge{{ID: "x->y", SourceID: "x", TargetID: "y"}},
	}
	b := models.Graph{
		Nodes: []models.GraphNode{{ID: "y", Label: "y"}, {ID: "x", Label: "x"}},
		Edges: []models.GraphEdge{{ID: "x->y", SourceID: "x", TargetID: "y"}},
	}
	if !Equal(a, b) {
		t.Error("expected order-insensitive equality")
	}
	b.Edges = nil
	if Equal(a, b) {
		t.Error("graphs with different edges compared equal")
	}
}
