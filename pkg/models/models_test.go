package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func size(n int64) *int64 { return &n }

func sampleTree() *TreeNode {
	return &TreeNode{Name: "repo", Type: NodeDirectory, Children: []*TreeNode{
		{Name: "src", Type: NodeDirectory, Children: []*TreeNode{
			{Name: "a.js", Type: NodeFile, Size: size(10)},
			{Name: "b.js", Type: NodeFile, Size: size(20)},
		}},
		{Name: "empty", Type: NodeDirectory, Children: []*TreeNode{}},
		{Name: "LICENSE", Type: NodeFile},
	}}
}

func TestTreeNodeJSONRoundTrip(t *testing.T) {
	in := sampleTree()
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"name":"src","type":"directory","sizeBytes":30`) {
		t.Errorf("directory size should be derived in output: %s", data)
	}

	var out TreeNode
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, &out) {
		t.Errorf("round trip mismatch\n got %s", data)
	}
}

func TestTreeNodeUnmarshalRejects(t *testing.T) {
	tests := map[string]string{
		"unknown type":       `{"name":"x","type":"symlink"}`,
		"file with children": `{"name":"x","type":"file","children":[{"name":"y","type":"file"}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var n TreeNode
			if err := json.Unmarshal([]byte(data), &n); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTreeNodeTotalSizeAndClone(t *testing.T) {
	root := sampleTree()
	if got := root.TotalSize(); got != 30 {
		t.Errorf("TotalSize = %d, want 30", got)
	}
	c := root.Clone()
	*c.Children[0].Children[0].Size = 99
	c.Children = c.Children[:1]
	if root.TotalSize() != 30 || len(root.Children) != 3 {
		t.Error("clone shares memory with original")
	}
}

func TestRepositoryModelClone(t *testing.T) {
	m := &RepositoryModel{
		Repository: RepositoryKey{Owner: "o", Name: "n"},
		Tree:       sampleTree(),
		Metrics: MetricsSummary{
			LargestFile:          &FileStat{Name: "b.js", Path: "src/b.js", SizeBytes: 20},
			LanguageDistribution: map[string]int{"js": 2},
		},
		Graph: Graph{Nodes: []GraphNode{{ID: "a", Label: "a"}}, Edges: []GraphEdge{}},
	}
	c := m.Clone()
	if !reflect.DeepEqual(m, c) {
		t.Fatal("clone differs")
	}
	c.Metrics.LargestFile.SizeBytes = 1
	c.Metrics.LanguageDistribution["go"] = 1
	c.Graph.Nodes[0].ID = "z"
	if m.Metrics.LargestFile.SizeBytes != 20 || len(m.Metrics.LanguageDistribution) != 1 || m.Graph.Nodes[0].ID != "a" {
		t.Error("clone shares memory with original")
	}
	var nilModel *RepositoryModel
	if nilModel.Clone() != nil {
		t.Error("nil clone should be nil")
	}
}

func TestParseRepositoryKey(t *testing.T) {
	tests := []struct {
		in   string
		want RepositoryKey
	}{
		{"acme/widgets", RepositoryKey{Owner: "acme", Name: "widgets"}},
		{"acme/widgets@main", RepositoryKey{Owner: "acme", Name: "widgets", Branch: "main"}},
		{"acme/widgets@feature/x", RepositoryKey{Owner: "acme", Name: "widgets", Branch: "feature/x"}},
		{" acme/widgets ", RepositoryKey{Owner: "acme", Name: "widgets"}},
	}
	for _, tt := range tests {
		got, err := ParseRepositoryKey(tt.in)
		if err != nil {
			t.Errorf("ParseRepositoryKey(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRepositoryKey(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if again, _ := ParseRepositoryKey(got.String()); again != got {
			t.Errorf("String() does not round trip for %+v", got)
		}
	}

	for _, bad := range []string{"", "acme", "/widgets", "acme/", "acme/widgets@", "a/b/c", "acme/wid gets", "acme/w#x", "acme/w@a@b"} {
		if _, err := ParseRepositoryKey(bad); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("ParseRepositoryKey(%q) err = %v, want ErrMalformedInput", bad, err)
		}
	}
}

func TestDecodeRawRepository(t *testing.T) {
	yamlInput := `
repository: {owner: acme, name: widgets}
files:
  root:
    name: widgets
    type: directory
    children:
      - {name: main.go, type: file, sizeBytes: 12}
modules:
  - modulePath: acme/widgets
    dependencies: [acme/lib]
`
	jsonInput := `{"repository":{"owner":"acme","name":"widgets"},
"files":{"root":{"name":"widgets","type":"directory","children":[{"name":"main.go","type":"file","sizeBytes":12}]}},
"modules":[{"modulePath":"acme/widgets","dependencies":["acme/lib"]}]}`

	a, err := DecodeRawRepository([]byte(yamlInput))
	if err != nil {
		t.Fatal(err)
	}
	b, err := DecodeRawRepository([]byte(jsonInput))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("YAML and JSON decode differently:\n%+v\n%+v", a, b)
	}
	if a.Files.Root == nil || *a.Files.Root.Children[0].Size != 12 {
		t.Errorf("unexpected files %+v", a.Files)
	}

	if _, err := DecodeRawRepository([]byte("repository: [")); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("err = %v, want ErrMalformedInput", err)
	}
}
