package tree

import (
	"errors"
	"testing"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

func size(n int64) *int64 { return &n }

func file(path string, n int64) models.FileEntry {
	return models.FileEntry{Path: path, Type: models.NodeFile, Size: size(n)}
}

func dir(path string) models.FileEntry {
	return models.FileEntry{Path: path, Type: models.NodeDirectory}
}

func childNames(n *models.TreeNode) []string {
	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildFlatScenario(t *testing.T) {
	root, err := BuildFlat("repo", []models.FileEntry{
		file("src/a.js", 10),
		file("src/b.js", 20),
		file("README.md", 5),
	})
	if err != nil {
		t.Fatal(err)
	}

	if root.Name != "repo" || !root.IsDir() {
		t.Fatalf("unexpected root %+v", root)
	}
	if got := childNames(root); !equalStrings(got, []string{"src", "README.md"}) {
		t.Fatalf("root children = %v", got)
	}
	src := root.Children[0]
	if !src.IsDir() {
		t.Fatal("src should be a directory")
	}
	if got := childNames(src); !equalStrings(got, []string{"a.js", "b.js"}) {
		t.Errorf("src children = %v", got)
	}
	if src.Size != nil {
		t.Error("directory size must not be stored")
	}
	if got := src.TotalSize(); got != 30 {
		t.Errorf("src total size = %d, want 30", got)
	}
	if got := root.TotalSize(); got != 35 {
		t.Errorf("root total size = %d, want 35", got)
	}
}

func TestBuildFlatReusesDirectories(t *testing.T) {
	root, err := BuildFlat("repo", []models.FileEntry{
		file("a/b/d", 1),
		file("a/b/c", 1),
		file("a/x", 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected a single top-level directory, got %v", childNames(root))
	}
	a := root.Children[0]
	if got := childNames(a); !equalStrings(got, []string{"b", "x"}) {
		t.Fatalf("a children = %v", got)
	}
	if got := childNames(a.Children[0]); !equalStrings(got, []string{"d", "c"}) {
		t.Errorf("a/b children = %v, want insertion order [d c]", got)
	}
}

func TestBuildFlatEmpty(t *testing.T) {
	root, err := Build("repo", models.FileListing{})
	if err != nil {
		t.Fatal(err)
	}
	if !root.IsDir() || len(root.Children) != 0 {
		t.Errorf("expected empty root, got %+v", root)
	}
}

func TestBuildFlatExplicitDirectories(t *testing.T) {
	root, err := BuildFlat("repo", []models.FileEntry{
		dir("docs"),
		file("docs/guide.md", 3),
		dir("docs"),
		dir("empty/nested"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := childNames(root); !equalStrings(got, []string{"docs", "empty"}) {
		t.Fatalf("root children = %v", got)
	}
	if got := childNames(root.Children[1]); !equalStrings(got, []string{"nested"}) {
		t.Errorf("empty children = %v", got)
	}
	if n := root.Children[1].Children[0]; !n.IsDir() || len(n.Children) != 0 {
		t.Errorf("expected empty directory leaf, got %+v", n)
	}
}

func TestBuildFlatNormalizesPaths(t *testing.T) {
	root, err := BuildFlat("repo", []models.FileEntry{
		file("./src/main.go", 1),
		file("/src/util.go", 1),
		dir("src/"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := childNames(root); !equalStrings(got, []string{"src"}) {
		t.Fatalf("root children = %v", got)
	}
	if got := childNames(root.Children[0]); !equalStrings(got, []string{"main.go", "util.go"}) {
		t.Errorf("src children = %v", got)
	}
}

func TestBuildFlatMalformed(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.FileEntry
	}{
		{"file then directory", []models.FileEntry{file("a", 1), dir("a")}},
		{"directory then file", []models.FileEntry{dir("a"), file("a", 1)}},
		{"file used as parent", []models.FileEntry{file("a", 1), file("a/b", 1)}},
		{"implicit directory then file", []models.FileEntry{file("a/b", 1), file("a", 1)}},
		{"duplicate file", []models.FileEntry{file("a", 1), file("a", 2)}},
		{"empty path", []models.FileEntry{file("", 1)}},
		{"empty segment", []models.FileEntry{file("a//b", 1)}},
		{"dot segment", []models.FileEntry{file("a/../b", 1)}},
		{"negative size", []models.FileEntry{file("a", -1)}},
		{"unknown type", []models.FileEntry{{Path: "a", Type: "symlink"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildFlat("repo", tt.entries)
			if !errors.Is(err, models.ErrMalformedInput) {
				t.Errorf("expected ErrMalformedInput, got %v", err)
			}
		})
	}
}

func TestBuildFileWithoutSize(t *testing.T) {
	root, err := BuildFlat("repo", []models.FileEntry{{Path: "LICENSE", Type: models.NodeFile}})
	if err != nil {
		t.Fatal(err)
	}
	if root.Children[0].Size != nil {
		t.Error("absent size should stay absent")
	}
	if root.TotalSize() != 0 {
		t.Errorf("total size = %d, want 0", root.TotalSize())
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	entries := []models.FileEntry{file("a.txt", 4)}
	root, err := BuildFlat("repo", entries)
	if err != nil {
		t.Fatal(err)
	}
	*entries[0].Size = 99
	if *root.Children[0].Size != 4 {
		t.Error("tree shares size storage with the raw listing")
	}
}

func TestBuildRejectsBothForms(t *testing.T) {
	_, err := Build("repo", models.FileListing{
		Entries: []models.FileEntry{file("a", 1)},
		Root:    &models.RawNode{Name: "repo", Type: models.NodeDirectory},
	})
	if !errors.Is(err, models.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}
