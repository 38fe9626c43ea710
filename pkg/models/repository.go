package models

import (
	"fmt"
	"strings"
	"unicode"
)

// RepositoryKey identifies a repository and the parameters that affect its model.
type RepositoryKey struct {
	Owner  string `json:"owner" yaml:"owner"`
	Name   string `json:"name" yaml:"name"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// String renders the key as owner/name or owner/name@branch.
func (k RepositoryKey) String() string {
	if k.Branch == "" {
		return k.Owner + "/" + k.Name
	}
	return k.Owner + "/" + k.Name + "@" + k.Branch
}

// Repo returns the owner/name identifier without the branch.
func (k RepositoryKey) Repo() string {
	return k.Owner + "/" + k.Name
}

// Validate reports whether the key can be rendered and parsed back unchanged.
func (k RepositoryKey) Validate() error {
	if err := validateKeyPart("owner", k.Owner, "/@#"); err != nil {
		return err
	}
	if err := validateKeyPart("name", k.Name, "/@#"); err != nil {
		return err
	}
	if k.Branch == "" {
		return nil
	}
	return validateKeyPart("branch", k.Branch, "@#")
}

func validateKeyPart(field, v, forbidden string) error {
	if v == "" {
		return fmt.Errorf("%w: repository %s is required", ErrMalformedInput, field)
	}
	for _, r := range v {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(forbidden, r) {
			return fmt.Errorf("%w: repository %s %q contains %q", ErrMalformedInput, field, v, r)
		}
	}
	return nil
}

// ParseRepositoryKey parses owner/name or owner/name@branch.
func ParseRepositoryKey(s string) (RepositoryKey, error) {
	s = strings.TrimSpace(s)
	var k RepositoryKey
	repo, branch, hasBranch := strings.Cut(s, "@")
	owner, name, ok := strings.Cut(repo, "/")
	if !ok {
		return RepositoryKey{}, fmt.Errorf("%w: repository %q must be owner/name", ErrMalformedInput, s)
	}
	k.Owner, k.Name = owner, name
	if hasBranch {
		if branch == "" {
			return RepositoryKey{}, fmt.Errorf("%w: repository %q has an empty branch", ErrMalformedInput, s)
		}
		k.Branch = branch
	}
	if err := k.Validate(); err != nil {
		return RepositoryKey{}, err
	}
	return k, nil
}

// FileEntry is one row of a flat repository listing.
type FileEntry struct {
	Path string   `json:"path" yaml:"path"`
	Type NodeType `json:"type" yaml:"type"`
	Size *int64   `json:"sizeBytes,omitempty" yaml:"sizeBytes,omitempty"`
}

// RawNode is one node of a pre-nested repository listing.
type RawNode struct {
	Name     string    `json:"name" yaml:"name"`
	Type     NodeType  `json:"type" yaml:"type"`
	Size     *int64    `json:"sizeBytes,omitempty" yaml:"sizeBytes,omitempty"`
	Children []RawNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// FileListing carries either a flat listing or a pre-nested one.
// Entries and Root are mutually exclusive.
type FileListing struct {
	Entries []FileEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
	Root    *RawNode    `json:"root,omitempty" yaml:"root,omitempty"`
}

// ModuleDependencies lists the resolved dependencies of one module.
type ModuleDependencies struct {
	ModulePath   string   `json:"modulePath" yaml:"modulePath"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
}

// RawRepository is the input bundle handed over by the fetch collaborator.
type RawRepository struct {
	Repository RepositoryKey        `json:"repository" yaml:"repository"`
	Files      FileListing          `json:"files" yaml:"files"`
	Modules    []ModuleDependencies `json:"modules" yaml:"modules"`
}

// RepositoryModel is the composite artifact stored per cache key.
type RepositoryModel struct {
	Repository  RepositoryKey  `json:"repository"`
	Fingerprint string         `json:"fingerprint"`
	Tree        *TreeNode      `json:"tree"`
	Metrics     MetricsSummary `json:"metrics"`
	Graph       Graph          `json:"graph"`
}

// Clone returns a deep copy that shares no memory with m.
func (m *RepositoryModel) Clone() *RepositoryModel {
	if m == nil {
		return nil
	}
	out := &RepositoryModel{
		Repository:  m.Repository,
		Fingerprint: m.Fingerprint,
		Tree:        m.Tree.Clone(),
		Metrics:     m.Metrics.Clone(),
		Graph:       m.Graph.Clone(),
	}
	return out
}
