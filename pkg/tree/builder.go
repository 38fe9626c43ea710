// Package tree turns raw repository listings into a rooted TreeNode.
package tree

import (
	"fmt"
	"strings"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// Build builds a tree from whichever form the listing carries. An empty
// listing yields a root without children.
func Build(rootName string, listing models.FileListing) (*models.TreeNode, error) {
	switch {
	case listing.Root != nil && len(listing.Entries) > 0:
		return nil, fmt.Errorf("%w: listing has both flat entries and a nested root", models.ErrMalformedInput)
	case listing.Root != nil:
		return BuildNested(rootName, *listing.Root)
	default:
		return BuildFlat(rootName, listing.Entries)
	}
}

type builder struct {
	root  *models.TreeNode
	index map[string]*models.TreeNode // normalized path -> node
}

// BuildFlat builds a tree from path entries. Intermediate directories are
// created on first use and reused afterwards; children keep the order in
// which they were first seen.
func BuildFlat(rootName string, entries []models.FileEntry) (*models.TreeNode, error) {
	b := &builder{
		root:  newDir(rootName),
		index: make(map[string]*models.TreeNode, len(entries)),
	}
	for i, e := range entries {
		if err := b.insert(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return b.root, nil
}

func (b *builder) insert(e models.FileEntry) error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: path %q has unknown type %q", models.ErrMalformedInput, e.Path, e.Type)
	}
	segments, err := splitPath(e.Path)
	if err != nil {
		return err
	}

	parent := b.root
	for i := 0; i < len(segments)-1; i++ {
		parent, err = b.dir(parent, strings.Join(segments[:i+1], "/"), segments[i])
		if err != nil {
			return err
		}
	}

	full := strings.Join(segments, "/")
	name := segments[len(segments)-1]
	existing := b.index[full]

	switch e.Type {
	case models.NodeDirectory:
		if existing == nil {
			_, err := b.dir(parent, full, name)
			return err
		}
		if !existing.IsDir() {
			return conflict(full)
		}
		return nil
	case models.NodeFile:
		if existing != nil {
			if existing.IsDir() {
				return conflict(full)
			}
			return fmt.Errorf("%w: file %q declared twice", models.ErrMalformedInput, full)
		}
		if e.Size != nil && *e.Size < 0 {
			return fmt.Errorf("%w: file %q has negative size %d", models.ErrMalformedInput, full, *e.Size)
		}
		node := &models.TreeNode{Name: name, Type: models.NodeFile, Size: copySize(e.Size)}
		parent.Children = append(parent.Children, node)
		b.index[full] = node
		return nil
	default:
		return fmt.Errorf("%w: path %q has unknown type %q", models.ErrMalformedInput, full, e.Type)
	}
}

// dir returns the directory at path, creating it under parent if needed.
func (b *builder) dir(parent *models.TreeNode, path, name string) (*models.TreeNode, error) {
	if n, ok := b.index[path]; ok {
		if !n.IsDir() {
			return nil, conflict(path)
		}
		return n, nil
	}
	n := newDir(name)
	parent.Children = append(parent.Children, n)
	b.index[path] = n
	return n, nil
}

// splitPath normalizes a repository-relative path into its segments.
func splitPath(p string) ([]string, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(p), "./")
	clean = strings.Trim(clean, "/")
	if clean == "" {
		return nil, fmt.Errorf("%w: empty path %q", models.ErrMalformedInput, p)
	}
	segments := strings.Split(clean, "/")
	for _, s := range segments {
		if s == "" || s == "." || s == ".." {
			return nil, fmt.Errorf("%w: invalid path %q", models.ErrMalformedInput, p)
		}
	}
	return segments, nil
}

func conflict(path string) error {
	return fmt.Errorf("%w: path %q declared as both file and directory", models.ErrMalformedInput, path)
}

func newDir(name string) *models.TreeNode {
	return &models.TreeNode{Name: name, Type: models.NodeDirectory, Children: []*models.TreeNode{}}
}

func copySize(sz *int64) *int64 {
	if sz == nil {
		return nil
	}
	v := *sz
	return &v
}
