package tree

import (
	"fmt"
	"strings"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// BuildNested validates a pre-nested listing and copies it into fresh
// nodes. The root must be a directory; it takes rootName when one is given.
func BuildNested(rootName string, raw models.RawNode) (*models.TreeNode, error) {
	if raw.Type != models.NodeDirectory {
		return nil, fmt.Errorf("%w: nested root %q must be a directory, got %q", models.ErrMalformedInput, raw.Name, raw.Type)
	}
	name := rootName
	if name == "" {
		name = raw.Name
	}
	root := newDir(name)
	if err := copyChildren(root, raw.Children, ""); err != nil {
		return nil, err
	}
	return root, nil
}

func copyChildren(dst *models.TreeNode, children []models.RawNode, prefix string) error {
	seen := make(map[string]struct{}, len(children))
	for _, c := range children {
		path := prefix + c.Name
		if c.Name == "" || c.Name == "." || c.Name == ".." || strings.Contains(c.Name, "/") {
			return fmt.Errorf("%w: invalid node name %q under %q", models.ErrMalformedInput, c.Name, prefix)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: path %q declared twice", models.ErrMalformedInput, path)
		}
		seen[c.Name] = struct{}{}

		switch c.Type {
		case models.NodeFile:
			if len(c.Children) > 0 {
				return fmt.Errorf("%w: file %q has children", models.ErrMalformedInput, path)
			}
			if c.Size != nil && *c.Size < 0 {
				return fmt.Errorf("%w: file %q has negative size %d", models.ErrMalformedInput, path, *c.Size)
			}
			dst.Children = append(dst.Children, &models.TreeNode{Name: c.Name, Type: models.NodeFile, Size: copySize(c.Size)})
		case models.NodeDirectory:
			dir := newDir(c.Name)
			if err := copyChildren(dir, c.Children, path+"/"); err != nil {
				return err
			}
			dst.Children = append(dst.Children, dir)
		default:
			return fmt.Errorf("%w: path %q has unknown type %q", models.ErrMalformedInput, path, c.Type)
		}
	}
	return nil
}
