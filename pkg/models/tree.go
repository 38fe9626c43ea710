package models

import (
	"encoding/json"
	"fmt"
)

// NodeType tags a TreeNode as a file or a directory.
type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

// Valid reports whether t is a known tag.
func (t NodeType) Valid() bool {
	switch t {
	case NodeFile, NodeDirectory:
		return true
	default:
		return false
	}
}

// TreeNode is one node of a repository tree. Only directories have
// children; a directory's size is derived from its descendants.
type TreeNode struct {
	Name     string
	Type     NodeType
	Size     *int64 // files only, nil when not reported
	Children []*TreeNode
}

// IsDir reports whether n is a directory.
func (n *TreeNode) IsDir() bool {
	return n.Type == NodeDirectory
}

// TotalSize returns the reported size of a file or the summed size of all
// files below a directory. Files without a reported size count as zero.
func (n *TreeNode) TotalSize() int64 {
	if n == nil {
		return 0
	}
	switch n.Type {
	case NodeFile:
		if n.Size == nil {
			return 0
		}
		return *n.Size
	case NodeDirectory:
		var total int64
		for _, c := range n.Children {
			total += c.TotalSize()
		}
		return total
	default:
		return 0
	}
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *TreeNode) Clone() *TreeNode {
	if n == nil {
		return nil
	}
	out := &TreeNode{Name: n.Name, Type: n.Type}
	if n.Size != nil {
		sz := *n.Size
		out.Size = &sz
	}
	if n.Children != nil {
		out.Children = make([]*TreeNode, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

type treeNodeJSON struct {
	Name     string      `json:"name"`
	Type     NodeType    `json:"type"`
	Size     *int64      `json:"sizeBytes,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// MarshalJSON reports the derived size for directories.
func (n *TreeNode) MarshalJSON() ([]byte, error) {
	aux := treeNodeJSON{Name: n.Name, Type: n.Type}
	switch n.Type {
	case NodeFile:
		aux.Size = n.Size
	case NodeDirectory:
		total := n.TotalSize()
		aux.Size = &total
		aux.Children = n.Children
	default:
		return nil, fmt.Errorf("tree node %q: unknown type %q", n.Name, n.Type)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON drops directory sizes, which are always derived.
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	var aux treeNodeJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch aux.Type {
	case NodeFile:
		if len(aux.Children) > 0 {
			return fmt.Errorf("tree node %q: file has children", aux.Name)
		}
		*n = TreeNode{Name: aux.Name, Type: NodeFile, Size: aux.Size}
	case NodeDirectory:
		children := aux.Children
		if children == nil {
			children = []*TreeNode{}
		}
		*n = TreeNode{Name: aux.Name, Type: NodeDirectory, Children: children}
	default:
		return fmt.Errorf("tree node %q: unknown type %q", aux.Name, aux.Type)
	}
	return nil
}
