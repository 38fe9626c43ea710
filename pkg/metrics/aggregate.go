// Package metrics computes summary statistics over a repository tree.
package metrics

import (
	"strings"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// NoExtension is the distribution bucket for files without an extension.
const NoExtension = "none"

// Aggregate walks the tree once, depth first in child order. The root
// stands for the repository itself and is not counted as a directory.
func Aggregate(root *models.TreeNode) models.MetricsSummary {
	s := models.MetricsSummary{LanguageDistribution: map[string]int{}}
	if root == nil {
		return s
	}
	var walk func(n *models.TreeNode, depth int, path string)
	walk = func(n *models.TreeNode, depth int, path string) {
		switch n.Type {
		case models.NodeDirectory:
			if depth > 0 {
				s.TotalDirectories++
			}
			if depth > s.MaxDepth {
				s.MaxDepth = depth
			}
			for _, c := range n.Children {
				childPath := c.Name
				if depth > 0 {
					childPath = path + "/" + c.Name
				}
				walk(c, depth+1, childPath)
			}
		case models.NodeFile:
			s.TotalFiles++
			s.LanguageDistribution[ExtensionOf(n.Name)]++
			if n.Size == nil {
				return
			}
			s.TotalSizeBytes += *n.Size
			if s.LargestFile == nil || *n.Size > s.LargestFile.SizeBytes {
				s.LargestFile = &models.FileStat{Name: n.Name, Path: path, SizeBytes: *n.Size}
			}
		}
	}
	walk(root, 0, "")
	return s
}

// ExtensionOf returns the lowercase extension of a file name without the
// dot, or NoExtension. Dotfiles such as ".gitignore" have no extension.
func ExtensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return NoExtension
	}
	return strings.ToLower(name[i+1:])
}
